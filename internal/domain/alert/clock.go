package alert

import "time"

// Clock abstracts wall-clock reads so hour-bucket and cooldown decisions can
// be simulated in tests without real delays.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
