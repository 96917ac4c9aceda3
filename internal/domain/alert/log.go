package alert

import "time"

// Level classifies a system log row for the dashboard log panel.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
)

// LogEntry is an append-only audit record of a scan/dispatch outcome.
// The dispatcher only ever creates entries; it never reads them back.
type LogEntry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Level     Level     `json:"level"`
	CreatedAt time.Time `json:"createdAt"`
}
