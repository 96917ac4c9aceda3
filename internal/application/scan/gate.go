package scan

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// MinInterval is the floor between two scans, regardless of the configured
// per-user interval.
const MinInterval = 90 * time.Second

// RecencyChecker reports when the last scan was persisted, so multiple
// instances sharing a database do not double-scan.
type RecencyChecker interface {
	LastScanAt(ctx context.Context) (*time.Time, error)
}

// Gate serializes scan runs. It combines an in-process timestamp with a
// database recency check; the in-process check is cheap, the database one
// covers restarts and additional instances.
type Gate struct {
	mu       sync.Mutex
	last     time.Time
	interval time.Duration
	recency  RecencyChecker
}

func NewGate(recency RecencyChecker, interval time.Duration) *Gate {
	if interval <= 0 {
		interval = MinInterval
	}
	return &Gate{interval: interval, recency: recency}
}

// Acquire reports whether a scan may start at now. When denied it returns
// the denial reason and a user-facing message. A granted acquire stamps the
// gate immediately.
func (g *Gate) Acquire(ctx context.Context, now time.Time) (bool, string, string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.last.IsZero() {
		elapsed := now.Sub(g.last)
		if elapsed < g.interval {
			wait := int(math.Ceil((g.interval - elapsed).Seconds()))
			msg := fmt.Sprintf("Última varredura foi há menos de %ds. Próxima em ~%ds.",
				int(math.Ceil(g.interval.Seconds())), wait)
			return false, "scan_recente", msg
		}
	}

	if g.recency != nil {
		lastDB, err := g.recency.LastScanAt(ctx)
		// A recency lookup failure never blocks the scan.
		if err == nil && lastDB != nil {
			elapsed := now.Sub(*lastDB)
			if elapsed < g.interval {
				msg := fmt.Sprintf("Varredura recente detectada (há %ds). Aguardando intervalo mínimo.",
					int(math.Ceil(elapsed.Seconds())))
				return false, "scan_recente_db", msg
			}
		}
	}

	g.last = now
	return true, "", ""
}
