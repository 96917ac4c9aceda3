package scan

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Worker runs the scan on a fixed schedule. The gate inside the use case
// still applies, so a manual scan and the worker never collide.
type Worker struct {
	uc       *UseCase
	identity RunInput
	interval time.Duration
	stopChan chan struct{}
	log      *zap.Logger
}

func NewWorker(uc *UseCase, identity RunInput, interval time.Duration, logger *zap.Logger) *Worker {
	if interval <= 0 {
		interval = time.Duration(15) * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{
		uc:       uc,
		identity: identity,
		interval: interval,
		stopChan: make(chan struct{}),
		log:      logger,
	}
}

// Start launches the loop. The first run happens immediately.
func (w *Worker) Start() {
	w.log.Info("starting scan worker", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	go func() {
		w.runOnce()

		for {
			select {
			case <-ticker.C:
				w.runOnce()
			case <-w.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

func (w *Worker) Stop() {
	close(w.stopChan)
}

func (w *Worker) runOnce() {
	ctx := context.Background()
	res, err := w.uc.Run(ctx, w.identity)
	if err != nil {
		w.log.Error("scan run failed", zap.Error(err))
		return
	}
	if !res.Triggered {
		w.log.Debug("scan not triggered", zap.String("reason", res.Reason))
		return
	}
	w.log.Info("scan completed",
		zap.Int("checked", res.Stats.Checked),
		zap.Int("sent", res.Stats.Sent),
		zap.Int("skipped", res.Stats.Skipped),
		zap.Int("errors", res.Stats.Errors))
}
