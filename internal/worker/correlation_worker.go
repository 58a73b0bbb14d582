package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/correlation"
)

// CorrelationWorker drives the correlation engine on a fixed interval.
// Each cycle runs under a deadline equal to the interval, so a hung
// mail-source operation can never stall the loop past one tick. A
// failed cycle is logged and the next tick proceeds independently.
type CorrelationWorker struct {
	engine   *correlation.Engine
	interval time.Duration
	logger   *zap.Logger
}

// NewCorrelationWorker constructs the worker.
func NewCorrelationWorker(engine *correlation.Engine, interval time.Duration, logger *zap.Logger) *CorrelationWorker {
	return &CorrelationWorker{engine: engine, interval: interval, logger: logger}
}

// Run polls until ctx is cancelled. The first cycle runs immediately.
func (w *CorrelationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		cycleCtx, cancel := context.WithTimeout(ctx, w.interval)
		if err := w.engine.RunCycle(cycleCtx); err != nil {
			w.logger.Error("mail poll cycle failed", zap.Error(err))
		} else {
			w.logger.Debug("mail poll cycle completed")
		}
		cancel()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
