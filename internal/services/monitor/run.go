package monitor

import (
	"context"
	"log/slog"
	"time"
)

// Runner owns the timer between check cycles. The monitor itself has
// no scheduling logic; this driver calls it at the configured interval
// and on demand via Trigger.
type Runner struct {
	m         *Monitor
	interval  time.Duration
	triggerCh chan struct{}
}

func NewRunner(m *Monitor, interval time.Duration) *Runner {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Runner{
		m:         m,
		interval:  interval,
		triggerCh: make(chan struct{}, 1),
	}
}

// Trigger forces an immediate check cycle (best-effort, non-blocking).
func (r *Runner) Trigger() {
	select {
	case r.triggerCh <- struct{}{}:
	default:
	}
}

// Run executes one cycle immediately, then one per interval until the
// context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.runOnce(ctx)

	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			r.runOnce(ctx)
		case <-r.triggerCh:
			r.runOnce(ctx)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	if _, err := r.m.CheckAllPrices(ctx); err != nil && ctx.Err() == nil {
		slog.Error("check cycle failed", "error", err.Error())
	}
}
