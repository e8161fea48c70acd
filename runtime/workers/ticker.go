package workers

import (
	"context"
	"log/slog"
	"time"
)

// TickerWorker invokes fn at a fixed interval until its context ends.
// fn must never block: periodic tasks only enqueue work, they do not
// mutate shared state directly.
type TickerWorker struct {
	name     string
	interval time.Duration
	fn       func(now time.Time)
	log      *slog.Logger
}

func NewTicker(name string, interval time.Duration, fn func(now time.Time), log *slog.Logger) *TickerWorker {
	return &TickerWorker{name: name, interval: interval, fn: fn, log: log}
}

func (w *TickerWorker) Run(ctx context.Context) error {
	w.log.Debug("Starting ticker", "name", w.name, "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping ticker", "name", w.name)
			return ctx.Err()
		case now := <-ticker.C:
			w.fn(now.UTC())
		}
	}
}
