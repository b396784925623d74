package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/cmd/bot/monitoring"
)

// sweepTarget is an in-memory structure whose expired entries are removed periodically.
type sweepTarget struct {
	name  string
	sweep func() int
}

func (a *App) runSweeper(ctx context.Context, interval time.Duration) {
	runSweeps(ctx, a.l, interval,
		sweepTarget{name: "settings_cache", sweep: a.manager.Settings().EvictExpired},
		sweepTarget{name: "rate_limiter", sweep: a.manager.SweepLimiter},
	)
}

// runSweeps sweeps every target each interval until ctx is done.
func runSweeps(ctx context.Context, l *slog.Logger, interval time.Duration, targets ...sweepTarget) {
	if interval <= 0 {
		l.Warn("Sweeper disabled", slog.Duration("interval", interval))
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, t := range targets {
				removed := t.sweep()
				if removed == 0 {
					continue
				}
				monitoring.SweepRemoved.WithLabelValues(t.name).Add(float64(removed))
				l.Debug("Swept expired entries",
					slog.String("target", t.name),
					slog.Int("removed", removed),
				)
			}
		}
	}
}
