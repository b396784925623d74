package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alexliesenfeld/health"
)

func (a *App) healthCheck() Controller {
	checker := health.NewChecker(
		// Set a TTL of 1 second for the results of the checks.
		health.WithCacheDuration(1*time.Second),

		// Set a timeout of 2 seconds for the checks.
		health.WithTimeout(2*time.Second),

		// The ticket store.
		health.WithCheck(health.Check{
			Name: "store",
			Check: func(ctx context.Context) error {
				if err := a.store.Ping(ctx); err != nil {
					return fmt.Errorf("failed to ping store: %w", err)
				}
				return nil
			},
			Timeout:        2 * time.Second,
			StatusListener: a.healthStatusListener,
		}),

		// Monitor the health of the Discord API.
		health.WithPeriodicCheck(15*time.Second, 5*time.Second, health.Check{
			Name: "discord_api",
			Check: func(_ context.Context) error {
				if _, err := a.Session().GatewayBot(); err != nil {
					return fmt.Errorf("failed to ping Discord API: %w", err)
				}
				return nil
			},
			Timeout:        3 * time.Second,
			StatusListener: a.healthStatusListener,
		}),
	)

	return Controller(health.NewHandler(checker))
}

func (a *App) healthStatusListener(_ context.Context, name string, state health.CheckState) {
	a.Log().Info("Health check status changed",
		slog.String("name", name),
		slog.String("state", string(state.Status)),
	)
}
