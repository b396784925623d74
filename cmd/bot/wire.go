//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/Jacobbrewer1/warden/cmd/bot/config"
	"github.com/Jacobbrewer1/warden/pkg/clock"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/tickets"
	"github.com/google/wire"
	"github.com/gorilla/mux"
)

func InitializeApp(ctx context.Context, cfg *config.Config) (*App, error) {
	wire.Build(
		wire.Value(logging.Name(config.AppName)),
		newLoggingConfig,
		logging.CommonLogger,
		mux.NewRouter,
		newSession,
		newStore,
		clock.Real,
		newSettingsStore,
		newLimiter,
		newTranscriptGenerator,
		newAuditRecorder,
		newDiscordPlatform,
		wire.Bind(new(tickets.Platform), new(*discordPlatform)),
		newManager,
		tickets.NewComponentRegistry,
		newReplyWaiter,
		NewApp,
	)
	return new(App), nil
}
