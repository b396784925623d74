package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/cmd/bot/config"
	"github.com/Jacobbrewer1/warden/pkg/auditlog"
	"github.com/Jacobbrewer1/warden/pkg/cache"
	"github.com/Jacobbrewer1/warden/pkg/clock"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/memory"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/postgres"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/ratelimit"
	"github.com/Jacobbrewer1/warden/pkg/tickets"
	"github.com/Jacobbrewer1/warden/pkg/transcript"
)

const storeConnectTimeout = 15 * time.Second

func newLoggingConfig(name logging.Name, cfg *config.Config) *logging.Config {
	c := logging.NewConfig(name)
	c.Level = cfg.LogLevel
	return c
}

func newSession(cfg *config.Config) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	// The setup wizard reads the role mentions of plain messages.
	s.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)
	return s, nil
}

// newStore connects to the configured durable store.
func newStore(ctx context.Context, l *slog.Logger, cfg *config.Config) (dataaccess.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, storeConnectTimeout)
	defer cancel()

	switch cfg.Store.Driver {
	case config.StoreMongo:
		conn := &connection.MongoDB{
			URI:     cfg.Store.MongoUri,
			Timeout: storeConnectTimeout,
		}
		client, err := conn.Connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
		}

		store := dataaccess.NewMongoStore(l, client, cfg.Store.MongoDatabase)
		if err := store.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("error creating MongoDB indexes: %w", err)
		}
		return store, nil
	case config.StorePostgres:
		pool, err := postgres.Connect(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("error connecting to postgres: %w", err)
		}
		return postgres.NewStore(l, pool), nil
	case config.StoreMemory:
		l.Warn("Using the in-memory store, tickets will not survive a restart")
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func newSettingsStore(l *slog.Logger, store dataaccess.Store, cfg *config.Config, clk clock.Clock) *tickets.SettingsStore {
	c := cache.New[string, *entities.TicketSettings](cfg.Tickets.SettingsCacheSize, clk)
	return tickets.NewSettingsStore(l, store, c, cfg.Tickets.SettingsCacheTTL, clk)
}

func newLimiter(cfg *config.Config, clk clock.Clock) *ratelimit.Limiter {
	return ratelimit.New(cfg.Tickets.RateLimitCalls, cfg.Tickets.RateLimitWindow, clk)
}

func newTranscriptGenerator(cfg *config.Config, clk clock.Clock) *transcript.Generator {
	return transcript.NewGenerator(cfg.Tickets.TranscriptFormat, clk)
}

func newAuditRecorder(l *slog.Logger, store dataaccess.Store, cfg *config.Config) *auditlog.Recorder {
	return auditlog.NewRecorder(l, store, cfg.Audit.QueueSize, cfg.Audit.WritesPerSecond)
}

func newManager(
	l *slog.Logger,
	platform tickets.Platform,
	settings *tickets.SettingsStore,
	store dataaccess.Store,
	audit *auditlog.Recorder,
	limiter *ratelimit.Limiter,
	transcripts *transcript.Generator,
	clk clock.Clock,
) *tickets.Manager {
	return tickets.NewManager(l, platform, settings, store, audit, limiter, transcripts, clk)
}
