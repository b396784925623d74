package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/transcript"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv(EnvBotToken, "token")
	t.Setenv(EnvApplicationId, "app")
	t.Setenv(EnvMongoUri, "mongodb://localhost:27017")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := load(viper.New())
	require.NoError(t, err)

	require.Equal(t, "token", cfg.BotToken)
	require.Equal(t, "app", cfg.ApplicationId)
	require.Equal(t, StoreMongo, cfg.Store.Driver)
	require.Equal(t, "warden", cfg.Store.MongoDatabase)
	require.Equal(t, "8080", cfg.MonitoringPort)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)
	require.Equal(t, TicketConfig{
		SettingsCacheSize: 500,
		SettingsCacheTTL:  5 * time.Minute,
		RateLimitCalls:    1,
		RateLimitWindow:   5 * time.Minute,
		TranscriptFormat:  transcript.FormatPlain,
		SweepInterval:     time.Hour,
		SetupTimeout:      60 * time.Second,
	}, cfg.Tickets)
	require.Equal(t, AuditConfig{QueueSize: 256, WritesPerSecond: 20}, cfg.Audit)
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvStoreDriver, "Postgres")
	t.Setenv(EnvDatabaseURL, "postgres://warden@localhost/warden")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvSettingsCacheTTL, "30s")
	t.Setenv(EnvTicketRateLimitCalls, "3")
	t.Setenv(EnvTranscriptFormat, "html")

	cfg, err := load(viper.New())
	require.NoError(t, err)

	require.Equal(t, StorePostgres, cfg.Store.Driver)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, 30*time.Second, cfg.Tickets.SettingsCacheTTL)
	require.Equal(t, 3, cfg.Tickets.RateLimitCalls)
	require.Equal(t, transcript.FormatStyled, cfg.Tickets.TranscriptFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "MissingToken", env: map[string]string{EnvBotToken: ""}, wantErr: "BOT_TOKEN is required"},
		{name: "MissingMongoUri", env: map[string]string{EnvMongoUri: ""}, wantErr: "MONGO_URI is required"},
		{name: "PostgresWithoutDSN", env: map[string]string{EnvStoreDriver: "postgres"}, wantErr: "DATABASE_URL is required"},
		{name: "UnknownDriver", env: map[string]string{EnvStoreDriver: "redis"}, wantErr: `unknown STORE_DRIVER "redis"`},
		{name: "BadLogLevel", env: map[string]string{EnvLogLevel: "loud"}, wantErr: "invalid LOG_LEVEL"},
		{name: "BadTranscriptFormat", env: map[string]string{EnvTranscriptFormat: "pdf"}, wantErr: "invalid TRANSCRIPT_FORMAT"},
		{name: "ZeroRateLimit", env: map[string]string{EnvTicketRateLimitCalls: "0"}, wantErr: "TICKET_RATE_LIMIT_CALLS must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load(viper.New())
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_MemoryStoreNeedsNoAddress(t *testing.T) {
	setRequired(t)
	t.Setenv(EnvMongoUri, "")
	t.Setenv(EnvStoreDriver, "memory")

	cfg, err := load(viper.New())
	require.NoError(t, err)
	require.Equal(t, StoreMemory, cfg.Store.Driver)
}
