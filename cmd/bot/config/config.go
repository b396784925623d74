package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/transcript"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the name of the application.
	AppName = "warden"

	// EnvBotToken is the environment variable for the bot token.
	EnvBotToken = `BOT_TOKEN`

	// EnvApplicationId is the environment variable for the application ID.
	EnvApplicationId = `APPLICATION_ID`

	// EnvStoreDriver is the environment variable selecting the durable store.
	EnvStoreDriver = `STORE_DRIVER`

	// EnvMongoUri is the environment variable for the MongoDB URI.
	EnvMongoUri = `MONGO_URI`

	// EnvMongoDatabase is the environment variable for the MongoDB database name.
	EnvMongoDatabase = `MONGO_DATABASE`

	// EnvDatabaseURL is the environment variable for the postgres DSN.
	EnvDatabaseURL = `DATABASE_URL`

	// EnvMonitoringPort is the environment variable for the monitoring port.
	EnvMonitoringPort = `MONITORING_PORT`

	EnvLogLevel              = `LOG_LEVEL`
	EnvSettingsCacheSize     = `SETTINGS_CACHE_SIZE`
	EnvSettingsCacheTTL      = `SETTINGS_CACHE_TTL`
	EnvTicketRateLimitCalls  = `TICKET_RATE_LIMIT_CALLS`
	EnvTicketRateLimitWindow = `TICKET_RATE_LIMIT_WINDOW`
	EnvTranscriptFormat      = `TRANSCRIPT_FORMAT`
	EnvSweepInterval         = `SWEEP_INTERVAL`
	EnvSetupTimeout          = `SETUP_TIMEOUT`
	EnvAuditQueueSize        = `AUDIT_QUEUE_SIZE`
	EnvAuditWritesPerSecond  = `AUDIT_WRITES_PER_SECOND`
)

// StoreDriver is the durable store backing the bot.
type StoreDriver string

const (
	StoreMongo    StoreDriver = "mongo"
	StorePostgres StoreDriver = "postgres"
	StoreMemory   StoreDriver = "memory"
)

// Config is the configuration of the bot process.
type Config struct {
	BotToken      string
	ApplicationId string

	Store StoreConfig

	MonitoringPort string
	LogLevel       slog.Level

	Tickets TicketConfig
	Audit   AuditConfig
}

// StoreConfig selects and addresses the durable store.
type StoreConfig struct {
	Driver        StoreDriver
	MongoUri      string
	MongoDatabase string
	DatabaseURL   string
}

// TicketConfig tunes the ticket system.
type TicketConfig struct {
	SettingsCacheSize int
	SettingsCacheTTL  time.Duration
	RateLimitCalls    int
	RateLimitWindow   time.Duration
	TranscriptFormat  transcript.Format
	SweepInterval     time.Duration
	SetupTimeout      time.Duration
}

// AuditConfig tunes the audit log recorder.
type AuditConfig struct {
	QueueSize       int
	WritesPerSecond float64
}

// Load reads the configuration from the environment. Values in a .env file in the working directory are loaded
// first; a missing file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", slog.String(logging.KeyError, err.Error()))
	}

	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault(EnvStoreDriver, string(StoreMongo))
	v.SetDefault(EnvMongoDatabase, "warden")
	v.SetDefault(EnvMonitoringPort, "8080")
	v.SetDefault(EnvLogLevel, "info")
	v.SetDefault(EnvSettingsCacheSize, 500)
	v.SetDefault(EnvSettingsCacheTTL, 5*time.Minute)
	v.SetDefault(EnvTicketRateLimitCalls, 1)
	v.SetDefault(EnvTicketRateLimitWindow, 5*time.Minute)
	v.SetDefault(EnvTranscriptFormat, string(transcript.FormatPlain))
	v.SetDefault(EnvSweepInterval, time.Hour)
	v.SetDefault(EnvSetupTimeout, 60*time.Second)
	v.SetDefault(EnvAuditQueueSize, 256)
	v.SetDefault(EnvAuditWritesPerSecond, 20.0)

	cfg := &Config{
		BotToken:       v.GetString(EnvBotToken),
		ApplicationId:  v.GetString(EnvApplicationId),
		MonitoringPort: v.GetString(EnvMonitoringPort),
		Store: StoreConfig{
			Driver:        StoreDriver(strings.ToLower(v.GetString(EnvStoreDriver))),
			MongoUri:      v.GetString(EnvMongoUri),
			MongoDatabase: v.GetString(EnvMongoDatabase),
			DatabaseURL:   v.GetString(EnvDatabaseURL),
		},
		Tickets: TicketConfig{
			SettingsCacheSize: v.GetInt(EnvSettingsCacheSize),
			SettingsCacheTTL:  v.GetDuration(EnvSettingsCacheTTL),
			RateLimitCalls:    v.GetInt(EnvTicketRateLimitCalls),
			RateLimitWindow:   v.GetDuration(EnvTicketRateLimitWindow),
			SweepInterval:     v.GetDuration(EnvSweepInterval),
			SetupTimeout:      v.GetDuration(EnvSetupTimeout),
		},
		Audit: AuditConfig{
			QueueSize:       v.GetInt(EnvAuditQueueSize),
			WritesPerSecond: v.GetFloat64(EnvAuditWritesPerSecond),
		},
	}

	var err error
	cfg.LogLevel, err = logging.ParseLevel(v.GetString(EnvLogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
	}

	cfg.Tickets.TranscriptFormat, err = transcript.ParseFormat(v.GetString(EnvTranscriptFormat))
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", EnvTranscriptFormat, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every required value is present and every tunable is in range.
func (c *Config) Validate() error {
	var errs []error

	if c.BotToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvBotToken))
	}
	if c.ApplicationId == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvApplicationId))
	}

	if err := c.Store.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Tickets.SettingsCacheSize <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvSettingsCacheSize))
	}
	if c.Tickets.SettingsCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvSettingsCacheTTL))
	}
	if c.Tickets.RateLimitCalls <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvTicketRateLimitCalls))
	}
	if c.Tickets.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvTicketRateLimitWindow))
	}
	if c.Tickets.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvSweepInterval))
	}
	if c.Tickets.SetupTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvSetupTimeout))
	}
	if c.Audit.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvAuditQueueSize))
	}
	if c.Audit.WritesPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvAuditWritesPerSecond))
	}

	return errors.Join(errs...)
}

// Validate checks the store configuration. It is also used by the migrate command, which needs no bot token.
func (s StoreConfig) Validate() error {
	switch s.Driver {
	case StoreMongo:
		if s.MongoUri == "" {
			return fmt.Errorf("%s is required for the %s store", EnvMongoUri, StoreMongo)
		}
	case StorePostgres:
		if s.DatabaseURL == "" {
			return fmt.Errorf("%s is required for the %s store", EnvDatabaseURL, StorePostgres)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown %s %q", EnvStoreDriver, s.Driver)
	}
	return nil
}

// LoadStore reads only the store configuration.
func LoadStore() (StoreConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", slog.String(logging.KeyError, err.Error()))
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(EnvStoreDriver, string(StoreMongo))
	v.SetDefault(EnvMongoDatabase, "warden")

	s := StoreConfig{
		Driver:        StoreDriver(strings.ToLower(v.GetString(EnvStoreDriver))),
		MongoUri:      v.GetString(EnvMongoUri),
		MongoDatabase: v.GetString(EnvMongoDatabase),
		DatabaseURL:   v.GetString(EnvDatabaseURL),
	}
	return s, s.Validate()
}
