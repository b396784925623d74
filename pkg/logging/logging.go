package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// KeyError is the key used for errors in log attributes.
	KeyError = "err"

	// KeyDal is the key used to identify a data access layer.
	KeyDal = "dal"

	// KeyApp is the key used for the application name.
	KeyApp = "app"

	// KeyGuildID is the key used for guild IDs.
	KeyGuildID = "guild_id"

	// KeyUserID is the key used for user IDs.
	KeyUserID = "user_id"

	// KeyChannelID is the key used for channel IDs.
	KeyChannelID = "channel_id"

	// KeyTicketType is the key used for the ticket type (button label).
	KeyTicketType = "ticket_type"

	// KeyCustomID is the key used for component custom IDs.
	KeyCustomID = "custom_id"

	// KeyComponent is the key used to identify a service component.
	KeyComponent = "component"
)

// Name is the name of the application that is logging.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// Name is the application name attached to every record.
	Name Name

	// Level is the minimum level that will be written.
	Level slog.Level

	// Output is where records are written. Defaults to stdout.
	Output io.Writer
}

// NewConfig creates a new logging configuration for the given application.
// The level is read from the LOG_LEVEL environment variable.
func NewConfig(name Name) *Config {
	lvl, err := ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		lvl = slog.LevelInfo
	}

	return &Config{
		Name:   name,
		Level:  lvl,
		Output: os.Stdout,
	}
}

// CommonLogger creates the JSON logger used across the application and sets it as the default.
func CommonLogger(cfg *Config) (*slog.Logger, error) {
	if cfg == nil {
		return nil, fmt.Errorf("logging config is nil")
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("logging config has no application name")
	}

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{
		AddSource: cfg.Level <= slog.LevelDebug,
		Level:     cfg.Level,
	})

	l := slog.New(h).With(slog.String(KeyApp, string(cfg.Name)))
	slog.SetDefault(l)
	return l, nil
}

// ParseLevel parses a level name. An empty string is treated as info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
