package tickets

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/cache"
	"github.com/Jacobbrewer1/warden/pkg/clock"
	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
)

const (
	// DefaultSettingsTTL is how long settings stay cached.
	DefaultSettingsTTL = 5 * time.Minute

	// DefaultSettingsCacheSize is the number of guilds whose settings are cached.
	DefaultSettingsCacheSize = 500

	settingsKeyPrefix = "ticket_settings_"
)

// SettingsStore serves guild ticket settings from a cache in front of the durable store.
//
// Storage failures never reach the caller: reads fall back to defaults and writes are logged and dropped.
// Callers always get their own copy of the settings.
type SettingsStore struct {
	l     *slog.Logger
	dal   dataaccess.TicketSettingsDal
	cache *cache.Cache[string, *entities.TicketSettings]
	ttl   time.Duration
	clk   clock.Clock

	// locks serializes first-access creation and read-modify-write updates per guild.
	locks *keyedMutex
}

// NewSettingsStore creates a settings store. A non-positive ttl uses DefaultSettingsTTL.
func NewSettingsStore(l *slog.Logger, dal dataaccess.TicketSettingsDal, c *cache.Cache[string, *entities.TicketSettings], ttl time.Duration, clk clock.Clock) *SettingsStore {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	if clk == nil {
		clk = clock.Real()
	}
	if c == nil {
		c = cache.New[string, *entities.TicketSettings](DefaultSettingsCacheSize, clk)
	}

	return &SettingsStore{
		l:     l.With(slog.String(logging.KeyComponent, "ticket_settings")),
		dal:   dal,
		cache: c,
		ttl:   ttl,
		clk:   clk,
		locks: newKeyedMutex(),
	}
}

func settingsKey(guildID string) string {
	return settingsKeyPrefix + guildID
}

// GetSettings returns the settings of a guild, creating and persisting the defaults on first access.
func (s *SettingsStore) GetSettings(ctx context.Context, guildID string) *entities.TicketSettings {
	if settings, ok := s.cache.Get(settingsKey(guildID)); ok {
		SettingsCacheRequests.WithLabelValues("hit").Inc()
		return settings.Clone()
	}
	SettingsCacheRequests.WithLabelValues("miss").Inc()

	unlock := s.locks.Lock(guildID)
	defer unlock()

	return s.load(ctx, guildID).Clone()
}

// load reads through to the store. The caller must hold the guild lock.
func (s *SettingsStore) load(ctx context.Context, guildID string) *entities.TicketSettings {
	// Another caller may have filled the cache while we waited for the lock.
	if settings, ok := s.cache.Get(settingsKey(guildID)); ok {
		return settings
	}

	l := s.l.With(slog.String(logging.KeyGuildID, guildID))

	settings, err := s.dal.GetTicketSettings(ctx, guildID)
	switch {
	case err == nil:
		settings.Normalize()
	case errors.Is(err, dataaccess.ErrNotFound):
		settings = entities.DefaultTicketSettings(guildID)
		settings.UpdatedAt = custom.NewDatetime(s.clk.Now().UTC())
		if err := s.dal.SaveTicketSettings(ctx, settings); err != nil {
			l.Error("Error persisting default ticket settings", slog.String(logging.KeyError, err.Error()))
			return settings
		}
		l.Debug("Created default ticket settings")
	default:
		// Defaults are not cached so the next read retries the store.
		l.Error("Error getting ticket settings, using defaults", slog.String(logging.KeyError, err.Error()))
		return entities.DefaultTicketSettings(guildID)
	}

	s.cache.Set(settingsKey(guildID), settings.Clone(), s.ttl)
	return settings
}

// SaveSettings upserts the whole record and invalidates the cached copy. Errors are logged and dropped.
func (s *SettingsStore) SaveSettings(ctx context.Context, settings *entities.TicketSettings) {
	unlock := s.locks.Lock(settings.GuildID)
	defer unlock()

	s.save(ctx, settings)
}

func (s *SettingsStore) save(ctx context.Context, settings *entities.TicketSettings) {
	toSave := settings.Clone()
	toSave.Normalize()
	toSave.UpdatedAt = custom.NewDatetime(s.clk.Now().UTC())

	if err := s.dal.SaveTicketSettings(ctx, toSave); err != nil {
		s.l.Error("Error saving ticket settings",
			slog.String(logging.KeyGuildID, settings.GuildID),
			slog.String(logging.KeyError, err.Error()),
		)
	}

	s.cache.Invalidate(settingsKey(settings.GuildID))
}

// Update applies fn to the current settings and saves the result. Updates for the same guild run one at a time.
// When fn returns an error nothing is saved and the error is returned.
func (s *SettingsStore) Update(ctx context.Context, guildID string, fn func(*entities.TicketSettings) error) (*entities.TicketSettings, error) {
	unlock := s.locks.Lock(guildID)
	defer unlock()

	settings := s.load(ctx, guildID).Clone()
	if err := fn(settings); err != nil {
		return nil, err
	}

	s.save(ctx, settings)
	return settings.Clone(), nil
}

// Invalidate drops the cached settings of a guild.
func (s *SettingsStore) Invalidate(guildID string) {
	s.cache.Invalidate(settingsKey(guildID))
}

// EvictExpired removes expired cache entries and returns how many were removed.
func (s *SettingsStore) EvictExpired() int {
	return s.cache.EvictExpired()
}

// Preload reads the settings of every guild so the first interactions hit the cache.
func (s *SettingsStore) Preload(ctx context.Context, guildIDs []string) {
	for _, id := range guildIDs {
		if ctx.Err() != nil {
			return
		}
		s.GetSettings(ctx, id)
	}
	s.l.Info("Preloaded ticket settings", slog.Int("guilds", len(guildIDs)))
}
