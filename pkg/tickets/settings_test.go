package tickets

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/cache"
	"github.com/Jacobbrewer1/warden/pkg/clock"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/memory"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

// countingDal counts reads and can fail on demand.
type countingDal struct {
	*memory.Store

	mut     sync.Mutex
	reads   int
	saves   int
	readErr error
	saveErr error
}

func (d *countingDal) GetTicketSettings(ctx context.Context, guildID string) (*entities.TicketSettings, error) {
	d.mut.Lock()
	d.reads++
	err := d.readErr
	d.mut.Unlock()

	if err != nil {
		return nil, err
	}
	return d.Store.GetTicketSettings(ctx, guildID)
}

func (d *countingDal) SaveTicketSettings(ctx context.Context, s *entities.TicketSettings) error {
	d.mut.Lock()
	d.saves++
	err := d.saveErr
	d.mut.Unlock()

	if err != nil {
		return err
	}
	return d.Store.SaveTicketSettings(ctx, s)
}

func (d *countingDal) counts() (reads, saves int) {
	d.mut.Lock()
	defer d.mut.Unlock()
	return d.reads, d.saves
}

func newTestSettingsStore() (*SettingsStore, *countingDal, *clock.Fake) {
	clk := clock.NewFake(testNow)
	dal := &countingDal{Store: memory.NewStore()}
	s := NewSettingsStore(discardLogger(), dal, cache.New[string, *entities.TicketSettings](10, clk), time.Minute, clk)
	return s, dal, clk
}

func TestSettingsStore_DefaultsOnFirstAccess(t *testing.T) {
	ctx := context.Background()
	s, dal, _ := newTestSettingsStore()

	first := s.GetSettings(ctx, "G1")
	second := s.GetSettings(ctx, "G1")

	require.Equal(t, first, second)
	require.Equal(t, "G1", first.GuildID)
	require.Empty(t, first.Buttons)
	require.Equal(t, entities.DefaultEmbedColor, first.EmbedColor)
	require.False(t, first.HasModeratorRole())
	require.True(t, testNow.Equal(first.UpdatedAt.Time()))

	require.Equal(t, 1, dal.SettingsCount())
	reads, saves := dal.counts()
	require.Equal(t, 1, reads, "the second read is served from the cache")
	require.Equal(t, 1, saves)
}

func TestSettingsStore_CacheExpires(t *testing.T) {
	ctx := context.Background()
	s, dal, clk := newTestSettingsStore()

	s.GetSettings(ctx, "G1")
	clk.Advance(59 * time.Second)
	s.GetSettings(ctx, "G1")
	reads, _ := dal.counts()
	require.Equal(t, 1, reads)

	clk.Advance(time.Second)
	s.GetSettings(ctx, "G1")
	reads, _ = dal.counts()
	require.Equal(t, 2, reads)
}

func TestSettingsStore_SaveInvalidates(t *testing.T) {
	ctx := context.Background()
	s, dal, _ := newTestSettingsStore()

	settings := s.GetSettings(ctx, "G1")
	settings.ModeratorRoleID = "R1"
	s.SaveSettings(ctx, settings)

	got := s.GetSettings(ctx, "G1")
	require.Equal(t, "R1", got.ModeratorRoleID)

	reads, _ := dal.counts()
	require.Equal(t, 2, reads)
}

func TestSettingsStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSettingsStore()

	settings := s.GetSettings(ctx, "G1")
	settings.ModeratorRoleID = "R1"
	require.NoError(t, settings.AddButton("Support", "hi"))

	got := s.GetSettings(ctx, "G1")
	require.Empty(t, got.ModeratorRoleID)
	require.Empty(t, got.Buttons)
}

func TestSettingsStore_StorageErrors(t *testing.T) {
	tests := []struct {
		name      string
		readErr   error
		saveErr   error
		wantReads int
	}{
		{
			name:      "ReadFails",
			readErr:   errors.New("connection refused"),
			wantReads: 2,
		},
		{
			name:      "SaveDefaultsFails",
			saveErr:   errors.New("connection refused"),
			wantReads: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s, dal, _ := newTestSettingsStore()
			dal.readErr = tt.readErr
			dal.saveErr = tt.saveErr

			for i := 0; i < 2; i++ {
				got := s.GetSettings(ctx, "G1")
				require.Equal(t, "G1", got.GuildID)
				require.NotNil(t, got.Buttons)
				require.Equal(t, entities.DefaultPanelMessage, got.PanelMessage)
			}

			reads, _ := dal.counts()
			require.Equal(t, tt.wantReads, reads, "defaults from a failed store are not cached")
			require.Zero(t, dal.SettingsCount())
		})
	}
}

func TestSettingsStore_SaveErrorIsDropped(t *testing.T) {
	ctx := context.Background()
	s, dal, _ := newTestSettingsStore()

	settings := s.GetSettings(ctx, "G1")
	dal.saveErr = errors.New("write conflict")

	settings.ModeratorRoleID = "R1"
	require.NotPanics(t, func() { s.SaveSettings(ctx, settings) })

	require.Empty(t, s.GetSettings(ctx, "G1").ModeratorRoleID)
}

func TestSettingsStore_Update(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSettingsStore()

	got, err := s.Update(ctx, "G1", func(settings *entities.TicketSettings) error {
		return settings.AddButton("Support", "hi")
	})
	require.NoError(t, err)
	require.Len(t, got.Buttons, 1)
	require.Len(t, s.GetSettings(ctx, "G1").Buttons, 1)

	_, err = s.Update(ctx, "G1", func(settings *entities.TicketSettings) error {
		settings.ClearButtons()
		return settings.AddButton("support", "again")
	})
	require.ErrorIs(t, err, entities.ErrDuplicateButton)
	require.Len(t, s.GetSettings(ctx, "G1").Buttons, 1, "a failed update saves nothing")
}

func TestSettingsStore_ConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s, _, _ := newTestSettingsStore()

	var wg sync.WaitGroup
	errs := make(chan error, entities.MaxButtons)
	for i := 0; i < entities.MaxButtons; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Update(ctx, "G1", func(settings *entities.TicketSettings) error {
				return settings.AddButton(string(rune('A'+i)), "hi")
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	require.Len(t, s.GetSettings(ctx, "G1").Buttons, entities.MaxButtons)
}

func TestSettingsStore_EvictExpiredAndPreload(t *testing.T) {
	ctx := context.Background()
	s, dal, clk := newTestSettingsStore()

	s.Preload(ctx, []string{"G1", "G2", "G3"})
	require.Equal(t, 3, dal.SettingsCount())

	s.GetSettings(ctx, "G2")
	reads, _ := dal.counts()
	require.Equal(t, 3, reads, "preloaded guilds are cached")

	require.Zero(t, s.EvictExpired())
	clk.Advance(time.Minute)
	require.Equal(t, 3, s.EvictExpired())

	s.Invalidate("G1")
	s.GetSettings(ctx, "G1")
	reads, _ = dal.counts()
	require.Equal(t, 4, reads)
}
