package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTicket(user, ticketType, channel string, at time.Time) *entities.ActiveTicket {
	return &entities.ActiveTicket{
		GuildID:    "G1",
		UserID:     user,
		ChannelID:  channel,
		TicketType: ticketType,
		CreatedAt:  custom.NewDatetime(at),
	}
}

func TestStore_TicketSettings(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.GetTicketSettings(ctx, "G1")
	require.ErrorIs(t, err, dataaccess.ErrNotFound)

	settings := entities.DefaultTicketSettings("G1")
	require.NoError(t, s.SaveTicketSettings(ctx, settings))

	// Mutating the caller's copy must not leak into the store.
	require.NoError(t, settings.AddButton("Support", "hi"))

	got, err := s.GetTicketSettings(ctx, "G1")
	require.NoError(t, err)
	require.Empty(t, got.Buttons)
	require.Equal(t, 1, s.SettingsCount())
}

func TestStore_CreateActiveTicket(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	first := newTicket("U1", "Support", "C1", now)
	require.NoError(t, s.CreateActiveTicket(ctx, first))
	require.True(t, first.IsOpen())

	err := s.CreateActiveTicket(ctx, newTicket("U1", "Support", "C2", now))
	require.ErrorIs(t, err, dataaccess.ErrTicketAlreadyOpen)

	// Other types and users are independent.
	require.NoError(t, s.CreateActiveTicket(ctx, newTicket("U1", "Billing", "C3", now)))
	require.NoError(t, s.CreateActiveTicket(ctx, newTicket("U2", "Support", "C4", now)))

	got, err := s.GetOpenTicket(ctx, "G1", "U1", "Support")
	require.NoError(t, err)
	require.Equal(t, "C1", got.ChannelID)
}

func TestStore_CloseAndReopen(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.CreateActiveTicket(ctx, newTicket("U1", "Support", "C1", now)))
	require.NoError(t, s.CloseActiveTicket(ctx, "G1", "U1", "Support", now.Add(time.Hour)))

	_, err := s.GetOpenTicket(ctx, "G1", "U1", "Support")
	require.ErrorIs(t, err, dataaccess.ErrNotFound)

	closed, err := s.GetTicketByChannel(ctx, "G1", "C1")
	require.NoError(t, err)
	require.Equal(t, entities.TicketStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.True(t, now.Add(time.Hour).Equal(closed.ClosedAt.Time()))

	require.ErrorIs(t, s.CloseActiveTicket(ctx, "G1", "U1", "Support", now), dataaccess.ErrNotFound)

	// The closed row is reopened in place.
	require.NoError(t, s.CreateActiveTicket(ctx, newTicket("U1", "Support", "C5", now.Add(2*time.Hour))))
	open, err := s.GetOpenTicket(ctx, "G1", "U1", "Support")
	require.NoError(t, err)
	require.Equal(t, "C5", open.ChannelID)
	require.Nil(t, open.ClosedAt)
}

func TestStore_ListOpenTickets(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	require.NoError(t, s.CreateActiveTicket(ctx, newTicket("U1", "Billing", "C2", now.Add(time.Minute))))
	require.NoError(t, s.CreateActiveTicket(ctx, newTicket("U1", "Support", "C1", now)))
	require.NoError(t, s.CreateActiveTicket(ctx, newTicket("U1", "Appeal", "C3", now.Add(2*time.Minute))))
	require.NoError(t, s.CreateActiveTicket(ctx, newTicket("U2", "Support", "C4", now)))
	require.NoError(t, s.CloseActiveTicket(ctx, "G1", "U1", "Appeal", now))

	got, err := s.ListOpenTickets(ctx, "G1", "U1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "C1", got[0].ChannelID)
	require.Equal(t, "C2", got[1].ChannelID)

	none, err := s.ListOpenTickets(ctx, "G2", "U1")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestStore_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.CreateActiveTicket(ctx, newTicket("U1", "Support", "C1", now)); err == nil {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, int32(1), created.Load())
}

func TestStore_AppendTicketLog(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	entry := &entities.TicketLogEntry{GuildID: "G1", UserID: "U1", TicketType: "Support", Action: entities.TicketActionCreated}
	require.NoError(t, s.AppendTicketLog(ctx, entry))
	entry.Action = entities.TicketActionClosed

	logs := s.TicketLogs()
	require.Len(t, logs, 1)
	require.Equal(t, entities.TicketActionCreated, logs[0].Action)
}
