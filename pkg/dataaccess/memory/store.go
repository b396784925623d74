// Package memory is an in-process Store. Nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
)

var _ dataaccess.Store = (*Store)(nil)

// Store keeps every record in maps guarded by a single mutex. Records are copied in and out.
type Store struct {
	mut      sync.RWMutex
	settings map[string]*entities.TicketSettings
	tickets  map[string]*entities.ActiveTicket
	logs     []*entities.TicketLogEntry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		settings: make(map[string]*entities.TicketSettings),
		tickets:  make(map[string]*entities.ActiveTicket),
		logs:     make([]*entities.TicketLogEntry, 0),
	}
}

func (s *Store) GetTicketSettings(_ context.Context, guildID string) (*entities.TicketSettings, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	settings, ok := s.settings[guildID]
	if !ok {
		return nil, dataaccess.ErrNotFound
	}
	return settings.Clone(), nil
}

func (s *Store) SaveTicketSettings(_ context.Context, settings *entities.TicketSettings) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	s.settings[settings.GuildID] = settings.Clone()
	return nil
}

// SettingsCount is the number of guilds with stored settings.
func (s *Store) SettingsCount() int {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return len(s.settings)
}

func (s *Store) CreateActiveTicket(_ context.Context, ticket *entities.ActiveTicket) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	key := ticketKey(ticket.GuildID, ticket.UserID, ticket.TicketType)
	if existing, ok := s.tickets[key]; ok && existing.IsOpen() {
		return dataaccess.ErrTicketAlreadyOpen
	}

	ticket.Status = entities.TicketStatusOpen
	ticket.ClosedAt = nil
	s.tickets[key] = copyTicket(ticket)
	return nil
}

func (s *Store) GetOpenTicket(_ context.Context, guildID, userID, ticketType string) (*entities.ActiveTicket, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	t, ok := s.tickets[ticketKey(guildID, userID, ticketType)]
	if !ok || !t.IsOpen() {
		return nil, dataaccess.ErrNotFound
	}
	return copyTicket(t), nil
}

func (s *Store) GetTicketByChannel(_ context.Context, guildID, channelID string) (*entities.ActiveTicket, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	var found *entities.ActiveTicket
	for _, t := range s.tickets {
		if t.GuildID != guildID || t.ChannelID != channelID {
			continue
		}
		if found == nil || t.CreatedAt.Time().After(found.CreatedAt.Time()) {
			found = t
		}
	}

	if found == nil {
		return nil, dataaccess.ErrNotFound
	}
	return copyTicket(found), nil
}

func (s *Store) ListOpenTickets(_ context.Context, guildID, userID string) ([]*entities.ActiveTicket, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	tickets := make([]*entities.ActiveTicket, 0)
	for _, t := range s.tickets {
		if t.GuildID == guildID && t.UserID == userID && t.IsOpen() {
			tickets = append(tickets, copyTicket(t))
		}
	}

	slices.SortFunc(tickets, func(a, b *entities.ActiveTicket) int {
		return a.CreatedAt.Time().Compare(b.CreatedAt.Time())
	})
	return tickets, nil
}

func (s *Store) CloseActiveTicket(_ context.Context, guildID, userID, ticketType string, closedAt time.Time) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	t, ok := s.tickets[ticketKey(guildID, userID, ticketType)]
	if !ok || !t.IsOpen() {
		return dataaccess.ErrNotFound
	}

	at := custom.NewDatetime(closedAt)
	t.Status = entities.TicketStatusClosed
	t.ClosedAt = &at
	return nil
}

func (s *Store) AppendTicketLog(_ context.Context, entry *entities.TicketLogEntry) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	e := *entry
	s.logs = append(s.logs, &e)
	return nil
}

// TicketLogs returns a copy of every appended audit entry, in append order.
func (s *Store) TicketLogs() []entities.TicketLogEntry {
	s.mut.RLock()
	defer s.mut.RUnlock()

	logs := make([]entities.TicketLogEntry, len(s.logs))
	for i, e := range s.logs {
		logs[i] = *e
	}
	return logs
}

func (s *Store) Ping(context.Context) error {
	return nil
}

func (s *Store) Close(context.Context) error {
	return nil
}

// Ticket types are matched exactly, the same as the unique index of the durable stores.
func ticketKey(guildID, userID, ticketType string) string {
	return guildID + "\x00" + userID + "\x00" + ticketType
}

func copyTicket(t *entities.ActiveTicket) *entities.ActiveTicket {
	c := *t
	if t.ClosedAt != nil {
		at := *t.ClosedAt
		c.ClosedAt = &at
	}
	return &c
}
