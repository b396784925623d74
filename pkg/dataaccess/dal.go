package dataaccess

import (
	"context"
	"errors"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/entities"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTicketAlreadyOpen is returned when creating a ticket for a (guild, user, type) that already has an open one.
	ErrTicketAlreadyOpen = errors.New("ticket already open")
)

type TicketSettingsDal interface {
	// GetTicketSettings gets the ticket settings of a guild. It returns ErrNotFound when the guild has none.
	GetTicketSettings(ctx context.Context, guildID string) (*entities.TicketSettings, error)

	// SaveTicketSettings upserts the whole settings record.
	SaveTicketSettings(ctx context.Context, settings *entities.TicketSettings) error
}

type ActiveTicketDal interface {
	// CreateActiveTicket inserts an open ticket unless one is already open for the same guild, user and type.
	// A closed row with the same key is reopened in place.
	CreateActiveTicket(ctx context.Context, ticket *entities.ActiveTicket) error

	// GetOpenTicket gets the open ticket of a user for a ticket type.
	GetOpenTicket(ctx context.Context, guildID, userID, ticketType string) (*entities.ActiveTicket, error)

	// GetTicketByChannel gets the ticket that owns a channel.
	GetTicketByChannel(ctx context.Context, guildID, channelID string) (*entities.ActiveTicket, error)

	// ListOpenTickets lists the open tickets of a user, oldest first.
	ListOpenTickets(ctx context.Context, guildID, userID string) ([]*entities.ActiveTicket, error)

	// CloseActiveTicket marks the open ticket closed. It returns ErrNotFound when no open ticket matches.
	CloseActiveTicket(ctx context.Context, guildID, userID, ticketType string, closedAt time.Time) error
}

type TicketLogDal interface {
	// AppendTicketLog appends an audit entry.
	AppendTicketLog(ctx context.Context, entry *entities.TicketLogEntry) error
}

// Store is a durable store for everything the ticket system persists.
type Store interface {
	TicketSettingsDal
	ActiveTicketDal
	TicketLogDal

	// Ping checks the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the store's connections.
	Close(ctx context.Context) error
}
