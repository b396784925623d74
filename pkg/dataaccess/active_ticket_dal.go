package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const activeTicketDalName = "active_ticket_dal"

type activeTicketDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client

	// db is the database name.
	db string
}

func newActiveTicketDal(l *slog.Logger, client *mongo.Client, database string) *activeTicketDal {
	return &activeTicketDal{
		l:      l.With(slog.String(logging.KeyDal, activeTicketDalName)),
		client: client,
		db:     database,
	}
}

func (d *activeTicketDal) collection() *mongo.Collection {
	return d.client.Database(d.db).Collection(collectionActiveTickets)
}

// CreateActiveTicket upserts the ticket only when no open ticket holds the same key. When one does, the
// upsert collides with the unique index and the duplicate key error is reported as ErrTicketAlreadyOpen.
func (d *activeTicketDal) CreateActiveTicket(ctx context.Context, ticket *entities.ActiveTicket) error {
	monitoring.MongoTotalRequests.WithLabelValues(activeTicketDalName, "create_active_ticket", d.db, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(activeTicketDalName, "create_active_ticket", d.db, collectionActiveTickets))
	defer t.ObserveDuration()

	filter := bson.M{
		"guild_id":    ticket.GuildID,
		"user_id":     ticket.UserID,
		"ticket_type": ticket.TicketType,
		"status":      bson.M{"$ne": entities.TicketStatusOpen},
	}

	update := bson.M{
		"$set": bson.M{
			"channel_id": ticket.ChannelID,
			"status":     entities.TicketStatusOpen,
			"created_at": ticket.CreatedAt,
		},
		"$unset": bson.M{"closed_at": ""},
	}

	opts := options.Update().SetUpsert(true)
	_, err := d.collection().UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		return ErrTicketAlreadyOpen
	} else if err != nil {
		return fmt.Errorf("error creating active ticket: %w", err)
	}

	ticket.Status = entities.TicketStatusOpen
	ticket.ClosedAt = nil
	return nil
}

// GetOpenTicket gets the open ticket of a user for a ticket type.
func (d *activeTicketDal) GetOpenTicket(ctx context.Context, guildID, userID, ticketType string) (*entities.ActiveTicket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(activeTicketDalName, "get_open_ticket", d.db, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(activeTicketDalName, "get_open_ticket", d.db, collectionActiveTickets))
	defer t.ObserveDuration()

	ticket := new(entities.ActiveTicket)
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id":    guildID,
		"user_id":     userID,
		"ticket_type": ticketType,
		"status":      entities.TicketStatusOpen,
	}).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting open ticket: %w", err)
	}

	return ticket, nil
}

// GetTicketByChannel gets the most recent ticket that used the channel.
func (d *activeTicketDal) GetTicketByChannel(ctx context.Context, guildID, channelID string) (*entities.ActiveTicket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(activeTicketDalName, "get_ticket_by_channel", d.db, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(activeTicketDalName, "get_ticket_by_channel", d.db, collectionActiveTickets))
	defer t.ObserveDuration()

	opts := options.FindOne().SetSort(bson.M{"created_at": -1})

	ticket := new(entities.ActiveTicket)
	err := d.collection().FindOne(ctx, bson.M{
		"guild_id":   guildID,
		"channel_id": channelID,
	}, opts).Decode(ticket)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket by channel: %w", err)
	}

	return ticket, nil
}

// ListOpenTickets lists the open tickets of a user, oldest first.
func (d *activeTicketDal) ListOpenTickets(ctx context.Context, guildID, userID string) ([]*entities.ActiveTicket, error) {
	monitoring.MongoTotalRequests.WithLabelValues(activeTicketDalName, "list_open_tickets", d.db, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(activeTicketDalName, "list_open_tickets", d.db, collectionActiveTickets))
	defer t.ObserveDuration()

	opts := options.Find().SetSort(bson.M{"created_at": 1})

	cur, err := d.collection().Find(ctx, bson.M{
		"guild_id": guildID,
		"user_id":  userID,
		"status":   entities.TicketStatusOpen,
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing open tickets: %w", err)
	}

	tickets := make([]*entities.ActiveTicket, 0)
	if err := cur.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("error decoding open tickets: %w", err)
	}

	return tickets, nil
}

// CloseActiveTicket marks the open ticket closed.
func (d *activeTicketDal) CloseActiveTicket(ctx context.Context, guildID, userID, ticketType string, closedAt time.Time) error {
	monitoring.MongoTotalRequests.WithLabelValues(activeTicketDalName, "close_active_ticket", d.db, collectionActiveTickets).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(activeTicketDalName, "close_active_ticket", d.db, collectionActiveTickets))
	defer t.ObserveDuration()

	res, err := d.collection().UpdateOne(ctx, bson.M{
		"guild_id":    guildID,
		"user_id":     userID,
		"ticket_type": ticketType,
		"status":      entities.TicketStatusOpen,
	}, bson.M{
		"$set": bson.M{
			"status":    entities.TicketStatusClosed,
			"closed_at": custom.NewDatetime(closedAt),
		},
	})
	if err != nil {
		return fmt.Errorf("error closing active ticket: %w", err)
	}

	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
