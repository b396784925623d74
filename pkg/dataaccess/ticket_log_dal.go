package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
)

const ticketLogDalName = "ticket_log_dal"

type ticketLogDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client

	// db is the database name.
	db string
}

func newTicketLogDal(l *slog.Logger, client *mongo.Client, database string) *ticketLogDal {
	return &ticketLogDal{
		l:      l.With(slog.String(logging.KeyDal, ticketLogDalName)),
		client: client,
		db:     database,
	}
}

// AppendTicketLog inserts an audit entry.
func (d *ticketLogDal) AppendTicketLog(ctx context.Context, entry *entities.TicketLogEntry) error {
	collection := d.client.Database(d.db).Collection(collectionTicketLogs)

	monitoring.MongoTotalRequests.WithLabelValues(ticketLogDalName, "append_ticket_log", d.db, collectionTicketLogs).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketLogDalName, "append_ticket_log", d.db, collectionTicketLogs))
	defer t.ObserveDuration()

	if _, err := collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("error inserting ticket log: %w", err)
	}
	return nil
}
