package dataaccess

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultMongoDatabase is the database used when none is configured.
	DefaultMongoDatabase = "warden"

	collectionTicketSettings = "ticket_settings"
	collectionActiveTickets  = "active_tickets"
	collectionTicketLogs     = "ticket_logs"
)

var _ Store = (*MongoStore)(nil)

// MongoStore is a Store backed by MongoDB.
type MongoStore struct {
	*ticketSettingsDal
	*activeTicketDal
	*ticketLogDal

	l      *slog.Logger
	client *mongo.Client
	db     string
}

// NewMongoStore creates a store on the given database. The client is a connection pool shared by every DAL.
func NewMongoStore(l *slog.Logger, client *mongo.Client, database string) *MongoStore {
	if database == "" {
		database = DefaultMongoDatabase
	}

	if client == nil {
		l.Warn("MongoDB client is nil, this can cause a panic. Proceeding...")
	}

	return &MongoStore{
		ticketSettingsDal: newTicketSettingsDal(l, client, database),
		activeTicketDal:   newActiveTicketDal(l, client, database),
		ticketLogDal:      newTicketLogDal(l, client, database),
		l:                 l.With(slog.String(logging.KeyDal, "mongo_store")),
		client:            client,
		db:                database,
	}
}

// EnsureIndexes creates the indexes the store relies on. The unique index on active tickets is what makes
// CreateActiveTicket an insert-if-absent.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	monitoring.MongoTotalRequests.WithLabelValues("mongo_store", "ensure_indexes", s.db, "-").Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues("mongo_store", "ensure_indexes", s.db, "-"))
	defer t.ObserveDuration()

	db := s.client.Database(s.db)

	_, err := db.Collection(collectionTicketSettings).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "guild_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("error creating ticket settings index: %w", err)
	}

	_, err = db.Collection(collectionActiveTickets).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "guild_id", Value: 1}, {Key: "user_id", Value: 1}, {Key: "ticket_type", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "channel_id", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("error creating active ticket indexes: %w", err)
	}

	_, err = db.Collection(collectionTicketLogs).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("error creating ticket log index: %w", err)
	}

	s.l.Debug("indexes ensured")
	return nil
}

// Ping checks the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues("health_check", "ping", s.db, "-"))
	defer t.ObserveDuration()
	monitoring.MongoTotalRequests.WithLabelValues("health_check", "ping", s.db, "-").Inc()

	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("error pinging mongo: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("error disconnecting from mongo: %w", err)
	}
	return nil
}
