package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ticketSettingsDalName = "ticket_settings_dal"

type ticketSettingsDal struct {
	// l is the logger.
	l *slog.Logger

	// client is the database.
	client *mongo.Client

	// db is the database name.
	db string
}

func newTicketSettingsDal(l *slog.Logger, client *mongo.Client, database string) *ticketSettingsDal {
	return &ticketSettingsDal{
		l:      l.With(slog.String(logging.KeyDal, ticketSettingsDalName)),
		client: client,
		db:     database,
	}
}

// SaveTicketSettings upserts the settings of a guild.
func (d *ticketSettingsDal) SaveTicketSettings(ctx context.Context, settings *entities.TicketSettings) error {
	// Get the settings collection.
	collection := d.client.Database(d.db).Collection(collectionTicketSettings)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketSettingsDalName, "save_ticket_settings", d.db, collectionTicketSettings).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketSettingsDalName, "save_ticket_settings", d.db, collectionTicketSettings))
	defer t.ObserveDuration()

	opts := options.Update().SetUpsert(true)
	_, err := collection.UpdateOne(ctx, bson.M{"guild_id": settings.GuildID}, bson.M{"$set": settings}, opts)
	if err != nil {
		return fmt.Errorf("error updating ticket settings: %w", err)
	}
	return nil
}

// GetTicketSettings gets the settings of a guild.
func (d *ticketSettingsDal) GetTicketSettings(ctx context.Context, guildID string) (*entities.TicketSettings, error) {
	// Get the settings collection.
	collection := d.client.Database(d.db).Collection(collectionTicketSettings)

	// Start the prometheus metrics.
	monitoring.MongoTotalRequests.WithLabelValues(ticketSettingsDalName, "get_ticket_settings", d.db, collectionTicketSettings).Inc()
	t := prometheus.NewTimer(monitoring.MongoLatency.WithLabelValues(ticketSettingsDalName, "get_ticket_settings", d.db, collectionTicketSettings))
	defer t.ObserveDuration()

	settings := new(entities.TicketSettings)
	err := collection.FindOne(ctx, bson.M{"guild_id": guildID}).Decode(settings)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket settings: %w", err)
	}

	settings.Normalize()
	return settings, nil
}
