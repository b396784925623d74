package connection

import (
	"context"
	"errors"
	"fmt"
	"time"

	dbMonitoring "github.com/Jacobbrewer1/warden/pkg/dataaccess/monitoring"
	"github.com/prometheus/client_golang/prometheus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultConnectTimeout = 10 * time.Second

// MongoDB describes how to reach a MongoDB deployment.
type MongoDB struct {
	// URI is the full connection string. When set it is used as is.
	URI string

	Username string
	Password string
	Host     string
	Port     string
	Args     string

	// Timeout bounds the connect and the initial ping.
	Timeout time.Duration
}

// ConnectionString returns the URI, building an SRV connection string from the parts when no URI is set.
func (m *MongoDB) ConnectionString() string {
	if m.URI != "" {
		return m.URI
	}

	cs := "mongodb+srv://"
	if m.Username != "" && m.Password != "" {
		cs += m.Username + ":" + m.Password + "@"
	} else if m.Username != "" {
		cs += m.Username + "@"
	}

	cs += m.Host

	if m.Port != "" {
		cs += ":" + m.Port
	}

	if m.Args != "" {
		cs += "/?" + m.Args
	}

	return cs
}

// Connect opens a client pool and pings the primary before returning it.
func (m *MongoDB) Connect(ctx context.Context) (*mongo.Client, error) {
	if m.URI == "" && m.Host == "" {
		return nil, errors.New("no mongo connection string or host provided")
	}

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	serverAPI := options.ServerAPI(options.ServerAPIVersion1)
	opts := options.Client().ApplyURI(m.ConnectionString()).SetServerAPIOptions(serverAPI)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	t := prometheus.NewTimer(dbMonitoring.MongoLatency.WithLabelValues("connection", "ping", "-", "-"))
	dbMonitoring.MongoTotalRequests.WithLabelValues("connection", "ping", "-", "-").Inc()
	err = client.Ping(ctx, readpref.Primary())
	t.ObserveDuration()
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging mongo: %w", err)
	}

	return client, nil
}
