// Package auditlog persists ticket lifecycle events off the request path.
package auditlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"golang.org/x/time/rate"
)

const (
	// DefaultQueueSize is the number of entries buffered before new ones are dropped.
	DefaultQueueSize = 256

	// DefaultWritesPerSecond throttles writes to the store.
	DefaultWritesPerSecond = 20

	writeTimeout = 5 * time.Second
)

// Recorder queues audit entries and writes them from a single goroutine. Record never blocks: when the queue is
// full the entry is dropped and logged.
type Recorder struct {
	l       *slog.Logger
	dal     dataaccess.TicketLogDal
	queue   chan *entities.TicketLogEntry
	limiter *rate.Limiter
}

// NewRecorder creates a recorder. Non-positive sizes and rates use the defaults.
func NewRecorder(l *slog.Logger, dal dataaccess.TicketLogDal, queueSize int, writesPerSecond float64) *Recorder {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if writesPerSecond <= 0 {
		writesPerSecond = DefaultWritesPerSecond
	}

	return &Recorder{
		l:       l.With(slog.String(logging.KeyComponent, "audit_recorder")),
		dal:     dal,
		queue:   make(chan *entities.TicketLogEntry, queueSize),
		limiter: rate.NewLimiter(rate.Limit(writesPerSecond), 1),
	}
}

// Record queues a copy of entry.
func (r *Recorder) Record(entry *entities.TicketLogEntry) {
	e := *entry

	select {
	case r.queue <- &e:
		Entries.WithLabelValues("queued").Inc()
	default:
		Entries.WithLabelValues("dropped").Inc()
		r.l.Warn("Audit queue full, dropping entry",
			slog.String(logging.KeyGuildID, e.GuildID),
			slog.String(logging.KeyUserID, e.UserID),
			slog.String("action", string(e.Action)),
		)
	}
}

// Pending is the number of queued entries.
func (r *Recorder) Pending() int {
	return len(r.queue)
}

// Run writes queued entries until ctx is cancelled, then writes whatever is still queued and returns.
func (r *Recorder) Run(ctx context.Context) error {
	r.l.Debug("Audit recorder started")
	defer r.l.Debug("Audit recorder stopped")

	for {
		select {
		case <-ctx.Done():
			r.flush()
			return nil
		case e := <-r.queue:
			if err := r.limiter.Wait(ctx); err != nil {
				r.write(context.Background(), e)
				r.flush()
				return nil
			}
			r.write(ctx, e)
		}
	}
}

// flush writes everything left in the queue without throttling.
func (r *Recorder) flush() {
	for {
		select {
		case e := <-r.queue:
			r.write(context.Background(), e)
		default:
			return
		}
	}
}

func (r *Recorder) write(ctx context.Context, e *entities.TicketLogEntry) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := r.dal.AppendTicketLog(ctx, e); err != nil {
		Entries.WithLabelValues("failed").Inc()
		r.l.Error("Error writing audit entry",
			slog.String(logging.KeyGuildID, e.GuildID),
			slog.String(logging.KeyUserID, e.UserID),
			slog.String(logging.KeyError, err.Error()),
		)
		return
	}
	Entries.WithLabelValues("written").Inc()
}
