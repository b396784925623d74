// Package postgres is a Store backed by PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

const dalName = "postgres_store"

var _ dataaccess.Store = (*Store)(nil)

type Store struct {
	l    *slog.Logger
	pool *pgxpool.Pool
}

// Connect opens a pool for the DSN and checks it can reach the server.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("no postgres dsn provided")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error creating postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging postgres: %w", err)
	}
	return pool, nil
}

// NewStore creates a store on an open pool.
func NewStore(l *slog.Logger, pool *pgxpool.Pool) *Store {
	return &Store{
		l:    l.With(slog.String(logging.KeyDal, dalName)),
		pool: pool,
	}
}

func observe(query, table string) *prometheus.Timer {
	monitoring.PostgresTotalRequests.WithLabelValues(dalName, query, table).Inc()
	return prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues(dalName, query, table))
}

func (s *Store) GetTicketSettings(ctx context.Context, guildID string) (*entities.TicketSettings, error) {
	t := observe("get_ticket_settings", "ticket_settings")
	defer t.ObserveDuration()

	var (
		settings  = &entities.TicketSettings{GuildID: guildID}
		adminRaw  []byte
		buttonRaw []byte
		updatedAt time.Time
	)

	err := s.pool.QueryRow(ctx, `
		SELECT mod_role_id, admin_role_ids, transcript_channel_id, custom_buttons,
		       panel_message, embed_color, use_menu, updated_at
		FROM ticket_settings
		WHERE guild_id = $1`, guildID).Scan(
		&settings.ModeratorRoleID,
		&adminRaw,
		&settings.TranscriptChannelID,
		&buttonRaw,
		&settings.PanelMessage,
		&settings.EmbedColor,
		&settings.UseMenu,
		&updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dataaccess.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket settings: %w", err)
	}

	if settings.AdminRoleIDs, err = decodeRoleIDs(adminRaw); err != nil {
		return nil, err
	}
	if settings.Buttons, err = decodeButtons(buttonRaw); err != nil {
		return nil, err
	}
	settings.UpdatedAt = custom.NewDatetime(updatedAt)

	settings.Normalize()
	return settings, nil
}

func (s *Store) SaveTicketSettings(ctx context.Context, settings *entities.TicketSettings) error {
	t := observe("save_ticket_settings", "ticket_settings")
	defer t.ObserveDuration()

	adminRoles, err := encodeRoleIDs(settings.AdminRoleIDs)
	if err != nil {
		return err
	}

	buttons, err := encodeButtons(settings.Buttons)
	if err != nil {
		return err
	}

	updatedAt := settings.UpdatedAt.Time()
	if settings.UpdatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO ticket_settings (guild_id, mod_role_id, admin_role_ids, transcript_channel_id,
		                             custom_buttons, panel_message, embed_color, use_menu, updated_at)
		VALUES ($1, $2, $3::jsonb, $4, $5::jsonb, $6, $7, $8, $9)
		ON CONFLICT (guild_id) DO UPDATE SET
			mod_role_id = EXCLUDED.mod_role_id,
			admin_role_ids = EXCLUDED.admin_role_ids,
			transcript_channel_id = EXCLUDED.transcript_channel_id,
			custom_buttons = EXCLUDED.custom_buttons,
			panel_message = EXCLUDED.panel_message,
			embed_color = EXCLUDED.embed_color,
			use_menu = EXCLUDED.use_menu,
			updated_at = EXCLUDED.updated_at`,
		settings.GuildID,
		settings.ModeratorRoleID,
		adminRoles,
		settings.TranscriptChannelID,
		buttons,
		settings.PanelMessage,
		settings.EmbedColor,
		settings.UseMenu,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving ticket settings: %w", err)
	}
	return nil
}

// CreateActiveTicket reopens a closed row in place. The conflict update is skipped while the row is open,
// so no rows are affected and the ticket is reported as already open.
func (s *Store) CreateActiveTicket(ctx context.Context, ticket *entities.ActiveTicket) error {
	t := observe("create_active_ticket", "active_tickets")
	defer t.ObserveDuration()

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO active_tickets (guild_id, user_id, channel_id, ticket_type, status, created_at, closed_at)
		VALUES ($1, $2, $3, $4, 'open', $5, NULL)
		ON CONFLICT (guild_id, user_id, ticket_type) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			status = 'open',
			created_at = EXCLUDED.created_at,
			closed_at = NULL
		WHERE active_tickets.status <> 'open'`,
		ticket.GuildID,
		ticket.UserID,
		ticket.ChannelID,
		ticket.TicketType,
		ticket.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("error creating active ticket: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return dataaccess.ErrTicketAlreadyOpen
	}

	ticket.Status = entities.TicketStatusOpen
	ticket.ClosedAt = nil
	return nil
}

const selectTicket = `
	SELECT guild_id, user_id, channel_id, ticket_type, status, created_at, closed_at
	FROM active_tickets`

func scanTicket(row pgx.Row) (*entities.ActiveTicket, error) {
	var (
		ticket    = new(entities.ActiveTicket)
		status    string
		createdAt time.Time
		closedAt  *time.Time
	)

	if err := row.Scan(&ticket.GuildID, &ticket.UserID, &ticket.ChannelID, &ticket.TicketType, &status, &createdAt, &closedAt); err != nil {
		return nil, err
	}

	ticket.Status = entities.TicketStatus(status)
	ticket.CreatedAt = custom.NewDatetime(createdAt)
	if closedAt != nil {
		at := custom.NewDatetime(*closedAt)
		ticket.ClosedAt = &at
	}
	return ticket, nil
}

func (s *Store) GetOpenTicket(ctx context.Context, guildID, userID, ticketType string) (*entities.ActiveTicket, error) {
	t := observe("get_open_ticket", "active_tickets")
	defer t.ObserveDuration()

	ticket, err := scanTicket(s.pool.QueryRow(ctx, selectTicket+`
		WHERE guild_id = $1 AND user_id = $2 AND ticket_type = $3 AND status = 'open'`,
		guildID, userID, ticketType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dataaccess.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting open ticket: %w", err)
	}
	return ticket, nil
}

func (s *Store) GetTicketByChannel(ctx context.Context, guildID, channelID string) (*entities.ActiveTicket, error) {
	t := observe("get_ticket_by_channel", "active_tickets")
	defer t.ObserveDuration()

	ticket, err := scanTicket(s.pool.QueryRow(ctx, selectTicket+`
		WHERE guild_id = $1 AND channel_id = $2
		ORDER BY created_at DESC
		LIMIT 1`,
		guildID, channelID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, dataaccess.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket by channel: %w", err)
	}
	return ticket, nil
}

func (s *Store) ListOpenTickets(ctx context.Context, guildID, userID string) ([]*entities.ActiveTicket, error) {
	t := observe("list_open_tickets", "active_tickets")
	defer t.ObserveDuration()

	rows, err := s.pool.Query(ctx, selectTicket+`
		WHERE guild_id = $1 AND user_id = $2 AND status = 'open'
		ORDER BY created_at`,
		guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing open tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*entities.ActiveTicket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning open ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating open tickets: %w", err)
	}
	return tickets, nil
}

func (s *Store) CloseActiveTicket(ctx context.Context, guildID, userID, ticketType string, closedAt time.Time) error {
	t := observe("close_active_ticket", "active_tickets")
	defer t.ObserveDuration()

	tag, err := s.pool.Exec(ctx, `
		UPDATE active_tickets
		SET status = 'closed', closed_at = $4
		WHERE guild_id = $1 AND user_id = $2 AND ticket_type = $3 AND status = 'open'`,
		guildID, userID, ticketType, closedAt)
	if err != nil {
		return fmt.Errorf("error closing active ticket: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return dataaccess.ErrNotFound
	}
	return nil
}

func (s *Store) AppendTicketLog(ctx context.Context, entry *entities.TicketLogEntry) error {
	t := observe("append_ticket_log", "ticket_logs")
	defer t.ObserveDuration()

	createdAt := entry.CreatedAt.Time()
	if entry.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO ticket_logs (guild_id, user_id, ticket_type, action, channel_id, moderator_id, reason, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)`,
		entry.GuildID,
		entry.UserID,
		entry.TicketType,
		string(entry.Action),
		entry.ChannelID,
		entry.ModeratorID,
		entry.Reason,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting ticket log: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	t := prometheus.NewTimer(monitoring.PostgresLatency.WithLabelValues("health_check", "ping", "-"))
	defer t.ObserveDuration()
	monitoring.PostgresTotalRequests.WithLabelValues("health_check", "ping", "-").Inc()

	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("error pinging postgres: %w", err)
	}
	return nil
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	s.l.Debug("postgres pool closed")
	return nil
}
