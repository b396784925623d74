package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/clock"
	"github.com/Jacobbrewer1/warden/pkg/custom"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/messages"
	"github.com/Jacobbrewer1/warden/pkg/ratelimit"
	"github.com/Jacobbrewer1/warden/pkg/transcript"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	historyPageSize = 100
	maxHistoryPages = 100

	transcriptEmbedColor = 0xED4245

	ticketChannelPermissions = discordgo.PermissionViewChannel |
		discordgo.PermissionSendMessages |
		discordgo.PermissionReadMessageHistory

	staffChannelPermissions = ticketChannelPermissions | discordgo.PermissionManageMessages
)

// AuditRecorder takes lifecycle events without blocking.
type AuditRecorder interface {
	Record(entry *entities.TicketLogEntry)
}

// Manager runs the ticket lifecycle: creating ticket channels and closing them.
type Manager struct {
	l           *slog.Logger
	platform    Platform
	settings    *SettingsStore
	tickets     dataaccess.ActiveTicketDal
	audit       AuditRecorder
	limiter     *ratelimit.Limiter
	transcripts *transcript.Generator
	clk         clock.Clock

	// locks holds one lock per (guild, user, ticket type) around the existence check and channel creation.
	locks *keyedMutex
}

// NewManager creates a lifecycle manager.
func NewManager(
	l *slog.Logger,
	platform Platform,
	settings *SettingsStore,
	tickets dataaccess.ActiveTicketDal,
	audit AuditRecorder,
	limiter *ratelimit.Limiter,
	transcripts *transcript.Generator,
	clk clock.Clock,
) *Manager {
	if clk == nil {
		clk = clock.Real()
	}

	return &Manager{
		l:           l.With(slog.String(logging.KeyComponent, "ticket_manager")),
		platform:    platform,
		settings:    settings,
		tickets:     tickets,
		audit:       audit,
		limiter:     limiter,
		transcripts: transcripts,
		clk:         clk,
		locks:       newKeyedMutex(),
	}
}

// Settings returns the settings store the manager reads from.
func (m *Manager) Settings() *SettingsStore {
	return m.settings
}

// CreateRequest asks for a new ticket.
type CreateRequest struct {
	GuildID string
	Member  Member
	Button  entities.TicketButton
}

// CreateTicket creates a ticket channel for the member. It returns either the new channel or an error; a *Error
// carries the message for the member.
func (m *Manager) CreateTicket(ctx context.Context, req CreateRequest) (ch *discordgo.Channel, err error) {
	t := prometheus.NewTimer(TicketOperationLatency.WithLabelValues("create"))
	defer func() {
		t.ObserveDuration()
		TicketOperations.WithLabelValues("create", outcome(err)).Inc()
	}()

	ticketType := req.Button.Label
	l := m.l.With(
		slog.String(logging.KeyGuildID, req.GuildID),
		slog.String(logging.KeyUserID, req.Member.UserID),
		slog.String(logging.KeyTicketType, ticketType),
	)

	unlock := m.locks.Lock(entities.TicketKey(req.GuildID, req.Member.UserID, ticketType))
	defer unlock()

	settings := m.settings.GetSettings(ctx, req.GuildID)
	if !settings.HasModeratorRole() {
		return nil, newError(KindNotConfigured, messages.TicketsNotConfigured, nil)
	}

	if err := m.checkExisting(ctx, l, req, ticketType); err != nil {
		return nil, err
	}

	limitKey := req.GuildID + ":" + req.Member.UserID
	if !m.limiter.CanCall(limitKey) {
		return nil, newError(KindRateLimited, fmt.Sprintf(messages.TicketRateLimitedFmt, m.limiter.CooldownSeconds(limitKey)), nil)
	}

	ch, err = m.platform.CreateChannel(ctx, req.GuildID, discordgo.GuildChannelCreateData{
		Name:                 entities.TicketChannelName(req.Member.Username, ticketType),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf(messages.TicketTopicFmt, req.Member.Username, ticketType),
		PermissionOverwrites: ticketOverwrites(req.GuildID, req.Member.UserID, settings),
	})
	if errors.Is(err, ErrPlatformForbidden) {
		return nil, newError(KindPlatform, messages.TicketMissingPermission, err)
	} else if err != nil {
		return nil, newError(KindPlatform, messages.TicketCreateFailed, fmt.Errorf("error creating ticket channel: %w", err))
	}
	l = l.With(slog.String(logging.KeyChannelID, ch.ID))

	now := m.clk.Now().UTC()
	err = m.tickets.CreateActiveTicket(ctx, &entities.ActiveTicket{
		GuildID:    req.GuildID,
		UserID:     req.Member.UserID,
		ChannelID:  ch.ID,
		TicketType: ticketType,
		Status:     entities.TicketStatusOpen,
		CreatedAt:  custom.NewDatetime(now),
	})
	if errors.Is(err, dataaccess.ErrTicketAlreadyOpen) {
		// Another process won the race after our checks. Our channel is the duplicate.
		if delErr := m.platform.DeleteChannel(ctx, ch.ID); delErr != nil {
			l.Error("Error deleting duplicate ticket channel", slog.String(logging.KeyError, delErr.Error()))
		}
		return nil, newError(KindAlreadyOpen, messages.TicketAlreadyOpen, err)
	} else if err != nil {
		// The store is degraded. The channel exists, so the ticket goes ahead without a row.
		l.Error("Error recording active ticket", slog.String(logging.KeyError, err.Error()))
	}

	if _, err := m.platform.SendMessage(ctx, ch.ID, welcomeMessage(req.Member, ticketType, req.Button.WelcomeMessage, ch.ID, settings.EmbedColor, now)); err != nil {
		l.Error("Error sending ticket welcome message", slog.String(logging.KeyError, err.Error()))
	}

	m.record(&entities.TicketLogEntry{
		GuildID:    req.GuildID,
		UserID:     req.Member.UserID,
		TicketType: ticketType,
		Action:     entities.TicketActionCreated,
		ChannelID:  ch.ID,
		CreatedAt:  custom.NewDatetime(now),
	})

	l.Info("Ticket created", slog.String("channel_name", ch.Name))
	return ch, nil
}

// checkExisting denies creation when the member already has an open ticket of the type. The store is
// authoritative; an open row whose channel is gone is closed. A channel with the ticket's exact name is also
// treated as an open ticket, which covers rows lost to a degraded store.
func (m *Manager) checkExisting(ctx context.Context, l *slog.Logger, req CreateRequest, ticketType string) error {
	channels, chErr := m.platform.GuildChannels(ctx, req.GuildID)
	if chErr != nil {
		l.Warn("Error listing guild channels", slog.String(logging.KeyError, chErr.Error()))
	}

	existing, err := m.tickets.GetOpenTicket(ctx, req.GuildID, req.Member.UserID, ticketType)
	switch {
	case err == nil:
		if chErr != nil || channelExists(channels, existing.ChannelID) {
			return newError(KindAlreadyOpen, fmt.Sprintf(messages.TicketAlreadyOpenFmt, ChannelMention(existing.ChannelID)), nil)
		}

		l.Info("Closing stale ticket whose channel no longer exists", slog.String(logging.KeyChannelID, existing.ChannelID))
		if err := m.tickets.CloseActiveTicket(ctx, req.GuildID, req.Member.UserID, ticketType, m.clk.Now().UTC()); err != nil && !errors.Is(err, dataaccess.ErrNotFound) {
			l.Error("Error closing stale ticket", slog.String(logging.KeyError, err.Error()))
		}
	case errors.Is(err, dataaccess.ErrNotFound):
	default:
		l.Error("Error getting open ticket", slog.String(logging.KeyError, err.Error()))
	}

	name := entities.TicketChannelName(req.Member.Username, ticketType)
	for _, c := range channels {
		if c.Type == discordgo.ChannelTypeGuildText && c.Name == name {
			return newError(KindAlreadyOpen, fmt.Sprintf(messages.TicketAlreadyOpenFmt, ChannelMention(c.ID)), nil)
		}
	}

	return nil
}

func channelExists(channels []*discordgo.Channel, id string) bool {
	for _, c := range channels {
		if c.ID == id {
			return true
		}
	}
	return false
}

// ticketOverwrites hides the channel from everyone but the creator and the staff roles.
func ticketOverwrites(guildID, userID string, settings *entities.TicketSettings) []*discordgo.PermissionOverwrite {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// The @everyone role shares the guild's ID.
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    userID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: ticketChannelPermissions,
		},
		{
			ID:    settings.ModeratorRoleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: staffChannelPermissions,
		},
	}

	for _, id := range settings.AdminRoleIDs {
		if id == "" || id == settings.ModeratorRoleID {
			continue
		}
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: staffChannelPermissions,
		})
	}

	return overwrites
}

func welcomeMessage(member Member, ticketType, welcome, channelID string, color int, now time.Time) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content: fmt.Sprintf(messages.TicketWelcomeFmt, member.Mention()),
		Embed: &discordgo.MessageEmbed{
			Title:       "Ticket - " + ticketType,
			Description: strings.ReplaceAll(welcome, "{user}", member.Mention()),
			Color:       color,
			Timestamp:   now.Format(time.RFC3339),
			Footer: &discordgo.MessageEmbedFooter{
				Text: "Ticket ID: " + channelID,
			},
		},
		Components: CloseControl(member.UserID),
	}
}

// CloseRequest asks for a ticket channel to be closed.
type CloseRequest struct {
	GuildID   string
	ChannelID string
	Closer    Member

	// CreatorID is the creator encoded in the close button. Empty for the slash command.
	CreatorID string

	Reason string
}

// CloseTicket delivers the transcript when one is configured, records the close and deletes the channel. Only a
// failed delete is reported as KindDeleteFailed; transcript and audit failures are logged. Closes of the same
// channel run one at a time, and a close that finds the ticket already closed returns KindAlreadyClosed.
func (m *Manager) CloseTicket(ctx context.Context, req CloseRequest) (err error) {
	t := prometheus.NewTimer(TicketOperationLatency.WithLabelValues("close"))
	defer func() {
		t.ObserveDuration()
		TicketOperations.WithLabelValues("close", outcome(err)).Inc()
	}()

	l := m.l.With(
		slog.String(logging.KeyGuildID, req.GuildID),
		slog.String(logging.KeyChannelID, req.ChannelID),
		slog.String(logging.KeyUserID, req.Closer.UserID),
	)

	unlockChannel := m.locks.Lock(channelLockKey(req.ChannelID))
	defer unlockChannel()

	channel, err := m.platform.Channel(ctx, req.ChannelID)
	if errors.Is(err, ErrPlatformNotFound) {
		return newError(KindAlreadyClosed, messages.TicketAlreadyClosed, nil)
	} else if err != nil {
		return newError(KindPlatform, messages.TicketCloseFailed, fmt.Errorf("error getting channel: %w", err))
	}

	settings := m.settings.GetSettings(ctx, req.GuildID)

	ticket, err := m.resolveTicket(ctx, l, req, channel, settings)
	if err != nil {
		return err
	}
	l = l.With(slog.String(logging.KeyTicketType, ticket.TicketType))

	if req.Closer.UserID != ticket.UserID && !HasModPermissions(settings, req.Closer) {
		return newError(KindPermission, messages.TicketNoPermissionClose, nil)
	}

	unlock := m.locks.Lock(entities.TicketKey(req.GuildID, ticket.UserID, ticket.TicketType))
	defer unlock()

	if settings.TranscriptChannelID != "" {
		if err := m.deliverTranscript(ctx, req, channel, settings.TranscriptChannelID); err != nil {
			l.Error("Error delivering transcript", slog.String(logging.KeyError, err.Error()))
		}
	}

	now := m.clk.Now().UTC()
	m.record(&entities.TicketLogEntry{
		GuildID:     req.GuildID,
		UserID:      ticket.UserID,
		TicketType:  ticket.TicketType,
		Action:      entities.TicketActionClosed,
		ChannelID:   req.ChannelID,
		ModeratorID: req.Closer.UserID,
		Reason:      req.Reason,
		CreatedAt:   custom.NewDatetime(now),
	})

	if err := m.platform.DeleteChannel(ctx, req.ChannelID); errors.Is(err, ErrPlatformNotFound) {
		l.Warn("Ticket channel was already deleted", slog.String(logging.KeyError, err.Error()))
	} else if err != nil {
		l.Error("Error deleting ticket channel", slog.String(logging.KeyError, err.Error()))
		return newError(KindDeleteFailed, messages.TicketCloseFailed, fmt.Errorf("error deleting ticket channel: %w", err))
	}

	if ticket.UserID != "" {
		err := m.tickets.CloseActiveTicket(ctx, req.GuildID, ticket.UserID, ticket.TicketType, now)
		if err != nil && !errors.Is(err, dataaccess.ErrNotFound) {
			l.Error("Error marking ticket closed", slog.String(logging.KeyError, err.Error()))
		}
	}

	l.Info("Ticket closed", slog.String("channel_name", channel.Name))
	return nil
}

func channelLockKey(channelID string) string {
	return "channel:" + channelID
}

// resolveTicket finds the ticket that owns the channel. Without a stored open ticket it falls back to the
// creator from the close button and the type from the channel topic or name.
func (m *Manager) resolveTicket(ctx context.Context, l *slog.Logger, req CloseRequest, channel *discordgo.Channel, settings *entities.TicketSettings) (*entities.ActiveTicket, error) {
	creatorID := req.CreatorID

	ticket, err := m.tickets.GetTicketByChannel(ctx, req.GuildID, req.ChannelID)
	switch {
	case err == nil && ticket.IsOpen():
		return ticket, nil
	case err == nil:
		if creatorID == "" {
			creatorID = ticket.UserID
		}
	case errors.Is(err, dataaccess.ErrNotFound):
	default:
		l.Error("Error getting ticket by channel", slog.String(logging.KeyError, err.Error()))
	}

	ticketType, ok := entities.TicketTypeFromChannelName(channel.Name, settings.Buttons)
	if !ok {
		return nil, newError(KindNotATicket, messages.TicketNotATicket, nil)
	}
	if fromTopic, ok := ticketTypeFromTopic(channel.Topic); ok {
		ticketType = fromTopic
	}

	return &entities.ActiveTicket{
		GuildID:    req.GuildID,
		UserID:     creatorID,
		ChannelID:  req.ChannelID,
		TicketType: ticketType,
		Status:     entities.TicketStatusOpen,
	}, nil
}

// topicTypeMarker separates the creator from the type in the topic of a ticket channel.
const topicTypeMarker = " | Type: "

// ticketTypeFromTopic reads the ticket type from the topic set when the channel was created. Usernames come before
// the marker, so the last marker is the one written by the bot.
func ticketTypeFromTopic(topic string) (string, bool) {
	i := strings.LastIndex(topic, topicTypeMarker)
	if i < 0 {
		return "", false
	}

	ticketType := strings.TrimSpace(topic[i+len(topicTypeMarker):])
	return ticketType, ticketType != ""
}

// deliverTranscript renders the channel history and posts it to the transcript channel.
func (m *Manager) deliverTranscript(ctx context.Context, req CloseRequest, channel *discordgo.Channel, transcriptChannelID string) error {
	history, historyErr := m.channelHistory(ctx, req.ChannelID)

	header := transcript.Header{ChannelName: channel.Name, GuildName: req.GuildID}
	if g, err := m.platform.Guild(ctx, req.GuildID); err == nil && g != nil {
		header.GuildName = g.Name
	}

	doc, err := m.transcripts.Generate(header, transcript.FromDiscord(history), historyErr)
	if err != nil {
		return fmt.Errorf("error generating transcript: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title:       messages.TicketTranscriptTitle,
		Description: fmt.Sprintf(messages.TicketTranscriptClosedBy, req.Closer.Mention()),
		Color:       transcriptEmbedColor,
		Timestamp:   m.clk.Now().UTC().Format(time.RFC3339),
	}
	if req.Reason != "" {
		embed.Fields = []*discordgo.MessageEmbedField{{
			Name:   messages.TicketTranscriptReason,
			Value:  req.Reason,
			Inline: false,
		}}
	}

	if _, err := m.platform.SendMessage(ctx, transcriptChannelID, &discordgo.MessageSend{
		Embed: embed,
		Files: []*discordgo.File{doc.File()},
	}); err != nil {
		return fmt.Errorf("error sending transcript: %w", err)
	}
	return nil
}

// channelHistory pages through the channel's messages. On error it returns what was read so far with the error.
func (m *Manager) channelHistory(ctx context.Context, channelID string) ([]*discordgo.Message, error) {
	var (
		all    []*discordgo.Message
		before string
	)

	for page := 0; page < maxHistoryPages; page++ {
		msgs, err := m.platform.ChannelMessages(ctx, channelID, historyPageSize, before)
		if err != nil {
			return all, err
		}

		all = append(all, msgs...)
		if len(msgs) < historyPageSize {
			break
		}
		before = msgs[len(msgs)-1].ID
	}

	return all, nil
}

// ListOpenTickets lists the member's open tickets in a guild.
func (m *Manager) ListOpenTickets(ctx context.Context, guildID, userID string) ([]*entities.ActiveTicket, error) {
	tickets, err := m.tickets.ListOpenTickets(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing open tickets: %w", err)
	}
	return tickets, nil
}

// SweepLimiter drops rate limiter keys whose calls have all expired.
func (m *Manager) SweepLimiter() int {
	return m.limiter.Sweep()
}

func (m *Manager) record(entry *entities.TicketLogEntry) {
	if m.audit == nil {
		return
	}
	m.audit.Record(entry)
}
