package entities

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Jacobbrewer1/warden/pkg/custom"
)

// TicketStatus is the lifecycle state of a ticket.
type TicketStatus string

const (
	// TicketStatusOpen is a ticket with a live channel.
	TicketStatusOpen TicketStatus = "open"

	// TicketStatusClosed is a ticket whose channel has been deleted.
	TicketStatusClosed TicketStatus = "closed"
)

const (
	// TicketChannelPrefix is the prefix of every ticket channel name.
	TicketChannelPrefix = "ticket-"

	// maxChannelNameLength is the platform limit for channel names.
	maxChannelNameLength = 100
)

// ActiveTicket is a ticket channel owned by a user. A user can hold one open ticket per ticket type.
type ActiveTicket struct {
	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// UserID is the ID of the user that created the ticket.
	UserID string `json:"user_id" bson:"user_id"`

	// ChannelID is the ID of the channel that the ticket is in.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// TicketType is the label of the button the ticket was created from.
	TicketType string `json:"ticket_type" bson:"ticket_type"`

	// Status is whether the ticket is open or closed.
	Status TicketStatus `json:"status" bson:"status"`

	// CreatedAt is the time that the ticket was created.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// ClosedAt is the time that the ticket was closed.
	ClosedAt *custom.Datetime `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
}

// IsOpen reports whether the ticket is open.
func (t *ActiveTicket) IsOpen() bool {
	return t.Status == TicketStatusOpen
}

// Key returns the unique key of the ticket: guild, user and ticket type.
func (t *ActiveTicket) Key() string {
	return TicketKey(t.GuildID, t.UserID, t.TicketType)
}

// TicketKey builds the unique key for a (guild, user, ticket type) triple.
func TicketKey(guildID, userID, ticketType string) string {
	return fmt.Sprintf("%s:%s:%s", guildID, userID, strings.ToLower(ticketType))
}

// TicketChannelName returns the channel name for a user's ticket of the given type.
// It follows the platform's channel name rules: lower case, spaces replaced by dashes, at most 100 characters.
func TicketChannelName(username, ticketType string) string {
	name := TicketChannelPrefix + slugify(username) + "-" + slugify(ticketType)
	if utf8.RuneCountInString(name) > maxChannelNameLength {
		name = string([]rune(name)[:maxChannelNameLength])
	}
	return name
}

// TicketTypeFromChannelName recovers the ticket type from a ticket channel name. The name ends with the slug of
// the type, so the longest configured button whose slug ends the name wins; without one the last segment is used.
// It returns false when the name is not a ticket channel.
func TicketTypeFromChannelName(name string, buttons []TicketButton) (string, bool) {
	if !strings.HasPrefix(name, TicketChannelPrefix) {
		return "", false
	}

	var match string
	for _, b := range buttons {
		slug := slugify(b.Label)
		if slug == "" || len(slug) <= len(slugify(match)) {
			continue
		}
		if strings.HasSuffix(name, "-"+slug) {
			match = b.Label
		}
	}
	if match != "" {
		return match, true
	}

	parts := strings.Split(name, "-")
	if len(parts) < 3 {
		return "general", true
	}
	return parts[len(parts)-1], true
}

func slugify(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}
