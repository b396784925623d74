package entities

import "github.com/Jacobbrewer1/warden/pkg/custom"

// TicketAction is an event in a ticket's lifecycle.
type TicketAction string

const (
	// TicketActionCreated is recorded when a ticket channel is created.
	TicketActionCreated TicketAction = "created"

	// TicketActionClosed is recorded when a ticket channel is closed.
	TicketActionClosed TicketAction = "closed"
)

// TicketLogEntry is an append-only audit record of a ticket action.
type TicketLogEntry struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// UserID is the ID of the ticket creator.
	UserID string `json:"user_id" bson:"user_id"`

	// TicketType is the ticket type.
	TicketType string `json:"ticket_type" bson:"ticket_type"`

	// Action is what happened.
	Action TicketAction `json:"action" bson:"action"`

	// ChannelID is the ticket channel.
	ChannelID string `json:"channel_id,omitempty" bson:"channel_id,omitempty"`

	// ModeratorID is the user that closed the ticket.
	ModeratorID string `json:"moderator_id,omitempty" bson:"moderator_id,omitempty"`

	// Reason is the optional close reason.
	Reason string `json:"reason,omitempty" bson:"reason,omitempty"`

	// CreatedAt is when the action happened.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`
}
