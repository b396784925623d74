package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/messages"
	"github.com/Jacobbrewer1/warden/pkg/tickets"
)

func (a *App) interactionCreateHandler() func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			if i.ApplicationCommandData().Name != ticketCmdName {
				return
			}
			recoverInteraction(a, "command", a.handleTicketCommand)(i)
		case discordgo.InteractionMessageComponent:
			// Components of other features are not ours to answer.
			if !tickets.IsTicketComponent(i.MessageComponentData().CustomID) {
				return
			}
			recoverInteraction(a, "component", a.handleTicketComponent)(i)
		}
	}
}

// interactionMember returns the member behind a guild interaction. It answers the interaction itself when there is
// none.
func (a *App) interactionMember(i *discordgo.InteractionCreate) (tickets.Member, bool) {
	member, ok := tickets.MemberFromDiscord(i.Member)
	if !ok || i.GuildID == "" {
		if err := respondSlashEphemeral(a, i, messages.ErrGuildOnly); err != nil {
			a.l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return tickets.Member{}, false
	}
	return member, true
}

func (a *App) handleTicketComponent(i *discordgo.InteractionCreate) {
	member, ok := a.interactionMember(i)
	if !ok {
		return
	}

	data := i.MessageComponentData()
	l := a.l.With(
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyUserID, member.UserID),
		slog.String(logging.KeyCustomID, data.CustomID),
	)

	action, reply, err := routeComponent(a.ctx, a.registry, i.GuildID, data.CustomID, data.Values)
	if err != nil {
		logTicketError(l, "Error resolving ticket component", err)
	}
	if reply != "" {
		if err := respondSlashEphemeral(a, i, reply); err != nil {
			l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}
	if action == nil {
		return
	}

	switch action.Kind {
	case tickets.ActionCreateTicket, tickets.ActionSelectCreateTicket:
		a.createTicket(l, i, member, action.Button)
	case tickets.ActionCloseTicket:
		a.closeTicket(l, i, member, action.CreatorID, "")
	default:
		l.Error("Unhandled ticket action", slog.String("action", action.Kind.String()))
	}
}

// routeComponent resolves a component interaction to the action to run. When the component cannot be acted on,
// reply is the message to show the user; an empty reply with a nil action means the interaction is not answered.
func routeComponent(ctx context.Context, registry *tickets.ComponentRegistry, guildID, customID string, values []string) (*tickets.PendingAction, string, error) {
	action, err := registry.Resolve(ctx, guildID, customID, values)
	if errors.Is(err, tickets.ErrUnknownComponent) {
		return nil, "", nil
	} else if err != nil {
		return nil, tickets.UserMessage(err, messages.ErrUserErrorProcessing), err
	}
	return action, "", nil
}

func (a *App) createTicket(l *slog.Logger, i *discordgo.InteractionCreate, member tickets.Member, button entities.TicketButton) {
	if err := deferEphemeral(a, i); err != nil {
		l.Error("Error acknowledging interaction", slog.String(logging.KeyError, err.Error()))
		return
	}

	var content string
	ch, err := a.manager.CreateTicket(a.ctx, tickets.CreateRequest{
		GuildID: i.GuildID,
		Member:  member,
		Button:  button,
	})
	if err != nil {
		logTicketError(l, "Error creating ticket", err)
		content = tickets.UserMessage(err, messages.TicketCreateFailed)
	} else {
		content = fmt.Sprintf(messages.TicketCreatedFmt, tickets.ChannelMention(ch.ID))
	}

	if err := followupEphemeral(a, i, content); err != nil {
		l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
	}
}

// closeTicket closes the ticket in the interaction's channel. On success the channel, and with it the reply, is gone.
func (a *App) closeTicket(l *slog.Logger, i *discordgo.InteractionCreate, member tickets.Member, creatorID, reason string) {
	if err := deferEphemeral(a, i); err != nil {
		l.Error("Error acknowledging interaction", slog.String(logging.KeyError, err.Error()))
		return
	}

	err := a.manager.CloseTicket(a.ctx, tickets.CloseRequest{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Closer:    member,
		CreatorID: creatorID,
		Reason:    reason,
	})
	if err == nil {
		return
	}

	logTicketError(l, "Error closing ticket", err)
	if err := followupEphemeral(a, i, tickets.UserMessage(err, messages.TicketCloseFailed)); err != nil {
		l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
	}
}

// logTicketError logs denials at debug level and everything else as an error.
func logTicketError(l *slog.Logger, msg string, err error) {
	if tickets.IsDenied(err) {
		l.Debug(msg, slog.String("kind", tickets.KindOf(err).String()), slog.String(logging.KeyError, err.Error()))
		return
	}
	l.Error(msg, slog.String(logging.KeyError, err.Error()))
}
