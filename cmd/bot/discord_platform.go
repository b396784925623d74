package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/tickets"
)

var _ tickets.Platform = (*discordPlatform)(nil)

// discordPlatform drives the ticket system through a discord session.
type discordPlatform struct {
	s *discordgo.Session
}

func newDiscordPlatform(s *discordgo.Session) *discordPlatform {
	return &discordPlatform{
		s: s,
	}
}

// platformError marks permission and not found failures so the ticket system can tell them apart.
func platformError(err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return err
	}

	switch restErr.Response.StatusCode {
	case http.StatusForbidden:
		return fmt.Errorf("%w: %w", tickets.ErrPlatformForbidden, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", tickets.ErrPlatformNotFound, err)
	default:
		return err
	}
}

func (p *discordPlatform) Guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The state is filled from the gateway, so most lookups never reach the API.
	if g, err := p.s.State.Guild(guildID); err == nil {
		return g, nil
	}

	g, err := p.s.Guild(guildID)
	if err != nil {
		return nil, platformError(err)
	}
	return g, nil
}

func (p *discordPlatform) GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	channels, err := p.s.GuildChannels(guildID)
	if err != nil {
		return nil, platformError(err)
	}
	return channels, nil
}

func (p *discordPlatform) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch, err := p.s.Channel(channelID)
	if err != nil {
		return nil, platformError(err)
	}
	return ch, nil
}

func (p *discordPlatform) CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ch, err := p.s.GuildChannelCreateComplex(guildID, data)
	if err != nil {
		return nil, platformError(err)
	}
	return ch, nil
}

func (p *discordPlatform) DeleteChannel(ctx context.Context, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := p.s.ChannelDelete(channelID); err != nil {
		return platformError(err)
	}
	return nil
}

func (p *discordPlatform) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := p.s.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return nil, platformError(err)
	}
	return m, nil
}

func (p *discordPlatform) ChannelMessages(ctx context.Context, channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgs, err := p.s.ChannelMessages(channelID, limit, beforeID, "", "")
	if err != nil {
		return nil, platformError(err)
	}
	return msgs, nil
}
