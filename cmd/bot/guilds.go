package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/cmd/bot/monitoring"
	"github.com/Jacobbrewer1/warden/pkg/logging"
)

func (a *App) guildJoinedHandler() func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(_ *discordgo.Session, g *discordgo.GuildCreate) {
		a.guildsMut.Lock()
		_, known := a.guilds[g.ID]
		a.guildsMut.Unlock()
		if known {
			// A guild coming back from an outage is created again.
			return
		}

		a.l.Info(fmt.Sprintf("Joined guild %s", g.Name), slog.String(logging.KeyGuildID, g.ID))

		cmd, err := a.s.ApplicationCommandCreate(a.cfg.ApplicationId, g.ID, ticketCmd)
		if err != nil {
			a.l.Error("Error creating ticket command",
				slog.String(logging.KeyGuildID, g.ID),
				slog.String(logging.KeyError, err.Error()),
			)
			return
		}

		a.guildsMut.Lock()
		a.guilds[g.ID] = cmd
		monitoring.TotalDiscordGuilds.Set(float64(len(a.guilds)))
		a.guildsMut.Unlock()
	}
}

func (a *App) guildLeaveHandler() func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			// An outage, not a removal.
			return
		}

		a.l.Info(fmt.Sprintf("Left guild %s", g.Name), slog.String(logging.KeyGuildID, g.ID))

		a.guildsMut.Lock()
		delete(a.guilds, g.ID)
		monitoring.TotalDiscordGuilds.Set(float64(len(a.guilds)))
		a.guildsMut.Unlock()

		a.manager.Settings().Invalidate(g.ID)
	}
}

// unregisterSlashCommands removes the ticket command from every guild it was registered in.
func (a *App) unregisterSlashCommands() error {
	a.guildsMut.Lock()
	defer a.guildsMut.Unlock()

	var errs []error
	for guildID, cmd := range a.guilds {
		if err := a.s.ApplicationCommandDelete(a.cfg.ApplicationId, guildID, cmd.ID); err != nil {
			errs = append(errs, fmt.Errorf("error deleting ticket command for guild %s: %w", guildID, err))
			continue
		}
		delete(a.guilds, guildID)
	}
	return errors.Join(errs...)
}
