package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/messages"
	"github.com/Jacobbrewer1/warden/pkg/tickets"
)

const (
	// ticketCmdName is the command for everything ticket related.
	ticketCmdName = "ticket"

	setupSubCmdName           = "setup"
	modRoleSubCmdName         = "mod_role"
	adminRoleSubCmdName       = "admin_role"
	removeAdminRoleSubCmdName = "remove_admin_role"
	transcriptSubCmdName      = "transcript"
	addButtonSubCmdName       = "add_button"
	removeButtonSubCmdName    = "remove_button"
	clearButtonsSubCmdName    = "clear_buttons"
	panelSubCmdName           = "panel"
	settingsSubCmdName        = "settings"
	uiSubCmdName              = "ui"
	closeSubCmdName           = "close"
	mineSubCmdName            = "mine"
	helpSubCmdName            = "help"

	roleOptionName    = "role"
	channelOptionName = "channel"
	labelOptionName   = "label"
	welcomeOptionName = "welcome_message"
	messageOptionName = "message"
	modeOptionName    = "mode"
	reasonOptionName  = "reason"
)

func roleOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Name:        roleOptionName,
		Type:        discordgo.ApplicationCommandOptionRole,
		Description: description,
		Required:    true,
	}
}

// ticketCmd is the command for controlling tickets.
var ticketCmd = &discordgo.ApplicationCommand{
	Name:        ticketCmdName,
	Type:        discordgo.ChatApplicationCommand,
	Description: "Configure and manage tickets.",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Name:        setupSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Guided setup of the ticket system.",
		},
		{
			Name:        modRoleSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Set the role that can see every ticket.",
			Options:     []*discordgo.ApplicationCommandOption{roleOption("The moderator role.")},
		},
		{
			Name:        adminRoleSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Allow a role to configure tickets.",
			Options:     []*discordgo.ApplicationCommandOption{roleOption("The role to add.")},
		},
		{
			Name:        removeAdminRoleSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Stop a role from configuring tickets.",
			Options:     []*discordgo.ApplicationCommandOption{roleOption("The role to remove.")},
		},
		{
			Name:        transcriptSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Set the channel that receives transcripts of closed tickets.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:         channelOptionName,
					Type:         discordgo.ApplicationCommandOptionChannel,
					Description:  "The transcript channel.",
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
					Required:     true,
				},
			},
		},
		{
			Name:        addButtonSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Add a ticket type to the panel.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        labelOptionName,
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The button label, which is also the ticket type.",
					MaxLength:   entities.MaxButtonLabelLength,
					Required:    true,
				},
				{
					Name:        welcomeOptionName,
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "Sent into new tickets of this type. {user} mentions the creator.",
					Required:    true,
				},
			},
		},
		{
			Name:        removeButtonSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Remove a ticket type from the panel.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        labelOptionName,
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The button label.",
					Required:    true,
				},
			},
		},
		{
			Name:        clearButtonsSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Remove every ticket type.",
		},
		{
			Name:        panelSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Post the ticket panel in this channel.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        messageOptionName,
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The panel text.",
				},
			},
		},
		{
			Name:        settingsSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Show the ticket configuration.",
		},
		{
			Name:        uiSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Choose buttons or a menu for the panel.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        modeOptionName,
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "The panel style.",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "button", Value: "button"},
						{Name: "menu", Value: "menu"},
						{Name: "dropdown", Value: "dropdown"},
					},
				},
			},
		},
		{
			Name:        closeSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Close the ticket in this channel.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Name:        reasonOptionName,
					Type:        discordgo.ApplicationCommandOptionString,
					Description: "Why the ticket is closed.",
				},
			},
		},
		{
			Name:        mineSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "List your open tickets.",
		},
		{
			Name:        helpSubCmdName,
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Description: "Show the ticket commands.",
		},
	},
}

// accessLevel is who may run a subcommand.
type accessLevel int

const (
	accessMember accessLevel = iota
	accessConfigure
	accessAdministrator
)

func hasAccess(level accessLevel, settings *entities.TicketSettings, m tickets.Member) bool {
	switch level {
	case accessMember:
		return true
	case accessConfigure:
		return tickets.CanConfigure(settings, m)
	case accessAdministrator:
		return m.Administrator
	default:
		return false
	}
}

type commandOptions map[string]*discordgo.ApplicationCommandInteractionDataOption

func newCommandOptions(opts []*discordgo.ApplicationCommandInteractionDataOption) commandOptions {
	o := make(commandOptions, len(opts))
	for _, opt := range opts {
		o[opt.Name] = opt
	}
	return o
}

// String returns the value of a string, role or channel option. Role and channel options carry their ID.
func (o commandOptions) String(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	v, _ := opt.Value.(string)
	return strings.TrimSpace(v)
}

type subcommandRunner func(i *discordgo.InteractionCreate, member tickets.Member, opts commandOptions) error

type ticketSubcommand struct {
	access accessLevel
	run    subcommandRunner
}

func (a *App) ticketSubcommands() map[string]ticketSubcommand {
	return map[string]ticketSubcommand{
		setupSubCmdName:           {access: accessConfigure, run: a.ticketSetup},
		modRoleSubCmdName:         {access: accessConfigure, run: a.ticketModRole},
		adminRoleSubCmdName:       {access: accessAdministrator, run: a.ticketAdminRole},
		removeAdminRoleSubCmdName: {access: accessAdministrator, run: a.ticketRemoveAdminRole},
		transcriptSubCmdName:      {access: accessConfigure, run: a.ticketTranscript},
		addButtonSubCmdName:       {access: accessConfigure, run: a.ticketAddButton},
		removeButtonSubCmdName:    {access: accessConfigure, run: a.ticketRemoveButton},
		clearButtonsSubCmdName:    {access: accessConfigure, run: a.ticketClearButtons},
		panelSubCmdName:           {access: accessConfigure, run: a.ticketPanel},
		settingsSubCmdName:        {access: accessConfigure, run: a.ticketSettings},
		uiSubCmdName:              {access: accessConfigure, run: a.ticketUI},
		closeSubCmdName:           {access: accessMember, run: a.ticketClose},
		mineSubCmdName:            {access: accessMember, run: a.ticketMine},
		helpSubCmdName:            {access: accessMember, run: a.ticketHelp},
	}
}

func (a *App) handleTicketCommand(i *discordgo.InteractionCreate) {
	member, ok := a.interactionMember(i)
	if !ok {
		return
	}

	data := i.ApplicationCommandData()
	l := a.l.With(
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyUserID, member.UserID),
	)

	if len(data.Options) == 0 {
		l.Error("Ticket command without a subcommand")
		if err := respondSlashError(a, i); err != nil {
			l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	sub := data.Options[0]
	l = l.With(slog.String("subcommand", sub.Name))

	cmd, ok := a.ticketSubcommands()[sub.Name]
	if !ok {
		l.Error("No handler found for subcommand")
		if err := respondSlashError(a, i); err != nil {
			l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	if cmd.access != accessMember {
		settings := a.manager.Settings().GetSettings(a.ctx, i.GuildID)
		if !hasAccess(cmd.access, settings, member) {
			if err := respondSlashEphemeral(a, i, messages.ErrNoPermission); err != nil {
				l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
			return
		}
	}

	if err := cmd.run(i, member, newCommandOptions(sub.Options)); err != nil {
		l.Error("Error processing subcommand", slog.String(logging.KeyError, err.Error()))
		if err := respondSlashError(a, i); err != nil {
			l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
	}
}

// updateSettings applies fn to the guild settings and answers with the message it returns.
func (a *App) updateSettings(i *discordgo.InteractionCreate, fn func(s *entities.TicketSettings) (string, error)) error {
	var reply string
	_, err := a.manager.Settings().Update(a.ctx, i.GuildID, func(s *entities.TicketSettings) error {
		var err error
		reply, err = fn(s)
		return err
	})

	if msg, ok := settingsErrorMessage(err); ok {
		return respondSlashEphemeral(a, i, msg)
	} else if err != nil {
		return err
	}
	return respondSlashEphemeral(a, i, reply)
}

// settingsErrorMessage maps validation errors to the message for the caller.
func settingsErrorMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, entities.ErrDuplicateButton):
		return messages.TicketButtonDuplicate, true
	case errors.Is(err, entities.ErrTooManyButtons):
		return messages.TicketButtonsFull, true
	case errors.Is(err, entities.ErrButtonNotFound):
		return messages.TicketButtonNotFound, true
	case errors.Is(err, entities.ErrEmptyLabel):
		return messages.TicketButtonEmpty, true
	case errors.Is(err, errInvalidUIMode):
		return messages.TicketUIModeInvalid, true
	default:
		return "", false
	}
}

func (a *App) ticketSetup(i *discordgo.InteractionCreate, member tickets.Member, _ commandOptions) error {
	return a.runSetupWizard(i, member)
}

func (a *App) ticketModRole(i *discordgo.InteractionCreate, _ tickets.Member, opts commandOptions) error {
	roleID := opts.String(roleOptionName)
	return a.updateSettings(i, func(s *entities.TicketSettings) (string, error) {
		s.ModeratorRoleID = roleID
		return fmt.Sprintf(messages.TicketModRoleSetFmt, tickets.RoleMention(roleID)), nil
	})
}

func (a *App) ticketAdminRole(i *discordgo.InteractionCreate, _ tickets.Member, opts commandOptions) error {
	roleID := opts.String(roleOptionName)
	return a.updateSettings(i, func(s *entities.TicketSettings) (string, error) {
		if !s.AddAdminRole(roleID) {
			return fmt.Sprintf(messages.TicketAdminRoleExistsFmt, tickets.RoleMention(roleID)), nil
		}
		return fmt.Sprintf(messages.TicketAdminRoleAddedFmt, tickets.RoleMention(roleID)), nil
	})
}

func (a *App) ticketRemoveAdminRole(i *discordgo.InteractionCreate, _ tickets.Member, opts commandOptions) error {
	roleID := opts.String(roleOptionName)
	return a.updateSettings(i, func(s *entities.TicketSettings) (string, error) {
		if !s.RemoveAdminRole(roleID) {
			return fmt.Sprintf(messages.TicketAdminRoleMissFmt, tickets.RoleMention(roleID)), nil
		}
		return fmt.Sprintf(messages.TicketAdminRoleRemoveFmt, tickets.RoleMention(roleID)), nil
	})
}

func (a *App) ticketTranscript(i *discordgo.InteractionCreate, _ tickets.Member, opts commandOptions) error {
	channelID := opts.String(channelOptionName)
	return a.updateSettings(i, func(s *entities.TicketSettings) (string, error) {
		s.TranscriptChannelID = channelID
		return fmt.Sprintf(messages.TicketTranscriptSetFmt, tickets.ChannelMention(channelID)), nil
	})
}

func (a *App) ticketAddButton(i *discordgo.InteractionCreate, _ tickets.Member, opts commandOptions) error {
	label := opts.String(labelOptionName)
	welcome := opts.String(welcomeOptionName)
	return a.updateSettings(i, func(s *entities.TicketSettings) (string, error) {
		if err := s.AddButton(label, welcome); err != nil {
			return "", err
		}
		return fmt.Sprintf(messages.TicketButtonAddedFmt, entities.TruncateLabel(label)), nil
	})
}

func (a *App) ticketRemoveButton(i *discordgo.InteractionCreate, _ tickets.Member, opts commandOptions) error {
	label := opts.String(labelOptionName)
	return a.updateSettings(i, func(s *entities.TicketSettings) (string, error) {
		if err := s.RemoveButton(label); err != nil {
			return "", err
		}
		return fmt.Sprintf(messages.TicketButtonRemovedFmt, label), nil
	})
}

func (a *App) ticketClearButtons(i *discordgo.InteractionCreate, _ tickets.Member, _ commandOptions) error {
	return a.updateSettings(i, func(s *entities.TicketSettings) (string, error) {
		s.ClearButtons()
		return messages.TicketButtonsCleared, nil
	})
}

var errInvalidUIMode = errors.New("invalid ui mode")

// parseUIMode reports whether the mode selects the menu.
func parseUIMode(mode string) (bool, error) {
	switch strings.ToLower(mode) {
	case "menu", "dropdown":
		return true, nil
	case "button", "buttons":
		return false, nil
	default:
		return false, errInvalidUIMode
	}
}

func (a *App) ticketUI(i *discordgo.InteractionCreate, _ tickets.Member, opts commandOptions) error {
	mode := opts.String(modeOptionName)
	return a.updateSettings(i, func(s *entities.TicketSettings) (string, error) {
		useMenu, err := parseUIMode(mode)
		if err != nil {
			return "", err
		}
		s.UseMenu = useMenu
		return fmt.Sprintf(messages.TicketUIModeFmt, uiModeName(useMenu)), nil
	})
}

func uiModeName(useMenu bool) string {
	if useMenu {
		return "menu"
	}
	return "buttons"
}

func (a *App) ticketPanel(i *discordgo.InteractionCreate, _ tickets.Member, opts commandOptions) error {
	settings := a.manager.Settings().GetSettings(a.ctx, i.GuildID)

	if text := opts.String(messageOptionName); text != "" {
		var err error
		settings, err = a.manager.Settings().Update(a.ctx, i.GuildID, func(s *entities.TicketSettings) error {
			s.PanelMessage = text
			return nil
		})
		if err != nil {
			return fmt.Errorf("error saving panel message: %w", err)
		}
	}

	panel, err := tickets.BuildPanel(settings)
	if err != nil {
		return respondSlashEphemeral(a, i, tickets.UserMessage(err, messages.ErrUserErrorProcessing))
	}

	if _, err := a.s.ChannelMessageSendComplex(i.ChannelID, panel); err != nil {
		return fmt.Errorf("error sending panel: %w", err)
	}
	return respondSlashEphemeral(a, i, messages.TicketPanelPosted)
}

func (a *App) ticketSettings(i *discordgo.InteractionCreate, _ tickets.Member, _ commandOptions) error {
	return respondEmbedEphemeral(a, i, settingsEmbed(a.manager.Settings().GetSettings(a.ctx, i.GuildID)))
}

func settingsEmbed(s *entities.TicketSettings) *discordgo.MessageEmbed {
	modRole := messages.TicketNotSet
	if s.HasModeratorRole() {
		modRole = tickets.RoleMention(s.ModeratorRoleID)
	}

	transcriptChannel := messages.TicketNotSet
	if s.TranscriptChannelID != "" {
		transcriptChannel = tickets.ChannelMention(s.TranscriptChannelID)
	}

	adminRoles := messages.TicketNone
	if len(s.AdminRoleIDs) > 0 {
		mentions := make([]string, 0, len(s.AdminRoleIDs))
		for _, id := range s.AdminRoleIDs {
			mentions = append(mentions, tickets.RoleMention(id))
		}
		adminRoles = strings.Join(mentions, ", ")
	}

	buttons := messages.TicketNone
	if len(s.Buttons) > 0 {
		labels := make([]string, 0, len(s.Buttons))
		for _, b := range s.Buttons {
			labels = append(labels, "• "+b.Label)
		}
		buttons = strings.Join(labels, "\n")
	}

	return &discordgo.MessageEmbed{
		Title: messages.TicketSettingsTitle,
		Color: s.EmbedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Moderator role", Value: modRole, Inline: true},
			{Name: "Admin roles", Value: adminRoles, Inline: true},
			{Name: "Transcript channel", Value: transcriptChannel, Inline: true},
			{Name: "Panel style", Value: uiModeName(s.UseMenu), Inline: true},
			{Name: fmt.Sprintf("Buttons (%d/%d)", len(s.Buttons), entities.MaxButtons), Value: buttons},
			{Name: "Panel message", Value: s.PanelMessage},
		},
	}
}

func (a *App) ticketClose(i *discordgo.InteractionCreate, member tickets.Member, opts commandOptions) error {
	l := a.l.With(
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyChannelID, i.ChannelID),
		slog.String(logging.KeyUserID, member.UserID),
	)
	a.closeTicket(l, i, member, "", opts.String(reasonOptionName))
	return nil
}

func (a *App) ticketMine(i *discordgo.InteractionCreate, member tickets.Member, _ commandOptions) error {
	open, err := a.manager.ListOpenTickets(a.ctx, i.GuildID, member.UserID)
	if err != nil {
		return err
	}

	if len(open) == 0 {
		return respondSlashEphemeral(a, i, messages.TicketNoOpenTickets)
	}
	return respondEmbedEphemeral(a, i, openTicketsEmbed(open))
}

func openTicketsEmbed(open []*entities.ActiveTicket) *discordgo.MessageEmbed {
	lines := make([]string, 0, len(open))
	for _, t := range open {
		lines = append(lines, fmt.Sprintf("**%s** %s (opened %s)", t.TicketType, tickets.ChannelMention(t.ChannelID), t.CreatedAt.Time().Format("2006-01-02 15:04")))
	}

	return &discordgo.MessageEmbed{
		Title:       messages.TicketOpenTicketsTitle,
		Description: strings.Join(lines, "\n"),
		Color:       entities.DefaultEmbedColor,
	}
}

func (a *App) ticketHelp(i *discordgo.InteractionCreate, _ tickets.Member, _ commandOptions) error {
	return respondEmbedEphemeral(a, i, &discordgo.MessageEmbed{
		Title:       messages.TicketHelpTitle,
		Description: messages.TicketHelp,
		Color:       entities.DefaultEmbedColor,
	})
}
