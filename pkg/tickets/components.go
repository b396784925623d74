package tickets

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode/utf8"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/messages"
)

const (
	createComponentPrefix = "ticket_"
	selectComponentPrefix = "ticket_select_"
	closeComponentPrefix  = "close_ticket_"

	// MaxPanelComponents is the platform limit on buttons in a message and options in a menu.
	MaxPanelComponents = 25

	buttonsPerRow       = 5
	maxMenuOptionLength = 100
	componentHashLength = 8
)

// ButtonCustomID returns the component ID of a panel button. It depends only on the guild and the label, so a
// panel posted before a restart is still recognised after it.
func ButtonCustomID(guildID, label string) string {
	sum := md5.Sum([]byte(guildID + "_" + label))
	return createComponentPrefix + hex.EncodeToString(sum[:])[:componentHashLength]
}

// SelectCustomID returns the component ID of a guild's panel menu.
func SelectCustomID(guildID string) string {
	return selectComponentPrefix + guildID
}

// CloseCustomID returns the component ID of the close button of a ticket.
func CloseCustomID(creatorID string) string {
	return closeComponentPrefix + creatorID
}

// IsTicketComponent reports whether the custom ID belongs to the ticket system.
func IsTicketComponent(customID string) bool {
	return strings.HasPrefix(customID, createComponentPrefix) || strings.HasPrefix(customID, closeComponentPrefix)
}

// ActionKind is what a resolved component asks for.
type ActionKind int

const (
	// ActionCreateTicket is a panel button.
	ActionCreateTicket ActionKind = iota + 1

	// ActionSelectCreateTicket is a panel menu choice.
	ActionSelectCreateTicket

	// ActionCloseTicket is a ticket's close button.
	ActionCloseTicket
)

func (k ActionKind) String() string {
	switch k {
	case ActionCreateTicket:
		return "create_ticket"
	case ActionSelectCreateTicket:
		return "select_create_ticket"
	case ActionCloseTicket:
		return "close_ticket"
	default:
		return "unknown"
	}
}

// PendingAction is a component interaction resolved against the guild's current settings.
type PendingAction struct {
	Kind    ActionKind
	GuildID string

	// Button is the ticket type to create. Set for the create kinds.
	Button entities.TicketButton

	// CreatorID is the ticket creator encoded in a close button.
	CreatorID string
}

// MatchComponent resolves a component ID against settings. Create IDs are matched by recomputing the ID of every
// configured button; an ID that matches nothing is stale and yields a KindStale error. IDs outside the ticket
// system yield ErrUnknownComponent.
func MatchComponent(settings *entities.TicketSettings, customID string, values []string) (*PendingAction, error) {
	switch {
	case strings.HasPrefix(customID, closeComponentPrefix):
		return &PendingAction{
			Kind:      ActionCloseTicket,
			GuildID:   settings.GuildID,
			CreatorID: strings.TrimPrefix(customID, closeComponentPrefix),
		}, nil

	// The select prefix also starts with the create prefix, so it is checked first.
	case strings.HasPrefix(customID, selectComponentPrefix):
		if customID != SelectCustomID(settings.GuildID) || len(values) == 0 {
			return nil, newError(KindStale, messages.TicketStaleComponent, nil)
		}

		button, ok := settings.FindButton(values[0])
		if !ok {
			return nil, newError(KindStale, messages.TicketStaleComponent, nil)
		}

		return &PendingAction{
			Kind:    ActionSelectCreateTicket,
			GuildID: settings.GuildID,
			Button:  button,
		}, nil

	case strings.HasPrefix(customID, createComponentPrefix):
		for _, b := range panelButtons(settings) {
			if ButtonCustomID(settings.GuildID, b.Label) == customID {
				return &PendingAction{
					Kind:    ActionCreateTicket,
					GuildID: settings.GuildID,
					Button:  b,
				}, nil
			}
		}
		return nil, newError(KindStale, messages.TicketStaleComponent, nil)

	default:
		return nil, ErrUnknownComponent
	}
}

// ComponentRegistry resolves component interactions using the settings store.
type ComponentRegistry struct {
	settings *SettingsStore
}

func NewComponentRegistry(settings *SettingsStore) *ComponentRegistry {
	return &ComponentRegistry{
		settings: settings,
	}
}

// Resolve resolves a component interaction from a guild.
func (r *ComponentRegistry) Resolve(ctx context.Context, guildID, customID string, values []string) (*PendingAction, error) {
	if !IsTicketComponent(customID) {
		return nil, ErrUnknownComponent
	}

	action, err := MatchComponent(r.settings.GetSettings(ctx, guildID), customID, values)
	if err != nil {
		ComponentResolutions.WithLabelValues(outcome(err)).Inc()
		return nil, err
	}

	ComponentResolutions.WithLabelValues(action.Kind.String()).Inc()
	return action, nil
}

// panelButtons is the configured buttons that fit on a panel, earliest first.
func panelButtons(settings *entities.TicketSettings) []entities.TicketButton {
	if len(settings.Buttons) > MaxPanelComponents {
		return settings.Buttons[:MaxPanelComponents]
	}
	return settings.Buttons
}

// PanelComponents builds the interactive part of a panel: a single menu, or rows of buttons.
func PanelComponents(settings *entities.TicketSettings) []discordgo.MessageComponent {
	buttons := panelButtons(settings)

	if settings.UseMenu {
		options := make([]discordgo.SelectMenuOption, 0, len(buttons))
		for _, b := range buttons {
			options = append(options, discordgo.SelectMenuOption{
				Label:       truncate(b.Label, maxMenuOptionLength),
				Value:       b.Label,
				Description: messages.TicketMenuOptionHint,
			})
		}

		return []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.SelectMenu{
						CustomID:    SelectCustomID(settings.GuildID),
						Placeholder: messages.TicketMenuPlaceholder,
						Options:     options,
					},
				},
			},
		}
	}

	rows := make([]discordgo.MessageComponent, 0, (len(buttons)+buttonsPerRow-1)/buttonsPerRow)
	for start := 0; start < len(buttons); start += buttonsPerRow {
		end := min(start+buttonsPerRow, len(buttons))

		row := make([]discordgo.MessageComponent, 0, end-start)
		for _, b := range buttons[start:end] {
			row = append(row, discordgo.Button{
				Label:    entities.TruncateLabel(b.Label),
				Style:    discordgo.SuccessButton,
				CustomID: ButtonCustomID(settings.GuildID, b.Label),
			})
		}

		rows = append(rows, discordgo.ActionsRow{Components: row})
	}
	return rows
}

// BuildPanel builds the panel message. A panel needs a moderator role and at least one button.
func BuildPanel(settings *entities.TicketSettings) (*discordgo.MessageSend, error) {
	if !settings.HasModeratorRole() {
		return nil, newError(KindNotConfigured, messages.TicketPanelNeedsModRole, nil)
	}
	if len(settings.Buttons) == 0 {
		return nil, newError(KindNotConfigured, messages.TicketPanelNeedsButton, nil)
	}

	return &discordgo.MessageSend{
		Embed: &discordgo.MessageEmbed{
			Title:       messages.TicketPanelTitle,
			Description: settings.PanelMessage,
			Color:       settings.EmbedColor,
		},
		Components: PanelComponents(settings),
	}, nil
}

// CloseControl builds the close button sent into a new ticket.
func CloseControl(creatorID string) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    messages.TicketCloseButtonLabel,
					Style:    discordgo.DangerButton,
					CustomID: CloseCustomID(creatorID),
				},
			},
		},
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
