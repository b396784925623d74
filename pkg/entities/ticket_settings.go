package entities

import (
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Jacobbrewer1/warden/pkg/custom"
)

const (
	// MaxButtons is the maximum number of ticket buttons a guild can configure.
	MaxButtons = 25

	// MaxButtonLabelLength is the maximum length of a button label.
	MaxButtonLabelLength = 80

	// DefaultEmbedColor is the embed colour used before a guild picks one.
	DefaultEmbedColor = 5793266

	// DefaultPanelMessage is the panel text used before a guild sets one.
	DefaultPanelMessage = "Click a button below to create a ticket:"
)

var (
	// ErrDuplicateButton is returned when a button label already exists (case-insensitive).
	ErrDuplicateButton = errors.New("a button with this label already exists")

	// ErrTooManyButtons is returned when the guild already has MaxButtons buttons.
	ErrTooManyButtons = errors.New("maximum number of buttons reached")

	// ErrButtonNotFound is returned when removing a label that is not configured.
	ErrButtonNotFound = errors.New("button not found")

	// ErrEmptyLabel is returned when a button label is blank.
	ErrEmptyLabel = errors.New("button label is empty")
)

// TicketButton is a ticket type offered on the panel.
type TicketButton struct {
	// Label is the text of the button. It is also the ticket type.
	Label string `json:"label" bson:"label"`

	// WelcomeMessage is sent into new tickets of this type. {user} is replaced by a mention of the creator.
	WelcomeMessage string `json:"welcome_message" bson:"welcome_message"`
}

// TicketSettings is the ticket configuration for a guild.
type TicketSettings struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ModeratorRoleID is the role that is granted access to every ticket. Empty when not configured.
	ModeratorRoleID string `json:"mod_role_id" bson:"mod_role_id"`

	// AdminRoleIDs are the roles allowed to configure and manage tickets.
	AdminRoleIDs []string `json:"admin_role_ids" bson:"admin_role_ids"`

	// TranscriptChannelID is where transcripts are sent when a ticket is closed. Empty disables transcripts.
	TranscriptChannelID string `json:"transcript_channel_id" bson:"transcript_channel_id"`

	// Buttons are the configured ticket types, in panel order.
	Buttons []TicketButton `json:"custom_buttons" bson:"custom_buttons"`

	// PanelMessage is the description of the panel embed.
	PanelMessage string `json:"panel_message" bson:"panel_message"`

	// EmbedColor is the 24-bit RGB colour of the panel and welcome embeds.
	EmbedColor int `json:"embed_color" bson:"embed_color"`

	// UseMenu selects a dropdown instead of buttons on the panel.
	UseMenu bool `json:"use_menu" bson:"use_menu"`

	// UpdatedAt is when the settings were last saved.
	UpdatedAt custom.Datetime `json:"updated_at" bson:"updated_at"`
}

// DefaultTicketSettings returns the settings a guild starts with.
func DefaultTicketSettings(guildID string) *TicketSettings {
	return &TicketSettings{
		GuildID:      guildID,
		AdminRoleIDs: []string{},
		Buttons:      []TicketButton{},
		PanelMessage: DefaultPanelMessage,
		EmbedColor:   DefaultEmbedColor,
		UseMenu:      false,
	}
}

// Normalize fills in fields that older records may have left empty.
func (s *TicketSettings) Normalize() {
	if s.AdminRoleIDs == nil {
		s.AdminRoleIDs = []string{}
	}
	if s.Buttons == nil {
		s.Buttons = []TicketButton{}
	}
	if s.PanelMessage == "" {
		s.PanelMessage = DefaultPanelMessage
	}
}

// Clone returns a deep copy of the settings.
func (s *TicketSettings) Clone() *TicketSettings {
	if s == nil {
		return nil
	}

	c := *s
	c.AdminRoleIDs = append(make([]string, 0, len(s.AdminRoleIDs)), s.AdminRoleIDs...)
	c.Buttons = append(make([]TicketButton, 0, len(s.Buttons)), s.Buttons...)
	return &c
}

// HasModeratorRole reports whether a moderator role is configured.
func (s *TicketSettings) HasModeratorRole() bool {
	return s.ModeratorRoleID != ""
}

// AddButton appends a new ticket type. Labels longer than MaxButtonLabelLength are truncated.
func (s *TicketSettings) AddButton(label, welcomeMessage string) error {
	label = TruncateLabel(strings.TrimSpace(label))
	if label == "" {
		return ErrEmptyLabel
	}

	if _, ok := s.FindButton(label); ok {
		return ErrDuplicateButton
	}

	if len(s.Buttons) >= MaxButtons {
		return ErrTooManyButtons
	}

	s.Buttons = append(s.Buttons, TicketButton{
		Label:          label,
		WelcomeMessage: welcomeMessage,
	})
	return nil
}

// RemoveButton removes the button with the given label (case-insensitive).
func (s *TicketSettings) RemoveButton(label string) error {
	label = strings.TrimSpace(label)
	for i, b := range s.Buttons {
		if strings.EqualFold(b.Label, label) {
			s.Buttons = slices.Delete(s.Buttons, i, i+1)
			return nil
		}
	}
	return ErrButtonNotFound
}

// ClearButtons removes every button.
func (s *TicketSettings) ClearButtons() {
	s.Buttons = []TicketButton{}
}

// FindButton returns the button with the given label (case-insensitive).
func (s *TicketSettings) FindButton(label string) (TicketButton, bool) {
	for _, b := range s.Buttons {
		if strings.EqualFold(b.Label, label) {
			return b, true
		}
	}
	return TicketButton{}, false
}

// AddAdminRole adds roleID to the admin roles. It reports false if it was already present.
func (s *TicketSettings) AddAdminRole(roleID string) bool {
	if slices.Contains(s.AdminRoleIDs, roleID) {
		return false
	}
	s.AdminRoleIDs = append(s.AdminRoleIDs, roleID)
	return true
}

// RemoveAdminRole removes roleID from the admin roles. It reports false if it was not present.
func (s *TicketSettings) RemoveAdminRole(roleID string) bool {
	i := slices.Index(s.AdminRoleIDs, roleID)
	if i < 0 {
		return false
	}
	s.AdminRoleIDs = slices.Delete(s.AdminRoleIDs, i, i+1)
	return true
}

// TruncateLabel cuts a label down to MaxButtonLabelLength runes.
func TruncateLabel(label string) string {
	if utf8.RuneCountInString(label) <= MaxButtonLabelLength {
		return label
	}
	return string([]rune(label)[:MaxButtonLabelLength])
}
