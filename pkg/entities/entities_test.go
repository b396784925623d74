package entities

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultTicketSettings(t *testing.T) {
	s := DefaultTicketSettings("G123")

	require.Equal(t, "G123", s.GuildID)
	require.False(t, s.UseMenu)
	require.Empty(t, s.Buttons)
	require.NotNil(t, s.Buttons)
	require.NotNil(t, s.AdminRoleIDs)
	require.Equal(t, 5793266, s.EmbedColor)
	require.Equal(t, DefaultPanelMessage, s.PanelMessage)
	require.False(t, s.HasModeratorRole())
}

func TestTicketSettings_AddButton(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr error
		want    int
	}{
		{name: "New", label: "Billing", want: 2},
		{name: "DuplicateExact", label: "Support", wantErr: ErrDuplicateButton, want: 1},
		{name: "DuplicateCase", label: "sUpPoRt", wantErr: ErrDuplicateButton, want: 1},
		{name: "DuplicateSpaces", label: "  support ", wantErr: ErrDuplicateButton, want: 1},
		{name: "Empty", label: "   ", wantErr: ErrEmptyLabel, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultTicketSettings("G1")
			require.NoError(t, s.AddButton("Support", "Hi {user}!"))
			before := s.Clone().Buttons

			err := s.AddButton(tt.label, "welcome")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				require.Equal(t, before, s.Buttons, "list must be unchanged")
			} else {
				require.NoError(t, err)
			}
			require.Len(t, s.Buttons, tt.want)
		})
	}
}

func TestTicketSettings_AddButtonLimits(t *testing.T) {
	s := DefaultTicketSettings("G1")
	for i := 0; i < MaxButtons; i++ {
		require.NoError(t, s.AddButton(strings.Repeat("x", i+1), "hello"))
	}
	require.ErrorIs(t, s.AddButton("one more", "hello"), ErrTooManyButtons)
	require.Len(t, s.Buttons, MaxButtons)

	s = DefaultTicketSettings("G1")
	require.NoError(t, s.AddButton(strings.Repeat("é", 120), "hello"))
	require.Equal(t, MaxButtonLabelLength, len([]rune(s.Buttons[0].Label)))
}

func TestTicketSettings_RemoveButton(t *testing.T) {
	s := DefaultTicketSettings("G1")
	require.NoError(t, s.AddButton("Support", "a"))
	require.NoError(t, s.AddButton("Billing", "b"))
	require.NoError(t, s.AddButton("Appeal", "c"))

	require.NoError(t, s.RemoveButton("billing"))
	require.Equal(t, []TicketButton{{Label: "Support", WelcomeMessage: "a"}, {Label: "Appeal", WelcomeMessage: "c"}}, s.Buttons)

	require.ErrorIs(t, s.RemoveButton("Billing"), ErrButtonNotFound)

	s.ClearButtons()
	require.Empty(t, s.Buttons)
	require.NotNil(t, s.Buttons)
}

func TestTicketSettings_AdminRoles(t *testing.T) {
	s := DefaultTicketSettings("G1")

	require.True(t, s.AddAdminRole("R1"))
	require.False(t, s.AddAdminRole("R1"))
	require.True(t, s.AddAdminRole("R2"))
	require.Equal(t, []string{"R1", "R2"}, s.AdminRoleIDs)

	require.True(t, s.RemoveAdminRole("R1"))
	require.False(t, s.RemoveAdminRole("R1"))
	require.Equal(t, []string{"R2"}, s.AdminRoleIDs)
}

func TestTicketSettings_CloneIsDeep(t *testing.T) {
	s := DefaultTicketSettings("G1")
	require.NoError(t, s.AddButton("Support", "a"))
	s.AddAdminRole("R1")

	c := s.Clone()
	c.Buttons[0].Label = "Changed"
	c.AdminRoleIDs[0] = "R9"
	require.NoError(t, c.AddButton("Other", "b"))

	require.Equal(t, "Support", s.Buttons[0].Label)
	require.Equal(t, "R1", s.AdminRoleIDs[0])
	require.Len(t, s.Buttons, 1)
}

func TestTicketSettings_Normalize(t *testing.T) {
	s := &TicketSettings{GuildID: "G1", EmbedColor: 1}
	s.Normalize()

	require.NotNil(t, s.Buttons)
	require.NotNil(t, s.AdminRoleIDs)
	require.Equal(t, DefaultPanelMessage, s.PanelMessage)
	require.Equal(t, 1, s.EmbedColor)
}

func TestTicketChannelName(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		ticketType string
		want       string
	}{
		{name: "Simple", username: "alice", ticketType: "Support", want: "ticket-alice-support"},
		{name: "Spaces", username: "Bob Smith", ticketType: "Ban Appeal", want: "ticket-bob-smith-ban-appeal"},
		{name: "Truncated", username: strings.Repeat("a", 120), ticketType: "x", want: "ticket-" + strings.Repeat("a", 93)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, TicketChannelName(tt.username, tt.ticketType))
		})
	}
}

func TestTicketTypeFromChannelName(t *testing.T) {
	buttons := []TicketButton{
		{Label: "Help"},
		{Label: "Billing Help"},
		{Label: "Support"},
	}

	tests := []struct {
		name    string
		in      string
		buttons []TicketButton
		want    string
		wantOK  bool
	}{
		{name: "Typed", in: "ticket-alice-support", want: "support", wantOK: true},
		{name: "Untyped", in: "ticket-alice", want: "general", wantOK: true},
		{name: "NotATicket", in: "general", wantOK: false},
		{name: "ConfiguredLabel", in: "ticket-alice-support", buttons: buttons, want: "Support", wantOK: true},
		{name: "MultiWordLabel", in: "ticket-alice-billing-help", buttons: buttons, want: "Billing Help", wantOK: true},
		{name: "ShorterLabel", in: "ticket-alice-help", buttons: buttons, want: "Help", wantOK: true},
		{name: "DashedUsername", in: "ticket-mary-jane-billing-help", buttons: buttons, want: "Billing Help", wantOK: true},
		{name: "UnknownLabel", in: "ticket-alice-appeal", buttons: buttons, want: "appeal", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TicketTypeFromChannelName(tt.in, tt.buttons)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTicketKey(t *testing.T) {
	a := &ActiveTicket{GuildID: "G1", UserID: "U1", TicketType: "Support"}
	require.Equal(t, "G1:U1:support", a.Key())
	require.Equal(t, a.Key(), TicketKey("G1", "U1", "SUPPORT"))
}
