package tickets

import (
	"context"
	"fmt"
	"slices"

	"github.com/Jacobbrewer1/discordgo"
)

// Platform is the chat platform the ticket system drives.
type Platform interface {
	// Guild gets a guild.
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)

	// GuildChannels lists the channels of a guild.
	GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error)

	// Channel gets a channel.
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)

	// CreateChannel creates a channel in a guild.
	CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)

	// DeleteChannel deletes a channel.
	DeleteChannel(ctx context.Context, channelID string) error

	// SendMessage sends a message to a channel.
	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)

	// ChannelMessages returns up to limit messages sent before beforeID, newest first. An empty beforeID starts
	// from the latest message.
	ChannelMessages(ctx context.Context, channelID string, limit int, beforeID string) ([]*discordgo.Message, error)
}

// Member is the guild member performing an operation.
type Member struct {
	UserID        string
	Username      string
	RoleIDs       []string
	Administrator bool
}

// MemberFromDiscord builds a Member from the interaction member. It returns false when the interaction was not
// made inside a guild.
func MemberFromDiscord(m *discordgo.Member) (Member, bool) {
	if m == nil || m.User == nil {
		return Member{}, false
	}

	return Member{
		UserID:        m.User.ID,
		Username:      m.User.Username,
		RoleIDs:       m.Roles,
		Administrator: m.Permissions&discordgo.PermissionAdministrator != 0,
	}, true
}

// Mention returns the mention markup for the member.
func (m Member) Mention() string {
	return UserMention(m.UserID)
}

// HasRole reports whether the member holds roleID.
func (m Member) HasRole(roleID string) bool {
	return roleID != "" && slices.Contains(m.RoleIDs, roleID)
}

func UserMention(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

func ChannelMention(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}

func RoleMention(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}
