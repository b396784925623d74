package tickets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/cache"
	"github.com/Jacobbrewer1/warden/pkg/clock"
	"github.com/Jacobbrewer1/warden/pkg/dataaccess/memory"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/ratelimit"
	"github.com/Jacobbrewer1/warden/pkg/transcript"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentMessage struct {
	ChannelID string
	Message   *discordgo.MessageSend
}

// fakePlatform is an in-memory guild.
type fakePlatform struct {
	mut sync.Mutex

	nextID   int
	channels map[string]*discordgo.Channel
	created  []discordgo.GuildChannelCreateData
	deleted  []string
	sent     []sentMessage

	// history is the message history of a channel, newest first.
	history map[string][]*discordgo.Message

	createErr  error
	deleteErr  error
	historyErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		channels: make(map[string]*discordgo.Channel),
		history:  make(map[string][]*discordgo.Message),
	}
}

func (f *fakePlatform) addChannel(id, name string) {
	f.addChannelWithTopic(id, name, "")
}

func (f *fakePlatform) addChannelWithTopic(id, name, topic string) {
	f.mut.Lock()
	defer f.mut.Unlock()
	f.channels[id] = &discordgo.Channel{ID: id, GuildID: "G123", Name: name, Topic: topic, Type: discordgo.ChannelTypeGuildText}
}

func (f *fakePlatform) Guild(_ context.Context, guildID string) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID, Name: "Test Guild"}, nil
}

func (f *fakePlatform) GuildChannels(context.Context, string) ([]*discordgo.Channel, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	channels := make([]*discordgo.Channel, 0, len(f.channels))
	for _, c := range f.channels {
		channels = append(channels, c)
	}
	return channels, nil
}

func (f *fakePlatform) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	c, ok := f.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("%w: 404 Unknown Channel", ErrPlatformNotFound)
	}
	return c, nil
}

func (f *fakePlatform) CreateChannel(_ context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}

	f.nextID++
	c := &discordgo.Channel{
		ID:      fmt.Sprintf("C%d", f.nextID),
		GuildID: guildID,
		Name:    data.Name,
		Topic:   data.Topic,
		Type:    data.Type,
	}
	f.channels[c.ID] = c
	f.created = append(f.created, data)
	return c, nil
}

func (f *fakePlatform) DeleteChannel(_ context.Context, channelID string) error {
	f.mut.Lock()
	defer f.mut.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.channels[channelID]; !ok {
		return fmt.Errorf("%w: 404 Unknown Channel", ErrPlatformNotFound)
	}
	delete(f.channels, channelID)
	f.deleted = append(f.deleted, channelID)
	return nil
}

func (f *fakePlatform) SendMessage(_ context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	f.sent = append(f.sent, sentMessage{ChannelID: channelID, Message: msg})
	return &discordgo.Message{ChannelID: channelID, Content: msg.Content}, nil
}

func (f *fakePlatform) ChannelMessages(_ context.Context, channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if f.historyErr != nil {
		return nil, f.historyErr
	}

	msgs := f.history[channelID]
	start := 0
	if beforeID != "" {
		for i, m := range msgs {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}

	end := min(start+limit, len(msgs))
	return msgs[start:end], nil
}

func (f *fakePlatform) sentTo(channelID string) []*discordgo.MessageSend {
	f.mut.Lock()
	defer f.mut.Unlock()

	var out []*discordgo.MessageSend
	for _, s := range f.sent {
		if s.ChannelID == channelID {
			out = append(out, s.Message)
		}
	}
	return out
}

func (f *fakePlatform) channelCount() int {
	f.mut.Lock()
	defer f.mut.Unlock()
	return len(f.channels)
}

type fakeAudit struct {
	mut     sync.Mutex
	entries []entities.TicketLogEntry
}

func (f *fakeAudit) Record(entry *entities.TicketLogEntry) {
	f.mut.Lock()
	defer f.mut.Unlock()
	f.entries = append(f.entries, *entry)
}

func (f *fakeAudit) actions() []entities.TicketAction {
	f.mut.Lock()
	defer f.mut.Unlock()

	actions := make([]entities.TicketAction, 0, len(f.entries))
	for _, e := range f.entries {
		actions = append(actions, e.Action)
	}
	return actions
}

type testHarness struct {
	manager  *Manager
	platform *fakePlatform
	store    *memory.Store
	settings *SettingsStore
	clock    *clock.Fake
	audit    *fakeAudit
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	clk := clock.NewFake(testNow)
	store := memory.NewStore()
	platform := newFakePlatform()
	audit := new(fakeAudit)

	settings := NewSettingsStore(discardLogger(), store, cache.New[string, *entities.TicketSettings](10, clk), DefaultSettingsTTL, clk)
	manager := NewManager(
		discardLogger(),
		platform,
		settings,
		store,
		audit,
		ratelimit.New(1, 5*time.Minute, clk),
		transcript.NewGenerator(transcript.FormatPlain, clk),
		clk,
	)

	return &testHarness{
		manager:  manager,
		platform: platform,
		store:    store,
		settings: settings,
		clock:    clk,
		audit:    audit,
	}
}

// configure gives guild G123 a moderator role and the Support and Billing buttons.
func (h *testHarness) configure(t *testing.T, mutate ...func(*entities.TicketSettings)) {
	t.Helper()

	_, err := h.settings.Update(context.Background(), "G123", func(s *entities.TicketSettings) error {
		s.ModeratorRoleID = "R-mod"
		s.AddAdminRole("R-admin")
		if err := s.AddButton("Support", "Hi {user}!"); err != nil {
			return err
		}
		if err := s.AddButton("Billing", "Billing help for {user}"); err != nil {
			return err
		}
		for _, fn := range mutate {
			fn(s)
		}
		return nil
	})
	require.NoError(t, err)
}

var alice = Member{UserID: "U-alice", Username: "alice"}

func supportButton() entities.TicketButton {
	return entities.TicketButton{Label: "Support", WelcomeMessage: "Hi {user}!"}
}
