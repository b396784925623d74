package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/logging"
	"github.com/Jacobbrewer1/warden/pkg/messages"
	"github.com/Jacobbrewer1/warden/pkg/tickets"
)

var (
	// errWaitInProgress is returned when the user already has a pending wait in the channel.
	errWaitInProgress = errors.New("already waiting for a reply")

	// errWaitTimeout is returned when no reply arrives in time.
	errWaitTimeout = errors.New("timed out waiting for a reply")
)

type replyKey struct {
	channelID string
	userID    string
}

// replyWaiter hands the next message a user sends in a channel to whoever is waiting for it.
type replyWaiter struct {
	mut     sync.Mutex
	waiting map[replyKey]chan *discordgo.Message
}

func newReplyWaiter() *replyWaiter {
	return &replyWaiter{
		waiting: make(map[replyKey]chan *discordgo.Message),
	}
}

// Wait blocks until the user sends a message in the channel, the timeout passes or ctx is cancelled.
func (w *replyWaiter) Wait(ctx context.Context, channelID, userID string, timeout time.Duration) (*discordgo.Message, error) {
	key := replyKey{channelID: channelID, userID: userID}

	w.mut.Lock()
	if _, ok := w.waiting[key]; ok {
		w.mut.Unlock()
		return nil, errWaitInProgress
	}
	ch := make(chan *discordgo.Message, 1)
	w.waiting[key] = ch
	w.mut.Unlock()

	defer func() {
		w.mut.Lock()
		if w.waiting[key] == ch {
			delete(w.waiting, key)
		}
		w.mut.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case m := <-ch:
		return m, nil
	case <-timer.C:
		return nil, errWaitTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deliver passes m to the waiter for its author and channel. It reports whether anyone was waiting.
func (w *replyWaiter) Deliver(m *discordgo.Message) bool {
	if m == nil || m.Author == nil {
		return false
	}

	w.mut.Lock()
	defer w.mut.Unlock()

	key := replyKey{channelID: m.ChannelID, userID: m.Author.ID}
	ch, ok := w.waiting[key]
	if !ok {
		return false
	}
	delete(w.waiting, key)

	ch <- m
	return true
}

// Pending returns the number of open waits.
func (w *replyWaiter) Pending() int {
	w.mut.Lock()
	defer w.mut.Unlock()
	return len(w.waiting)
}

// setupRoleFromReply returns the first role mentioned in the reply.
func setupRoleFromReply(m *discordgo.Message) (string, bool) {
	if m == nil || len(m.MentionRoles) == 0 {
		return "", false
	}
	return m.MentionRoles[0], true
}

// runSetupWizard asks the member for the moderator role and saves it.
func (a *App) runSetupWizard(i *discordgo.InteractionCreate, member tickets.Member) error {
	timeout := a.cfg.Tickets.SetupTimeout
	if err := respondSlashEphemeral(a, i, fmt.Sprintf(messages.TicketSetupPrompt, int(timeout.Seconds()))); err != nil {
		return fmt.Errorf("error sending setup prompt: %w", err)
	}

	reply, err := a.replies.Wait(a.ctx, i.ChannelID, member.UserID, timeout)
	switch {
	case errors.Is(err, errWaitInProgress):
		return followupEphemeral(a, i, messages.TicketSetupInProgress)
	case errors.Is(err, errWaitTimeout):
		return followupEphemeral(a, i, messages.TicketSetupTimeout)
	case err != nil:
		// Shutting down.
		return nil
	}

	roleID, ok := setupRoleFromReply(reply)
	if !ok {
		return followupEphemeral(a, i, messages.TicketSetupNoRole)
	}

	if _, err := a.manager.Settings().Update(a.ctx, i.GuildID, func(s *entities.TicketSettings) error {
		s.ModeratorRoleID = roleID
		return nil
	}); err != nil {
		return fmt.Errorf("error saving moderator role: %w", err)
	}

	a.l.Info("Ticket setup complete",
		slog.String(logging.KeyGuildID, i.GuildID),
		slog.String(logging.KeyUserID, member.UserID),
	)
	return followupEphemeral(a, i, fmt.Sprintf(messages.TicketSetupDoneFmt, tickets.RoleMention(roleID)))
}
