package tickets

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/entities"
	"github.com/Jacobbrewer1/warden/pkg/messages"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	unlockA := k.Lock("a")
	unlockB := k.Lock("b")
	require.Equal(t, 2, k.len())

	acquired := make(chan struct{})
	go func() {
		unlock := k.Lock("a")
		close(acquired)
		unlock()
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	unlockA()
	<-acquired
	unlockB()

	require.Zero(t, k.len(), "released keys are dropped")
}

func TestKeyedMutex_Counter(t *testing.T) {
	k := newKeyedMutex()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := k.Lock("key")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, 50, counter)
	require.Zero(t, k.len())
}

func TestErrors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name       string
		err        error
		wantKind   ErrorKind
		wantDenied bool
		wantMsg    string
	}{
		{name: "Denied", err: newError(KindRateLimited, "wait", nil), wantKind: KindRateLimited, wantDenied: true, wantMsg: "wait"},
		{name: "Wrapped", err: fmt.Errorf("handling: %w", newError(KindStale, "gone", nil)), wantKind: KindStale, wantDenied: true, wantMsg: "gone"},
		{name: "Platform", err: newError(KindPlatform, "failed", cause), wantKind: KindPlatform, wantMsg: "failed"},
		{name: "DeleteFailed", err: newError(KindDeleteFailed, "", cause), wantKind: KindDeleteFailed, wantMsg: "fallback"},
		{name: "AlreadyClosed", err: newError(KindAlreadyClosed, "closed", nil), wantKind: KindAlreadyClosed, wantDenied: true, wantMsg: "closed"},
		{name: "Plain", err: cause, wantMsg: "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.wantKind, KindOf(tt.err))
			require.Equal(t, tt.wantDenied, IsDenied(tt.err))
			require.Equal(t, tt.wantMsg, UserMessage(tt.err, "fallback"))
		})
	}

	require.ErrorIs(t, newError(KindPlatform, "failed", cause), cause)
	require.Equal(t, "rate_limited", KindRateLimited.String())
	require.Equal(t, "platform: failed: boom", newError(KindPlatform, "failed", cause).Error())
}

func TestPermissions(t *testing.T) {
	settings := entities.DefaultTicketSettings("G1")
	settings.ModeratorRoleID = "R-mod"
	settings.AddAdminRole("R-admin")

	tests := []struct {
		name          string
		member        Member
		wantMod       bool
		wantConfigure bool
	}{
		{name: "Nobody", member: Member{UserID: "U1", RoleIDs: []string{"R-other"}}},
		{name: "Moderator", member: Member{UserID: "U1", RoleIDs: []string{"R-mod"}}, wantMod: true},
		{name: "AdminRole", member: Member{UserID: "U1", RoleIDs: []string{"R-admin"}}, wantMod: true, wantConfigure: true},
		{name: "Administrator", member: Member{UserID: "U1", Administrator: true}, wantMod: true, wantConfigure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.wantMod, HasModPermissions(settings, tt.member))
			require.Equal(t, tt.wantConfigure, CanConfigure(settings, tt.member))
		})
	}

	// An unset moderator role grants nothing.
	require.False(t, HasModPermissions(entities.DefaultTicketSettings("G1"), Member{UserID: "U1", RoleIDs: []string{""}}))
}

func TestMemberFromDiscord(t *testing.T) {
	m, ok := MemberFromDiscord(&discordgo.Member{
		User:        &discordgo.User{ID: "U1", Username: "alice"},
		Roles:       []string{"R1"},
		Permissions: discordgo.PermissionAdministrator,
	})
	require.True(t, ok)
	require.Equal(t, "U1", m.UserID)
	require.Equal(t, "alice", m.Username)
	require.True(t, m.Administrator)
	require.True(t, m.HasRole("R1"))
	require.Equal(t, "<@U1>", m.Mention())

	_, ok = MemberFromDiscord(nil)
	require.False(t, ok)

	_, ok = MemberFromDiscord(&discordgo.Member{})
	require.False(t, ok)
}

func TestTicketTypeFromTopic(t *testing.T) {
	tests := []struct {
		name   string
		topic  string
		want   string
		wantOk bool
	}{
		{name: "Created", topic: fmt.Sprintf(messages.TicketTopicFmt, "alice", "Support"), want: "Support", wantOk: true},
		{name: "MultiWordType", topic: fmt.Sprintf(messages.TicketTopicFmt, "alice", "Billing Help"), want: "Billing Help", wantOk: true},
		{name: "MarkerInUsername", topic: fmt.Sprintf(messages.TicketTopicFmt, "a | Type: b", "Support"), want: "Support", wantOk: true},
		{name: "Empty", topic: ""},
		{name: "NoType", topic: "Ticket from alice | Type: "},
		{name: "Unrelated", topic: "General chat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ticketTypeFromTopic(tt.topic)
			require.Equal(t, tt.wantOk, ok)
			require.Equal(t, tt.want, got)
		})
	}
}
