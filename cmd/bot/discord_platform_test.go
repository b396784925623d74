package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/warden/pkg/tickets"
	"github.com/stretchr/testify/require"
)

func restError(status int) error {
	return &discordgo.RESTError{
		Response: &http.Response{StatusCode: status},
	}
}

func TestPlatformError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantForbidden bool
		wantNotFound  bool
	}{
		{name: "Forbidden", err: restError(http.StatusForbidden), wantForbidden: true},
		{name: "WrappedForbidden", err: fmt.Errorf("request: %w", restError(http.StatusForbidden)), wantForbidden: true},
		{name: "NotFound", err: restError(http.StatusNotFound), wantNotFound: true},
		{name: "ServerError", err: restError(http.StatusInternalServerError)},
		{name: "NoResponse", err: &discordgo.RESTError{}},
		{name: "Other", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := platformError(tt.err)
			require.ErrorIs(t, got, tt.err)
			require.Equal(t, tt.wantForbidden, errors.Is(got, tickets.ErrPlatformForbidden))
			require.Equal(t, tt.wantNotFound, errors.Is(got, tickets.ErrPlatformNotFound))
		})
	}
}

func TestDiscordPlatform_CancelledContext(t *testing.T) {
	p := newDiscordPlatform(&discordgo.Session{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Guild(ctx, "G1")
	require.ErrorIs(t, err, context.Canceled)

	_, err = p.Channel(ctx, "C1")
	require.ErrorIs(t, err, context.Canceled)

	require.ErrorIs(t, p.DeleteChannel(ctx, "C1"), context.Canceled)
}
