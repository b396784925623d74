package ratelimit

import (
	"testing"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/clock"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestLimiter_SingleCallWindow(t *testing.T) {
	clk := clock.NewFake(epoch)
	l := New(1, 300*time.Second, clk)

	require.Equal(t, 0, l.CooldownSeconds("G1:U1"))
	require.True(t, l.CanCall("G1:U1"))

	last := l.CooldownSeconds("G1:U1")
	require.Equal(t, 300, last)

	for _, step := range []time.Duration{time.Second, 59 * time.Second, 2 * time.Minute, 119 * time.Second} {
		clk.Advance(step)
		require.False(t, l.CanCall("G1:U1"))

		got := l.CooldownSeconds("G1:U1")
		require.Less(t, got, last, "cooldown must decrease while denied")
		last = got
	}
	require.Equal(t, 1, last)

	clk.Advance(time.Second)
	require.Equal(t, 0, l.CooldownSeconds("G1:U1"))
	require.True(t, l.CanCall("G1:U1"))
}

func TestLimiter_MultipleCalls(t *testing.T) {
	clk := clock.NewFake(epoch)
	l := New(3, time.Minute, clk)

	tests := []struct {
		name    string
		advance time.Duration
		want    bool
	}{
		{name: "First", advance: 0, want: true},
		{name: "Second", advance: 10 * time.Second, want: true},
		{name: "Third", advance: 10 * time.Second, want: true},
		{name: "OverLimit", advance: 10 * time.Second, want: false},
		{name: "FirstLeftWindow", advance: 30 * time.Second, want: true},
		{name: "FullAgain", advance: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clk.Advance(tt.advance)
			require.Equal(t, tt.want, l.CanCall("k"))
		})
	}
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l := New(1, time.Minute, clock.NewFake(epoch))

	require.True(t, l.CanCall("G1:U1"))
	require.False(t, l.CanCall("G1:U1"))
	require.True(t, l.CanCall("G1:U2"))
	require.True(t, l.CanCall("G2:U1"))
	require.Equal(t, 0, l.CooldownSeconds("G3:U1"))
}

func TestLimiter_DeniedCallsAreNotRecorded(t *testing.T) {
	clk := clock.NewFake(epoch)
	l := New(1, time.Minute, clk)

	require.True(t, l.CanCall("k"))
	clk.Advance(30 * time.Second)
	require.False(t, l.CanCall("k"))
	clk.Advance(30 * time.Second)

	// The denied call at +30s must not extend the window.
	require.True(t, l.CanCall("k"))
}

func TestLimiter_Sweep(t *testing.T) {
	clk := clock.NewFake(epoch)
	l := New(1, time.Minute, clk)

	l.CanCall("old")
	clk.Advance(45 * time.Second)
	l.CanCall("new")
	require.Equal(t, 2, l.Len())

	clk.Advance(20 * time.Second)
	require.Equal(t, 1, l.Sweep())
	require.Equal(t, 1, l.Len())

	clk.Advance(time.Minute)
	require.Equal(t, 1, l.Sweep())
	require.Equal(t, 0, l.Len())
}
