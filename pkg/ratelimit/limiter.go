package ratelimit

import (
	"math"
	"sync"
	"time"

	"github.com/Jacobbrewer1/warden/pkg/clock"
)

// Limiter counts calls per key inside a window.
//
// Keys are never removed on their own; the owner is expected to call Sweep
// periodically to drop keys whose calls have all left the window.
type Limiter struct {
	mu sync.Mutex

	// maxCalls is the number of calls permitted per window.
	maxCalls int

	// window is the length of the window.
	window time.Duration

	// clk is the source of the current time.
	clk clock.Clock

	// calls holds the recorded call times per key, oldest first.
	calls map[string][]time.Time
}

// New creates a new limiter permitting maxCalls per window for each key.
func New(maxCalls int, window time.Duration, clk clock.Clock) *Limiter {
	if maxCalls <= 0 {
		maxCalls = 1
	}
	if clk == nil {
		clk = clock.Real()
	}

	return &Limiter{
		maxCalls: maxCalls,
		window:   window,
		clk:      clk,
		calls:    make(map[string][]time.Time),
	}
}

// CanCall prunes calls older than the window and records a new call if the key is under its limit.
// A denied call is not recorded.
func (l *Limiter) CanCall(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	recent := l.prune(key, now)

	if len(recent) < l.maxCalls {
		l.calls[key] = append(recent, now)
		return true
	}
	return false
}

// Cooldown returns how long the key has to wait until its oldest recorded call leaves the window.
func (l *Limiter) Cooldown(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	calls := l.calls[key]
	if len(calls) == 0 {
		return 0
	}

	remaining := l.window - l.clk.Now().Sub(calls[0])
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CooldownSeconds returns the cooldown in whole seconds, rounded down.
func (l *Limiter) CooldownSeconds(key string) int {
	return int(math.Floor(l.Cooldown(key).Seconds()))
}

// Sweep removes keys that have no calls left inside the window and returns how many were removed.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	removed := 0
	for key := range l.calls {
		if len(l.prune(key, now)) == 0 {
			delete(l.calls, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.calls)
}

// prune drops calls that are no longer inside the window. Must be called with mu held.
func (l *Limiter) prune(key string, now time.Time) []time.Time {
	calls := l.calls[key]
	i := 0
	for i < len(calls) && now.Sub(calls[i]) >= l.window {
		i++
	}
	if i > 0 {
		calls = append(calls[:0:0], calls[i:]...)
		l.calls[key] = calls
	}
	return calls
}
