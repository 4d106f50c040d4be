package host

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultReplayWindow is how far a message timestamp may be from the host
// clock.
const DefaultReplayWindow = 30 * time.Second

var (
	// ErrStale indicates a timestamp outside the accepted window.
	ErrStale = errors.New("message timestamp outside window")

	// ErrReplay indicates a nonce already seen within the window.
	ErrReplay = errors.New("message replayed")
)

// ReplayGuard rejects messages that are too old, too far in the future, or
// carry a nonce seen within the window.
type ReplayGuard struct {
	window time.Duration
	now    func() time.Time

	mu     sync.Mutex
	nonces map[string]time.Time // nonce -> expiry
	sweep  time.Time
}

// NewReplayGuard creates a guard. A zero window selects DefaultReplayWindow.
func NewReplayGuard(window time.Duration) *ReplayGuard {
	return newReplayGuardWithClock(window, time.Now)
}

func newReplayGuardWithClock(window time.Duration, now func() time.Time) *ReplayGuard {
	if window <= 0 {
		window = DefaultReplayWindow
	}
	return &ReplayGuard{
		window: window,
		now:    now,
		nonces: make(map[string]time.Time),
	}
}

// Check accepts or rejects a (timestamp, nonce) pair and records accepted
// nonces.
func (g *ReplayGuard) Check(timestampMillis int64, nonce string) error {
	now := g.now()
	ts := time.UnixMilli(timestampMillis)
	if d := now.Sub(ts); d > g.window || d < -g.window {
		return fmt.Errorf("%w: skew %s", ErrStale, d.Truncate(time.Millisecond))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if now.After(g.sweep) {
		for n, exp := range g.nonces {
			if now.After(exp) {
				delete(g.nonces, n)
			}
		}
		g.sweep = now.Add(g.window)
	}

	if exp, ok := g.nonces[nonce]; ok && !now.After(exp) {
		return ErrReplay
	}
	// Keep the nonce until its timestamp can no longer pass the window.
	g.nonces[nonce] = ts.Add(g.window)
	return nil
}

// Len returns the number of remembered nonces.
func (g *ReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nonces)
}
