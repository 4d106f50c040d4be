// Package motion turns touch-pad velocity samples into relative pointer
// moves at a bounded rate.
//
// The dispatcher sends every intent it is given; pacing low-latency motion
// is the caller's job and lives here.
package motion

import (
	"math"
	"sync"
	"time"

	"github.com/lanremote/lanremote-go/pkg/wire"
)

// Defaults.
const (
	// DefaultSensitivity scales velocity (px/s) to a per-update delta.
	DefaultSensitivity = 0.025

	// DefaultThreshold drops scaled deltas at or below this magnitude on
	// both axes.
	DefaultThreshold = 0.05

	// DefaultMinInterval is the minimum spacing between emitted moves.
	DefaultMinInterval = 8 * time.Millisecond
)

// Config configures a Tracker. Zero fields take the defaults.
type Config struct {
	Sensitivity float64
	Threshold   float64
	MinInterval time.Duration
}

// Tracker converts velocity samples into MoveRelative payloads. It is safe
// for concurrent use.
type Tracker struct {
	config Config
	now    func() time.Time

	mu       sync.Mutex
	last     time.Time
	residual [2]float64
}

// NewTracker creates a tracker.
func NewTracker(config Config) *Tracker {
	return newTrackerWithClock(config, time.Now)
}

func newTrackerWithClock(config Config, now func() time.Time) *Tracker {
	if config.Sensitivity == 0 {
		config.Sensitivity = DefaultSensitivity
	}
	if config.Threshold == 0 {
		config.Threshold = DefaultThreshold
	}
	if config.MinInterval == 0 {
		config.MinInterval = DefaultMinInterval
	}
	return &Tracker{config: config, now: now}
}

// Sample feeds one velocity reading (px/s). It returns a move and true
// when one should be sent now.
//
// Samples arriving sooner than MinInterval after the last emitted move are
// dropped. Sub-pixel deltas are carried over to the next emitted move.
func (t *Tracker) Sample(vx, vy float64) (wire.MoveRelative, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.config.MinInterval {
		return wire.MoveRelative{}, false
	}

	sx := vx * t.config.Sensitivity
	sy := vy * t.config.Sensitivity
	if math.Abs(sx) <= t.config.Threshold && math.Abs(sy) <= t.config.Threshold {
		return wire.MoveRelative{}, false
	}

	t.residual[0] += sx
	t.residual[1] += sy
	dx := math.Round(t.residual[0])
	dy := math.Round(t.residual[1])
	if dx == 0 && dy == 0 {
		return wire.MoveRelative{}, false
	}
	t.residual[0] -= dx
	t.residual[1] -= dy
	t.last = now

	return wire.MoveRelative{X: int(dx), Y: int(dy)}, true
}

// Reset clears carried-over motion, e.g. when a gesture ends.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.residual = [2]float64{}
	t.last = time.Time{}
}
