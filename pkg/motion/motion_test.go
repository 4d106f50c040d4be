package motion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lanremote/lanremote-go/pkg/wire"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTracker() (*Tracker, *fakeClock) {
	clk := &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	return newTrackerWithClock(Config{}, clk.now), clk
}

func TestSampleScalesVelocity(t *testing.T) {
	tr, _ := newTestTracker()

	mv, ok := tr.Sample(400, -200)
	assert.True(t, ok)
	assert.Equal(t, wire.MoveRelative{X: 10, Y: -5}, mv)
}

func TestSampleThrottles(t *testing.T) {
	tr, clk := newTestTracker()

	_, ok := tr.Sample(400, 0)
	assert.True(t, ok)

	clk.advance(5 * time.Millisecond)
	_, ok = tr.Sample(400, 0)
	assert.False(t, ok, "sample inside min interval must be dropped")

	clk.advance(3 * time.Millisecond)
	_, ok = tr.Sample(400, 0)
	assert.True(t, ok)
}

func TestSampleDropsNoise(t *testing.T) {
	tr, _ := newTestTracker()

	// 1 px/s * 0.025 = 0.025, below the 0.05 threshold.
	_, ok := tr.Sample(1, -1)
	assert.False(t, ok)
}

func TestSampleCarriesSubPixel(t *testing.T) {
	tr, clk := newTestTracker()

	// 16 px/s * 0.025 = 0.4 per sample: nothing the first time, a pixel
	// once enough has accumulated.
	_, ok := tr.Sample(16, 0)
	assert.False(t, ok)

	clk.advance(10 * time.Millisecond)
	mv, ok := tr.Sample(16, 0)
	assert.True(t, ok)
	assert.Equal(t, wire.MoveRelative{X: 1}, mv)
}

func TestReset(t *testing.T) {
	tr, _ := newTestTracker()
	_, _ = tr.Sample(16, 0)
	tr.Reset()
	_, ok := tr.Sample(16, 0)
	assert.False(t, ok)
}

func TestDefaults(t *testing.T) {
	tr := NewTracker(Config{})
	assert.Equal(t, DefaultSensitivity, tr.config.Sensitivity)
	assert.Equal(t, DefaultThreshold, tr.config.Threshold)
	assert.Equal(t, DefaultMinInterval, tr.config.MinInterval)
}
