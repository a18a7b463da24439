package emotion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T, baseline, decayRate float64) (*Tracker, *time.Time) {
	t.Helper()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tr := NewTracker(baseline, decayRate, WithClock(func() time.Time { return now }))
	return tr, &now
}

func TestNewTrackerStartsAtBaseline(t *testing.T) {
	tr, _ := newTestTracker(t, 0.2, 0.002)

	state := tr.CurrentState()
	for _, l := range Labels {
		assert.InDelta(t, 0.2, state.Intensities[l], 1e-9, "label %s", l)
	}
}

func TestObserveShiftsIntensities(t *testing.T) {
	tr, _ := newTestTracker(t, 0.2, 0.002)

	require.NoError(t, tr.Observe(SignalNovelty))

	state := tr.CurrentState()
	assert.InDelta(t, 0.4, state.Intensities[Curiosity], 1e-9)
	assert.InDelta(t, 0.25, state.Intensities[Joy], 1e-9)
	assert.Equal(t, Curiosity, state.Dominant)
	assert.Equal(t, "curious", state.Tone())
}

func TestObserveUnknownSignal(t *testing.T) {
	tr, _ := newTestTracker(t, 0.2, 0.002)

	assert.Error(t, tr.Observe(Signal("bogus")))
}

func TestIntensitiesStayClamped(t *testing.T) {
	tr, _ := newTestTracker(t, 0.2, 0.002)

	for range 20 {
		require.NoError(t, tr.Observe(SignalNovelty))
	}
	state := tr.CurrentState()
	assert.LessOrEqual(t, state.Intensities[Curiosity], 1.0)

	for range 20 {
		require.NoError(t, tr.Observe(SignalNegativeFeedback))
	}
	state = tr.CurrentState()
	assert.GreaterOrEqual(t, state.Intensities[Joy], 0.0)
}

func TestDecayMovesTowardBaseline(t *testing.T) {
	tr, now := newTestTracker(t, 0.2, 0.01)

	require.NoError(t, tr.Observe(SignalNovelty))
	excited := tr.CurrentState().Intensities[Curiosity]

	*now = now.Add(1 * time.Minute)
	later := tr.CurrentState().Intensities[Curiosity]

	assert.Less(t, later, excited)
	assert.Greater(t, later, 0.2)

	*now = now.Add(24 * time.Hour)
	settled := tr.CurrentState().Intensities[Curiosity]
	assert.InDelta(t, 0.2, settled, 1e-6)
}

func TestDecayIsMonotonic(t *testing.T) {
	tr, now := newTestTracker(t, 0.2, 0.01)
	require.NoError(t, tr.Observe(SignalPositiveFeedback))

	prev := tr.CurrentState().Intensities[Joy]
	for range 10 {
		*now = now.Add(30 * time.Second)
		cur := tr.CurrentState().Intensities[Joy]
		assert.LessOrEqual(t, cur, prev)
		assert.GreaterOrEqual(t, cur, 0.2)
		prev = cur
	}
}

func TestDecayBelowBaselineRecovers(t *testing.T) {
	tr, now := newTestTracker(t, 0.2, 0.01)

	// push joy below baseline
	require.NoError(t, tr.Observe(SignalNegativeFeedback))
	low := tr.CurrentState().Intensities[Joy]
	require.Less(t, low, 0.2)

	*now = now.Add(10 * time.Minute)
	recovered := tr.CurrentState().Intensities[Joy]
	assert.Greater(t, recovered, low)
	assert.LessOrEqual(t, recovered, 0.2)
}
