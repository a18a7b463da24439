// Package emotion maintains a lightweight affective state per session,
// expressed as intensities over a fixed set of emotion labels. Intensities
// decay toward a configurable baseline over time and move in response to
// interaction signals.
package emotion

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Label identifies one tracked emotion dimension.
type Label string

const (
	Joy         Label = "joy"
	Curiosity   Label = "curiosity"
	Concern     Label = "concern"
	Frustration Label = "frustration"
	Calm        Label = "calm"
)

// Labels lists every tracked dimension in presentation order.
var Labels = []Label{Joy, Curiosity, Concern, Frustration, Calm}

// Signal is an interaction event that shifts the emotional state.
type Signal string

const (
	SignalPositiveFeedback Signal = "positive_feedback"
	SignalNegativeFeedback Signal = "negative_feedback"
	SignalNovelty          Signal = "novelty"
	SignalRepetition       Signal = "repetition"
)

// signalDeltas maps each signal to per-label intensity shifts. Unlisted
// labels are unaffected beyond decay.
var signalDeltas = map[Signal]map[Label]float64{
	SignalPositiveFeedback: {Joy: 0.15, Calm: 0.05, Frustration: -0.10, Concern: -0.05},
	SignalNegativeFeedback: {Frustration: 0.15, Concern: 0.10, Joy: -0.10, Calm: -0.05},
	SignalNovelty:          {Curiosity: 0.20, Joy: 0.05},
	SignalRepetition:       {Curiosity: -0.10, Calm: 0.05},
}

// State is an immutable snapshot of the tracker at one instant.
type State struct {
	Intensities map[Label]float64
	Dominant    Label
	ObservedAt  time.Time
}

// Tone renders the dominant emotion as a short descriptor for prompt
// conditioning, e.g. "curious" or "calm".
func (s State) Tone() string {
	switch s.Dominant {
	case Joy:
		return "upbeat"
	case Curiosity:
		return "curious"
	case Concern:
		return "careful"
	case Frustration:
		return "patient"
	default:
		return "calm"
	}
}

// Tracker holds the mutable emotional state for one session. All methods
// are safe for concurrent use; a single mutex serialises writers.
type Tracker struct {
	mu         sync.Mutex
	values     map[Label]float64
	baseline   float64
	decayRate  float64 // per second
	lastUpdate time.Time
	now        func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock substitutes the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// NewTracker starts every label at the baseline. decayRate is the
// exponential decay constant per second.
func NewTracker(baseline, decayRate float64, opts ...Option) *Tracker {
	t := &Tracker{
		values:    make(map[Label]float64, len(Labels)),
		baseline:  baseline,
		decayRate: decayRate,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, l := range Labels {
		t.values[l] = baseline
	}
	t.lastUpdate = t.now()
	return t
}

// Observe applies a signal: decay is brought current first, then the
// signal's deltas are added and clamped to [0,1].
func (t *Tracker) Observe(sig Signal) error {
	deltas, ok := signalDeltas[sig]
	if !ok {
		return fmt.Errorf("unknown emotion signal %q", sig)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.decayLocked(t.now())
	for label, d := range deltas {
		t.values[label] = clamp01(t.values[label] + d)
	}
	return nil
}

// CurrentState decays the state to now and returns a snapshot.
func (t *Tracker) CurrentState() State {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.decayLocked(now)

	snap := State{
		Intensities: make(map[Label]float64, len(t.values)),
		ObservedAt:  now,
	}
	best := math.Inf(-1)
	for _, l := range Labels {
		v := t.values[l]
		snap.Intensities[l] = v
		if v > best {
			best = v
			snap.Dominant = l
		}
	}
	return snap
}

// decayLocked moves every intensity toward the baseline by the elapsed
// time since the last update. Callers hold t.mu.
func (t *Tracker) decayLocked(now time.Time) {
	dt := now.Sub(t.lastUpdate).Seconds()
	if dt <= 0 {
		return
	}
	factor := math.Exp(-t.decayRate * dt)
	for label, v := range t.values {
		t.values[label] = clamp01(t.baseline + (v-t.baseline)*factor)
	}
	t.lastUpdate = now
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
