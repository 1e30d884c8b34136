package tracker

import (
	"fmt"
	"sync"
)

// Mood holds the current mood score between persists. It is the single
// source of truth for the running value; every transition is written back
// to the store as a mood sample carrying the post-transition score.
type Mood struct {
	store *Store

	mu    sync.Mutex
	score float64
}

// Transition describes one applied mood delta.
type Transition struct {
	Before float64
	After  float64
	Delta  float64
}

// NewMood constructs the mood state from the store: today's average when
// samples exist, otherwise the neutral midpoint.
func NewMood(store *Store) (*Mood, error) {
	avg, samples, err := store.DailyMood(store.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("init mood: %w", err)
	}
	score := 0.5
	if samples > 0 {
		score = clamp(avg)
	}
	return &Mood{store: store, score: score}, nil
}

// Current returns the running mood score.
func (m *Mood) Current() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

// Apply folds a bounded delta into the score, clamps to [0,1] and persists
// the transition. The returned Transition reflects the clamped result. The
// in-memory score only advances when the persist succeeds, so restarts
// rebuild the same state from the samples.
func (m *Mood) Apply(delta float64) (Transition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := Transition{Before: m.score, Delta: delta}
	t.After = clamp(m.score + delta)

	if err := m.store.AddMoodSample(t.After, ""); err != nil {
		return t, fmt.Errorf("persist mood transition: %w", err)
	}
	m.score = t.After
	return t, nil
}

// Bucket returns the display bucket for the current score.
func (m *Mood) Bucket() string {
	return BucketFor(m.Current())
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
