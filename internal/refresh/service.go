package refresh

import (
	"context"
	"log"
	"sync"
	"time"

	rcron "github.com/robfig/cron/v3"
	"github.com/stellarlinkco/stillwater/internal/tracker"
)

// Service recomputes the aggregate stats panel on a fixed 60s tick. Ticks
// are read-only and independent of the write path; each read runs through
// the store, so it observes the most recent committed write.
type Service struct {
	store *tracker.Store
	clock *tracker.Clock

	mu      sync.RWMutex
	snap    Snapshot
	cron    *rcron.Cron
	started bool
}

// Snapshot is the cached aggregate panel served to /stats and status.
type Snapshot struct {
	DailyMood   float64
	WeeklyMood  float64
	WeeklyCount int
	TotalPoints int
	RefreshedAt time.Time
}

func NewService(store *tracker.Store, clock *tracker.Clock) *Service {
	return &Service{store: store, clock: clock}
}

// Start computes an initial snapshot synchronously, then refreshes every
// minute until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	s.Refresh()

	s.cron = rcron.New()
	if _, err := s.cron.AddFunc("@every 1m", s.Refresh); err != nil {
		log.Printf("[refresh] failed to schedule tick: %v", err)
		return
	}
	s.cron.Start()
	log.Printf("[refresh] started, refreshing stats every minute")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
}

func (s *Service) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.started = false
	s.mu.Unlock()

	if c == nil {
		return
	}
	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(5 * time.Second):
		log.Printf("[refresh] stop timeout waiting for running tick")
	}
	log.Printf("[refresh] stopped")
}

// Refresh recomputes the snapshot immediately. Partial query failures keep
// the previous value for the failed field; reads never abort the tick.
func (s *Service) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if daily, err := s.store.DailyMoodAverage(s.clock.Now()); err != nil {
		log.Printf("[refresh] daily mood warning: %v", err)
	} else {
		s.snap.DailyMood = daily
	}
	if weekly, err := s.store.WeeklyMoodAverage(); err != nil {
		log.Printf("[refresh] weekly mood warning: %v", err)
	} else {
		s.snap.WeeklyMood = weekly
	}
	if count, err := s.store.WeeklyActivityCount(); err != nil {
		log.Printf("[refresh] weekly count warning: %v", err)
	} else {
		s.snap.WeeklyCount = count
	}
	if points, err := s.store.TotalPoints(); err != nil {
		log.Printf("[refresh] total points warning: %v", err)
	} else {
		s.snap.TotalPoints = points
	}
	s.snap.RefreshedAt = s.clock.Now()
}

// Snapshot returns the last computed aggregates.
func (s *Service) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}
