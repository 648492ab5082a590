package render

import (
	"context"
	"sync"
	"time"

	"github.com/five82/printdeck/internal/state"
)

// DefaultInterval is the render tick period.
const DefaultInterval = 100 * time.Millisecond

// Scheduler re-projects the state when it has changed, at most once per tick.
type Scheduler struct {
	store    *state.Store
	interval time.Duration

	mu   sync.Mutex
	last View
}

// NewScheduler creates a scheduler over store.
func NewScheduler(store *state.Store, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{store: store, interval: interval, last: Project(store.Snapshot())}
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Tick renders if the store is dirty and clears the flag. The bool reports
// whether a new view was produced; otherwise the previous view is returned.
// The snapshot is taken under s.mu so concurrent callers store views in
// snapshot order.
func (s *Scheduler) Tick() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, dirty := s.store.TakeSnapshot()
	if !dirty {
		return s.last, false
	}
	s.last = Project(st)
	return s.last, true
}

// Last returns the most recent view.
func (s *Scheduler) Last() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Run ticks at the configured interval and hands each new view to sink until
// ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, sink func(View)) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if v, ok := s.Tick(); ok {
				sink(v)
			}
		}
	}
}

// Watch renders as soon as a merge is signalled instead of polling on a
// fixed tick.
func (s *Scheduler) Watch(ctx context.Context, sink func(View)) {
	changed := s.store.Changed()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changed:
			if v, ok := s.Tick(); ok {
				sink(v)
			}
		}
	}
}
