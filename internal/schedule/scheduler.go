// Package schedule provides the coalescing update scheduler shared by every
// monitor in the engine. Callers post reason tags; bursts of closely spaced
// posts collapse into a single downstream notification.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Reason tags why an update was requested. The fired set of reasons is
// handed to the subscriber as the update's causes.
type Reason string

// Defaults for the adaptive delay. A burst of distinct reasons fires almost
// immediately; posts arriving earlier than MinInterval after the previous
// fire are pushed out by the remaining interval.
const (
	DefaultBurstThreshold = 3
	DefaultBurstDelay     = 50 * time.Millisecond
	DefaultBaseDelay      = 100 * time.Millisecond
	DefaultMinInterval    = 500 * time.Millisecond
)

// Scheduler coalesces update requests. Posting while a fire is pending
// supersedes the previous timer rather than queuing a second fire.
type Scheduler struct {
	mu       sync.Mutex
	pending  map[Reason]struct{}
	timer    *time.Timer
	lastFire time.Time
	closed   bool

	burstThreshold int
	burstDelay     time.Duration
	baseDelay      time.Duration
	minInterval    time.Duration

	now  func() time.Time
	fire func(reasons []Reason)
}

// New creates a scheduler that invokes fire with the accumulated reason set.
// fire runs on a timer goroutine; subscribers hand the work to their own
// coordinating loop.
func New(fire func(reasons []Reason)) *Scheduler {
	return &Scheduler{
		pending:        make(map[Reason]struct{}),
		burstThreshold: DefaultBurstThreshold,
		burstDelay:     DefaultBurstDelay,
		baseDelay:      DefaultBaseDelay,
		minInterval:    DefaultMinInterval,
		now:            time.Now,
		fire:           fire,
	}
}

// Post adds a reason to the pending set and (re)schedules the fire timer
// with an adaptive delay.
func (s *Scheduler) Post(r Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending[r] = struct{}{}
	if s.timer != nil {
		s.timer.Stop()
	}
	delay := nextDelay(len(s.pending), s.sinceLastFireLocked(),
		s.burstThreshold, s.burstDelay, s.baseDelay, s.minInterval)
	s.timer = time.AfterFunc(delay, s.fireNow)
}

// CancelPending clears any pending reasons without firing.
func (s *Scheduler) CancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = make(map[Reason]struct{})
}

// Close cancels pending work and rejects further posts.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = make(map[Reason]struct{})
	s.closed = true
}

func (s *Scheduler) sinceLastFireLocked() time.Duration {
	if s.lastFire.IsZero() {
		return s.minInterval // first post: no back-pressure
	}
	return s.now().Sub(s.lastFire)
}

func (s *Scheduler) fireNow() {
	s.mu.Lock()
	if s.closed || len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	reasons := make([]Reason, 0, len(s.pending))
	for r := range s.pending {
		reasons = append(reasons, r)
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	s.pending = make(map[Reason]struct{})
	s.lastFire = s.now()
	s.timer = nil
	fire := s.fire
	s.mu.Unlock()

	fire(reasons)
}

// nextDelay is the scheduling decision, kept pure for testability:
// a burst of distinct reasons fires at burstDelay; a post arriving sooner
// than minInterval after the last fire waits out the remainder plus
// baseDelay; otherwise baseDelay alone applies.
func nextDelay(pendingCount int, sinceLast time.Duration, burstThreshold int, burstDelay, baseDelay, minInterval time.Duration) time.Duration {
	if pendingCount >= burstThreshold {
		return burstDelay
	}
	if sinceLast < minInterval {
		return (minInterval - sinceLast) + baseDelay
	}
	return baseDelay
}
