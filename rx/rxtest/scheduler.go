// Package rxtest provides deterministic test doubles for rx: a scheduler on
// simulated time and a subscriber that records what it receives.
package rxtest

import (
	"sort"
	"sync"
	"time"

	"github.com/7vars/rxkit/rx"
	"github.com/benbjohnson/clock"
)

// ManualScheduler is an rx.Scheduler on simulated time. Nothing fires until
// Advance moves the clock; callbacks then run synchronously on the calling
// goroutine in deadline order, each seeing Now() equal to its deadline.
type ManualScheduler struct {
	mu    sync.Mutex
	clock *clock.Mock
	jobs  []*job
	seq   int
}

type job struct {
	seq      int
	interval time.Duration
	next     time.Time
	fn       func(time.Time)
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{
		clock: clock.NewMock(),
	}
}

// Clock exposes the underlying mock so other components can share its time.
func (s *ManualScheduler) Clock() *clock.Mock {
	return s.clock
}

func (s *ManualScheduler) Now() time.Time {
	return s.clock.Now()
}

func (s *ManualScheduler) ScheduleRepeating(interval time.Duration, fn func(time.Time)) rx.Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	j := &job{
		seq:      s.seq,
		interval: interval,
		next:     s.clock.Now().Add(interval),
		fn:       fn,
	}
	s.jobs = append(s.jobs, j)

	var once sync.Once
	return rx.CancelFunc(func() {
		once.Do(func() {
			s.remove(j)
		})
	})
}

func (s *ManualScheduler) remove(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, other := range s.jobs {
		if other == j {
			s.jobs = append(s.jobs[:i], s.jobs[i+1:]...)
			return
		}
	}
}

// Advance moves simulated time forward by d, firing every deadline that
// falls inside the window.
func (s *ManualScheduler) Advance(d time.Duration) {
	target := s.clock.Now().Add(d)
	for {
		j, at, ok := s.due(target)
		if !ok {
			break
		}
		s.clock.Set(at)
		j.fn(at)
	}
	s.clock.Set(target)
}

func (s *ManualScheduler) due(target time.Time) (*job, time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		return nil, time.Time{}, false
	}
	sort.SliceStable(s.jobs, func(i, k int) bool {
		if s.jobs[i].next.Equal(s.jobs[k].next) {
			return s.jobs[i].seq < s.jobs[k].seq
		}
		return s.jobs[i].next.Before(s.jobs[k].next)
	})
	j := s.jobs[0]
	if j.next.After(target) {
		return nil, time.Time{}, false
	}
	at := j.next
	j.next = j.next.Add(j.interval)
	return j, at, true
}

// Pending returns the number of live schedules.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}
