package rx

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Scheduler drives periodic callbacks. Callbacks of one schedule never
// overlap. Cancelling the returned Subscription stops every later callback;
// one already running may finish.
type Scheduler interface {
	Now() time.Time
	ScheduleRepeating(interval time.Duration, fn func(time.Time)) Subscription
}

type clockScheduler struct {
	clock clock.Clock
}

// NewClockScheduler schedules on clk, which may be a clock.Mock in tests.
func NewClockScheduler(clk clock.Clock) Scheduler {
	return &clockScheduler{clock: clk}
}

// DefaultScheduler runs on wall-clock time.
func DefaultScheduler() Scheduler {
	return NewClockScheduler(clock.New())
}

func (s *clockScheduler) Now() time.Time {
	return s.clock.Now()
}

// ScheduleRepeating fires fn at start+interval, start+2*interval, ... Each
// deadline derives from the previous deadline, so latency in one callback
// does not shift later ones. When a tick fires, deadlines already in the past
// are skipped before fn runs, so a callback slower than the interval is
// followed by one late tick rather than a burst.
func (s *clockScheduler) ScheduleRepeating(interval time.Duration, fn func(time.Time)) Subscription {
	stop := make(chan struct{})
	next := s.clock.Now().Add(interval)
	timer := s.clock.Timer(interval)

	go func() {
		defer func() {
			timer.Stop()
		}()
		for {
			select {
			case <-stop:
				return
			case <-timer.C:
			}
			select {
			case <-stop:
				return
			default:
			}

			now := s.clock.Now()
			for !next.After(now) {
				next = next.Add(interval)
			}
			// re-arm before the callback so the next deadline exists as soon
			// as the callback's effects are observable
			timer = s.clock.Timer(next.Sub(now))
			fn(now)
		}
	}()

	var once sync.Once
	return CancelFunc(func() {
		once.Do(func() {
			close(stop)
		})
	})
}
