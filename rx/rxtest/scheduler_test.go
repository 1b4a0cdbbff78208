package rxtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualSchedulerOrdering(t *testing.T) {
	s := NewManualScheduler()
	start := s.Now()

	var fired []string
	s.ScheduleRepeating(300*time.Millisecond, func(time.Time) { fired = append(fired, "slow") })
	s.ScheduleRepeating(200*time.Millisecond, func(time.Time) { fired = append(fired, "fast") })

	s.Advance(600 * time.Millisecond)
	assert.Equal(t, []string{"fast", "slow", "fast", "fast", "slow"}, fired)
	assert.Equal(t, start.Add(600*time.Millisecond), s.Now())
}

func TestManualSchedulerDeadlines(t *testing.T) {
	s := NewManualScheduler()
	start := s.Now()

	var seen []time.Time
	s.ScheduleRepeating(time.Second, func(now time.Time) {
		assert.Equal(t, now, s.Now())
		seen = append(seen, now)
	})

	s.Advance(2500 * time.Millisecond)
	assert.Equal(t, []time.Time{start.Add(time.Second), start.Add(2 * time.Second)}, seen)
}

func TestManualSchedulerCancel(t *testing.T) {
	s := NewManualScheduler()

	count := 0
	sub := s.ScheduleRepeating(time.Second, func(time.Time) { count++ })
	assert.Equal(t, 1, s.Pending())

	s.Advance(time.Second)
	sub.Cancel()
	sub.Cancel()
	s.Advance(5 * time.Second)

	assert.Equal(t, 1, count)
	assert.Equal(t, 0, s.Pending())
}

func TestManualSchedulerCancelFromCallback(t *testing.T) {
	s := NewManualScheduler()

	count := 0
	var cancel func()
	sub := s.ScheduleRepeating(time.Second, func(time.Time) {
		count++
		cancel()
	})
	cancel = sub.Cancel

	s.Advance(3 * time.Second)
	assert.Equal(t, 1, count)
}
