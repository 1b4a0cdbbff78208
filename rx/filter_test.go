package rx_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7vars/rxkit"
	"github.com/7vars/rxkit/rx"
	"github.com/7vars/rxkit/rx/rxtest"
)

var errBoom = errors.New("boom")

func quiet() rx.StageOption {
	return rx.WithStageLogger(rxkit.Discard())
}

func TestFilter(t *testing.T) {
	subject := rx.NewSubject[string]()
	rec := rxtest.NewRecorder[string]()

	_, err := rx.Filter[string](subject, func(v string) bool {
		return v == "onefish"
	}, quiet()).Subscribe(rec)
	require.NoError(t, err)

	subject.Send("onefish")
	subject.Send("twofish")
	subject.Finish()

	assert.Equal(t, []string{"onefish"}, rec.Values())
	completion, ok := rec.Completion()
	require.True(t, ok)
	assert.True(t, completion.IsFinished())
	assert.Equal(t, 1, rec.Completions())
}

func TestTryFilter(t *testing.T) {
	subject := rx.NewSubject[string]()
	rec := rxtest.NewRecorder[string]()

	_, err := rx.TryFilter[string](subject, func(v string) (bool, error) {
		if v == "explode" {
			return false, errBoom
		}
		return v == "onefish", nil
	}, quiet()).Subscribe(rec)
	require.NoError(t, err)

	subject.Send("onefish")
	subject.Send("twofish")
	subject.Send("explode")
	subject.Finish()

	assert.Equal(t, []string{"onefish"}, rec.Values())
	require.Equal(t, 1, rec.Completions())
	completion, _ := rec.Completion()
	require.True(t, completion.IsFailure())
	assert.ErrorIs(t, completion.Err, errBoom)

	var failure *rxkit.PredicateFailure
	require.ErrorAs(t, completion.Err, &failure)
	assert.Equal(t, "explode", failure.Value)

	// the failure cancelled the upstream subscription
	assert.Equal(t, 0, subject.Subscribers())
}

func TestFilterPreservesOrder(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	even := func(v int) bool { return v%2 == 0 }

	for i := 0; i < 50; i++ {
		input := make([]int, rnd.Intn(40))
		for k := range input {
			input[k] = rnd.Intn(100)
		}
		expected := make([]int, 0)
		for _, v := range input {
			if even(v) {
				expected = append(expected, v)
			}
		}

		values, err := rx.Collect(context.Background(), rx.Filter(rx.SliceSource(input), even, quiet()))
		require.NoError(t, err)
		assert.Equal(t, expected, values, "input %v", input)
	}
}

func TestTryFilterStopsAtFirstError(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	predicate := func(v int) (bool, error) {
		if v%7 == 0 {
			return false, errBoom
		}
		return v%2 == 1, nil
	}

	for i := 0; i < 50; i++ {
		input := make([]int, 1+rnd.Intn(40))
		for k := range input {
			input[k] = 1 + rnd.Intn(50)
		}
		expected := make([]int, 0)
		var expectErr bool
		for _, v := range input {
			ok, err := predicate(v)
			if err != nil {
				expectErr = true
				break
			}
			if ok {
				expected = append(expected, v)
			}
		}

		rec := rxtest.NewRecorder[int]()
		_, err := rx.TryFilter(rx.SliceSource(input), predicate, quiet()).Subscribe(rec)
		require.NoError(t, err)

		assert.Equal(t, expected, rec.Values(), "input %v", input)
		require.Equal(t, 1, rec.Completions())
		completion, _ := rec.Completion()
		assert.Equal(t, expectErr, completion.IsFailure(), "input %v", input)
	}
}

func TestFilterPassesFailureThrough(t *testing.T) {
	subject := rx.NewSubject[int]()
	rec := rxtest.NewRecorder[int]()
	_, err := rx.Filter[int](subject, func(int) bool { return true }, quiet()).Subscribe(rec)
	require.NoError(t, err)

	subject.Send(1)
	subject.Fail(errBoom)
	subject.Send(2)

	assert.Equal(t, []int{1}, rec.Values())
	completion, ok := rec.Completion()
	require.True(t, ok)
	assert.Equal(t, errBoom, completion.Err)
}

func TestTryFilterRecoversPanic(t *testing.T) {
	values, err := rx.Collect(context.Background(), rx.TryFilter(rx.SliceSource([]int{1, 2, 3}), func(v int) (bool, error) {
		if v == 2 {
			panic("two")
		}
		return true, nil
	}, quiet()))

	assert.Equal(t, []int{1}, values)
	var failure *rxkit.PredicateFailure
	require.ErrorAs(t, err, &failure)
	assert.Contains(t, failure.Error(), "two")
}

func TestTryFilterSuppressesInFlightEvents(t *testing.T) {
	rec := rxtest.NewRecorder[int]()
	upstream := &stubbornPublisher[int]{values: []int{1, 2, 3}}
	stage := rx.TryFilter[int](upstream, func(v int) (bool, error) {
		if v == 1 {
			return false, errBoom
		}
		return true, nil
	}, quiet())
	_, err := stage.Subscribe(rec)
	require.NoError(t, err)

	assert.Empty(t, rec.Values())
	assert.Equal(t, 1, rec.Completions())
	assert.True(t, upstream.cancelled)
}

// stubbornPublisher keeps emitting after being cancelled.
type stubbornPublisher[T any] struct {
	values    []T
	cancelled bool
}

func (p *stubbornPublisher[T]) Subscribe(sub rx.Subscriber[T]) (rx.Subscription, error) {
	s := rx.CancelFunc(func() { p.cancelled = true })
	sub.OnSubscribe(s)
	for _, v := range p.values {
		sub.OnValue(v)
	}
	sub.OnCompletion(rx.Finished())
	return s, nil
}

func TestFilterCancelStopsUpstream(t *testing.T) {
	subject := rx.NewSubject[int]()
	rec := rxtest.NewRecorder[int]()
	sub, err := rx.Filter[int](subject, func(int) bool { return true }, quiet()).Subscribe(rec)
	require.NoError(t, err)
	assert.Equal(t, 1, subject.Subscribers())

	subject.Send(1)
	sub.Cancel()
	sub.Cancel()
	subject.Send(2)
	subject.Finish()

	assert.Equal(t, []int{1}, rec.Values())
	assert.Equal(t, 0, rec.Completions())
	assert.Equal(t, 0, subject.Subscribers())
}

func TestFilterRejectsCancelledSubscriber(t *testing.T) {
	subject := rx.NewSubject[int]()
	sink := rx.NewSink[int](nil, nil)
	sink.Cancel()

	_, err := rx.Filter[int](subject, func(int) bool { return true }, quiet()).Subscribe(sink)
	assert.ErrorIs(t, err, rxkit.ErrSubscriptionCancelled)
	assert.Equal(t, 0, subject.Subscribers())
}

func TestFilterMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := rxkit.NewMetrics(reg)

	_, err := rx.Collect(context.Background(), rx.TryFilter(rx.SliceSource([]string{"onefish", "twofish", "explode"}), func(v string) (bool, error) {
		if v == "explode" {
			return false, errBoom
		}
		return v == "onefish", nil
	}, quiet(), rx.WithStageName("fish"), rx.WithStageMetrics(metrics)))
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Filtered.WithLabelValues("fish", rxkit.OutcomePassed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Filtered.WithLabelValues("fish", rxkit.OutcomeDropped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Filtered.WithLabelValues("fish", rxkit.OutcomeFailed)))
}
