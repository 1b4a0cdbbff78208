package rx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7vars/rxkit"
	"github.com/7vars/rxkit/rx"
)

func TestSinkTo(t *testing.T) {
	var values []string
	var completions []rx.Completion

	sink, err := rx.SinkTo(rx.SliceSource([]string{"onefish", "twofish"}), func(v string) {
		values = append(values, v)
	}, func(c rx.Completion) {
		completions = append(completions, c)
	})
	require.NoError(t, err)
	require.NotNil(t, sink)

	assert.Equal(t, []string{"onefish", "twofish"}, values)
	require.Len(t, completions, 1)
	assert.True(t, completions[0].IsFinished())

	// cancelling after the terminal event is a no-op
	sink.Cancel()
	sink.Cancel()
}

func TestSinkIsSingleUse(t *testing.T) {
	subject := rx.NewSubject[int]()
	sink := rx.NewSink[int](nil, nil)

	_, err := subject.Subscribe(sink)
	require.NoError(t, err)
	_, err = subject.Subscribe(sink)
	assert.ErrorIs(t, err, rxkit.ErrAlreadySubscribed)
	assert.Equal(t, 1, subject.Subscribers())
}

func TestSinkSubscribeAfterCancel(t *testing.T) {
	sink := rx.NewSink[int](nil, nil)
	sink.Cancel()

	_, err := rx.SliceSource([]int{1}).Subscribe(sink)
	assert.ErrorIs(t, err, rxkit.ErrSubscriptionCancelled)
}

func TestSinkCancelInsideReceiveValue(t *testing.T) {
	var sink *rx.Sink[int]
	var values []int
	sink = &rx.Sink[int]{
		ReceiveValue: func(v int) {
			values = append(values, v)
			if v == 2 {
				sink.Cancel()
			}
		},
		ReceiveCompletion: func(rx.Completion) {
			t.Fatal("cancelled sink must not complete")
		},
	}

	_, err := rx.SliceSource([]int{1, 2, 3, 4}).Subscribe(sink)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, values)
}

func TestForEach(t *testing.T) {
	var sum int
	_, err := rx.ForEach(rx.SliceSource([]int{1, 2, 3}), func(v int) {
		sum += v
	})
	require.NoError(t, err)
	assert.Equal(t, 6, sum)
}
