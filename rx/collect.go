package rx

import (
	"context"
	"sync"
)

// Collect subscribes to pub and blocks until it completes or ctx ends. It
// returns the values received so far together with the failure, if any; when
// ctx ends first the subscription is cancelled and ctx.Err() is returned.
func Collect[T any](ctx context.Context, pub Publisher[T]) ([]T, error) {
	var m sync.Mutex
	values := make([]T, 0)
	done := make(chan Completion, 1)

	sink := NewSink(
		func(v T) {
			m.Lock()
			defer m.Unlock()
			values = append(values, v)
		},
		func(c Completion) {
			done <- c
		},
	)
	if _, err := pub.Subscribe(sink); err != nil {
		return nil, err
	}

	result := func() []T {
		m.Lock()
		defer m.Unlock()
		out := make([]T, len(values))
		copy(out, values)
		return out
	}

	select {
	case <-ctx.Done():
		sink.Cancel()
		return result(), ctx.Err()
	case c := <-done:
		return result(), c.Err
	}
}
