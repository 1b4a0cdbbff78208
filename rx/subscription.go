package rx

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	stateActive int32 = iota
	stateCancelled
	stateTerminated
)

// subscription tracks the lifecycle of one publisher/subscriber link. The
// first transition out of active wins: a cancelled link never terminates and
// a terminated link ignores Cancel.
type subscription struct {
	id       string
	state    atomic.Int32
	onCancel []func()
}

func newSubscription(onCancel ...func()) *subscription {
	return &subscription{
		id:       uuid.NewString(),
		onCancel: onCancel,
	}
}

func (s *subscription) ID() string {
	return s.id
}

func (s *subscription) Cancel() {
	if !s.state.CompareAndSwap(stateActive, stateCancelled) {
		return
	}
	for _, f := range s.onCancel {
		if f != nil {
			f()
		}
	}
}

func (s *subscription) active() bool {
	return s.state.Load() == stateActive
}

func (s *subscription) cancelled() bool {
	return s.state.Load() == stateCancelled
}

func (s *subscription) terminate() bool {
	return s.state.CompareAndSwap(stateActive, stateTerminated)
}

// outlet delivers events into one subscriber. Delivery is serialized by mu;
// Cancel never takes mu so a subscriber may cancel from inside its own
// callbacks.
type outlet[T any] struct {
	*subscription
	mu   sync.Mutex
	sink Subscriber[T]
}

func newOutlet[T any](sink Subscriber[T], onCancel ...func()) *outlet[T] {
	return &outlet[T]{
		subscription: newSubscription(onCancel...),
		sink:         sink,
	}
}

func (o *outlet[T]) start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active() {
		o.sink.OnSubscribe(o)
	}
}

// Push reports whether the value was handed to the subscriber.
func (o *outlet[T]) Push(v T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.active() {
		return false
	}
	o.sink.OnValue(v)
	return true
}

func (o *outlet[T]) Complete() {
	o.send(Finished())
}

func (o *outlet[T]) Error(err error) {
	o.send(Failed(err))
}

func (o *outlet[T]) send(c Completion) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.terminate() {
		o.sink.OnCompletion(c)
	}
}
