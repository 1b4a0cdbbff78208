package rxtest

import (
	"sync"

	"github.com/7vars/rxkit/rx"
)

// Recorder is an rx.Subscriber that keeps every event it receives.
type Recorder[T any] struct {
	mu           sync.Mutex
	subscription rx.Subscription
	subscribes   int
	values       []T
	completions  []rx.Completion

	// OnValueHook, when set, runs after each value is recorded.
	OnValueHook func(r *Recorder[T], v T)
}

func NewRecorder[T any]() *Recorder[T] {
	return &Recorder[T]{}
}

func (r *Recorder[T]) OnSubscribe(sub rx.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscription = sub
	r.subscribes++
}

func (r *Recorder[T]) OnValue(v T) {
	r.mu.Lock()
	r.values = append(r.values, v)
	hook := r.OnValueHook
	r.mu.Unlock()
	if hook != nil {
		hook(r, v)
	}
}

func (r *Recorder[T]) OnCompletion(c rx.Completion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completions = append(r.completions, c)
}

func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	values := make([]T, len(r.values))
	copy(values, r.values)
	return values
}

func (r *Recorder[T]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Completion returns the first completion received.
func (r *Recorder[T]) Completion() (rx.Completion, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.completions) == 0 {
		return rx.Completion{}, false
	}
	return r.completions[0], true
}

// Completions returns how many completions were received; more than one is
// a protocol violation.
func (r *Recorder[T]) Completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completions)
}

func (r *Recorder[T]) Subscribes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscribes
}

func (r *Recorder[T]) Subscription() rx.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.subscription
}

// Cancel cancels the subscription handed to OnSubscribe, if any.
func (r *Recorder[T]) Cancel() {
	if sub := r.Subscription(); sub != nil {
		sub.Cancel()
	}
}
