package rx

import (
	"sync"

	"github.com/7vars/rxkit"
)

// SingleUse is implemented by subscribers that may be subscribed only once.
// Publishers call Claim before registering such a subscriber and reject the
// subscription with its error.
type SingleUse interface {
	Claim() error
}

func validate[T any](sub Subscriber[T]) error {
	if sub == nil {
		return rxkit.ErrNilSubscriber
	}
	if su, ok := sub.(SingleUse); ok {
		return su.Claim()
	}
	return nil
}

// Subject is a publisher driven by explicit Send and completion calls. Values
// reach the subscribers registered at send time, in registration order.
// Subscribers that arrive after completion only receive the completion.
//
// Send must not be called on a subject from inside one of its own
// subscribers' callbacks.
type Subject[T any] struct {
	mu          sync.Mutex
	completion  *Completion
	subscribers multicast[T]
}

func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

func (s *Subject[T]) Subscribe(sub Subscriber[T]) (Subscription, error) {
	if err := validate(sub); err != nil {
		return nil, err
	}

	var out *outlet[T]
	out = newOutlet(sub, func() {
		s.subscribers.remove(out)
	})
	out.start()

	s.mu.Lock()
	completion := s.completion
	if completion == nil {
		s.subscribers.add(out)
	}
	s.mu.Unlock()

	if completion != nil {
		out.send(*completion)
	}
	return out, nil
}

func (s *Subject[T]) Send(v T) {
	if s.Completed() {
		return
	}
	s.subscribers.broadcast(v)
}

func (s *Subject[T]) Finish() {
	s.SendCompletion(Finished())
}

func (s *Subject[T]) Fail(err error) {
	s.SendCompletion(Failed(err))
}

// SendCompletion terminates the subject. Only the first call has an effect.
func (s *Subject[T]) SendCompletion(c Completion) {
	s.mu.Lock()
	if s.completion != nil {
		s.mu.Unlock()
		return
	}
	s.completion = &c
	outlets := s.subscribers.drain()
	s.mu.Unlock()

	for _, out := range outlets {
		out.send(c)
	}
}

func (s *Subject[T]) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completion != nil
}

// Subscribers returns the number of live subscriptions.
func (s *Subject[T]) Subscribers() int {
	return s.subscribers.len()
}
