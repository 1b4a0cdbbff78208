package rx

import (
	"sync"

	"github.com/7vars/rxkit"
)

// Sink is a closure-based subscriber with unlimited demand. A Sink can be
// subscribed once; it is also the Subscription of that link.
type Sink[T any] struct {
	ReceiveValue      func(T)
	ReceiveCompletion func(Completion)

	mu        sync.Mutex
	claimed   bool
	cancelled bool
	upstream  Subscription
}

func NewSink[T any](receiveValue func(T), receiveCompletion func(Completion)) *Sink[T] {
	return &Sink[T]{
		ReceiveValue:      receiveValue,
		ReceiveCompletion: receiveCompletion,
	}
}

func (s *Sink[T]) Claim() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelled {
		return rxkit.ErrSubscriptionCancelled
	}
	if s.claimed {
		return rxkit.ErrAlreadySubscribed
	}
	s.claimed = true
	return nil
}

func (s *Sink[T]) OnSubscribe(sub Subscription) {
	s.mu.Lock()
	s.upstream = sub
	cancelled := s.cancelled
	s.mu.Unlock()
	if cancelled {
		sub.Cancel()
	}
}

func (s *Sink[T]) OnValue(v T) {
	if s.ReceiveValue != nil {
		s.ReceiveValue(v)
	}
}

func (s *Sink[T]) OnCompletion(c Completion) {
	if s.ReceiveCompletion != nil {
		s.ReceiveCompletion(c)
	}
}

func (s *Sink[T]) Cancel() {
	s.mu.Lock()
	s.cancelled = true
	upstream := s.upstream
	s.mu.Unlock()
	if upstream != nil {
		upstream.Cancel()
	}
}

// ===== sinks =====

// SinkTo subscribes a new Sink built from the two callbacks; either may be nil.
func SinkTo[T any](pub Publisher[T], receiveValue func(T), receiveCompletion func(Completion)) (*Sink[T], error) {
	sink := NewSink(receiveValue, receiveCompletion)
	if _, err := pub.Subscribe(sink); err != nil {
		return nil, err
	}
	return sink, nil
}

func ForEach[T any](pub Publisher[T], f func(T)) (*Sink[T], error) {
	return SinkTo(pub, f, nil)
}
