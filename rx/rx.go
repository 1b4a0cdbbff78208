package rx

import "fmt"

// Publisher emits zero or more values followed by exactly one Completion.
// Subscribe delivers OnSubscribe before any value and returns the same
// Subscription the subscriber received.
type Publisher[T any] interface {
	Subscribe(Subscriber[T]) (Subscription, error)
}

// Subscription is the cancellable link between a publisher and a
// subscriber. Cancel is idempotent and a no-op after the terminal event.
type Subscription interface {
	Cancel()
}

type Subscriber[T any] interface {
	OnSubscribe(Subscription)
	OnValue(T)
	OnCompletion(Completion)
}

// Completion is the terminal event of a stream: finished when Err is nil,
// failed otherwise.
type Completion struct {
	Err error
}

func Finished() Completion {
	return Completion{}
}

func Failed(err error) Completion {
	if err == nil {
		panic("rx: Failed called with nil error")
	}
	return Completion{Err: err}
}

func (c Completion) IsFinished() bool {
	return c.Err == nil
}

func (c Completion) IsFailure() bool {
	return c.Err != nil
}

func (c Completion) String() string {
	if c.Err == nil {
		return "finished"
	}
	return fmt.Sprintf("failure(%v)", c.Err)
}

// CancelFunc adapts a function to Subscription. It does not make the
// function idempotent.
type CancelFunc func()

func (f CancelFunc) Cancel() {
	f()
}
