package rxkit

import (
	"errors"
	"fmt"
)

var (
	ErrNilSubscriber         = errors.New("rxkit: subscriber is nil")
	ErrSubscriptionCancelled = errors.New("rxkit: subscription already cancelled")
	ErrAlreadySubscribed     = errors.New("rxkit: subscriber is already subscribed")
	ErrInvalidInterval       = errors.New("rxkit: timer interval must be positive")
)

// PredicateFailure is the terminal failure of a fallible filter whose
// predicate returned an error.
type PredicateFailure struct {
	Value interface{}
	err   error
}

// NewPredicateFailure wraps v as the cause of a predicate failure. Values that
// are not errors (recovered panics for instance) are formatted into one.
func NewPredicateFailure(value interface{}, v interface{}) *PredicateFailure {
	if err, ok := v.(error); ok {
		return &PredicateFailure{Value: value, err: err}
	}
	return &PredicateFailure{Value: value, err: fmt.Errorf("predicate-error: %v", v)}
}

func (e *PredicateFailure) Error() string {
	return fmt.Sprintf("predicate failed on %v: %v", e.Value, e.err)
}

func (e *PredicateFailure) Unwrap() error {
	return e.err
}

// InvalidInterval reports a non-positive timer interval.
func InvalidInterval(d interface{}) error {
	return fmt.Errorf("%w: got %v", ErrInvalidInterval, d)
}
