package rx

type sliceSource[T any] struct {
	values []T
}

// SliceSource publishes the elements of slice synchronously during Subscribe
// and then finishes. Every subscriber gets the whole slice.
func SliceSource[T any](slice []T) Publisher[T] {
	return &sliceSource[T]{values: slice}
}

func (src *sliceSource[T]) Subscribe(sub Subscriber[T]) (Subscription, error) {
	if err := validate(sub); err != nil {
		return nil, err
	}
	out := newOutlet(sub)
	out.start()
	for _, v := range src.values {
		if !out.Push(v) {
			return out, nil
		}
	}
	out.Complete()
	return out, nil
}
