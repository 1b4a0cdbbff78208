package rx

import (
	"sync"
	"sync/atomic"

	"github.com/7vars/rxkit"
)

type StageOption func(*stageOptions)

type stageOptions struct {
	name    string
	logger  rxkit.Logger
	metrics *rxkit.Metrics
}

// WithStageName labels the stage in logs and metrics.
func WithStageName(name string) StageOption {
	return func(o *stageOptions) {
		o.name = name
	}
}

func WithStageLogger(logger rxkit.Logger) StageOption {
	return func(o *stageOptions) {
		o.logger = logger
	}
}

func WithStageMetrics(metrics *rxkit.Metrics) StageOption {
	return func(o *stageOptions) {
		o.metrics = metrics
	}
}

type filterPublisher[T any] struct {
	upstream  Publisher[T]
	predicate func(T) (bool, error)
	fallible  bool
	opts      stageOptions
}

func newFilter[T any](upstream Publisher[T], predicate func(T) (bool, error), fallible bool, name string, opts []StageOption) Publisher[T] {
	o := stageOptions{name: name}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = rxkit.NewLogger()
	}
	return &filterPublisher[T]{
		upstream:  upstream,
		predicate: predicate,
		fallible:  fallible,
		opts:      o,
	}
}

// Filter forwards the upstream values for which predicate returns true and
// drops the others. Completion and failure pass through unchanged.
func Filter[T any](upstream Publisher[T], predicate func(T) bool, opts ...StageOption) Publisher[T] {
	return newFilter(upstream, func(v T) (bool, error) {
		return predicate(v), nil
	}, false, "filter", opts)
}

// TryFilter is Filter with a fallible predicate. The first predicate error,
// or panic, cancels the upstream subscription and terminates the stream with
// a *rxkit.PredicateFailure; nothing is delivered after it.
func TryFilter[T any](upstream Publisher[T], predicate func(T) (bool, error), opts ...StageOption) Publisher[T] {
	return newFilter(upstream, predicate, true, "tryFilter", opts)
}

func (f *filterPublisher[T]) Subscribe(sub Subscriber[T]) (Subscription, error) {
	if err := validate(sub); err != nil {
		return nil, err
	}

	stage := &filterStage[T]{
		pub: f,
	}
	stage.out = newOutlet(sub, stage.cancelUpstream)
	stage.log = f.opts.logger.With(map[string]interface{}{
		"stage":        f.opts.name,
		"subscription": stage.out.ID(),
	})

	stage.out.start()
	if !stage.out.active() {
		return stage.out, nil
	}
	if _, err := f.upstream.Subscribe(stage); err != nil {
		stage.out.Cancel()
		return nil, err
	}
	return stage.out, nil
}

// filterStage is the per-subscription state of a filter: the upstream
// subscriber and the owner of the downstream outlet.
type filterStage[T any] struct {
	pub *filterPublisher[T]
	out *outlet[T]
	log rxkit.Logger

	mu        sync.Mutex
	upstream  Subscription
	cancelled bool

	failed atomic.Bool
}

func (s *filterStage[T]) OnSubscribe(up Subscription) {
	s.mu.Lock()
	s.upstream = up
	cancelled := s.cancelled
	s.mu.Unlock()
	if cancelled {
		up.Cancel()
	}
}

func (s *filterStage[T]) cancelUpstream() {
	s.mu.Lock()
	s.cancelled = true
	up := s.upstream
	s.mu.Unlock()
	if up != nil {
		up.Cancel()
	}
}

func (s *filterStage[T]) OnValue(v T) {
	if s.failed.Load() {
		return
	}
	ok, failure := s.evaluate(v)
	if failure != nil {
		s.fail(failure)
		return
	}
	if ok {
		s.pub.opts.metrics.Filter(s.pub.opts.name, rxkit.OutcomePassed)
		s.out.Push(v)
		return
	}
	s.pub.opts.metrics.Filter(s.pub.opts.name, rxkit.OutcomeDropped)
}

func (s *filterStage[T]) evaluate(v T) (ok bool, failure *rxkit.PredicateFailure) {
	if s.pub.fallible {
		defer func() {
			if r := recover(); r != nil {
				ok, failure = false, rxkit.NewPredicateFailure(v, r)
			}
		}()
	}
	ok, err := s.pub.predicate(v)
	if err != nil {
		return false, rxkit.NewPredicateFailure(v, err)
	}
	return ok, nil
}

func (s *filterStage[T]) fail(failure *rxkit.PredicateFailure) {
	if !s.failed.CompareAndSwap(false, true) {
		return
	}
	s.pub.opts.metrics.Filter(s.pub.opts.name, rxkit.OutcomeFailed)
	s.log.Debugf("predicate failed, cancelling upstream: %v", failure)
	s.cancelUpstream()
	s.out.Error(failure)
}

func (s *filterStage[T]) OnCompletion(c Completion) {
	if s.failed.Load() {
		return
	}
	s.out.send(c)
}
