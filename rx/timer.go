package rx

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/7vars/rxkit"
	"github.com/google/uuid"
)

type TimerOption func(*TimerPublisher)

func WithScheduler(s Scheduler) TimerOption {
	return func(t *TimerPublisher) {
		t.scheduler = s
	}
}

func WithLogger(logger rxkit.Logger) TimerOption {
	return func(t *TimerPublisher) {
		t.log = logger
	}
}

func WithMetrics(metrics *rxkit.Metrics) TimerOption {
	return func(t *TimerPublisher) {
		t.metrics = metrics
	}
}

// TimerPublisher is a connectable publisher of tick timestamps. Subscribers
// receive nothing until the publisher is connected; all subscribers share
// the single tick source of the live connection. The stream never completes.
type TimerPublisher struct {
	interval  time.Duration
	scheduler Scheduler
	log       rxkit.Logger
	metrics   *rxkit.Metrics

	mu   sync.Mutex
	conn *connection
	auto *autoconnect

	subscribers multicast[time.Time]
}

func NewTimerPublisher(interval time.Duration, opts ...TimerOption) (*TimerPublisher, error) {
	if interval <= 0 {
		return nil, rxkit.InvalidInterval(interval)
	}
	t := &TimerPublisher{
		interval: interval,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.scheduler == nil {
		t.scheduler = DefaultScheduler()
	}
	if t.log == nil {
		t.log = rxkit.NewLogger()
	}
	t.log = t.log.WithField("interval", interval.String())
	return t, nil
}

func (t *TimerPublisher) Interval() time.Duration {
	return t.interval
}

// Subscribe registers sub for ticks. It does not connect the publisher.
func (t *TimerPublisher) Subscribe(sub Subscriber[time.Time]) (Subscription, error) {
	if err := validate(sub); err != nil {
		return nil, err
	}
	return t.register(sub), nil
}

func (t *TimerPublisher) register(sub Subscriber[time.Time], onCancel ...func()) Subscription {
	var out *outlet[time.Time]
	remove := func() {
		if t.subscribers.remove(out) {
			t.metrics.SubscriberRemoved()
		}
	}
	out = newOutlet(sub, append([]func(){remove}, onCancel...)...)
	out.start()
	if t.subscribers.add(out) {
		t.metrics.SubscriberAdded()
	}
	return out
}

// Subscribers returns the number of registered subscribers.
func (t *TimerPublisher) Subscribers() int {
	return t.subscribers.len()
}

// Connect starts the tick source unless it is already running, in which case
// the live connection is returned. Cancelling the connection stops ticking
// and returns the publisher to idle; a later Connect starts afresh.
func (t *TimerPublisher) Connect() (Subscription, error) {
	if t.interval <= 0 {
		return nil, rxkit.InvalidInterval(t.interval)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return t.conn, nil
	}

	conn := &connection{
		timer: t,
		id:    uuid.NewString(),
	}
	conn.active.Store(true)
	conn.token = t.scheduler.ScheduleRepeating(t.interval, conn.tick)
	t.conn = conn

	t.metrics.Connected()
	t.log.WithField("connection", conn.id).Debugf("timer connected with %d subscribers", t.subscribers.len())
	return conn, nil
}

func (t *TimerPublisher) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// Autoconnect returns a publisher that connects t when its first subscriber
// arrives and cancels the connection when its last subscription is
// cancelled. Every call returns the same publisher.
func (t *TimerPublisher) Autoconnect() Publisher[time.Time] {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.auto == nil {
		t.auto = &autoconnect{timer: t}
	}
	return t.auto
}

type connection struct {
	timer  *TimerPublisher
	id     string
	token  Subscription
	active atomic.Bool
	once   sync.Once
}

func (c *connection) tick(now time.Time) {
	if !c.active.Load() {
		return
	}
	c.timer.metrics.Tick()
	c.timer.subscribers.broadcast(now)
}

func (c *connection) Cancel() {
	c.once.Do(func() {
		c.active.Store(false)

		t := c.timer
		t.mu.Lock()
		if t.conn == c {
			t.conn = nil
		}
		token := c.token
		t.mu.Unlock()

		token.Cancel()
		t.log.WithField("connection", c.id).Debug("timer disconnected")
	})
}

type autoconnect struct {
	timer *TimerPublisher

	mu   sync.Mutex
	refs int
	conn Subscription
}

func (a *autoconnect) Subscribe(sub Subscriber[time.Time]) (Subscription, error) {
	if err := validate(sub); err != nil {
		return nil, err
	}
	if err := a.acquire(); err != nil {
		return nil, err
	}
	return a.timer.register(sub, a.release), nil
}

func (a *autoconnect) acquire() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refs++
	// the shared connection may have been cancelled through a handle
	// returned by Connect; reconnect in that case
	if a.refs > 1 && a.timer.Connected() {
		return nil
	}
	conn, err := a.timer.Connect()
	if err != nil {
		a.refs--
		return err
	}
	a.conn = conn
	return nil
}

// release drops one reference. The last one cancels the connection before
// a.mu is released, so a concurrent acquire never picks up a connection that
// is about to go away.
func (a *autoconnect) release() {
	a.mu.Lock()
	a.refs--
	var conn Subscription
	if a.refs == 0 {
		conn, a.conn = a.conn, nil
	}
	if conn != nil {
		conn.Cancel()
	}
	a.mu.Unlock()

	if conn != nil {
		a.timer.log.Debug("last autoconnect subscriber left")
	}
}
