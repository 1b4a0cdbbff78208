package rxkit

import "github.com/prometheus/client_golang/prometheus"

// Metrics collects stream counters. A nil *Metrics is valid and records
// nothing, so components can take one unconditionally.
type Metrics struct {
	Ticks       prometheus.Counter
	Connections prometheus.Counter
	Subscribers prometheus.Gauge
	Filtered    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rxkit",
			Subsystem: "timer",
			Name:      "ticks_total",
			Help:      "Ticks fired by connected timer publishers.",
		}),
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rxkit",
			Subsystem: "timer",
			Name:      "connections_total",
			Help:      "Transitions of timer publishers from idle to connected.",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rxkit",
			Subsystem: "timer",
			Name:      "subscribers",
			Help:      "Subscribers currently registered with timer publishers.",
		}),
		Filtered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rxkit",
			Subsystem: "filter",
			Name:      "values_total",
			Help:      "Values evaluated by filter stages, by outcome.",
		}, []string{"stage", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Ticks, m.Connections, m.Subscribers, m.Filtered)
	}
	return m
}

const (
	OutcomePassed  = "passed"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

func (m *Metrics) Tick() {
	if m != nil {
		m.Ticks.Inc()
	}
}

func (m *Metrics) Connected() {
	if m != nil {
		m.Connections.Inc()
	}
}

func (m *Metrics) SubscriberAdded() {
	if m != nil {
		m.Subscribers.Inc()
	}
}

func (m *Metrics) SubscriberRemoved() {
	if m != nil {
		m.Subscribers.Dec()
	}
}

func (m *Metrics) Filter(stage, outcome string) {
	if m != nil {
		m.Filtered.WithLabelValues(stage, outcome).Inc()
	}
}
