// Package metrics exposes circulation counters in the Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"library-circulation-backend/internal/circulation"
)

// Metrics holds the service's collectors on a private registry.
type Metrics struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// New creates the collectors and registers them together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circulation",
			Name:      "transitions_total",
			Help:      "Committed circulation request transitions by event.",
		}, []string{"event"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "circulation",
			Name:      "failures_total",
			Help:      "Failed circulation operations by error kind.",
		}, []string{"kind"}),
	}
	m.registry.MustRegister(
		m.transitions,
		m.failures,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFailure counts err under its error kind. A nil receiver is a no-op.
func (m *Metrics) ObserveFailure(err error) {
	if m == nil || err == nil {
		return
	}
	m.failures.WithLabelValues(circulation.Kind(err)).Inc()
}

// Notifier wraps next so that every committed transition is counted before
// it is forwarded.
func (m *Metrics) Notifier(next circulation.Notifier) circulation.Notifier {
	return countingNotifier{m: m, next: next}
}

type countingNotifier struct {
	m    *Metrics
	next circulation.Notifier
}

func (c countingNotifier) Notify(n circulation.Notice) {
	c.m.transitions.WithLabelValues(string(n.Event)).Inc()
	if c.next != nil {
		c.next.Notify(n)
	}
}
