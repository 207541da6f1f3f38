// Package metrics exposes run and classification counters on a private
// prometheus registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "deptrouter"

type Metrics struct {
	registry        *prometheus.Registry
	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	classifications *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Routing runs by resolved label and terminal phase.",
		}, []string{"label", "phase"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a routing run by terminal phase.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"phase"}),
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifications_total",
			Help:      "Classifier decisions by label and source.",
		}, []string{"label", "source"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.runs,
		m.runDuration,
		m.classifications,
	)
	return m
}

// ObserveRun records a finished run. A nil receiver is a no-op.
func (m *Metrics) ObserveRun(label, phase string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if label == "" {
		label = "none"
	}
	m.runs.WithLabelValues(label, phase).Inc()
	m.runDuration.WithLabelValues(phase).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveClassification(label, source string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(label, source).Inc()
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
