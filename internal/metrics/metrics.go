// Package metrics holds the Prometheus collectors for preview generation and
// the scheduled jobs. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "berinia"

type Metrics struct {
	registry *prometheus.Registry

	generations     *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	summaries       *prometheus.CounterVec
	fetchFailures   prometheus.Counter
	missionTriggers *prometheus.CounterVec
	expiry          *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Preview generations by outcome (created, updated, reused, failed).",
		}, []string{"outcome"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_stage_seconds",
			Help:      "Duration of each generation stage.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
		}, []string{"stage"}),
		summaries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summaries_total",
			Help:      "Knowledge summaries by source and fallback reason.",
		}, []string{"source", "reason"}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Page fetches that degraded to the placeholder text.",
		}),
		missionTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mission_triggers_total",
			Help:      "Crawl job starts per mission by result.",
		}, []string{"result"}),
		expiry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expiry_projects_total",
			Help:      "Projects seen by the expiration sweep by result (expired, deactivated, failed).",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.generations,
		m.stageDuration,
		m.summaries,
		m.fetchFailures,
		m.missionTriggers,
		m.expiry,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveGeneration(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveSummary(source, reason string) {
	if m == nil {
		return
	}
	m.summaries.WithLabelValues(source, reason).Inc()
}

func (m *Metrics) ObserveFetchFailure() {
	if m == nil {
		return
	}
	m.fetchFailures.Inc()
}

func (m *Metrics) ObserveMissionTrigger(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "error"
	}
	m.missionTriggers.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveExpiry(expired, deactivated, failed int) {
	if m == nil {
		return
	}
	m.expiry.WithLabelValues("expired").Add(float64(expired))
	m.expiry.WithLabelValues("deactivated").Add(float64(deactivated))
	m.expiry.WithLabelValues("failed").Add(float64(failed))
}
