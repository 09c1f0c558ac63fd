// Package observability exposes Prometheus metrics for enrichment runs and
// the HTTP API.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bluecarr0t/sage-resources-subdomain-sub000/internal/choropleth"
)

const namespace = "countymap"

// Metrics holds the Prometheus counters, histograms, and gauges for county
// enrichment.
type Metrics struct {
	// Join outcomes per source, labels: source, method={code,name,none}.
	FeaturesMatched *prometheus.CounterVec
	// Features seen in the last run per source.
	FeaturesTotal *prometheus.GaugeVec

	EnrichRuns     prometheus.Counter
	EnrichDuration prometheus.Histogram
	SourceRecords  *prometheus.GaugeVec // labels: source

	// HTTP API.
	RequestDuration *prometheus.HistogramVec // labels: route, status
}

func newMetrics(help bool) *Metrics {
	h := func(s string) string {
		if help {
			return s
		}
		return ""
	}
	return &Metrics{
		FeaturesMatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "features_matched_total",
			Help:      h("County features joined to a metric record, by source and join method."),
		}, []string{"source", "method"}),
		FeaturesTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "features",
			Help:      h("Features in the most recent enrichment, by source."),
		}, []string{"source"}),
		EnrichRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrich_runs_total",
			Help:      h("Completed enrichment runs."),
		}),
		EnrichDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrich_duration_seconds",
			Help:      h("Duration of a full enrichment pass over the collection."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		SourceRecords: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "source_records",
			Help:      h("Metric records loaded per source."),
		}, []string{"source"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      h("API request duration in seconds."),
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.FeaturesMatched,
		m.FeaturesTotal,
		m.EnrichRuns,
		m.EnrichDuration,
		m.SourceRecords,
		m.RequestDuration,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered nowhere, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

// ObserveMatch implements choropleth.Observer.
func (m *Metrics) ObserveMatch(source string, d choropleth.Diagnostics) {
	m.FeaturesMatched.WithLabelValues(source, string(choropleth.MethodCode)).Add(float64(d.MatchedByCode))
	m.FeaturesMatched.WithLabelValues(source, string(choropleth.MethodName)).Add(float64(d.MatchedByName))
	m.FeaturesMatched.WithLabelValues(source, string(choropleth.MethodNone)).Add(float64(d.Unmatched))
	m.FeaturesTotal.WithLabelValues(source).Set(float64(d.Total))
}

// ObserveRun records one completed enrichment.
func (m *Metrics) ObserveRun(elapsed time.Duration) {
	m.EnrichRuns.Inc()
	m.EnrichDuration.Observe(elapsed.Seconds())
}

// ObserveSource records the number of records loaded for a source.
func (m *Metrics) ObserveSource(source string, n int) {
	m.SourceRecords.WithLabelValues(source).Set(float64(n))
}
