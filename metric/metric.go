// Package metric holds the Prometheus metrics of ontology loading and
// spreadsheet builds. Metrics live in a private registry so that several
// loaders in one process do not collide, and a nil *Metrics disables
// recording.
package metric

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ontopy"

// Resolution sources.
const (
	SourceStore   = "store"
	SourceCatalog = "catalog"
	SourceLocal   = "local"
	SourceRemote  = "remote"
)

// Failure kinds.
const (
	FailureUnresolved = "unresolved"
	FailureFetch      = "fetch"
	FailureParse      = "parse"
	FailureStore      = "store"
)

// Build row outcomes.
const (
	RowDeclared   = "declared"
	RowSkipped    = "skipped"
	RowUnresolved = "unresolved"
)

// Metrics records loader and builder activity.
type Metrics struct {
	registry *prometheus.Registry

	resolutions   *prometheus.CounterVec // By source
	failures      *prometheus.CounterVec // By kind
	fetchDuration prometheus.Histogram
	fetchBytes    prometheus.Counter
	buildRows     *prometheus.CounterVec // By outcome
	buildDuration prometheus.Histogram
}

// New creates the metrics and registers them with a fresh registry.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "resolutions_total",
			Help:      "Ontology identifiers resolved, by resolution source",
		}, []string{"source"}),

		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "failures_total",
			Help:      "Failed ontology loads, by failure kind",
		}, []string{"kind"}),

		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "fetch_duration_seconds",
			Help:      "Duration of remote document fetches in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}),

		fetchBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "fetch_bytes_total",
			Help:      "Bytes of remote documents fetched",
		}),

		buildRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "excel",
			Name:      "rows_total",
			Help:      "Spreadsheet rows processed, by outcome",
		}, []string{"outcome"}),

		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "excel",
			Name:      "build_duration_seconds",
			Help:      "Duration of ontology builds from spreadsheets in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.resolutions, m.failures, m.fetchDuration, m.fetchBytes, m.buildRows, m.buildDuration,
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// Gatherer returns the registry holding the metrics.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the metrics in the Prometheus text format, as read
// by the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

// Resolved counts an identifier resolved from source.
func (m *Metrics) Resolved(source string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source).Inc()
}

// Failed counts a failed load.
func (m *Metrics) Failed(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// Fetched records a remote fetch.
func (m *Metrics) Fetched(bytes int, d time.Duration) {
	if m == nil {
		return
	}
	m.fetchDuration.Observe(d.Seconds())
	m.fetchBytes.Add(float64(bytes))
}

// Row counts a spreadsheet row by outcome.
func (m *Metrics) Row(outcome string) {
	if m == nil {
		return
	}
	m.buildRows.WithLabelValues(outcome).Inc()
}

// Built records the duration of a spreadsheet build.
func (m *Metrics) Built(d time.Duration) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(d.Seconds())
}
