package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the store.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Store size
	ResourcesTotal    prometheus.Gauge
	UntaggedResources prometheus.Gauge
	TagsTotal         prometheus.Gauge
	TokensTotal       prometheus.Gauge

	// Operations
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ReindexTotal      prometheus.Counter

	// Snapshot files
	SnapshotWritesTotal  prometheus.Counter
	SnapshotDeletesTotal prometheus.Counter
	SnapshotErrorsTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		ResourcesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_resources",
				Help: "Number of resources held by the store",
			},
		),
		UntaggedResources: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_untagged_resources",
				Help: "Number of resources without tags awaiting sweep",
			},
		),
		TagsTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_tags",
				Help: "Number of distinct tags in the tag index",
			},
		),
		TokensTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scribe_tokens",
				Help: "Number of distinct tokens in the word index",
			},
		),

		OperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_operations_total",
				Help: "Total number of store operations",
			},
			[]string{"op", "status"},
		),
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scribe_operation_duration_seconds",
				Help:    "Duration of store operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		ReindexTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scribe_reindex_total",
				Help: "Total number of full word index rebuilds",
			},
		),

		SnapshotWritesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scribe_snapshot_writes_total",
				Help: "Total number of snapshot files written",
			},
		),
		SnapshotDeletesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scribe_snapshot_deletes_total",
				Help: "Total number of snapshot files deleted",
			},
		),
		SnapshotErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scribe_snapshot_errors_total",
				Help: "Total number of snapshot file errors",
			},
			[]string{"kind"},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.ResourcesTotal)
	m.registry.MustRegister(m.UntaggedResources)
	m.registry.MustRegister(m.TagsTotal)
	m.registry.MustRegister(m.TokensTotal)

	m.registry.MustRegister(m.OperationsTotal)
	m.registry.MustRegister(m.OperationDuration)
	m.registry.MustRegister(m.ReindexTotal)

	m.registry.MustRegister(m.SnapshotWritesTotal)
	m.registry.MustRegister(m.SnapshotDeletesTotal)
	m.registry.MustRegister(m.SnapshotErrorsTotal)
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordOperation counts one store operation and observes its duration
func (m *Metrics) RecordOperation(op string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.OperationsTotal.WithLabelValues(op, status).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// SetStoreSize updates the store size gauges
func (m *Metrics) SetStoreSize(resources, untagged, tags, tokens int) {
	if m == nil {
		return
	}
	m.ResourcesTotal.Set(float64(resources))
	m.UntaggedResources.Set(float64(untagged))
	m.TagsTotal.Set(float64(tags))
	m.TokensTotal.Set(float64(tokens))
}

// RecordReindex counts a full word index rebuild
func (m *Metrics) RecordReindex() {
	if m == nil {
		return
	}
	m.ReindexTotal.Inc()
}

// RecordSnapshotWrite counts a snapshot write attempt
func (m *Metrics) RecordSnapshotWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SnapshotErrorsTotal.WithLabelValues("write").Inc()
		return
	}
	m.SnapshotWritesTotal.Inc()
}

// RecordSnapshotDelete counts a snapshot delete attempt
func (m *Metrics) RecordSnapshotDelete(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.SnapshotErrorsTotal.WithLabelValues("delete").Inc()
		return
	}
	m.SnapshotDeletesTotal.Inc()
}

// RecordSnapshotLoadError counts a snapshot that failed to load
func (m *Metrics) RecordSnapshotLoadError() {
	if m == nil {
		return
	}
	m.SnapshotErrorsTotal.WithLabelValues("load").Inc()
}

// WriteSummary writes one line per gathered sample in name{labels} value form.
// Histograms are reported by their sample count and sum.
func (m *Metrics) WriteSummary(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var labels []string
			for _, lp := range metric.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}

			switch {
			case metric.GetGauge() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, metric.GetGauge().GetValue()))
			case metric.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s %g", name, metric.GetCounter().GetValue()))
			case metric.GetHistogram() != nil:
				h := metric.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s count=%d sum=%g", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
