// Package metrics defines the Prometheus collectors recorded while building an
// index. Builds are one-shot runs, so the collectors live on a private
// registry that is written to a node_exporter textfile instead of being
// scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors for index builds. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	DocsIndexedTotal     prometheus.Counter
	TermsInsertedTotal   prometheus.Counter
	BytesReadTotal       prometheus.Counter
	BuildFailuresTotal   *prometheus.CounterVec
	BuildDuration        prometheus.Histogram
	DictionaryTerms      prometheus.Gauge
	DictionaryArenaBytes prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		DocsIndexedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "blazeindex_docs_indexed_total",
				Help: "Total documents added to an index.",
			},
		),
		TermsInsertedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "blazeindex_terms_inserted_total",
				Help: "Total term occurrences inserted into posting lists.",
			},
		),
		BytesReadTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "blazeindex_bytes_read_total",
				Help: "Total bytes of document collections read.",
			},
		),
		BuildFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blazeindex_build_failures_total",
				Help: "Failed index builds by error kind (io, encoding, parse, other).",
			},
			[]string{"kind"},
		),
		BuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "blazeindex_build_duration_seconds",
				Help:    "Wall time of index builds in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		DictionaryTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "blazeindex_dictionary_terms",
				Help: "Distinct terms in the most recently built index.",
			},
		),
		DictionaryArenaBytes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "blazeindex_dictionary_arena_bytes",
				Help: "Bytes of term text held by the most recently built dictionary.",
			},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.DocsIndexedTotal,
		m.TermsInsertedTotal,
		m.BytesReadTotal,
		m.BuildFailuresTotal,
		m.BuildDuration,
		m.DictionaryTerms,
		m.DictionaryArenaBytes,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) DocumentIndexed() {
	if m == nil {
		return
	}
	m.DocsIndexedTotal.Inc()
}

func (m *Metrics) TermsInserted(n int) {
	if m == nil || n == 0 {
		return
	}
	m.TermsInsertedTotal.Add(float64(n))
}

func (m *Metrics) BytesRead(n int) {
	if m == nil {
		return
	}
	m.BytesReadTotal.Add(float64(n))
}

// BuildFinished records a successful build.
func (m *Metrics) BuildFinished(d time.Duration, terms, arenaBytes int) {
	if m == nil {
		return
	}
	m.BuildDuration.Observe(d.Seconds())
	m.DictionaryTerms.Set(float64(terms))
	m.DictionaryArenaBytes.Set(float64(arenaBytes))
}

// BuildFailed records a failed build of the given error kind.
func (m *Metrics) BuildFailed(kind string) {
	if m == nil {
		return
	}
	m.BuildFailuresTotal.WithLabelValues(kind).Inc()
}

// WriteTextfile writes the current values in the text exposition format,
// atomically replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
