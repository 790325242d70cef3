// Package metrics provides Prometheus metrics for speedmap runs.
//
// speedmap is a batch tool, so metrics are not scraped over HTTP; they are
// written once per run in the text exposition format for the node exporter's
// textfile collector.
package metrics

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// Input metrics
	PingsLoaded prometheus.Counter
	SpeedEdges  prometheus.Counter

	// Output metrics
	StopsProcessed  prometheus.Counter
	StopsSkipped    prometheus.Counter
	SegmentsEmitted prometheus.Counter

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram

	// logger for write diagnostics
	logger *slog.Logger
}

// RunCounts is what a single run processed.
type RunCounts struct {
	Pings    int
	Edges    int
	Stops    int
	Skipped  int
	Segments int
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for textfile diagnostics.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	pingsLoaded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speedmap_pings_loaded_total",
		Help: "Total number of pings read from input",
	})

	speedEdges := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speedmap_speed_graph_edges_total",
		Help: "Total number of speed graph edges built",
	})

	stopsProcessed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speedmap_stops_processed_total",
		Help: "Total number of stops with a declared length that were segmented",
	})

	stopsSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speedmap_stops_skipped_total",
		Help: "Total number of stops skipped for lacking an arrival ping",
	})

	segmentsEmitted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "speedmap_segments_emitted_total",
		Help: "Total number of speed map segments produced",
	})

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speedmap_runs_total",
			Help: "Total number of speed map runs by outcome",
		},
		[]string{"outcome"},
	)

	runDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "speedmap_run_duration_seconds",
		Help:    "Wall time of a speed map run, from load to output",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
	})

	registry.MustRegister(
		pingsLoaded,
		speedEdges,
		stopsProcessed,
		stopsSkipped,
		segmentsEmitted,
		runsTotal,
		runDuration,
	)

	return &Metrics{
		Registry:        registry,
		PingsLoaded:     pingsLoaded,
		SpeedEdges:      speedEdges,
		StopsProcessed:  stopsProcessed,
		StopsSkipped:    stopsSkipped,
		SegmentsEmitted: segmentsEmitted,
		RunsTotal:       runsTotal,
		RunDuration:     runDuration,
		logger:          logger,
	}
}

// RecordCounts adds what a run processed to the counters.
func (m *Metrics) RecordCounts(c RunCounts) {
	m.PingsLoaded.Add(float64(c.Pings))
	m.SpeedEdges.Add(float64(c.Edges))
	m.StopsProcessed.Add(float64(c.Stops))
	m.StopsSkipped.Add(float64(c.Skipped))
	m.SegmentsEmitted.Add(float64(c.Segments))
}

// RecordRun counts a finished run and observes its duration.
func (m *Metrics) RecordRun(err error, elapsed time.Duration) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
}

// WriteTextfile writes the registry to path in the Prometheus text format.
// The file is written atomically, so a collector never reads a partial file.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	if m.logger != nil {
		m.logger.Debug("metrics textfile written", "path", path)
	}
	return nil
}
