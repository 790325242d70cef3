package speedmap

import (
	"fmt"
	"log/slog"
	"sort"

	"speedmap.onebusaway.org/internal/logging"
	"speedmap.onebusaway.org/internal/models"
	"speedmap.onebusaway.org/internal/pingfile"
)

// Route is the telemetry of a single bus on a single route, sorted by time.
// A Route owns its pings; nothing it returns aliases them.
type Route struct {
	pings  []models.Ping
	logger *slog.Logger
}

// Summary describes what a speed map run worked from.
type Summary struct {
	Pings        int
	Stops        int      // stops with a declared length
	Edges        int      // speed graph edges across all stops
	Segments     int      // segments emitted
	SkippedStops []string // stops seen on the route that never had an arrival
}

// NewRoute copies and sorts pings by ascending timestamp. Ties keep their
// input order.
func NewRoute(pings []models.Ping) *Route {
	return NewRouteWithLogger(pings, nil)
}

// NewRouteWithLogger is NewRoute with a logger for per-stop diagnostics.
func NewRouteWithLogger(pings []models.Ping, logger *slog.Logger) *Route {
	sorted := make([]models.Ping, len(pings))
	copy(sorted, pings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	if logger == nil {
		logger = slog.Default()
	}

	return &Route{
		pings:  sorted,
		logger: logger.With(slog.String("component", "speedmap")),
	}
}

// LoadRoute reads a ping file and builds a Route from it.
func LoadRoute(path string, logger *slog.Logger) (*Route, error) {
	pings, err := pingfile.ReadFileWithLogger(path, logger)
	if err != nil {
		return nil, err
	}
	return NewRouteWithLogger(pings, logger), nil
}

// Pings returns a copy of the route's pings in time order.
func (r *Route) Pings() []models.Ping {
	return append([]models.Ping(nil), r.pings...)
}

// StopLengths resolves the declared length of every stop on the route.
func (r *Route) StopLengths() *StopLengths {
	return ResolveStopLengths(r.pings)
}

// SpeedGraph builds the per-stop speed graph of the route.
func (r *Route) SpeedGraph() (*SpeedGraph, error) {
	return BuildSpeedGraph(r.pings)
}

// SpeedMap computes uniform segments of segmentLength meters for every stop
// that has a declared length, in stop discovery order.
func (r *Route) SpeedMap(segmentLength float64) ([]models.Segment, error) {
	segments, _, err := r.SpeedMapWithSummary(segmentLength)
	return segments, err
}

// SpeedMapWithSummary is SpeedMap that also reports what the run covered.
// No segments are returned on error.
func (r *Route) SpeedMapWithSummary(segmentLength float64) ([]models.Segment, Summary, error) {
	if err := ValidateSegmentLength(segmentLength); err != nil {
		return nil, Summary{}, err
	}

	lengths := r.StopLengths()
	graph, err := r.SpeedGraph()
	if err != nil {
		return nil, Summary{}, fmt.Errorf("building speed graph: %w", err)
	}

	summary := Summary{
		Pings: len(r.pings),
		Stops: lengths.Len(),
		Edges: graph.EdgeCount(),
	}
	seen := make(map[string]bool)
	for _, ping := range r.pings {
		if seen[ping.StopID] {
			continue
		}
		seen[ping.StopID] = true
		if _, ok := lengths.Length(ping.StopID); !ok {
			summary.SkippedStops = append(summary.SkippedStops, ping.StopID)
		}
	}
	if len(summary.SkippedStops) > 0 {
		logging.LogOperation(r.logger, "skipping_stops_without_arrival",
			slog.Any("stops", summary.SkippedStops))
	}

	var segments []models.Segment
	for _, stopID := range lengths.StopIDs() {
		stopLength, _ := lengths.Length(stopID)
		edges, _ := graph.Edges(stopID)

		stopSegments, err := InterpolateStop(stopID, stopLength, edges, segmentLength)
		if err != nil {
			return nil, Summary{}, fmt.Errorf("interpolating stop %q: %w", stopID, err)
		}

		r.logger.Debug("stop interpolated",
			slog.String("stop_id", stopID),
			slog.Float64("stop_length", stopLength),
			slog.Int("edges", len(edges)),
			slog.Int("segments", len(stopSegments)))

		segments = append(segments, stopSegments...)
	}

	summary.Segments = len(segments)
	return segments, summary, nil
}
