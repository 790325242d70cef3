package speedmap

import (
	"fmt"

	"speedmap.onebusaway.org/internal/models"
)

// SpeedGraph holds the ordered speed graph edges of every stop seen in a
// route, keyed by stop id in discovery order.
type SpeedGraph struct {
	order []string
	edges map[string][]models.SpeedGraphEdge
}

func newSpeedGraph() *SpeedGraph {
	return &SpeedGraph{edges: make(map[string][]models.SpeedGraphEdge)}
}

func (g *SpeedGraph) ensureStop(stopID string) {
	if _, ok := g.edges[stopID]; !ok {
		g.order = append(g.order, stopID)
		g.edges[stopID] = []models.SpeedGraphEdge{}
	}
}

// StopIDs returns the stop ids in the order they were first encountered.
func (g *SpeedGraph) StopIDs() []string {
	return append([]string(nil), g.order...)
}

// Edges returns the edges for a stop. The second result is false when the
// stop was never seen as the first ping of a consecutive pair.
func (g *SpeedGraph) Edges(stopID string) ([]models.SpeedGraphEdge, bool) {
	edges, ok := g.edges[stopID]
	return edges, ok
}

// Len returns the number of stops in the graph.
func (g *SpeedGraph) Len() int {
	return len(g.order)
}

// EdgeCount returns the total number of edges across all stops.
func (g *SpeedGraph) EdgeCount() int {
	total := 0
	for _, edges := range g.edges {
		total += len(edges)
	}
	return total
}

// BuildSpeedGraph computes the speed between each consecutive pair of pings.
// Pings must already be sorted by timestamp. Pairs whose first ping is an
// arrival are skipped, but the stop still gets an (empty) entry.
func BuildSpeedGraph(pings []models.Ping) (*SpeedGraph, error) {
	graph := newSpeedGraph()

	for i := 0; i+1 < len(pings); i++ {
		ping, next := pings[i], pings[i+1]
		graph.ensureStop(ping.StopID)

		if !ping.PingType.StartsEdge() {
			continue
		}

		elapsed := next.Timestamp - ping.Timestamp
		if elapsed == 0 {
			return nil, fmt.Errorf("%w: stop %q at timestamp %d", ErrNonIncreasingTimestamp, ping.StopID, ping.Timestamp)
		}

		// meters/millisecond to meters/second
		speed := (next.DistanceFromStop - ping.DistanceFromStop) / float64(elapsed) * 1000

		graph.edges[ping.StopID] = append(graph.edges[ping.StopID], models.SpeedGraphEdge{
			StopID:      ping.StopID,
			Speed:       speed,
			DistanceEnd: next.DistanceFromStop,
			TimeEnd:     next.Timestamp,
		})
	}

	return graph, nil
}
