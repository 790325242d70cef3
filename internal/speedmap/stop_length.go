package speedmap

import "speedmap.onebusaway.org/internal/models"

// StopLengths maps stop ids to their total traversal distance, keeping the
// order in which stops were resolved.
type StopLengths struct {
	order   []string
	lengths map[string]float64
}

// StopIDs returns the resolved stop ids in discovery order.
func (s *StopLengths) StopIDs() []string {
	return append([]string(nil), s.order...)
}

// Length returns the declared length of a stop in meters.
func (s *StopLengths) Length(stopID string) (float64, bool) {
	length, ok := s.lengths[stopID]
	return length, ok
}

func (s *StopLengths) Len() int {
	return len(s.order)
}

// ResolveStopLengths takes each stop's length from the first ARRIVAL ping
// seen for it. Stops without an arrival are left out.
func ResolveStopLengths(pings []models.Ping) *StopLengths {
	s := &StopLengths{lengths: make(map[string]float64)}
	for _, ping := range pings {
		if ping.PingType != models.Arrival {
			continue
		}
		if _, seen := s.lengths[ping.StopID]; seen {
			continue
		}
		s.order = append(s.order, ping.StopID)
		s.lengths[ping.StopID] = ping.DistanceFromStop
	}
	return s
}
