package speedmap

import (
	"fmt"
	"math"
	"strconv"

	"speedmap.onebusaway.org/internal/models"
)

// stopInterpolator walks one stop's speed graph and emits a segment each time
// both boundary crossings of the current distance window are resolved.
//
// The cursor only ever moves forward: edges are ordered in time, so a window
// never needs an edge that an earlier window already passed.
type stopInterpolator struct {
	stopID        string
	stopLength    float64
	segmentLength float64
	edges         []models.SpeedGraphEdge

	segmentIndex int
	cursor       int
	startTime    float64
	startSet     bool
	endTime      float64
	endSet       bool
}

// InterpolateStop divides [0, stopLength) into windows of segmentLength meters
// (the last one possibly shorter) and computes the average speed across each
// by interpolating the time the trace crosses both window boundaries.
func InterpolateStop(stopID string, stopLength float64, edges []models.SpeedGraphEdge, segmentLength float64) ([]models.Segment, error) {
	if err := ValidateSegmentLength(segmentLength); err != nil {
		return nil, err
	}

	si := &stopInterpolator{
		stopID:        stopID,
		stopLength:    stopLength,
		segmentLength: segmentLength,
		edges:         edges,
	}
	return si.run()
}

func (si *stopInterpolator) run() ([]models.Segment, error) {
	var segments []models.Segment

	for float64(si.segmentIndex)*si.segmentLength < si.stopLength {
		if si.cursor >= len(si.edges) {
			return nil, fmt.Errorf("%w: stop %q has %d edges, segment %d unresolved",
				ErrIncompleteTrace, si.stopID, len(si.edges), si.segmentIndex)
		}

		segment, done, err := si.step()
		if err != nil {
			return nil, err
		}
		if done {
			segments = append(segments, segment)
		}
	}

	return segments, nil
}

// window returns the distance bounds of the current segment.
func (si *stopInterpolator) window() (float64, float64) {
	start := float64(si.segmentIndex) * si.segmentLength
	end := start + si.segmentLength
	if end > si.stopLength {
		end = si.stopLength
	}
	return start, end
}

// step examines the edge under the cursor. It either completes the current
// segment or advances the cursor.
func (si *stopInterpolator) step() (models.Segment, bool, error) {
	edge := si.edges[si.cursor]
	start, end := si.window()

	if !si.startSet && edge.DistanceEnd > start {
		t, err := crossingTime(edge, start)
		if err != nil {
			return models.Segment{}, false, si.wrap(err, start)
		}
		si.startTime, si.startSet = t, true
	}

	if !si.endSet && edge.DistanceEnd >= end {
		t, err := crossingTime(edge, end)
		if err != nil {
			return models.Segment{}, false, si.wrap(err, end)
		}
		si.endTime, si.endSet = t, true
	}

	if !si.startSet || !si.endSet {
		si.cursor++
		return models.Segment{}, false, nil
	}

	elapsed := si.endTime - si.startTime
	if elapsed == 0 {
		return models.Segment{}, false, fmt.Errorf("%w: stop %q segment %d crossed in zero time",
			ErrDegenerateInterpolation, si.stopID, si.segmentIndex)
	}

	segment := models.Segment{
		StopID:        si.stopID,
		SegmentIndex:  si.segmentIndex,
		SegmentLength: end - start,
		Speed:         roundSpeed((end - start) / elapsed),
	}

	si.startSet, si.endSet = false, false
	si.segmentIndex++
	return segment, true, nil
}

func (si *stopInterpolator) wrap(err error, distance float64) error {
	return fmt.Errorf("stop %q segment %d at %gm: %w", si.stopID, si.segmentIndex, distance, err)
}

// crossingTime inverts the constant-velocity relation of an edge to find the
// time, in seconds, at which the trace passes distance d:
//
//	t = timeEnd - (distanceEnd - d) / speed
func crossingTime(edge models.SpeedGraphEdge, d float64) (float64, error) {
	timeEnd := float64(edge.TimeEnd) / 1000
	if edge.DistanceEnd == d {
		return timeEnd, nil
	}
	if edge.Speed == 0 {
		return 0, fmt.Errorf("%w: zero-speed edge ending at %gm cannot cross %gm",
			ErrDegenerateInterpolation, edge.DistanceEnd, d)
	}
	return timeEnd - (edge.DistanceEnd-d)/edge.Speed, nil
}

// roundSpeed rounds to one decimal place the way "%.1f" formatting does,
// so exact binary ties go to the even digit.
func roundSpeed(speed float64) float64 {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(speed, 'f', 1, 64), 64)
	if err != nil {
		return math.Round(speed*10) / 10
	}
	return rounded
}
