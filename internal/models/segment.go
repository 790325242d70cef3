package models

// SpeedGraphEdge is the constant-velocity piece of a stop's distance-vs-time
// trace between two consecutive pings. It is keyed by where it ends.
type SpeedGraphEdge struct {
	StopID      string
	Speed       float64 // meters/second, signed
	DistanceEnd float64 // meters
	TimeEnd     int64   // epoch milliseconds
}

// Segment is one fixed-length slice of a stop's distance axis annotated with
// the average speed across it.
type Segment struct {
	StopID        string  `json:"stop_id"`
	SegmentIndex  int     `json:"segment_index"`
	SegmentLength float64 `json:"segment_length"` // meters
	Speed         float64 `json:"speed"`          // meters/second, one decimal place
}
