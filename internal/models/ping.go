package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// PingType is the operating mode of the bus when a ping was recorded.
type PingType string

const (
	Departure PingType = "DEPARTURE"
	Midpath   PingType = "MIDPATH"
	Arrival   PingType = "ARRIVAL"
)

// Valid reports whether t is one of the known ping types.
func (t PingType) Valid() bool {
	switch t {
	case Departure, Midpath, Arrival:
		return true
	}
	return false
}

// StartsEdge reports whether a ping of this type begins a speed graph edge.
// An arrival ends a stop's traversal and never starts one.
func (t PingType) StartsEdge() bool {
	return t == Departure || t == Midpath
}

// Ping is a single telemetry sample for a bus relative to a stop.
type Ping struct {
	Timestamp        int64    // epoch milliseconds
	StopID           string   // surrogate identifier of the related stop
	PingType         PingType // DEPARTURE, MIDPATH or ARRIVAL
	DistanceFromStop float64  // meters; total stop length when PingType is ARRIVAL
}

// ErrMalformedRecord is matched by every MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed ping record")

// MalformedRecordError describes a ping record that could not be decoded.
// Line is 1-based and zero when the record did not come from a file.
type MalformedRecordError struct {
	Line  int
	Field string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	var msg string
	switch {
	case e.Field != "" && e.Err != nil:
		msg = fmt.Sprintf("field %q: %v", e.Field, e.Err)
	case e.Field != "":
		msg = fmt.Sprintf("missing required field %q", e.Field)
	case e.Err != nil:
		msg = e.Err.Error()
	default:
		msg = "invalid record"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s on line %d: %s", ErrMalformedRecord, e.Line, msg)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedRecord, msg)
}

func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// pingRecord is the wire shape of a ping. Pointer fields let the decoder
// tell an absent (or null) field apart from a zero value.
type pingRecord struct {
	Timestamp        *int64   `json:"timestamp"`
	StopID           *string  `json:"stopId"`
	PingType         *string  `json:"pingType"`
	DistanceFromStop *float64 `json:"distanceFromStop"`
}

// ParsePing decodes a single JSON ping record. Every field is required.
func ParsePing(data []byte) (Ping, error) {
	var rec pingRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Ping{}, &MalformedRecordError{Field: typeErr.Field, Err: err}
		}
		return Ping{}, &MalformedRecordError{Err: err}
	}

	switch {
	case rec.Timestamp == nil:
		return Ping{}, &MalformedRecordError{Field: "timestamp"}
	case rec.StopID == nil:
		return Ping{}, &MalformedRecordError{Field: "stopId"}
	case rec.PingType == nil:
		return Ping{}, &MalformedRecordError{Field: "pingType"}
	case rec.DistanceFromStop == nil:
		return Ping{}, &MalformedRecordError{Field: "distanceFromStop"}
	}

	pingType := PingType(*rec.PingType)
	if !pingType.Valid() {
		return Ping{}, &MalformedRecordError{
			Field: "pingType",
			Err:   fmt.Errorf("unknown ping type %q", *rec.PingType),
		}
	}

	return Ping{
		Timestamp:        *rec.Timestamp,
		StopID:           *rec.StopID,
		PingType:         pingType,
		DistanceFromStop: *rec.DistanceFromStop,
	}, nil
}
