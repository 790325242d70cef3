package speedmap

import "errors"

var (
	// ErrInvalidSegmentLength is returned when the requested segment length is not strictly positive.
	ErrInvalidSegmentLength = errors.New("segment length must be greater than 0")

	// ErrNonNumericSegmentLength is returned when the requested segment length is not a finite number.
	ErrNonNumericSegmentLength = errors.New("segment length must be numeric")

	// ErrDegenerateInterpolation is returned when a boundary crossing would
	// have to be resolved on a zero-velocity edge, or when a segment's start
	// and end are crossed at the same instant.
	ErrDegenerateInterpolation = errors.New("degenerate interpolation")

	// ErrIncompleteTrace is returned when a stop's speed graph ends before
	// its declared length has been covered.
	ErrIncompleteTrace = errors.New("speed graph does not cover stop length")

	// ErrNonIncreasingTimestamp is returned when two consecutive pings that
	// would form an edge share a timestamp.
	ErrNonIncreasingTimestamp = errors.New("consecutive pings share a timestamp")
)
