package speedmap

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseSegmentLength converts a user-supplied segment length into meters.
// Non-numeric input and numeric input that is not strictly positive are
// reported as distinct errors.
func ParseSegmentLength(raw string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNonNumericSegmentLength, raw)
	}
	if err := ValidateSegmentLength(value); err != nil {
		return 0, err
	}
	return value, nil
}

// ValidateSegmentLength checks a segment length before any stop is processed.
func ValidateSegmentLength(length float64) error {
	if math.IsNaN(length) || math.IsInf(length, 0) {
		return fmt.Errorf("%w: %v", ErrNonNumericSegmentLength, length)
	}
	if length <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSegmentLength, length)
	}
	return nil
}
