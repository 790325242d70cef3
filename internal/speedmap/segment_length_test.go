package speedmap

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSegmentLength(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
		err      error
	}{
		{name: "integer", input: "50", expected: 50},
		{name: "decimal", input: "12.5", expected: 12.5},
		{name: "surrounding whitespace", input: " 10 ", expected: 10},
		{name: "zero", input: "0", err: ErrInvalidSegmentLength},
		{name: "negative", input: "-3", err: ErrInvalidSegmentLength},
		{name: "letters", input: "a", err: ErrNonNumericSegmentLength},
		{name: "empty", input: "", err: ErrNonNumericSegmentLength},
		{name: "not a number", input: "NaN", err: ErrNonNumericSegmentLength},
		{name: "infinite", input: "+Inf", err: ErrNonNumericSegmentLength},
		{name: "overflow", input: "1e400", err: ErrNonNumericSegmentLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			length, err := ParseSegmentLength(tt.input)
			if tt.err != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, length)
		})
	}
}

func TestValidateSegmentLength(t *testing.T) {
	assert.NoError(t, ValidateSegmentLength(0.001))
	assert.ErrorIs(t, ValidateSegmentLength(0), ErrInvalidSegmentLength)
	assert.ErrorIs(t, ValidateSegmentLength(math.NaN()), ErrNonNumericSegmentLength)
	assert.ErrorIs(t, ValidateSegmentLength(math.Inf(-1)), ErrNonNumericSegmentLength)
}
