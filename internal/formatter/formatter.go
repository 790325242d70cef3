// Package formatter renders speed map segments for the CLI.
package formatter

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"speedmap.onebusaway.org/internal/models"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Formatter writes a complete speed map to w.
type Formatter interface {
	Format(w io.Writer, segments []models.Segment) error
}

// New returns the Formatter registered under name.
func New(name string) (Formatter, error) {
	switch name {
	case FormatText, "":
		return TextFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{}, nil
	case FormatCSV:
		return CSVFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}

// TextFormatter prints one dict-style line per segment, e.g.
//
//	{'stop_id': '1234', 'segment_index': 0, 'segment_length': 50.0, 'speed': 3.0}
type TextFormatter struct{}

func (TextFormatter) Format(w io.Writer, segments []models.Segment) error {
	bw := bufio.NewWriter(w)
	for _, s := range segments {
		_, err := fmt.Fprintf(bw, "{'stop_id': %s, 'segment_index': %d, 'segment_length': %s, 'speed': %s}\n",
			quote(s.StopID), s.SegmentIndex, reprFloat(s.SegmentLength), reprFloat(s.Speed))
		if err != nil {
			return fmt.Errorf("writing segment: %w", err)
		}
	}
	return bw.Flush()
}

// JSONFormatter writes one JSON object per line.
type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, segments []models.Segment) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, s := range segments {
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encoding segment: %w", err)
		}
	}
	return bw.Flush()
}

// CSVFormatter writes a header row followed by one row per segment.
type CSVFormatter struct{}

var csvHeader = []string{"stop_id", "segment_index", "segment_length", "speed"}

func (CSVFormatter) Format(w io.Writer, segments []models.Segment) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, s := range segments {
		record := []string{
			s.StopID,
			strconv.Itoa(s.SegmentIndex),
			strconv.FormatFloat(s.SegmentLength, 'f', -1, 64),
			strconv.FormatFloat(s.Speed, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// reprFloat formats v the way the dict-style output has always shown floats:
// shortest round-trip digits, always with a fractional part, switching to
// exponent notation below 1e-4 and from 1e16 up.
func reprFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// quote wraps s in single quotes, or double quotes when s contains a single
// quote and no double quote.
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}
