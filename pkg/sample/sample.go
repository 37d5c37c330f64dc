package sample

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Marker is the token that tags a sensor record on the wire.
const Marker = "SENSOR"

var (
	// ErrMissingField is returned for a tagged record without a value field.
	ErrMissingField = errors.New("missing value field")
	// ErrNotFinite is returned for NaN or infinite values.
	ErrNotFinite = errors.New("value is not finite")
)

// Sample represents one reading and its position in arrival order.
type Sample struct {
	Index    int
	Raw      float64
	Filtered float64
}

// ParseError reports a tagged record whose value could not be read.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid sensor record %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseLine parses a record from the MCU.
// Format: SENSOR,<float>
// Example: SENSOR,123.4
//
// Lines without the marker are not sensor records: ok is false and err is nil.
func ParseLine(line string) (value float64, ok bool, err error) {
	if !strings.Contains(line, Marker) {
		return 0, false, nil
	}

	parts := strings.Split(line, ",")
	if len(parts) < 2 {
		return 0, false, &ParseError{Line: line, Err: ErrMissingField}
	}

	value, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, false, &ParseError{Line: line, Err: err}
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false, &ParseError{Line: line, Err: ErrNotFinite}
	}

	return value, true, nil
}
