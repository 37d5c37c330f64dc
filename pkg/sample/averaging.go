package sample

import (
	"strconv"
	"strings"
)

// DefaultWindow is used whenever the configured window is not a positive number.
const DefaultWindow = 6

// Filter is a trailing moving average over an append-only series.
//
// Filtered()[i] is the mean of the last min(i+1, window) raw values ending at i,
// so both series always have the same length.
type Filter struct {
	window   int
	raw      []float64
	filtered []float64
}

// NewFilter creates a filter. A window <= 0 selects DefaultWindow.
func NewFilter(window int) *Filter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Filter{
		window:   window,
		raw:      make([]float64, 0, 1024),
		filtered: make([]float64, 0, 1024),
	}
}

// ParseWindow converts user text into a window size, silently substituting
// DefaultWindow for anything that is not a positive integer.
func ParseWindow(text string) int {
	w, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || w <= 0 {
		return DefaultWindow
	}
	return w
}

// Push appends a raw value and returns its filtered value.
func (f *Filter) Push(v float64) float64 {
	f.raw = append(f.raw, v)

	tail := f.raw
	if len(tail) > f.window {
		tail = tail[len(tail)-f.window:]
	}

	var sum float64
	for _, x := range tail {
		sum += x
	}
	avg := sum / float64(len(tail))

	f.filtered = append(f.filtered, avg)
	return avg
}

// SetWindow changes the window for subsequent pushes. Values already filtered
// are kept. A window <= 0 selects DefaultWindow.
func (f *Filter) SetWindow(window int) {
	if window <= 0 {
		window = DefaultWindow
	}
	f.window = window
}

// Window returns the filter window size.
func (f *Filter) Window() int {
	return f.window
}

// Len returns the number of samples pushed since the last reset.
func (f *Filter) Len() int {
	return len(f.raw)
}

// Last returns the most recent sample.
func (f *Filter) Last() (Sample, bool) {
	n := len(f.raw)
	if n == 0 {
		return Sample{}, false
	}
	return Sample{Index: n - 1, Raw: f.raw[n-1], Filtered: f.filtered[n-1]}, true
}

// Raw returns a copy of the raw series.
func (f *Filter) Raw() []float64 {
	return append([]float64(nil), f.raw...)
}

// Filtered returns a copy of the filtered series.
func (f *Filter) Filtered() []float64 {
	return append([]float64(nil), f.filtered...)
}

// Reset clears both series. The window is kept.
func (f *Filter) Reset() {
	f.raw = f.raw[:0]
	f.filtered = f.filtered[:0]
}
