package scope

import (
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/gochrom/pkg/sample"
)

const (
	// DefaultMaxPoints limits the points drawn per series.
	DefaultMaxPoints = 1000
	// minIndexSpan keeps the x axis readable while few samples exist.
	minIndexSpan = 10
)

// ScopeWidget is a custom Fyne widget that plots the raw and filtered sensor
// series against sample index, with a marker at the start of the recording run.
type ScopeWidget struct {
	widget.BaseWidget

	// Data (protected by mu)
	mu       sync.RWMutex
	raw      []sample.Point
	filtered []sample.Point
	count    int
	marker   int

	// Auto-scaling
	yMin, yMax float64
	xMax       float64

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance. maxPoints <= 0 selects DefaultMaxPoints.
func New(maxPoints int) *ScopeWidget {
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	s := &ScopeWidget{
		raw:              make([]sample.Point, 0, maxPoints),
		filtered:         make([]sample.Point, 0, maxPoints),
		marker:           -1,
		maxDisplayPoints: maxPoints,
	}
	s.updateAutoScale()
	s.ExtendBaseWidget(s)
	return s
}

// UpdateData replaces the plotted series. marker is the sample index of the
// recording start, or negative when no run is active.
// This should be called from the UI goroutine, e.g. via fyne.Do().
func (s *ScopeWidget) UpdateData(raw, filtered []float64, marker int) {
	s.mu.Lock()

	s.raw = sample.Downsample(s.raw, raw, s.maxDisplayPoints)
	s.filtered = sample.Downsample(s.filtered, filtered, s.maxDisplayPoints)
	s.count = len(raw)
	s.marker = marker
	s.updateAutoScale()

	s.mu.Unlock()

	// Refresh the widget (must be outside lock to avoid potential deadlock)
	s.Refresh()
}

// updateAutoScale calculates axis ranges from the display series.
func (s *ScopeWidget) updateAutoScale() {
	s.xMax = float64(max(s.count-1, minIndexSpan))

	lo, hi, ok := sample.Bounds(s.raw, s.filtered)
	if !ok {
		s.yMin, s.yMax = 0, 1
		return
	}
	s.yMin, s.yMax = autoScale(lo, hi)
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:      s,
		background: background,
		objects:    []fyne.CanvasObject{background},
	}
}
