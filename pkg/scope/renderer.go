package scope

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/gochrom/pkg/sample"
)

var (
	gridColor     = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor    = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	rawColor      = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	filteredColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	markerColor   = color.RGBA{R: 220, G: 40, B: 40, A: 255}
)

const (
	marginLeft   = float32(60)
	marginRight  = float32(20)
	marginTop    = float32(30)
	marginBottom = float32(40)

	numHLines = 8
	numVLines = 10
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope *ScopeWidget

	background *canvas.Rectangle

	// Objects list for Fyne
	objects []fyne.CanvasObject

	// Track last size to detect changes
	lastSize fyne.Size
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)

	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the plot from the current series.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	raw := r.scope.raw
	filtered := r.scope.filtered
	marker := r.scope.marker
	area := plotArea{
		xMin: 0,
		xMax: r.scope.xMax,
		yMin: r.scope.yMin,
		yMax: r.scope.yMax,
	}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	area.x = marginLeft
	area.y = marginTop
	area.w = size.Width - marginLeft - marginRight
	area.h = size.Height - marginTop - marginBottom

	r.objects = []fyne.CanvasObject{r.background}

	r.drawGrid(area)
	r.drawSeries(area, raw, rawColor, 1.5)
	r.drawSeries(area, filtered, filteredColor, 2)
	if marker >= 0 {
		r.drawMarker(area, marker)
	}
	r.drawLegend(area, marker >= 0)
}

// drawGrid draws the grid with value and sample index labels.
func (r *scopeRenderer) drawGrid(a plotArea) {
	yStep := (a.yMax - a.yMin) / numHLines
	for i := range numHLines + 1 {
		value := a.yMax - float64(i)*yStep
		y := a.Y(value)
		r.addLine(gridColor, 1, fyne.NewPos(a.x, y), fyne.NewPos(a.x+a.w, y))

		text := canvas.NewText(formatTick(value, yStep), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignTrailing
		text.Move(fyne.NewPos(a.x-5, y-6))
		r.objects = append(r.objects, text)
	}

	xStep := (a.xMax - a.xMin) / numVLines
	for i := range numVLines + 1 {
		index := a.xMin + float64(i)*xStep
		x := a.X(index)
		r.addLine(gridColor, 1, fyne.NewPos(x, a.y), fyne.NewPos(x, a.y+a.h))

		text := canvas.NewText(formatTick(index, xStep), labelColor)
		text.TextSize = 10
		text.Alignment = fyne.TextAlignCenter
		text.Move(fyne.NewPos(x-20, a.y+a.h+5))
		r.objects = append(r.objects, text)
	}

	title := canvas.NewText("MQ-sensor", labelColor)
	title.TextSize = 12
	title.TextStyle = fyne.TextStyle{Bold: true}
	title.Move(fyne.NewPos(a.x+a.w/2-30, 6))
	r.objects = append(r.objects, title)

	xLabel := canvas.NewText("Sample", labelColor)
	xLabel.TextSize = 10
	xLabel.Move(fyne.NewPos(a.x+a.w/2-20, a.y+a.h+22))
	r.objects = append(r.objects, xLabel)
}

// drawSeries draws a series as connected line segments.
func (r *scopeRenderer) drawSeries(a plotArea, points []sample.Point, c color.Color, width float32) {
	if len(points) < 2 {
		return
	}

	prev := fyne.NewPos(a.X(float64(points[0].Index)), a.Y(points[0].Value))
	for _, p := range points[1:] {
		pos := fyne.NewPos(a.X(float64(p.Index)), a.Y(p.Value))
		r.addLine(c, width, prev, pos)
		prev = pos
	}
}

// drawMarker draws a dashed vertical line at the recording start index.
func (r *scopeRenderer) drawMarker(a plotArea, index int) {
	x := a.X(float64(index))
	for _, seg := range dashSegments(a.y, a.y+a.h, 6, 4) {
		r.addLine(markerColor, 1.5, fyne.NewPos(x, seg[0]), fyne.NewPos(x, seg[1]))
	}
}

// drawLegend names the series in the top left corner of the plot.
func (r *scopeRenderer) drawLegend(a plotArea, withMarker bool) {
	entries := []struct {
		label string
		color color.Color
	}{
		{"MQ-Sensor (Raw)", rawColor},
		{"Filtered Sensor Data", filteredColor},
	}
	if withMarker {
		entries = append(entries, struct {
			label string
			color color.Color
		}{"Start Chrom Marker", markerColor})
	}

	for i, e := range entries {
		y := a.y + 8 + float32(i)*14
		r.addLine(e.color, 2, fyne.NewPos(a.x+8, y), fyne.NewPos(a.x+24, y))

		text := canvas.NewText(e.label, e.color)
		text.TextSize = 10
		text.Move(fyne.NewPos(a.x+28, y-7))
		r.objects = append(r.objects, text)
	}
}

func (r *scopeRenderer) addLine(c color.Color, width float32, from, to fyne.Position) {
	line := canvas.NewLine(c)
	line.Position1 = from
	line.Position2 = to
	line.StrokeWidth = width
	r.objects = append(r.objects, line)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}
