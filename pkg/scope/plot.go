package scope

import (
	"math"
	"strconv"

	"github.com/chewxy/math32"
)

// plotArea maps series coordinates (sample index, value) to widget pixels.
type plotArea struct {
	x, y, w, h float32

	xMin, xMax float64
	yMin, yMax float64
}

// X returns the horizontal pixel of a sample index.
func (a plotArea) X(index float64) float32 {
	span := a.xMax - a.xMin
	if span <= 0 {
		return a.x
	}
	x := a.x + float32((index-a.xMin)/span)*a.w
	return math32.Min(math32.Max(x, a.x), a.x+a.w)
}

// Y returns the vertical pixel of a value. Larger values are drawn higher.
func (a plotArea) Y(v float64) float32 {
	span := a.yMax - a.yMin
	if span <= 0 {
		return a.y + a.h/2
	}
	y := a.y + a.h - float32((v-a.yMin)/span)*a.h
	return math32.Min(math32.Max(y, a.y), a.y+a.h)
}

// dashSegments splits [from, to] into dashes of length dash separated by gap.
func dashSegments(from, to, dash, gap float32) [][2]float32 {
	if dash <= 0 || to <= from {
		return nil
	}
	n := int(math32.Ceil((to - from) / (dash + gap)))
	segs := make([][2]float32, 0, n)
	for p := from; p < to; p += dash + gap {
		segs = append(segs, [2]float32{p, math32.Min(p+dash, to)})
	}
	return segs
}

// autoScale returns a value range covering lo..hi with a 10% margin.
func autoScale(lo, hi float64) (float64, float64) {
	span := hi - lo
	if span == 0 {
		span = math.Max(math.Abs(hi), 1)
	}
	margin := span * 0.1
	return lo - margin, hi + margin
}

// formatTick formats an axis label with as many decimals as the tick spacing needs.
func formatTick(v, step float64) string {
	decimals := 0
	if step > 0 && step < 1 {
		decimals = int(math32.Ceil(-math32.Log10(float32(step))))
	}
	if math.Abs(v) < step*1e-6 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
