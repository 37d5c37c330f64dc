package sample

// Point is a series value at its original sample index.
type Point struct {
	Index int
	Value float64
}

// Downsample reduces a series to at most maxPoints points for display.
// Uses simple decimation and always keeps the newest value so the trace
// reaches the present.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
// Returns the destination slice (may be dst if reused, or a new slice if dst was too small).
func Downsample(dst []Point, series []float64, maxPoints int) []Point {
	n := len(series)
	if maxPoints <= 0 || n <= maxPoints {
		if cap(dst) >= n {
			dst = dst[:0]
		} else {
			dst = make([]Point, 0, n)
		}
		for i, v := range series {
			dst = append(dst, Point{Index: i, Value: v})
		}
		return dst
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0] // Reset length but keep capacity
	} else {
		dst = make([]Point, 0, maxPoints)
	}

	// Calculate step size for decimation
	step := float64(n) / float64(maxPoints)

	for i := range maxPoints - 1 {
		idx := int(float64(i) * step)
		dst = append(dst, Point{Index: idx, Value: series[idx]})
	}
	dst = append(dst, Point{Index: n - 1, Value: series[n-1]})

	return dst
}

// Bounds returns the minimum and maximum value over all series.
// ok is false when every series is empty.
func Bounds(series ...[]Point) (lo, hi float64, ok bool) {
	for _, s := range series {
		for _, p := range s {
			if !ok {
				lo, hi, ok = p.Value, p.Value, true
				continue
			}
			lo = min(lo, p.Value)
			hi = max(hi, p.Value)
		}
	}
	return lo, hi, ok
}
