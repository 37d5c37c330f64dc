package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownsample_NoDownsampling(t *testing.T) {
	series := []float64{1.0, 1.1, 1.2}

	// Test with nil dst
	result := Downsample(nil, series, 10)
	require.Len(t, result, 3)
	for i, v := range series {
		assert.Equal(t, Point{Index: i, Value: v}, result[i])
	}

	// Test with sufficient capacity dst
	dst := make([]Point, 0, 10)
	result = Downsample(dst, series, 10)
	require.Len(t, result, 3)
	assert.Equal(t, Point{Index: 2, Value: 1.2}, result[2])
	// Should reuse dst
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsample_WithDownsampling(t *testing.T) {
	series := make([]float64, 100)
	for i := range series {
		series[i] = float64(i) * 0.01
	}

	dst := make([]Point, 0, 20)
	result := Downsample(dst, series, 10)
	require.Len(t, result, 10)

	// Should always include first and last sample
	assert.Equal(t, Point{Index: 0, Value: 0}, result[0])
	assert.Equal(t, Point{Index: 99, Value: 0.99}, result[9])

	// Indices are strictly increasing
	for i := 1; i < len(result); i++ {
		assert.Greater(t, result[i].Index, result[i-1].Index)
	}

	// Should reuse dst if capacity sufficient
	assert.Equal(t, cap(dst), cap(result))
}

func TestDownsample_DestinationReuse(t *testing.T) {
	dst := make([]Point, 0, 10)

	result1 := Downsample(dst, []float64{1.0, 1.1}, 10)
	require.Len(t, result1, 2)

	result2 := Downsample(result1, []float64{2.0, 2.1, 2.2}, 10)
	require.Len(t, result2, 3)
	assert.Equal(t, 2.0, result2[0].Value)
	assert.Equal(t, 2.2, result2[2].Value)
}

func TestDownsample_Empty(t *testing.T) {
	result := Downsample(nil, nil, 10)
	assert.Empty(t, result)

	result = Downsample(nil, []float64{}, 0)
	assert.Empty(t, result)
}

func TestDownsample_NoLimit(t *testing.T) {
	series := make([]float64, 50)
	result := Downsample(nil, series, 0)
	assert.Len(t, result, 50)
}

func TestBounds(t *testing.T) {
	_, _, ok := Bounds()
	assert.False(t, ok)

	_, _, ok = Bounds(nil, []Point{})
	assert.False(t, ok)

	lo, hi, ok := Bounds(
		[]Point{{0, 3}, {1, -1}},
		nil,
		[]Point{{0, 7}, {1, 2}},
	)
	require.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 7.0, hi)
}
