package sample

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Scenario(t *testing.T) {
	f := NewFilter(3)

	var got []float64
	for _, v := range []float64{10, 20, 30, 40} {
		got = append(got, f.Push(v))
	}

	assert.Equal(t, []float64{10, 15, 20, 30}, got)
	assert.Equal(t, []float64{10, 15, 20, 30}, f.Filtered())
	assert.Equal(t, []float64{10, 20, 30, 40}, f.Raw())
}

func TestFilter_DefaultWindow(t *testing.T) {
	for _, w := range []int{0, -1, -100} {
		f := NewFilter(w)
		assert.Equal(t, DefaultWindow, f.Window())
	}
	assert.Equal(t, 1, NewFilter(1).Window())
}

func TestFilter_WindowOneIsIdentity(t *testing.T) {
	f := NewFilter(1)
	for _, v := range []float64{3, -2, 8.5} {
		assert.Equal(t, v, f.Push(v))
	}
}

func TestFilter_TrailingMeanProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for _, w := range []int{1, 2, 3, 6, 17} {
		f := NewFilter(w)
		for i := range 200 {
			f.Push(rng.Float64()*1000 - 500)

			raw := f.Raw()
			filtered := f.Filtered()
			require.Len(t, filtered, len(raw), "window %d, push %d", w, i)

			lo := max(0, i-w+1)
			var sum float64
			for _, x := range raw[lo : i+1] {
				sum += x
			}
			assert.InDelta(t, sum/float64(i+1-lo), filtered[i], 1e-9, "window %d, index %d", w, i)
		}
	}
}

func TestFilter_Last(t *testing.T) {
	f := NewFilter(2)

	_, ok := f.Last()
	assert.False(t, ok)

	f.Push(4)
	f.Push(8)

	s, ok := f.Last()
	require.True(t, ok)
	assert.Equal(t, Sample{Index: 1, Raw: 8, Filtered: 6}, s)
	assert.Equal(t, 2, f.Len())
}

func TestFilter_SetWindowKeepsSeries(t *testing.T) {
	f := NewFilter(2)
	f.Push(10)
	f.Push(20)

	f.SetWindow(3)
	assert.Equal(t, 3, f.Window())
	assert.Equal(t, 20.0, f.Push(30))
	assert.Equal(t, []float64{10, 20, 30}, f.Raw())
	assert.Equal(t, []float64{10, 15, 20}, f.Filtered())

	f.SetWindow(-1)
	assert.Equal(t, DefaultWindow, f.Window())
	assert.Equal(t, 3, f.Len())
}

func TestFilter_Reset(t *testing.T) {
	f := NewFilter(3)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		f.Push(v)
	}
	raw := f.Raw()

	f.Reset()
	assert.Equal(t, 0, f.Len())
	assert.Empty(t, f.Raw())
	assert.Empty(t, f.Filtered())
	assert.Equal(t, 3, f.Window())

	// Copies taken before the reset are not affected
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, raw)

	// Averaging restarts from scratch
	assert.Equal(t, 10.0, f.Push(10))
}

func TestFilter_CopiesAreIndependent(t *testing.T) {
	f := NewFilter(2)
	f.Push(1)
	raw := f.Raw()
	raw[0] = 99
	assert.Equal(t, []float64{1}, f.Raw())
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"6", 6},
		{"10", 10},
		{" 3 ", 3},
		{"1", 1},
		{"0", DefaultWindow},
		{"-4", DefaultWindow},
		{"", DefaultWindow},
		{"abc", DefaultWindow},
		{"2.5", DefaultWindow},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseWindow(tt.text))
		})
	}
}
