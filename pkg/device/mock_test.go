package device

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/itohio/gochrom/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMockConfig() *config.MockConfig {
	return &config.MockConfig{
		Baseline:   100,
		NoiseLevel: 0,
		PeakHeight: 50,
		PeakWidth:  time.Second,
		PeakPeriod: 10 * time.Second,
		SampleRate: 5 * time.Millisecond,
	}
}

func TestMock_EmitsBannerThenSensorRecords(t *testing.T) {
	ch := OpenMock(testMockConfig(), Options{ReadTimeout: time.Second})
	defer ch.Close()

	assert.Equal(t, MockPort, ch.Name())

	line, ok := ch.ReadLine()
	require.True(t, ok)
	assert.False(t, strings.Contains(line, "SENSOR"), "first line is the boot banner")

	for range 3 {
		line, ok := ch.ReadLine()
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(line, "SENSOR,"), line)
	}
}

// TestMock_GracefulShutdown tests that closing the channel stops the mock
// and closes the line queue.
func TestMock_GracefulShutdown(t *testing.T) {
	ch := OpenMock(testMockConfig(), Options{ReadTimeout: time.Second})

	for range 3 {
		_, ok := ch.ReadLine()
		require.True(t, ok)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		ch.Close()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return within timeout")
	}

	assert.False(t, ch.IsOpen())
	select {
	case <-ch.done:
	default:
		t.Fatal("reader still running after Close")
	}
}

func TestMock_CloseIdempotent(t *testing.T) {
	m := NewMock(testMockConfig())
	assert.NoError(t, m.Close())
	assert.NoError(t, m.Close())

	// Banner is still buffered, then EOF
	buf := make([]byte, 64)
	n, err := m.Read(buf)
	assert.NoError(t, err)
	assert.Greater(t, n, 0)
	_, err = m.Read(buf)
	assert.Error(t, err)
}

func TestMock_Value(t *testing.T) {
	m := NewMock(testMockConfig())
	defer m.Close()

	// Away from the peak the value sits on the baseline
	assert.InDelta(t, 100.0, m.value(0), 1e-3)
	// Peak centre is half a period in
	assert.InDelta(t, 150.0, m.value(5*time.Second), 1e-6)
	// Periodic
	assert.InDelta(t, m.value(5*time.Second), m.value(15*time.Second), 1e-6)
}

func TestPeak(t *testing.T) {
	assert.Equal(t, 0.0, peak(time.Second, 0, time.Second))
	assert.Equal(t, 0.0, peak(time.Second, time.Second, 0))
	assert.InDelta(t, 1.0, peak(5*time.Second, 10*time.Second, time.Second), 1e-9)
	assert.InDelta(t, math.Exp(-0.5), peak(6*time.Second, 10*time.Second, time.Second), 1e-9)
}
