package device

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/itohio/gochrom/pkg/config"
)

// MockPort is the port name reported for the simulated device.
const MockPort = "mock"

// Mock simulates the sensor board for testing and development. It emits a
// boot banner followed by "SENSOR,<value>" records where the value traces a
// baseline with periodically eluting gaussian peaks.
//
// Read must not be called concurrently.
type Mock struct {
	cfg *config.MockConfig

	buf    bytes.Buffer
	start  time.Time
	ticker *time.Ticker
	rng    *rand.Rand

	closed    chan struct{}
	closeOnce sync.Once
}

// NewMock creates a new mocked device instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 100 * time.Millisecond
	}

	m := &Mock{
		cfg:    cfg,
		start:  time.Now(),
		ticker: time.NewTicker(rate),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		closed: make(chan struct{}),
	}
	m.buf.WriteString("MQ sensor ready\n")

	return m
}

// OpenMock returns a Channel connected to a new Mock.
func OpenMock(cfg *config.MockConfig, opts Options) *Channel {
	return NewChannel(MockPort, NewMock(cfg), opts)
}

// Read blocks until the next simulated record is due or the mock is closed.
func (m *Mock) Read(p []byte) (int, error) {
	for {
		if m.buf.Len() > 0 {
			return m.buf.Read(p)
		}

		select {
		case <-m.closed:
			return 0, io.EOF
		case now := <-m.ticker.C:
			fmt.Fprintf(&m.buf, "SENSOR,%.2f\n", m.value(now.Sub(m.start)))
		}
	}
}

// Close stops the simulation.
func (m *Mock) Close() error {
	m.closeOnce.Do(func() {
		m.ticker.Stop()
		close(m.closed)
	})
	return nil
}

// value returns the simulated reading at the given elapsed time.
func (m *Mock) value(elapsed time.Duration) float64 {
	v := m.cfg.Baseline + peak(elapsed, m.cfg.PeakPeriod, m.cfg.PeakWidth)*m.cfg.PeakHeight
	v += (m.rng.Float64() - 0.5) * m.cfg.NoiseLevel
	if v < 0 {
		v = 0
	}
	return v
}

// peak returns a unit gaussian centred in each period.
func peak(elapsed, period, width time.Duration) float64 {
	if period <= 0 || width <= 0 {
		return 0
	}
	phase := elapsed % period
	x := (phase - period/2).Seconds() / width.Seconds()
	return math.Exp(-0.5 * x * x)
}
