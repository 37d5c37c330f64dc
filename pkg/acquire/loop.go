package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/itohio/gochrom/pkg/device"
	"github.com/itohio/gochrom/pkg/record"
	"github.com/itohio/gochrom/pkg/sample"
)

const (
	// DefaultPollInterval is the period of the acquisition task.
	DefaultPollInterval = 100 * time.Millisecond
	// DefaultMaxLinesPerTick caps the lines handled in one poll cycle.
	DefaultMaxLinesPerTick = 256
)

// Locator finds the port of the sensor board.
type Locator func() (string, error)

// Opener opens a channel on the given port.
type Opener func(port string) (*device.Channel, error)

// Options configures a Loop.
type Options struct {
	PollInterval    time.Duration
	MaxLinesPerTick int
	Window          int // Filter window used until the first Connect

	Locate Locator
	Open   Opener
	Sink   record.SinkOpener

	Clock  func() time.Time
	Logger *slog.Logger
}

// Snapshot is a copy of the acquisition state for presentation.
type Snapshot struct {
	Raw         []float64
	Filtered    []float64
	MarkerIndex int           // Sample index where the run started, -1 when idle
	Elapsed     time.Duration // Time since the run started, as of the last sample
	Value       float64       // Last raw reading
	Window      int
	Port        string
	Connected   bool
	Recording   bool
}

// Loop owns the serial channel, the sample filter and the recording session.
//
// A periodic task drains the channel every PollInterval while the channel is
// open. Poll cycles and commands (Connect, StartOrReset, Reset, Close) are
// mutually exclusive, so they always observe each other's complete effects.
type Loop struct {
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	channel *device.Channel
	filter  *sample.Filter
	session *record.Session
	elapsed time.Duration
	value   float64
	port    string
	done    chan struct{} // Closed when the current task exits

	// Set while Connect locates and opens the device without holding mu
	connecting   bool
	abortConnect bool

	// Update callbacks
	callbacks []func(Snapshot)
	cbMu      sync.RWMutex
}

// New creates a disconnected Loop.
func New(opts Options) *Loop {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxLinesPerTick <= 0 {
		opts.MaxLinesPerTick = DefaultMaxLinesPerTick
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Loop{
		opts:   opts,
		log:    opts.Logger,
		filter: sample.NewFilter(opts.Window),
		session: record.New(opts.Sink,
			record.WithClock(opts.Clock),
			record.WithLogger(opts.Logger),
		),
	}
}

// Connect locates the device, opens it and starts the acquisition task.
// windowText is the user's filter window; anything but a positive integer
// selects sample.DefaultWindow. The new window applies to samples received
// from now on; the series collected so far are kept.
// Connecting while connected or connecting is a no-op.
//
// The device is opened without holding the loop lock, so commands and
// queries stay responsive while the board settles. A Close issued meanwhile
// cancels the connection once the open finishes.
//
// The task runs until the channel closes; ctx bounds it as well.
func (l *Loop) Connect(ctx context.Context, windowText string) error {
	l.mu.Lock()
	if l.connecting || l.connectedLocked() {
		l.mu.Unlock()
		return nil
	}
	if l.channel != nil {
		// Device went away and the task has not noticed yet
		if err := l.closeLocked(); err != nil {
			l.log.Warn("error closing stale channel", "err", err)
		}
	}
	l.connecting = true
	l.abortConnect = false
	l.mu.Unlock()

	port, ch, err := l.open()

	l.mu.Lock()
	l.connecting = false
	if err != nil {
		l.mu.Unlock()
		return err
	}
	if l.abortConnect {
		l.mu.Unlock()
		l.log.Info("connect cancelled", "port", port)
		return ch.Close()
	}

	window := sample.ParseWindow(windowText)
	l.channel = ch
	l.port = port
	l.filter.SetWindow(window)
	l.done = make(chan struct{})

	go l.run(ctx, ch, l.done)

	l.log.Info("connected", "port", port, "window", window)
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(snap)
	return nil
}

// open locates the device and opens a channel on it.
func (l *Loop) open() (string, *device.Channel, error) {
	port, err := l.opts.Locate()
	if err != nil {
		return "", nil, err
	}

	ch, err := l.opts.Open(port)
	if err != nil {
		return port, nil, err
	}
	return port, ch, nil
}

// Close closes the channel, which stops the acquisition task, and ends the
// recording run. Samples are kept. Closing when not connected is a no-op.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.connecting {
		l.abortConnect = true
	}
	done := l.done
	err := l.closeLocked()
	snap := l.snapshotLocked()
	l.mu.Unlock()

	if done != nil {
		<-done
	}
	l.notify(snap)

	return err
}

// StartOrReset starts a recording run when idle and resets everything when a
// run is active. It returns the recording state after the call.
func (l *Loop) StartOrReset() (record.State, error) {
	l.mu.Lock()
	var (
		state record.State
		err   error
	)
	if l.session.Active() {
		err = l.resetLocked()
		state = record.Idle
	} else {
		state, err = l.session.Start(l.filter.Len())
	}
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(snap)
	return state, err
}

// Reset clears both series, ends the recording run and returns to idle.
func (l *Loop) Reset() error {
	l.mu.Lock()
	err := l.resetLocked()
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(snap)
	return err
}

// Poll runs one acquisition cycle: it handles the lines that are waiting,
// flushes the recording and publishes a snapshot. It never blocks on the device.
func (l *Loop) Poll() {
	l.mu.Lock()
	if l.channel == nil {
		l.mu.Unlock()
		return
	}
	l.drainLocked()
	l.session.Flush()
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(snap)
}

// Snapshot returns a copy of the current state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Connected reports whether the channel is open.
func (l *Loop) Connected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connectedLocked()
}

// Recording reports whether a recording run is active.
func (l *Loop) Recording() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.session.Active()
}

// OnUpdate registers a callback that receives a snapshot after every poll
// cycle and command. Callbacks run on the acquisition goroutine or the
// caller's goroutine and must return quickly.
func (l *Loop) OnUpdate(callback func(Snapshot)) {
	l.cbMu.Lock()
	defer l.cbMu.Unlock()
	l.callbacks = append(l.callbacks, callback)
}

// run is the periodic acquisition task. It checks the channel before every
// cycle and exits once the channel is closed.
func (l *Loop) run(ctx context.Context, ch *device.Channel, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(l.opts.PollInterval)
	defer ticker.Stop()

	for {
		if !ch.IsOpen() {
			l.channelGone(ch)
			return
		}

		select {
		case <-ch.Closed():
			l.channelGone(ch)
			return
		case <-ctx.Done():
			l.channelGone(ch)
			return
		case <-ticker.C:
			l.Poll()
		}
	}
}

// channelGone tears down a channel that closed underneath the loop.
func (l *Loop) channelGone(ch *device.Channel) {
	l.mu.Lock()
	if l.channel != ch {
		// Closed by a command or replaced by a new connection
		l.mu.Unlock()
		return
	}
	l.log.Warn("serial channel closed", "port", l.port)
	if err := l.closeLocked(); err != nil {
		l.log.Error("error closing acquisition", "err", err)
	}
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.notify(snap)
}

// drainLocked handles the lines waiting at cycle entry. A panic while handling
// a line ends this cycle's reads; the task keeps running.
func (l *Loop) drainLocked() {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("panic while processing serial input", "panic", r)
		}
	}()

	n := min(l.channel.Pending(), l.opts.MaxLinesPerTick)
	for range n {
		line, ok := l.channel.TryReadLine()
		if !ok {
			return
		}
		l.handleLineLocked(line)
	}
}

func (l *Loop) handleLineLocked(line string) {
	value, ok, err := sample.ParseLine(line)
	if err != nil {
		l.log.Warn("skipping line", "err", err)
		return
	}
	if !ok {
		l.log.Debug("ignoring untagged line", "line", line)
		return
	}

	filtered := l.filter.Push(value)
	l.value = value
	if elapsed, ok := l.session.Record(value, filtered); ok {
		l.elapsed = elapsed
	}
}

func (l *Loop) closeLocked() error {
	var errs []error

	if l.channel != nil {
		if err := l.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		l.channel = nil
		l.log.Info("disconnected", "port", l.port)
	}
	l.done = nil

	if err := l.session.Stop(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (l *Loop) resetLocked() error {
	l.filter.Reset()
	l.elapsed = 0
	l.value = 0
	return l.session.Reset()
}

func (l *Loop) connectedLocked() bool {
	return l.channel != nil && l.channel.IsOpen()
}

func (l *Loop) snapshotLocked() Snapshot {
	marker, ok := l.session.MarkerIndex()
	if !ok {
		marker = -1
	}
	return Snapshot{
		Raw:         l.filter.Raw(),
		Filtered:    l.filter.Filtered(),
		MarkerIndex: marker,
		Elapsed:     l.elapsed,
		Value:       l.value,
		Window:      l.filter.Window(),
		Port:        l.port,
		Connected:   l.connectedLocked(),
		Recording:   l.session.Active(),
	}
}

func (l *Loop) notify(snap Snapshot) {
	l.cbMu.RLock()
	callbacks := make([]func(Snapshot), len(l.callbacks))
	copy(callbacks, l.callbacks)
	l.cbMu.RUnlock()

	for _, cb := range callbacks {
		cb(snap)
	}
}
