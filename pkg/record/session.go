package record

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// State is the recording state.
type State int

const (
	Idle State = iota
	Active
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Active:
		return "active"
	default:
		return "unknown"
	}
}

// Option configures a Session.
type Option func(*Session)

// WithClock overrides the time source used for elapsed time.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// Session is a timed recording run. While Active it owns the output sink and
// writes one row per sample.
//
// Session is not safe for concurrent use; the acquisition loop serializes
// access to it.
type Session struct {
	open SinkOpener
	now  func() time.Time
	log  *slog.Logger

	state     State
	sink      Sink
	id        string
	startTime time.Time
	marker    int

	rows        uint64
	writeErrors uint64
}

// New creates an idle session that opens a fresh sink on every start.
func New(open SinkOpener, opts ...Option) *Session {
	s := &Session{
		open:   open,
		now:    time.Now,
		log:    slog.Default(),
		marker: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a run whose marker is sampleCount, the number of samples
// received so far. Calling Start on an active session resets it instead.
// The returned state is the state after the call.
func (s *Session) Start(sampleCount int) (State, error) {
	if s.state == Active {
		err := s.Reset()
		return s.state, err
	}

	sink, err := s.open()
	if err != nil {
		return s.state, fmt.Errorf("failed to open output sink: %w", err)
	}
	if err := sink.WriteHeader(Header); err != nil {
		writeErr := error(&SinkWriteError{Err: err})
		if cerr := sink.Close(); cerr != nil {
			return s.state, errors.Join(writeErr, fmt.Errorf("failed to close output sink: %w", cerr))
		}
		return s.state, writeErr
	}

	s.sink = sink
	s.id = uuid.NewString()
	s.startTime = s.now()
	s.marker = sampleCount
	s.rows = 0
	s.writeErrors = 0
	s.state = Active

	s.log.Info("recording started", "session", s.id, "marker", s.marker)
	return s.state, nil
}

// Stop ends the run and closes the sink. Samples are kept by the caller.
func (s *Session) Stop() error {
	return s.end("recording stopped")
}

// Reset ends the run and closes the sink; the caller discards its samples.
func (s *Session) Reset() error {
	return s.end("recording reset")
}

func (s *Session) end(msg string) error {
	if s.state != Active {
		return nil
	}

	err := s.sink.Close()
	if err != nil {
		err = fmt.Errorf("failed to close output sink: %w", err)
	}

	s.log.Info(msg, "session", s.id, "rows", s.rows, "write_errors", s.writeErrors)

	s.sink = nil
	s.id = ""
	s.startTime = time.Time{}
	s.marker = -1
	s.state = Idle

	return err
}

// Record writes one row when the session is active and returns the elapsed
// time since start. Write failures are logged and do not end the run.
func (s *Session) Record(raw, filtered float64) (time.Duration, bool) {
	if s.state != Active {
		return 0, false
	}

	elapsed := s.now().Sub(s.startTime)
	if err := s.sink.WriteRow(Row{Elapsed: elapsed, Raw: raw, Filtered: filtered}); err != nil {
		s.writeErrors++
		s.log.Error("dropping output row", "session", s.id, "err", &SinkWriteError{Err: err})
		return elapsed, true
	}
	s.rows++

	return elapsed, true
}

// Flush pushes buffered rows to the sink. Failures are logged.
func (s *Session) Flush() {
	if s.state != Active {
		return
	}
	if err := s.sink.Flush(); err != nil {
		s.writeErrors++
		s.log.Error("failed to flush output", "session", s.id, "err", &SinkWriteError{Err: err})
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Active reports whether a run is in progress.
func (s *Session) Active() bool {
	return s.state == Active
}

// MarkerIndex returns the sample index at which the run started.
func (s *Session) MarkerIndex() (int, bool) {
	if s.state != Active {
		return -1, false
	}
	return s.marker, true
}

// StartTime returns the time the run started.
func (s *Session) StartTime() (time.Time, bool) {
	if s.state != Active {
		return time.Time{}, false
	}
	return s.startTime, true
}

// Elapsed returns the time since start, or zero when idle.
func (s *Session) Elapsed() time.Duration {
	if s.state != Active {
		return 0
	}
	return s.now().Sub(s.startTime)
}

// ID returns the identifier of the active run.
func (s *Session) ID() string {
	return s.id
}

// Rows returns the number of rows written in the active run.
func (s *Session) Rows() uint64 {
	return s.rows
}

// WriteErrors returns the number of failed writes in the active run.
func (s *Session) WriteErrors() uint64 {
	return s.writeErrors
}
