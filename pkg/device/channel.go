package device

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate of the sensor sketch.
	DefaultBaudRate = 9600
	// DefaultReadTimeout bounds a single ReadLine call.
	DefaultReadTimeout = time.Second
	// DefaultSettleDelay covers the board reset triggered by opening the port.
	DefaultSettleDelay = 2 * time.Second
	// DefaultQueueSize is the default number of complete lines buffered.
	DefaultQueueSize = 1024

	maxLineLength = 4096
)

// Options configures a Channel.
type Options struct {
	BaudRate    int
	ReadTimeout time.Duration
	SettleDelay time.Duration // Zero skips the wait, negative selects DefaultSettleDelay
	QueueSize   int
	Logger      *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.SettleDelay < 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Channel is an open line-oriented connection to the sensor board.
//
// A reader goroutine splits the byte stream into newline-terminated records
// and queues them; ReadLine, TryReadLine and Pending consume the queue, so a
// caller never blocks on the device for longer than the read timeout.
type Channel struct {
	name        string
	conn        Conn
	lines       chan string
	done        chan struct{}
	readTimeout time.Duration
	log         *slog.Logger

	mu       sync.Mutex
	closed   bool
	closedCh chan struct{}
}

// Open opens the serial port, waits for the board to settle and discards
// whatever it printed while resetting.
func Open(port string, opts Options) (*Channel, error) {
	opts = opts.withDefaults()

	p, err := serial.Open(port, &serial.Mode{
		BaudRate: opts.BaudRate,
	})
	if err != nil {
		return nil, &ConnectionError{Port: port, Err: err}
	}

	if err := p.SetReadTimeout(opts.ReadTimeout); err != nil {
		p.Close()
		return nil, &ConnectionError{Port: port, Err: err}
	}

	if opts.SettleDelay > 0 {
		time.Sleep(opts.SettleDelay)
	}
	if err := p.ResetInputBuffer(); err != nil {
		opts.Logger.Warn("failed to reset input buffer", "port", port, "err", err)
	}

	return NewChannel(port, p, opts), nil
}

// NewChannel wraps an already open byte stream.
func NewChannel(name string, conn Conn, opts Options) *Channel {
	opts = opts.withDefaults()

	c := &Channel{
		name:        name,
		conn:        conn,
		lines:       make(chan string, opts.QueueSize),
		done:        make(chan struct{}),
		closedCh:    make(chan struct{}),
		readTimeout: opts.ReadTimeout,
		log:         opts.Logger.With("port", name),
	}

	go c.readLines()

	return c
}

// Name returns the port name the channel was opened on.
func (c *Channel) Name() string {
	return c.name
}

// ReadLine returns the next complete line, waiting at most the read timeout.
// It returns false when no line arrived in time or the channel is closed.
func (c *Channel) ReadLine() (string, bool) {
	if c.isClosed() {
		return "", false
	}

	timer := time.NewTimer(c.readTimeout)
	defer timer.Stop()

	select {
	case line, ok := <-c.lines:
		return line, ok
	case <-timer.C:
		return "", false
	}
}

// TryReadLine returns the next complete line if one is already queued.
func (c *Channel) TryReadLine() (string, bool) {
	if c.isClosed() {
		return "", false
	}

	select {
	case line, ok := <-c.lines:
		return line, ok
	default:
		return "", false
	}
}

// Pending returns the number of complete lines waiting to be read.
func (c *Channel) Pending() int {
	return len(c.lines)
}

// IsOpen reports whether the channel can still deliver lines. A channel whose
// device went away stays open until its queued lines are consumed.
func (c *Channel) IsOpen() bool {
	if c.isClosed() {
		return false
	}

	select {
	case <-c.done:
		return len(c.lines) > 0
	default:
		return true
	}
}

// Close releases the port and stops the reader. It returns the port's close
// error; closing a closed channel is a no-op.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.closedCh)
	c.mu.Unlock()

	closeErr := c.conn.Close()

	select {
	case <-c.done:
	case <-time.After(2 * c.readTimeout):
		c.log.Warn("serial reader did not stop in time")
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close serial port %s: %w", c.name, closeErr)
	}
	return nil
}

// Closed returns a channel that is closed once Close has been called.
func (c *Channel) Closed() <-chan struct{} {
	return c.closedCh
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// readLines assembles records from the byte stream until it fails or closes.
func (c *Channel) readLines() {
	defer close(c.done)
	defer close(c.lines)
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic in serial reader", "panic", r)
		}
	}()

	buf := make([]byte, 256)
	var pending []byte

	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			pending = c.splitLines(pending)
		}

		if err != nil {
			if !c.isClosed() && !errors.Is(err, io.EOF) {
				c.log.Error("error reading from serial port", "err", err)
			}
			return
		}

		// Read timed out with nothing available
		if n == 0 && c.isClosed() {
			return
		}
	}
}

// splitLines queues every complete line in data and returns the remainder.
func (c *Channel) splitLines(data []byte) []byte {
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}

		line := strings.TrimSpace(string(data[:i]))
		data = data[i+1:]
		if line == "" {
			continue
		}

		select {
		case c.lines <- line:
		default:
			c.log.Warn("line queue full, dropping line")
		}
	}

	if len(data) > maxLineLength {
		c.log.Warn("discarding unterminated input", "bytes", len(data))
		return data[:0]
	}

	// Compact so the backing array does not grow without bound
	if len(data) == 0 {
		return data[:0]
	}
	return append([]byte(nil), data...)
}
