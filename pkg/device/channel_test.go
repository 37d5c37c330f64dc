package device

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPipeChannel(t *testing.T) (*Channel, *io.PipeWriter) {
	t.Helper()
	r, w := io.Pipe()
	ch := NewChannel("pipe", r, Options{ReadTimeout: 50 * time.Millisecond})
	t.Cleanup(func() {
		w.Close()
		ch.Close()
	})
	return ch, w
}

func TestChannel_ReadLine(t *testing.T) {
	ch, w := newPipeChannel(t)

	go func() {
		io.WriteString(w, "SENSOR,123.4\r\n")
	}()

	line, ok := ch.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "SENSOR,123.4", line)
}

func TestChannel_ReadLine_Timeout(t *testing.T) {
	ch, _ := newPipeChannel(t)

	start := time.Now()
	line, ok := ch.ReadLine()
	assert.False(t, ok)
	assert.Empty(t, line)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestChannel_PartialLines(t *testing.T) {
	ch, w := newPipeChannel(t)

	go func() {
		io.WriteString(w, "SENS")
		io.WriteString(w, "OR,1")
		io.WriteString(w, "0\nSENSOR,20\n\n  \nSENSOR,")
	}()

	line, ok := ch.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "SENSOR,10", line)

	line, ok = ch.ReadLine()
	require.True(t, ok)
	assert.Equal(t, "SENSOR,20", line)

	// The trailing fragment is not a complete record
	_, ok = ch.ReadLine()
	assert.False(t, ok)
}

func TestChannel_PendingAndTryReadLine(t *testing.T) {
	ch, w := newPipeChannel(t)

	_, ok := ch.TryReadLine()
	assert.False(t, ok)
	assert.Equal(t, 0, ch.Pending())

	go func() {
		io.WriteString(w, "a\nb\nc\n")
	}()

	assert.Eventually(t, func() bool { return ch.Pending() == 3 }, time.Second, 5*time.Millisecond)

	for _, want := range []string{"a", "b", "c"} {
		line, ok := ch.TryReadLine()
		require.True(t, ok)
		assert.Equal(t, want, line)
	}
	assert.Equal(t, 0, ch.Pending())
}

func TestChannel_CloseIdempotent(t *testing.T) {
	ch, _ := newPipeChannel(t)

	assert.True(t, ch.IsOpen())
	select {
	case <-ch.Closed():
		t.Fatal("closed before Close")
	default:
	}

	assert.NoError(t, ch.Close())
	assert.False(t, ch.IsOpen())
	<-ch.Closed()
	assert.NoError(t, ch.Close())
	assert.NoError(t, ch.Close())

	_, ok := ch.ReadLine()
	assert.False(t, ok)
	_, ok = ch.TryReadLine()
	assert.False(t, ok)
}

func TestChannel_DeviceGoneDrainsQueue(t *testing.T) {
	ch, w := newPipeChannel(t)

	io.WriteString(w, "SENSOR,1\n")
	w.Close()

	// Reader stopped but the queued line keeps the channel alive
	assert.Eventually(t, func() bool {
		select {
		case <-ch.done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
	assert.True(t, ch.IsOpen())

	line, ok := ch.TryReadLine()
	require.True(t, ok)
	assert.Equal(t, "SENSOR,1", line)
	assert.False(t, ch.IsOpen())
}

func TestChannel_QueueOverflowDrops(t *testing.T) {
	r, w := io.Pipe()
	ch := NewChannel("pipe", r, Options{ReadTimeout: 50 * time.Millisecond, QueueSize: 2})
	defer ch.Close()

	io.WriteString(w, "1\n2\n3\n4\n")
	w.Close()

	assert.Eventually(t, func() bool { return !ch.IsOpen() || ch.Pending() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, ch.Pending())
}

type failingConn struct {
	*io.PipeReader
	closeErr error
}

func (c failingConn) Close() error {
	c.PipeReader.Close()
	return c.closeErr
}

func TestChannel_CloseReturnsPortError(t *testing.T) {
	r, _ := io.Pipe()
	portErr := errors.New("port busy")
	ch := NewChannel("COM5", failingConn{PipeReader: r, closeErr: portErr}, Options{ReadTimeout: 50 * time.Millisecond})

	err := ch.Close()
	require.ErrorIs(t, err, portErr)
	assert.Contains(t, err.Error(), "COM5")
	assert.False(t, ch.IsOpen())

	assert.NoError(t, ch.Close())
}

func TestChannel_Name(t *testing.T) {
	ch, _ := newPipeChannel(t)
	assert.Equal(t, "pipe", ch.Name())
}

func TestOpen_NonexistentPort(t *testing.T) {
	ch, err := Open("/dev/gochrom-no-such-port", Options{SettleDelay: 0})
	require.Error(t, err)
	assert.Nil(t, ch)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "/dev/gochrom-no-such-port", connErr.Port)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestOptions_Defaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, DefaultBaudRate, o.BaudRate)
	assert.Equal(t, DefaultReadTimeout, o.ReadTimeout)
	assert.Equal(t, time.Duration(0), o.SettleDelay)
	assert.Equal(t, DefaultQueueSize, o.QueueSize)
	assert.NotNil(t, o.Logger)

	o = Options{SettleDelay: -1}.withDefaults()
	assert.Equal(t, DefaultSettleDelay, o.SettleDelay)
}
