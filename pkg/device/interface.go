package device

import "io"

// Conn is the byte stream a Channel reads device records from.
// A serial port, the Mock device or an io.Pipe all satisfy it.
type Conn interface {
	io.ReadCloser
}

// Ensure Mock implements Conn.
var _ Conn = (*Mock)(nil)
