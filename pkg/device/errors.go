package device

import (
	"errors"
	"fmt"
)

// ErrDeviceNotFound is returned when no serial port matches the device markers.
var ErrDeviceNotFound = errors.New("no matching serial device found")

// ConnectionError reports a failure to open a serial port.
type ConnectionError struct {
	Port string
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to open serial port %s: %v", e.Port, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
