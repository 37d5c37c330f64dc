package record

import "fmt"

// SinkWriteError reports a row that could not be written to the sink.
// Recording continues; the row is not retried.
type SinkWriteError struct {
	Err error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("failed to write output row: %v", e.Err)
}

func (e *SinkWriteError) Unwrap() error {
	return e.Err
}
