package record

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"
)

// Header is the first row of every output file.
var Header = []string{"Time", "MQ-Sensor", "Filtered Sensor"}

// Row is one recorded sample.
type Row struct {
	Elapsed  time.Duration
	Raw      float64
	Filtered float64
}

// Fields returns the row as CSV fields: elapsed seconds, raw and filtered value.
func (r Row) Fields() []string {
	return []string{
		formatFloat(r.Elapsed.Seconds()),
		formatFloat(r.Raw),
		formatFloat(r.Filtered),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Sink is the destination of recorded rows.
type Sink interface {
	WriteHeader(header []string) error
	WriteRow(row Row) error
	Flush() error
	Close() error
}

// SinkOpener creates a fresh sink for a new recording.
type SinkOpener func() (Sink, error)

// FileOpener returns an opener that truncates or recreates the file at path.
func FileOpener(path string) SinkOpener {
	return func() (Sink, error) {
		return CreateCSV(path)
	}
}

// CSVSink is a buffered CSV writer. Rows are held in memory until Flush,
// which the acquisition loop calls once per poll cycle.
type CSVSink struct {
	closer io.Closer
	buf    *bufio.Writer
	csv    *csv.Writer
	rows   uint64
}

// CreateCSV creates (or truncates) the file at path.
func CreateCSV(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv create %s: %w", path, err)
	}
	return NewCSVSink(f), nil
}

// NewCSVSink writes CSV to w. If w is an io.Closer it is closed by Close.
func NewCSVSink(w io.Writer) *CSVSink {
	bw := bufio.NewWriterSize(w, 64*1024)
	s := &CSVSink{
		buf: bw,
		csv: csv.NewWriter(bw),
	}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// WriteHeader writes the header row.
func (s *CSVSink) WriteHeader(header []string) error {
	if err := s.csv.Write(header); err != nil {
		return fmt.Errorf("csv write header: %w", err)
	}
	return nil
}

// WriteRow appends a single row.
func (s *CSVSink) WriteRow(row Row) error {
	if err := s.csv.Write(row.Fields()); err != nil {
		return fmt.Errorf("csv write row: %w", err)
	}
	s.rows++
	return nil
}

// Flush pushes the buffered rows to the underlying writer.
func (s *CSVSink) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	return nil
}

// Close flushes remaining data and closes the underlying writer.
func (s *CSVSink) Close() error {
	flushErr := s.Flush()
	if s.closer != nil {
		if err := s.closer.Close(); err != nil {
			return fmt.Errorf("csv close: %w", err)
		}
	}
	return flushErr
}

// Rows returns the number of data rows written (excludes header).
func (s *CSVSink) Rows() uint64 {
	return s.rows
}
