package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"coldlaw/internal/legi"
)

// ErrClosed is returned when writing to a closed Writer.
var ErrClosed = errors.New("dataset writer closed")

// Options tune a Writer.
type Options struct {
	// SyncWrites fsyncs the file after every row.
	SyncWrites bool
}

// Writer appends rows to a CSV file whose header was written at creation.
type Writer struct {
	path    string
	file    *os.File
	csv     *csv.Writer
	columns int
	sync    bool
	rows    int64
	closed  bool
}

// Create truncates path and writes the canonical header.
func Create(path string, opts Options) (*Writer, error) {
	return CreateWithHeader(path, legi.Fields, opts)
}

// CreateWithHeader truncates path and writes header. Every later row must
// have exactly len(header) columns.
func CreateWithHeader(path string, header []string, opts Options) (*Writer, error) {
	if len(header) == 0 {
		return nil, errors.New("dataset header is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dataset directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create dataset: %w", err)
	}
	w := &Writer{
		path:    path,
		file:    file,
		csv:     csv.NewWriter(file),
		columns: len(header),
		sync:    opts.SyncWrites,
	}
	if err := w.write(header); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write dataset header: %w", err)
	}
	return w, nil
}

// Path returns the file being written.
func (w *Writer) Path() string {
	return w.path
}

// Rows returns the number of data rows appended so far.
func (w *Writer) Rows() int64 {
	return w.rows
}

// Append writes one canonical record.
func (w *Writer) Append(rec legi.Record) error {
	return w.AppendRow(rec.Values())
}

// AppendRow writes one raw row.
func (w *Writer) AppendRow(row []string) error {
	if w.closed {
		return ErrClosed
	}
	if len(row) != w.columns {
		return fmt.Errorf("dataset row has %d columns, header has %d", len(row), w.columns)
	}
	if err := w.write(row); err != nil {
		return fmt.Errorf("append dataset row: %w", err)
	}
	w.rows++
	return nil
}

func (w *Writer) write(row []string) error {
	if err := w.csv.Write(row); err != nil {
		return err
	}
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return err
	}
	if w.sync {
		return w.file.Sync()
	}
	return nil
}

// Close flushes, syncs and closes the file. Closing twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.csv.Flush()
	flushErr := w.csv.Error()
	syncErr := w.file.Sync()
	closeErr := w.file.Close()
	if err := errors.Join(flushErr, syncErr, closeErr); err != nil {
		return fmt.Errorf("close dataset: %w", err)
	}
	return nil
}
