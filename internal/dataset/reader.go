package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"coldlaw/internal/legi"
)

// ErrHeaderMismatch means the file does not start with the expected header.
var ErrHeaderMismatch = errors.New("dataset header mismatch")

// Reader streams rows from a dataset file.
type Reader struct {
	file   *os.File
	csv    *csv.Reader
	header []string
}

// Open opens a canonical dataset and validates its header.
func Open(path string) (*Reader, error) {
	r, err := OpenRaw(path)
	if err != nil {
		return nil, err
	}
	if !legi.HeaderMatches(r.header) {
		_ = r.Close()
		return nil, fmt.Errorf("%s: %w: got %s", path, ErrHeaderMismatch, strings.Join(r.header, ","))
	}
	return r, nil
}

// OpenRaw opens any CSV produced by Writer, returning rows as they are.
func OpenRaw(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	cr := csv.NewReader(file)
	header, err := cr.Read()
	if err != nil {
		_ = file.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w: empty file", path, ErrHeaderMismatch)
		}
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	cr.FieldsPerRecord = len(header)
	return &Reader{file: file, csv: cr, header: header}, nil
}

// Header returns the column names.
func (r *Reader) Header() []string {
	return append([]string(nil), r.header...)
}

// NextRow returns the next raw row, or io.EOF.
func (r *Reader) NextRow() ([]string, error) {
	row, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read dataset row: %w", err)
	}
	return row, nil
}

// Next returns the next canonical record, or io.EOF.
func (r *Reader) Next() (legi.Record, error) {
	row, err := r.NextRow()
	if err != nil {
		return legi.Record{}, err
	}
	return legi.RecordFromValues(row)
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll loads every record of a canonical dataset.
func ReadAll(path string) ([]legi.Record, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var out []legi.Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}
