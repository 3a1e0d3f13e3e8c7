package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultSniffBytes is the sample size used when Options.SniffBytes is unset.
const DefaultSniffBytes = 4096

// ErrMalformedRow marks a line the CSV parser could not split. The reader
// stays usable; callers count the row and move on.
var ErrMalformedRow = errors.New("malformed csv row")

// Options controls Open.
type Options struct {
	// SniffBytes is how much of the file feeds SniffDelimiter.
	SniffBytes int
	// Delimiter skips sniffing when non-zero.
	Delimiter rune
}

// Reader yields the rows of a CSV file, aligned to its header.
type Reader struct {
	file   *os.File
	csv    *csv.Reader
	header []string
	delim  rune
}

// Open sniffs the delimiter of path and positions a Reader after the header
// row. An empty file yields a Reader whose first Next returns io.EOF.
func Open(path string, opts Options) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}

	delim := opts.Delimiter
	if delim == 0 {
		size := opts.SniffBytes
		if size <= 0 {
			size = DefaultSniffBytes
		}
		sample := make([]byte, size)
		n, readErr := io.ReadFull(file, sample)
		if readErr != nil && !errors.Is(readErr, io.EOF) && !errors.Is(readErr, io.ErrUnexpectedEOF) {
			file.Close()
			return nil, fmt.Errorf("read csv sample: %w", readErr)
		}
		delim = SniffDelimiter(sample[:n])
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			file.Close()
			return nil, fmt.Errorf("rewind csv: %w", err)
		}
	}

	cr := csv.NewReader(NewDecodingReader(bufio.NewReader(file)))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	r := &Reader{file: file, csv: cr, delim: delim}

	header, err := cr.Read()
	switch {
	case errors.Is(err, io.EOF):
		return r, nil
	case err != nil:
		file.Close()
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	r.header = make([]string, len(header))
	for i, name := range header {
		r.header[i] = strings.TrimSpace(name)
	}
	return r, nil
}

// Delimiter returns the delimiter in use.
func (r *Reader) Delimiter() rune {
	return r.delim
}

// Header returns the trimmed header names.
func (r *Reader) Header() []string {
	out := make([]string, len(r.header))
	copy(out, r.header)
	return out
}

// Next returns the values of the next row, one per header column in header
// order. Missing trailing fields are empty strings and fields beyond the
// header are dropped. It returns io.EOF at end of input, an error wrapping
// ErrMalformedRow for an unparseable line, and any other error for failed
// reads.
func (r *Reader) Next() ([]string, error) {
	if len(r.header) == 0 {
		return nil, io.EOF
	}
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRow, parseErr)
		}
		return nil, fmt.Errorf("read csv row: %w", err)
	}

	row := make([]string, len(r.header))
	copy(row, record)
	return row, nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	return r.file.Close()
}
