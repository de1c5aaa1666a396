// Package intake reads the inventory sheet, the application form export and
// the terms form export into domain values.
package intake

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// header maps column names to record positions.
type header map[string]int

func newHeader(record []string) header {
	h := make(header, len(record))
	for i, name := range record {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

func (h header) require(kind error, names ...string) error {
	for _, n := range names {
		if _, ok := h[n]; !ok {
			return fmt.Errorf("%w: %w %q", kind, ErrMissingColumn, n)
		}
	}
	return nil
}

func (h header) has(name string) bool {
	_, ok := h[name]
	return ok
}

// get returns the trimmed cell, or "" when the column or cell is absent.
func (h header) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// rows reads every record. Row numbers count records from 1 (the header), so
// they match spreadsheet row numbers.
func rows(r io.Reader, kind error) (header, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: empty file", kind)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", kind, err)
	}

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", kind, err)
	}
	return newHeader(first), records, nil
}

func withFile[T any](path string, read func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()

	v, err := read(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}
