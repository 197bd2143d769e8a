// Package export writes result tables to local directories and object
// storage as CSV.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrRaggedTable is returned when a row's width differs from the header.
var ErrRaggedTable = errors.New("row width does not match columns")

// Table is a named, already-encoded result table. Columns form a stable
// contract; an empty table still carries them.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Validate checks that every row matches the header width.
func (t Table) Validate() error {
	if t.Name == "" {
		return errors.New("table name is empty")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", t.Name)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("%w: table %s row %d has %d cells, want %d", ErrRaggedTable, t.Name, i, len(row), len(t.Columns))
		}
	}
	return nil
}

// WriteCSV writes the header and rows of t to w.
func WriteCSV(w io.Writer, t Table) error {
	if err := t.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write %s: %w", t.Name, err)
	}
	return nil
}

// FormatFloat renders v in the shortest form that round-trips. Infinities
// are written as inf and -inf.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatInt renders an integer cell.
func FormatInt(v int) string {
	return strconv.Itoa(v)
}

// FormatSet renders a set of labels as a JSON array in sorted order.
func FormatSet(labels []string) string {
	sorted := slices.Clone(labels)
	if sorted == nil {
		sorted = []string{}
	}
	slices.Sort(sorted)

	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(sorted)
	return strings.TrimSuffix(b.String(), "\n")
}
