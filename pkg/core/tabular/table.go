// Package tabular provides an in-memory table with ordered headers, used as
// the exchange format between the CSV outputs of the fetch stage and the
// flagging stage. Header order is preserved end to end so rewriting a file
// never reshuffles columns.
package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// Table holds rows as string slices aligned with Headers. Missing cells read
// as "".
type Table struct {
	Headers []string
	Rows    [][]string

	index map[string]int // header -> column position
}

// New creates an empty table with the given header order.
func New(headers []string) *Table {
	t := &Table{Headers: append([]string(nil), headers...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Headers))
	for i, h := range t.Headers {
		t.index[h] = i
	}
}

// Col returns the position of a header, or -1 when absent.
func (t *Table) Col(name string) int {
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasCol reports whether a header exists.
func (t *Table) HasCol(name string) bool { return t.Col(name) >= 0 }

// Get returns the cell at (row, header), "" when the column is absent or the
// row is short.
func (t *Table) Get(row int, name string) string {
	c := t.Col(name)
	if c < 0 || row < 0 || row >= len(t.Rows) || c >= len(t.Rows[row]) {
		return ""
	}
	return t.Rows[row][c]
}

// Set writes the cell at (row, header), growing the row if needed. The
// column must exist.
func (t *Table) Set(row int, name, value string) error {
	c := t.Col(name)
	if c < 0 {
		return fmt.Errorf("tabular: no column %q", name)
	}
	if row < 0 || row >= len(t.Rows) {
		return fmt.Errorf("tabular: row %d out of range", row)
	}
	for len(t.Rows[row]) <= c {
		t.Rows[row] = append(t.Rows[row], "")
	}
	t.Rows[row][c] = value
	return nil
}

// EnsureCol appends a column with a default value unless it already exists.
func (t *Table) EnsureCol(name, def string) {
	if t.HasCol(name) {
		return
	}
	t.Headers = append(t.Headers, name)
	t.reindex()
	for i := range t.Rows {
		for len(t.Rows[i]) < len(t.Headers)-1 {
			t.Rows[i] = append(t.Rows[i], "")
		}
		t.Rows[i] = append(t.Rows[i], def)
	}
}

// Append adds a row, padding or truncating to the header width.
func (t *Table) Append(row []string) {
	r := make([]string, len(t.Headers))
	copy(r, row)
	t.Rows = append(t.Rows, r)
}

// Clone returns a deep copy sharing nothing with the receiver.
func (t *Table) Clone() *Table {
	c := New(t.Headers)
	c.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		c.Rows[i] = append([]string(nil), r...)
	}
	return c
}

// Read parses CSV from r. The first record is the header.
func Read(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	if len(records) == 0 {
		return New(nil), nil
	}
	t := New(records[0])
	for _, rec := range records[1:] {
		t.Append(rec)
	}
	return t, nil
}

// ReadFile parses a CSV file.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Write serializes the table as CSV with the header first.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	for _, r := range t.Rows {
		row := r
		if len(row) < len(t.Headers) {
			row = make([]string, len(t.Headers))
			copy(row, r)
		}
		if err := cw.Write(row[:len(t.Headers)]); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table to path, replacing any existing file.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := t.Write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
