// Package table holds uploaded spreadsheets as ordered rows of named string
// cells and provides the lookups the dashboard tabs need.
package table

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidHeader  = errors.New("invalid header row")
	ErrRaggedRow      = errors.New("row has more cells than the header")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrRowOutOfBounds = errors.New("row index out of bounds")
)

// Table is an ordered collection of records sharing one header.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`

	index map[string]int
}

// New validates the header and normalizes every row to the header width.
func New(columns []string, rows [][]string) (*Table, error) {
	header := make([]string, len(columns))
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		name := strings.TrimSpace(col)
		if name == "" {
			return nil, fmt.Errorf("column %d is empty, %w", i+1, ErrInvalidHeader)
		}
		if _, exists := index[name]; exists {
			return nil, fmt.Errorf("column %q is duplicated, %w", name, ErrInvalidHeader)
		}
		header[i] = name
		index[name] = i
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("no columns, %w", ErrInvalidHeader)
	}

	t := &Table{
		Columns: header,
		Rows:    make([][]string, 0, len(rows)),
		index:   index,
	}
	for i, row := range rows {
		if blank(row) {
			continue
		}
		if len(row) > len(header) {
			return nil, fmt.Errorf("row %d has %d cells for %d columns, %w", i+1, len(row), len(header), ErrRaggedRow)
		}
		record := make([]string, len(header))
		copy(record, row)
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the position of the named column.
func (t *Table) Column(name string) (int, bool) {
	if t.index == nil {
		t.reindex()
	}
	idx, ok := t.index[name]
	return idx, ok
}

// HasColumn reports whether the named column is present.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, col := range t.Columns {
		t.index[col] = i
	}
}

// Value returns the cell of row i under the named column.
func (t *Table) Value(i int, name string) (string, error) {
	if i < 0 || i >= len(t.Rows) {
		return "", fmt.Errorf("row %d of %d, %w", i, len(t.Rows), ErrRowOutOfBounds)
	}
	col, ok := t.Column(name)
	if !ok {
		return "", fmt.Errorf("%q, %w", name, ErrUnknownColumn)
	}
	return t.Rows[i][col], nil
}

// Filter returns the records whose trimmed cell in column equals value. An
// unknown column yields ErrUnknownColumn.
func (t *Table) Filter(column, value string) (*Table, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("%q, %w", column, ErrUnknownColumn)
	}
	value = strings.TrimSpace(value)

	var indices []int
	for i, row := range t.Rows {
		if strings.TrimSpace(row[col]) == value {
			indices = append(indices, i)
		}
	}
	return t.Subset(indices), nil
}

// Select projects the table onto the named columns in the given order.
func (t *Table) Select(columns ...string) (*Table, error) {
	positions := make([]int, len(columns))
	for i, name := range columns {
		col, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("%q, %w", name, ErrUnknownColumn)
		}
		positions[i] = col
	}

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		projected := make([]string, len(positions))
		for j, col := range positions {
			projected[j] = row[col]
		}
		rows[i] = projected
	}
	header := make([]string, len(columns))
	copy(header, columns)
	out := &Table{Columns: header, Rows: rows}
	out.reindex()
	return out, nil
}

// Subset returns the records at the given positions, in the given order.
// Positions outside the table are skipped.
func (t *Table) Subset(indices []int) *Table {
	rows := make([][]string, 0, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(t.Rows) {
			continue
		}
		rows = append(rows, t.Rows[i])
	}
	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	out := &Table{Columns: header, Rows: rows}
	out.reindex()
	return out
}

// Unique returns the distinct trimmed values of a column in order of first
// occurrence.
func (t *Table) Unique(column string) ([]string, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, fmt.Errorf("%q, %w", column, ErrUnknownColumn)
	}
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, row := range t.Rows {
		v := strings.TrimSpace(row[col])
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	return values, nil
}

// ColumnsWithPrefix lists the columns starting with prefix in header order.
func (t *Table) ColumnsWithPrefix(prefix string) []string {
	var cols []string
	for _, col := range t.Columns {
		if strings.HasPrefix(col, prefix) {
			cols = append(cols, col)
		}
	}
	return cols
}
