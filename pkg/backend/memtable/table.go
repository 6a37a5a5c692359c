// Package memtable is the in-memory reference backend: vectorized
// ComputeUp handlers over plain Go slices, tables and lazy streams. It is
// the fallback backend for data no specialized backend claims.
package memtable

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/funvibe/ember/pkg/engine"
	"github.com/funvibe/ember/pkg/shape"
)

// Table is an in-memory table: ordered rows of positional values, with a
// sequence-of-record shape describing the columns.
type Table struct {
	Shape shape.Shape
	Rows  [][]any
}

// RowSource is implemented by table-like values that can surface their
// rows for in-memory evaluation. Other backends implement it so memtable
// handlers can consume their values when no specialized handler applies.
type RowSource interface {
	TableRows() ([][]any, error)
}

func (t *Table) TableRows() ([][]any, error) { return t.Rows, nil }

// FromCSV reads comma-separated rows and coerces each column to the field
// kinds of sh (a sequence-of-record shape). When header is set the first
// record is skipped.
func FromCSV(r io.Reader, sh shape.Shape, header bool) (*Table, error) {
	fields := sh.FieldNames()
	if fields == nil {
		return nil, fmt.Errorf("memtable: csv shape must be a record sequence, got %s", sh)
	}
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("memtable: csv: %w", err)
	}
	if header && len(records) > 0 {
		records = records[1:]
	}
	rows := make([][]any, 0, len(records))
	for lineno, rec := range records {
		if len(rec) != len(fields) {
			return nil, fmt.Errorf("memtable: csv row %d has %d columns, want %d", lineno+1, len(rec), len(fields))
		}
		row := make([]any, len(rec))
		for i, cell := range rec {
			f, _ := sh.Field(fields[i])
			v, err := coerceCell(cell, f.Shape)
			if err != nil {
				return nil, fmt.Errorf("memtable: csv row %d, column %q: %w", lineno+1, fields[i], err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return &Table{Shape: sh, Rows: rows}, nil
}

func coerceCell(cell string, sh shape.Shape) (any, error) {
	switch sh.Kind {
	case shape.INT_SHAPE:
		return strconv.ParseInt(cell, 10, 64)
	case shape.FLOAT_SHAPE:
		return strconv.ParseFloat(cell, 64)
	case shape.BOOL_SHAPE:
		return strconv.ParseBool(cell)
	case shape.TIME_SHAPE:
		return time.Parse(time.RFC3339, cell)
	default:
		return cell, nil
	}
}

// Rows normalizes a backend value into positional rows. Accepts [][]any,
// *Table, any RowSource, or a lazy sequence of []any rows.
func Rows(v any) ([][]any, error) {
	switch vv := v.(type) {
	case [][]any:
		return vv, nil
	case *Table:
		return vv.Rows, nil
	case RowSource:
		return vv.TableRows()
	case engine.Sequence:
		var rows [][]any
		for {
			item, ok := vv.Next()
			if !ok {
				return rows, nil
			}
			row, ok := item.([]any)
			if !ok {
				return nil, fmt.Errorf("memtable: sequence element %T is not a row", item)
			}
			rows = append(rows, row)
		}
	}
	return nil, fmt.Errorf("memtable: %T is not row-shaped", v)
}

// Column normalizes a backend value into a flat column of scalars.
func Column(v any) ([]any, error) {
	switch vv := v.(type) {
	case []any:
		return vv, nil
	case engine.Sequence:
		return Drain(vv), nil
	}
	return nil, fmt.Errorf("memtable: %T is not column-shaped", v)
}
