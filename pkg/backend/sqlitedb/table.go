// Package sqlitedb evaluates expression trees against sqlite tables. Its
// ComputeDown handler translates an entire remaining tree into a single
// SQL statement; trees with no SQL form fall back to materializing the
// rows and re-entering the engine for in-memory evaluation.
package sqlitedb

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/funvibe/ember/pkg/shape"
)

// Table is a handle to one sqlite table. It is the opaque backend value
// bound to a symbol in the evaluation scope.
type Table struct {
	DB    *sql.DB
	Name  string
	Shape shape.Shape // var * record, columns in table order
}

// Open opens a sqlite database file (or ":memory:") with the modernc
// driver.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: open %s: %w", path, err)
	}
	return db, nil
}

// Attach builds a table handle over an already-open database.
func Attach(db *sql.DB, name string, sh shape.Shape) *Table {
	return &Table{DB: db, Name: name, Shape: sh}
}

// TableRows materializes the full table as positional rows, satisfying
// memtable.RowSource so in-memory handlers can consume sqlite values.
func (t *Table) TableRows() ([][]any, error) {
	cols := t.Shape.FieldNames()
	if cols == nil {
		return nil, fmt.Errorf("sqlitedb: table %s has no record shape", t.Name)
	}
	stmt := "SELECT " + joinIdents(cols) + " FROM " + quoteIdent(t.Name)
	rows, err := t.DB.Query(stmt)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: %s: %w", stmt, err)
	}
	defer rows.Close()
	return scanRows(rows, len(cols))
}

func scanRows(rows *sql.Rows, width int) ([][]any, error) {
	var out [][]any
	for rows.Next() {
		row := make([]any, width)
		ptrs := make([]any, width)
		for i := range row {
			ptrs[i] = &row[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlitedb: scan: %w", err)
		}
		for i, v := range row {
			row[i] = normalizeValue(v)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// normalizeValue maps driver values onto the engine's scalar conventions.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
