package sqlitedb

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/funvibe/ember/pkg/engine"
	"github.com/funvibe/ember/pkg/expr"
)

var registerOnce sync.Once

// Register installs the sqlite ComputeDown handler for expressions whose
// single leaf is bound to a *Table. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		engine.RegisterComputeDown(expr.AnyKind, []reflect.Type{engine.TypeOf[*Table]()}, computeDown)
	})
}

func computeDown(e *expr.Node, leaves []any) (any, error) {
	tbl := leaves[0].(*Table)
	q, err := build(e, tbl)
	if err == nil {
		return run(q, tbl)
	}
	if !errors.Is(err, engine.ErrUnsupported) {
		return nil, err
	}
	// No single-statement SQL form: materialize the table and let the
	// in-memory handlers finish the job.
	rows, rerr := tbl.TableRows()
	if rerr != nil {
		return nil, rerr
	}
	leaf := e.Leaves()[0]
	return engine.Compute(e, engine.NewScope().Bind(leaf, rows), nil)
}

func run(q *query, tbl *Table) (any, error) {
	stmt := q.render(tbl.Name)
	if q.agg != "" {
		var out any
		if err := tbl.DB.QueryRow(stmt, q.args...).Scan(&out); err != nil {
			return nil, fmt.Errorf("sqlitedb: %s: %w", stmt, err)
		}
		return normalizeValue(out), nil
	}
	rows, err := tbl.DB.Query(stmt, q.args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: %s: %w", stmt, err)
	}
	defer rows.Close()
	scanned, err := scanRows(rows, len(q.cols))
	if err != nil {
		return nil, err
	}
	if q.flat {
		col := make([]any, len(scanned))
		for i, row := range scanned {
			col[i] = row[0]
		}
		return col, nil
	}
	return scanned, nil
}
