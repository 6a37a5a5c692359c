package sqlitedb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/funvibe/ember/pkg/engine"
	"github.com/funvibe/ember/pkg/expr"
)

// query is the intermediate form a translatable tree compiles into: one
// SELECT over one table.
type query struct {
	cols     []string // projected columns; exclusive with agg
	agg      string   // aggregate select expression
	where    []string
	args     []any
	distinct bool
	orderBy  string
	orderAsc bool
	limit    int64 // -1 when absent
	flat     bool  // single-column result flattens to a value column
}

func unsupported(format string, a ...any) error {
	return fmt.Errorf("%w: sqlitedb: "+format, append([]any{engine.ErrUnsupported}, a...)...)
}

// build compiles e into a query, or signals unsupported when the tree has
// no single-statement SQL form.
func build(e *expr.Node, tbl *Table) (*query, error) {
	switch e.Kind() {
	case expr.SYMBOL_NODE, expr.DATA_NODE:
		cols := tbl.Shape.FieldNames()
		if cols == nil {
			return nil, unsupported("table %s has no record shape", tbl.Name)
		}
		return &query{cols: cols, limit: -1}, nil

	case expr.FIELD_NODE:
		q, err := build(e.Inputs()[0], tbl)
		if err != nil {
			return nil, err
		}
		if q.agg != "" {
			return nil, unsupported("field access over an aggregate")
		}
		q.cols = []string{e.FieldName()}
		q.flat = true
		return q, nil

	case expr.PROJECT_NODE:
		q, err := build(e.Inputs()[0], tbl)
		if err != nil {
			return nil, err
		}
		if q.agg != "" {
			return nil, unsupported("projection over an aggregate")
		}
		q.cols = e.FieldList()
		q.flat = false
		return q, nil

	case expr.FILTER_NODE:
		q, err := build(e.Inputs()[0], tbl)
		if err != nil {
			return nil, err
		}
		if q.agg != "" || q.distinct || q.limit >= 0 {
			return nil, unsupported("filter over a shaped result")
		}
		cond, args, err := predicate(e.Inputs()[1])
		if err != nil {
			return nil, err
		}
		q.where = append(q.where, cond)
		q.args = append(q.args, args...)
		return q, nil

	case expr.DISTINCT_NODE:
		q, err := build(e.Inputs()[0], tbl)
		if err != nil {
			return nil, err
		}
		if q.agg != "" {
			return nil, unsupported("distinct over an aggregate")
		}
		q.distinct = true
		return q, nil

	case expr.SORT_NODE:
		q, err := build(e.Inputs()[0], tbl)
		if err != nil {
			return nil, err
		}
		if q.agg != "" {
			return nil, unsupported("sort over an aggregate")
		}
		q.orderBy = e.SortField()
		q.orderAsc = e.Ascending()
		return q, nil

	case expr.HEAD_NODE:
		q, err := build(e.Inputs()[0], tbl)
		if err != nil {
			return nil, err
		}
		if q.agg != "" {
			return nil, unsupported("head over an aggregate")
		}
		if q.limit < 0 || e.Count() < q.limit {
			q.limit = e.Count()
		}
		return q, nil

	case expr.REDUCE_NODE:
		q, err := build(e.Inputs()[0], tbl)
		if err != nil {
			return nil, err
		}
		if q.agg != "" {
			return nil, unsupported("nested aggregates")
		}
		if q.distinct || q.limit >= 0 {
			return nil, unsupported("aggregate over a shaped result")
		}
		var fn string
		switch e.ReduceOp() {
		case expr.ReduceSum:
			fn = "SUM"
		case expr.ReduceCount:
			q.agg = "COUNT(*)"
			q.cols = nil
			return q, nil
		case expr.ReduceMin:
			fn = "MIN"
		case expr.ReduceMax:
			fn = "MAX"
		default:
			return nil, unsupported("reduction %q", e.ReduceOp())
		}
		if !q.flat || len(q.cols) != 1 {
			return nil, unsupported("%s needs a single column", fn)
		}
		q.agg = fn + "(" + quoteIdent(q.cols[0]) + ")"
		q.cols = nil
		return q, nil

	case expr.BINOP_NODE:
		// Scalar arithmetic around one aggregate, e.g. sum(x) + 1.
		left, right := e.Inputs()[0], e.Inputs()[1]
		var aggSide, litSide *expr.Node
		var litFirst bool
		switch {
		case right.Kind() == expr.LITERAL_NODE:
			aggSide, litSide = left, right
		case left.Kind() == expr.LITERAL_NODE:
			aggSide, litSide, litFirst = right, left, true
		default:
			return nil, unsupported("operator %q", e.Op())
		}
		op, ok := sqlOperator(e.Op())
		if !ok {
			return nil, unsupported("operator %q", e.Op())
		}
		q, err := build(aggSide, tbl)
		if err != nil {
			return nil, err
		}
		if q.agg == "" {
			return nil, unsupported("operator %q over a non-aggregate", e.Op())
		}
		if litFirst {
			q.agg = "(? " + op + " " + q.agg + ")"
			q.args = append([]any{litSide.Value()}, q.args...)
		} else {
			q.agg = "(" + q.agg + " " + op + " ?)"
			q.args = append(q.args, litSide.Value())
		}
		return q, nil
	}
	return nil, unsupported("%s node", e.Kind())
}

// predicate compiles a filter condition: comparisons between one column
// and one literal, combined with and/or.
func predicate(p *expr.Node) (string, []any, error) {
	if p.Kind() != expr.BINOP_NODE {
		return "", nil, unsupported("predicate %s", p.Kind())
	}
	left, right := p.Inputs()[0], p.Inputs()[1]
	switch p.Op() {
	case expr.OpAnd, expr.OpOr:
		lc, la, err := predicate(left)
		if err != nil {
			return "", nil, err
		}
		rc, ra, err := predicate(right)
		if err != nil {
			return "", nil, err
		}
		op := "AND"
		if p.Op() == expr.OpOr {
			op = "OR"
		}
		return "(" + lc + " " + op + " " + rc + ")", append(la, ra...), nil
	}
	op, ok := sqlOperator(p.Op())
	if !ok {
		return "", nil, unsupported("operator %q in predicate", p.Op())
	}
	switch {
	case left.Kind() == expr.FIELD_NODE && right.Kind() == expr.LITERAL_NODE:
		return quoteIdent(left.FieldName()) + " " + op + " ?", []any{right.Value()}, nil
	case left.Kind() == expr.LITERAL_NODE && right.Kind() == expr.FIELD_NODE:
		return "? " + op + " " + quoteIdent(right.FieldName()), []any{left.Value()}, nil
	}
	return "", nil, unsupported("predicate over %s and %s", left.Kind(), right.Kind())
}

func sqlOperator(op string) (string, bool) {
	switch op {
	case expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv:
		return op, true
	case expr.OpMod:
		return "%", true
	case expr.OpLT, expr.OpGT, expr.OpLE, expr.OpGE:
		return op, true
	case expr.OpEQ:
		return "=", true
	case expr.OpNE:
		return "<>", true
	}
	return "", false
}

// render emits the final SELECT statement.
func (q *query) render(table string) string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.distinct {
		b.WriteString("DISTINCT ")
	}
	if q.agg != "" {
		b.WriteString(q.agg)
	} else {
		b.WriteString(joinIdents(q.cols))
	}
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(table))
	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if q.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(quoteIdent(q.orderBy))
		if q.orderAsc {
			b.WriteString(" ASC")
		} else {
			b.WriteString(" DESC")
		}
	}
	if q.limit >= 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.FormatInt(q.limit, 10))
	}
	return b.String()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func joinIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
