package memtable

import (
	"fmt"
	"reflect"
	"sort"
	"time"

	"github.com/funvibe/ember/pkg/engine"
	"github.com/funvibe/ember/pkg/expr"
)

func computeField(e *expr.Node, args []any, _ *engine.Scope) (any, error) {
	src := args[0]
	if rec, ok := src.(map[string]any); ok {
		v, ok := rec[e.FieldName()]
		if !ok {
			return nil, fmt.Errorf("memtable: record has no field %q", e.FieldName())
		}
		return v, nil
	}
	rows, err := Rows(src)
	if err != nil {
		return nil, err
	}
	idx, ok := e.Inputs()[0].Shape().FieldIndex(e.FieldName())
	if !ok {
		return nil, fmt.Errorf("memtable: no field %q in %s", e.FieldName(), e.Inputs()[0].Shape())
	}
	col := make([]any, len(rows))
	for i, row := range rows {
		if idx >= len(row) {
			return nil, fmt.Errorf("memtable: row %d has no column %d", i, idx)
		}
		col[i] = row[idx]
	}
	return col, nil
}

func computeProject(e *expr.Node, args []any, _ *engine.Scope) (any, error) {
	rows, err := Rows(args[0])
	if err != nil {
		return nil, err
	}
	srcShape := e.Inputs()[0].Shape()
	indices := make([]int, len(e.FieldList()))
	for i, name := range e.FieldList() {
		idx, ok := srcShape.FieldIndex(name)
		if !ok {
			return nil, fmt.Errorf("memtable: no field %q in %s", name, srcShape)
		}
		indices[i] = idx
	}
	out := make([][]any, len(rows))
	for i, row := range rows {
		narrow := make([]any, len(indices))
		for j, idx := range indices {
			narrow[j] = row[idx]
		}
		out[i] = narrow
	}
	return out, nil
}

func computeFilter(_ *expr.Node, args []any, _ *engine.Scope) (any, error) {
	rows, err := Rows(args[0])
	if err != nil {
		return nil, err
	}
	if keep, ok := args[1].(bool); ok {
		if keep {
			return rows, nil
		}
		return [][]any{}, nil
	}
	mask, err := Column(args[1])
	if err != nil {
		return nil, err
	}
	if len(mask) != len(rows) {
		return nil, fmt.Errorf("memtable: filter mask has %d entries for %d rows", len(mask), len(rows))
	}
	out := make([][]any, 0, len(rows))
	for i, row := range rows {
		keep, ok := mask[i].(bool)
		if !ok {
			return nil, fmt.Errorf("memtable: filter mask entry %d is %T, want bool", i, mask[i])
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func computeBinOp(e *expr.Node, args []any, _ *engine.Scope) (any, error) {
	left, right := args[0], args[1]
	lcol, lok := columnValue(left)
	rcol, rok := columnValue(right)
	switch {
	case lok && rok:
		if len(lcol) != len(rcol) {
			return nil, fmt.Errorf("memtable: %q over columns of length %d and %d", e.Op(), len(lcol), len(rcol))
		}
		out := make([]any, len(lcol))
		for i := range lcol {
			v, err := scalarBinOp(e.Op(), lcol[i], rcol[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case lok:
		out := make([]any, len(lcol))
		for i := range lcol {
			v, err := scalarBinOp(e.Op(), lcol[i], right)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case rok:
		out := make([]any, len(rcol))
		for i := range rcol {
			v, err := scalarBinOp(e.Op(), left, rcol[i])
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	default:
		return scalarBinOp(e.Op(), left, right)
	}
}

func computeReduce(e *expr.Node, args []any, _ *engine.Scope) (any, error) {
	// Count works over anything with elements, rows included; the other
	// reductions need a scalar column.
	if e.ReduceOp() == expr.ReduceCount {
		items, _, err := elements(args[0])
		if err != nil {
			return nil, err
		}
		return int64(len(items)), nil
	}
	col, err := Column(args[0])
	if err != nil {
		return nil, err
	}
	switch e.ReduceOp() {
	case expr.ReduceSum:
		return sumColumn(col)
	case expr.ReduceMin, expr.ReduceMax:
		if len(col) == 0 {
			return nil, fmt.Errorf("memtable: %s over empty column", e.ReduceOp())
		}
		best := col[0]
		for _, v := range col[1:] {
			c, err := compareValues(v, best)
			if err != nil {
				return nil, err
			}
			if (e.ReduceOp() == expr.ReduceMin && c < 0) || (e.ReduceOp() == expr.ReduceMax && c > 0) {
				best = v
			}
		}
		return best, nil
	}
	return nil, fmt.Errorf("memtable: unknown reduction %q", e.ReduceOp())
}

func computeDistinct(_ *expr.Node, args []any, _ *engine.Scope) (any, error) {
	items, _, err := elements(args[0])
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(items))
	var out []any
	for _, v := range items {
		k := fmt.Sprintf("%#v", v)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return FromSlice(out), nil
}

func computeSort(e *expr.Node, args []any, _ *engine.Scope) (any, error) {
	if e.SortField() == "" {
		col, err := Column(args[0])
		if err != nil {
			return nil, err
		}
		out := append([]any(nil), col...)
		var sortErr error
		sort.SliceStable(out, func(i, j int) bool {
			c, err := compareValues(out[i], out[j])
			if err != nil && sortErr == nil {
				sortErr = err
			}
			if e.Ascending() {
				return c < 0
			}
			return c > 0
		})
		return out, sortErr
	}
	rows, err := Rows(args[0])
	if err != nil {
		return nil, err
	}
	idx, ok := e.Inputs()[0].Shape().FieldIndex(e.SortField())
	if !ok {
		return nil, fmt.Errorf("memtable: no field %q in %s", e.SortField(), e.Inputs()[0].Shape())
	}
	out := append([][]any(nil), rows...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		c, err := compareValues(out[i][idx], out[j][idx])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if e.Ascending() {
			return c < 0
		}
		return c > 0
	})
	return out, sortErr
}

func computeHead(e *expr.Node, args []any, _ *engine.Scope) (any, error) {
	n := int(e.Count())
	switch v := args[0].(type) {
	case [][]any:
		if n > len(v) {
			n = len(v)
		}
		return v[:n], nil
	case *Table:
		rows := v.Rows
		if n > len(rows) {
			n = len(rows)
		}
		return rows[:n], nil
	case []any:
		if n > len(v) {
			n = len(v)
		}
		return v[:n], nil
	case engine.Sequence:
		out := make([]any, 0, n)
		for len(out) < n {
			item, ok := v.Next()
			if !ok {
				break
			}
			out = append(out, item)
		}
		return out, nil
	}
	return nil, fmt.Errorf("memtable: head over %T", args[0])
}

// elements flattens a value into its items: rows for tables, scalars for
// columns. The second result reports whether the items are rows.
func elements(v any) ([]any, bool, error) {
	switch vv := v.(type) {
	case [][]any:
		out := make([]any, len(vv))
		for i, r := range vv {
			out[i] = r
		}
		return out, true, nil
	case *Table:
		return elements(vv.Rows)
	case []any:
		return vv, false, nil
	case engine.Sequence:
		return Drain(vv), false, nil
	}
	return nil, false, fmt.Errorf("memtable: %T has no elements", v)
}

func columnValue(v any) ([]any, bool) {
	switch vv := v.(type) {
	case []any:
		return vv, true
	case engine.Sequence:
		return Drain(vv), true
	}
	return nil, false
}

func scalarBinOp(op string, a, b any) (any, error) {
	switch op {
	case expr.OpAnd, expr.OpOr:
		ab, aok := a.(bool)
		bb, bok := b.(bool)
		if !aok || !bok {
			return nil, fmt.Errorf("memtable: %q needs booleans, got %T and %T", op, a, b)
		}
		if op == expr.OpAnd {
			return ab && bb, nil
		}
		return ab || bb, nil
	case expr.OpEQ:
		return equalValues(a, b), nil
	case expr.OpNE:
		return !equalValues(a, b), nil
	case expr.OpLT, expr.OpGT, expr.OpLE, expr.OpGE:
		c, err := compareValues(a, b)
		if err != nil {
			return nil, err
		}
		switch op {
		case expr.OpLT:
			return c < 0, nil
		case expr.OpGT:
			return c > 0, nil
		case expr.OpLE:
			return c <= 0, nil
		default:
			return c >= 0, nil
		}
	case expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv, expr.OpMod:
		return arith(op, a, b)
	}
	return nil, fmt.Errorf("memtable: unknown operator %q", op)
}

func arith(op string, a, b any) (any, error) {
	ai, aInt := asInt(a)
	bi, bInt := asInt(b)
	if aInt && bInt {
		switch op {
		case expr.OpAdd:
			return ai + bi, nil
		case expr.OpSub:
			return ai - bi, nil
		case expr.OpMul:
			return ai * bi, nil
		case expr.OpDiv:
			if bi == 0 {
				return nil, fmt.Errorf("memtable: division by zero")
			}
			return ai / bi, nil
		case expr.OpMod:
			if bi == 0 {
				return nil, fmt.Errorf("memtable: division by zero")
			}
			return ai % bi, nil
		}
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return nil, fmt.Errorf("memtable: %q over %T and %T", op, a, b)
	}
	switch op {
	case expr.OpAdd:
		return af + bf, nil
	case expr.OpSub:
		return af - bf, nil
	case expr.OpMul:
		return af * bf, nil
	case expr.OpDiv:
		if bf == 0 {
			return nil, fmt.Errorf("memtable: division by zero")
		}
		return af / bf, nil
	}
	return nil, fmt.Errorf("memtable: %q over %T and %T", op, a, b)
}

func equalValues(a, b any) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func compareValues(a, b any) (int, error) {
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		if !bok {
			return 0, fmt.Errorf("memtable: cannot compare %T with %T", a, b)
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("memtable: cannot compare %T with %T", a, b)
		}
		switch {
		case as < bs:
			return -1, nil
		case as > bs:
			return 1, nil
		}
		return 0, nil
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		if !ok {
			return 0, fmt.Errorf("memtable: cannot compare %T with %T", a, b)
		}
		return at.Compare(bt), nil
	}
	return 0, fmt.Errorf("memtable: cannot compare %T values", a)
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	}
	return 0, false
}

func asFloat(v any) (float64, bool) {
	if i, ok := asInt(v); ok {
		return float64(i), true
	}
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func sumColumn(col []any) (any, error) {
	allInt := true
	var si int64
	var sf float64
	for _, v := range col {
		if i, ok := asInt(v); ok {
			si += i
			sf += float64(i)
			continue
		}
		f, ok := asFloat(v)
		if !ok {
			return nil, fmt.Errorf("memtable: sum over non-numeric %T", v)
		}
		allInt = false
		sf += f
	}
	if allInt {
		return si, nil
	}
	return sf, nil
}
