package memtable

import (
	"fmt"

	"github.com/funvibe/ember/pkg/engine"
	"github.com/funvibe/ember/pkg/expr"
)

// optimizeArith folds literal arithmetic and strips identity operands
// (x + 0, x * 1) before evaluation touches any data. Unsupported when the
// tree has nothing to fold, which leaves it unchanged.
func optimizeArith(e *expr.Node, _ []any) (*expr.Node, error) {
	folded, changed, err := fold(e)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, fmt.Errorf("%w: nothing to fold", engine.ErrUnsupported)
	}
	return folded, nil
}

func fold(e *expr.Node) (*expr.Node, bool, error) {
	changed := false
	if inputs := e.Inputs(); len(inputs) > 0 {
		subs := make(map[*expr.Node]*expr.Node)
		for _, in := range inputs {
			f, ch, err := fold(in)
			if err != nil {
				return nil, false, err
			}
			if ch {
				subs[in] = f
				changed = true
			}
		}
		if changed {
			e = e.Subs(subs)
		}
	}
	if e.Kind() != expr.BINOP_NODE {
		return e, changed, nil
	}
	left, right := e.Inputs()[0], e.Inputs()[1]
	if left.Kind() == expr.LITERAL_NODE && right.Kind() == expr.LITERAL_NODE {
		v, err := scalarBinOp(e.Op(), left.Value(), right.Value())
		if err != nil {
			return nil, false, err
		}
		return expr.Literal(v), true, nil
	}
	switch e.Op() {
	case expr.OpAdd:
		if isLiteralInt(right, 0) {
			return left, true, nil
		}
		if isLiteralInt(left, 0) {
			return right, true, nil
		}
	case expr.OpSub:
		if isLiteralInt(right, 0) {
			return left, true, nil
		}
	case expr.OpMul:
		if isLiteralInt(right, 1) {
			return left, true, nil
		}
		if isLiteralInt(left, 1) {
			return right, true, nil
		}
	case expr.OpDiv:
		if isLiteralInt(right, 1) {
			return left, true, nil
		}
	}
	return e, changed, nil
}

func isLiteralInt(e *expr.Node, want int64) bool {
	if e.Kind() != expr.LITERAL_NODE {
		return false
	}
	i, ok := asInt(e.Value())
	return ok && i == want
}
