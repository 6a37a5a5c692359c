package engine

import (
	"errors"

	"github.com/funvibe/ember/pkg/expr"
)

// evaluate is the fixpoint driver: it alternates the whole-tree fast path
// (ComputeDown) with bottom-up partial reduction, re-running PreCompute
// and Optimize between rounds, until the expression lands on a scope
// entry.
//
// Convergence is assumed, not proven: each round either resolves via the
// fast path, strictly shrinks the unresolved remainder, or terminates by
// landing exactly on a scope key. A type-break detector that reports a
// break at the lowest reducible level every round would prevent
// shrinkage; that heuristic risk is accepted.
func (c *evalContext) evaluate(e *expr.Node, scope *Scope, cfg *Config) (any, error) {
	for {
		if v, ok := scope.Get(e); ok {
			return v, nil
		}

		// Uninterpreted leaves pass through unchanged.
		if len(e.Inputs()) == 0 {
			return e, nil
		}

		leaves := e.Leaves()
		if len(leaves) == 0 {
			// No free symbols anywhere: the expression is its own result.
			return e, nil
		}
		leafData := make([]any, len(leaves))
		for i, leaf := range leaves {
			leafData[i], _ = scope.Get(leaf)
		}
		if v, err := ComputeDown(e, leafData); err == nil {
			return v, nil
		} else if !errors.Is(err, ErrUnsupported) {
			return nil, err
		}

		newExpr, newScope, err := c.reduce(e, scope)
		if err != nil {
			return nil, err
		}

		if pre := cfg.preComputeHook(); pre != nil {
			rescoped := NewScope()
			for _, n := range newScope.Nodes() {
				v, _ := newScope.Get(n)
				pv, err := pre(newExpr, v, newScope)
				if err != nil {
					return nil, err
				}
				rescoped.Bind(n, pv)
			}
			newScope = rescoped
		}

		if opt := cfg.optimizeHook(); opt != nil {
			vals := make([]any, 0, len(newExpr.Leaves()))
			for _, leaf := range newExpr.Leaves() {
				v, _ := newScope.Get(leaf)
				vals = append(vals, v)
			}
			rewritten, err := opt(newExpr, vals)
			switch {
			case err == nil:
				newExpr = rewritten
			case errors.Is(err, ErrUnsupported):
				// Keep the expression unchanged.
			default:
				return nil, err
			}
		}

		e, scope = newExpr, newScope
	}
}
