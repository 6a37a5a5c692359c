package engine

import (
	"github.com/funvibe/ember/pkg/expr"
)

// reduce is the bottom-up partial evaluator: it collapses the largest
// prefix of the tree (from the leaves up) into materialized values,
// stopping at the first type break. It returns the remaining (smaller)
// expression together with a scope holding the fresh leaf bindings.
func (c *evalContext) reduce(e *expr.Node, scope *Scope) (*expr.Node, *Scope, error) {
	// A bound expression is renamed to a canonical leaf without
	// recomputation.
	if v, ok := scope.Get(e); ok {
		leaf := c.makeLeaf(e)
		return leaf, NewScope().Bind(leaf, v), nil
	}

	inputs := uniqueNodes(e.Inputs())
	merged := NewScope()
	subs := make(map[*expr.Node]*expr.Node)
	for _, in := range inputs {
		re, rs, err := c.reduce(in, scope)
		if err != nil {
			return nil, nil, err
		}
		if !in.Equal(re) {
			subs[in] = re
		}
		merged = MergeScopes(merged, rs)
	}
	newExpr := e.Subs(subs)

	oldLeaves := e.Leaves()
	oldData := make([]any, len(oldLeaves))
	for i, leaf := range oldLeaves {
		oldData[i], _ = scope.Get(leaf)
	}

	// If the leaves have changed substantially, stop here; the caller
	// must not descend further at this position.
	if TypeChange(merged.Values(), oldData) {
		return newExpr, merged, nil
	}

	args := make([]any, len(newExpr.Inputs()))
	for i, in := range newExpr.Inputs() {
		args[i], _ = merged.Get(in)
	}
	val, err := ComputeUp(newExpr, args, merged)
	if err != nil {
		return nil, nil, err
	}
	leaf := c.makeLeaf(e)
	return leaf, NewScope().Bind(leaf, val), nil
}

func uniqueNodes(nodes []*expr.Node) []*expr.Node {
	seen := make(map[string]bool, len(nodes))
	out := make([]*expr.Node, 0, len(nodes))
	for _, n := range nodes {
		if seen[n.Key()] {
			continue
		}
		seen[n.Key()] = true
		out = append(out, n)
	}
	return out
}
