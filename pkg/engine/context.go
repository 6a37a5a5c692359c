package engine

import (
	"github.com/google/uuid"

	"github.com/funvibe/ember/pkg/expr"
)

type nameToken struct {
	name  string
	token int
}

// evalContext is the call-scoped mutable state of one top-level
// evaluation: the leaf cache and the set of used (name, token) pairs.
// Each Compute call creates its own context, so concurrent and nested
// evaluations cannot corrupt each other's leaf naming.
type evalContext struct {
	id     uuid.UUID
	leaves map[string]*expr.Node
	used   map[nameToken]struct{}
}

func newEvalContext() *evalContext {
	return &evalContext{
		id:     uuid.New(),
		leaves: make(map[string]*expr.Node),
		used:   make(map[nameToken]struct{}),
	}
}

// makeLeaf names a fresh leaf symbol for an intermediate materialized
// result. Allocation is memoized by structural identity: repeated calls
// for the same source expression return the same symbol. A (name, token)
// pair is never reused within one evaluation, so two different source
// expressions sharing a display name get distinct tokens.
func (c *evalContext) makeLeaf(e *expr.Node) *expr.Node {
	if leaf, ok := c.leaves[e.Key()]; ok {
		return leaf
	}
	name := e.Name()
	if name == "" {
		name = "_"
	}
	token := expr.NoToken
	if _, taken := c.used[nameToken{name, token}]; taken {
		for token = 0; ; token++ {
			if _, taken := c.used[nameToken{name, token}]; !taken {
				break
			}
		}
	}
	leaf := expr.NewSymbolToken(name, e.Shape(), token)
	c.used[nameToken{name, token}] = struct{}{}
	c.leaves[e.Key()] = leaf
	return leaf
}
