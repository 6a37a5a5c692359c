package engine

import (
	"sort"

	"github.com/funvibe/ember/pkg/expr"
)

type scopeEntry struct {
	node  *expr.Node
	value any
}

// Scope maps expressions (normally symbols) to opaque backend values.
// Keys are unique by structural identity. Iteration order is the sorted
// order of the nodes' content keys, so evaluation is deterministic.
type Scope struct {
	entries map[string]scopeEntry
}

func NewScope() *Scope {
	return &Scope{entries: make(map[string]scopeEntry)}
}

// Bind adds or replaces an entry and returns the scope for chaining.
func (s *Scope) Bind(n *expr.Node, v any) *Scope {
	s.entries[n.Key()] = scopeEntry{node: n, value: v}
	return s
}

// Get looks up the value bound to a structurally identical node.
func (s *Scope) Get(n *expr.Node) (any, bool) {
	e, ok := s.entries[n.Key()]
	return e.value, ok
}

func (s *Scope) Has(n *expr.Node) bool {
	_, ok := s.entries[n.Key()]
	return ok
}

func (s *Scope) Len() int { return len(s.entries) }

// Nodes returns the bound expressions in deterministic order.
func (s *Scope) Nodes() []*expr.Node {
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	nodes := make([]*expr.Node, len(keys))
	for i, k := range keys {
		nodes[i] = s.entries[k].node
	}
	return nodes
}

// Values returns the bound values aligned with Nodes.
func (s *Scope) Values() []any {
	nodes := s.Nodes()
	vals := make([]any, len(nodes))
	for i, n := range nodes {
		vals[i], _ = s.Get(n)
	}
	return vals
}

func (s *Scope) Clone() *Scope {
	out := NewScope()
	for k, e := range s.entries {
		out.entries[k] = e
	}
	return out
}

// MergeScopes combines scopes into a new one; later scopes win on key
// collision.
func MergeScopes(scopes ...*Scope) *Scope {
	out := NewScope()
	for _, s := range scopes {
		if s == nil {
			continue
		}
		for k, e := range s.entries {
			out.entries[k] = e
		}
	}
	return out
}
