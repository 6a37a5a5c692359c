// Package expr provides the immutable, content-identified expression tree
// the compute engine evaluates. Nodes are built with the constructors in
// build.go and never mutated afterwards; structural identity is decided by
// a canonical content key, so two independently built but identical trees
// are the same node everywhere the engine cares.
package expr

import (
	"github.com/funvibe/ember/pkg/shape"
)

type Kind string

const (
	SYMBOL_NODE   Kind = "SYMBOL"
	LITERAL_NODE  Kind = "LITERAL"
	DATA_NODE     Kind = "DATA"
	FIELD_NODE    Kind = "FIELD"
	PROJECT_NODE  Kind = "PROJECT"
	FILTER_NODE   Kind = "FILTER"
	BINOP_NODE    Kind = "BINOP"
	REDUCE_NODE   Kind = "REDUCE"
	DISTINCT_NODE Kind = "DISTINCT"
	SORT_NODE     Kind = "SORT"
	HEAD_NODE     Kind = "HEAD"
)

// AnyKind is the wildcard expression kind for dispatch registration.
const AnyKind Kind = ""

// NoToken marks a symbol without a disambiguating token.
const NoToken = -1

// Node is one immutable expression node. All fields are set at
// construction; accessors expose read-only views.
type Node struct {
	kind   Kind
	shape  shape.Shape
	name   string
	token  int
	inputs []*Node

	value     any    // LITERAL payload
	data      any    // DATA attached resource; not part of identity
	field     string // FIELD
	fields    []string
	op        string // BINOP
	reduce    string // REDUCE
	count     int64  // HEAD
	sortField string // SORT
	ascending bool   // SORT

	key string // memoized canonical content key
}

// Resource is a data-attached leaf discovered by Resources.
type Resource struct {
	Node *Node
	Data any
}

func (n *Node) Kind() Kind         { return n.kind }
func (n *Node) Shape() shape.Shape { return n.shape }

// Name is the display name used for leaf allocation. Empty for nodes with
// no natural name (literals, operators).
func (n *Node) Name() string { return n.name }

// Token is the symbol disambiguator, NoToken when absent.
func (n *Node) Token() int { return n.token }

// Inputs returns the direct child expressions. Callers must not modify
// the returned slice.
func (n *Node) Inputs() []*Node { return n.inputs }

func (n *Node) Value() any          { return n.value }
func (n *Node) Data() any           { return n.data }
func (n *Node) FieldName() string   { return n.field }
func (n *Node) FieldList() []string { return n.fields }
func (n *Node) Op() string          { return n.op }
func (n *Node) ReduceOp() string    { return n.reduce }
func (n *Node) Count() int64        { return n.count }
func (n *Node) SortField() string   { return n.sortField }
func (n *Node) Ascending() bool     { return n.ascending }

// Key returns the canonical content key. Nodes with equal keys are
// structurally identical.
func (n *Node) Key() string { return n.key }

// Equal reports structural identity: built from identical constituents.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	return n.key == o.key
}

// Identical reports reference identity: the very same node object.
func Identical(a, b *Node) bool { return a == b }

// IsLeafKind reports whether the node is a terminal free variable
// (a symbol or a data-attached symbol).
func (n *Node) IsLeafKind() bool {
	return n.kind == SYMBOL_NODE || n.kind == DATA_NODE
}

// Leaves returns the terminal free-variable symbols reachable from n, in
// first-visit depth-first order, deduplicated by structural identity.
func (n *Node) Leaves() []*Node {
	var out []*Node
	seen := make(map[string]bool)
	var walk func(e *Node)
	walk = func(e *Node) {
		if e.IsLeafKind() {
			if !seen[e.key] {
				seen[e.key] = true
				out = append(out, e)
			}
			return
		}
		for _, in := range e.inputs {
			walk(in)
		}
	}
	walk(n)
	return out
}

// Subterms returns every distinct sub-node of n, including n itself, in
// first-visit depth-first order.
func (n *Node) Subterms() []*Node {
	var out []*Node
	seen := make(map[string]bool)
	var walk func(e *Node)
	walk = func(e *Node) {
		if seen[e.key] {
			return
		}
		seen[e.key] = true
		out = append(out, e)
		for _, in := range e.inputs {
			walk(in)
		}
	}
	walk(n)
	return out
}

// Contains reports whether sub occurs in n, by structural identity.
func (n *Node) Contains(sub *Node) bool {
	for _, t := range n.Subterms() {
		if t.Equal(sub) {
			return true
		}
	}
	return false
}

// Resources collects the data-attached leaves of n together with their
// attached values, in first-visit order.
func (n *Node) Resources() []Resource {
	var out []Resource
	for _, t := range n.Subterms() {
		if t.kind == DATA_NODE {
			out = append(out, Resource{Node: t, Data: t.data})
		}
	}
	return out
}

// Subs returns a new tree with every occurrence of a key in subs replaced
// by its value, matching by structural identity. Untouched subtrees are
// shared with the original.
func (n *Node) Subs(subs map[*Node]*Node) *Node {
	if len(subs) == 0 {
		return n
	}
	byKey := make(map[string]*Node, len(subs))
	for from, to := range subs {
		byKey[from.key] = to
	}
	return n.substitute(byKey)
}

func (n *Node) substitute(byKey map[string]*Node) *Node {
	if repl, ok := byKey[n.key]; ok {
		return repl
	}
	if len(n.inputs) == 0 {
		return n
	}
	changed := false
	newInputs := make([]*Node, len(n.inputs))
	for i, in := range n.inputs {
		newInputs[i] = in.substitute(byKey)
		if newInputs[i] != in {
			changed = true
		}
	}
	if !changed {
		return n
	}
	return n.rebuild(newInputs)
}

// rebuild reconstructs the node over new inputs, re-deriving shape, name
// and key through the ordinary constructors.
func (n *Node) rebuild(inputs []*Node) *Node {
	switch n.kind {
	case FIELD_NODE:
		return Field(inputs[0], n.field)
	case PROJECT_NODE:
		return Project(inputs[0], n.fields...)
	case FILTER_NODE:
		return Filter(inputs[0], inputs[1])
	case BINOP_NODE:
		return BinOp(n.op, inputs[0], inputs[1])
	case REDUCE_NODE:
		return Reduce(n.reduce, inputs[0])
	case DISTINCT_NODE:
		return Distinct(inputs[0])
	case SORT_NODE:
		return Sort(inputs[0], n.sortField, n.ascending)
	case HEAD_NODE:
		return Head(inputs[0], n.count)
	}
	// Leaf kinds have no inputs and are never rebuilt.
	return n
}

// String renders a compact, readable form for debugging and CLI output.
func (n *Node) String() string { return n.render() }
