package engine

import (
	"testing"

	"github.com/funvibe/ember/pkg/expr"
	"github.com/funvibe/ember/pkg/shape"
)

func TestScopeBindAndGet(t *testing.T) {
	s := NewScope()
	a := expr.NewSymbol("a", shape.Int())
	s.Bind(a, int64(1)).Bind(expr.NewSymbol("b", shape.Int()), int64(2))

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	// Lookup goes by structural identity, not object identity.
	v, ok := s.Get(expr.NewSymbol("a", shape.Int()))
	if !ok || v != int64(1) {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if s.Has(expr.NewSymbol("c", shape.Int())) {
		t.Error("Has(c) = true")
	}

	// Rebinding replaces.
	s.Bind(a, int64(9))
	if v, _ := s.Get(a); v != int64(9) {
		t.Errorf("after rebind, Get(a) = %v", v)
	}
	if s.Len() != 2 {
		t.Errorf("after rebind, Len() = %d", s.Len())
	}
}

func TestScopeDeterministicOrder(t *testing.T) {
	s := NewScope()
	s.Bind(expr.NewSymbol("z", shape.Int()), 26)
	s.Bind(expr.NewSymbol("a", shape.Int()), 1)
	s.Bind(expr.NewSymbol("m", shape.Int()), 13)

	nodes := s.Nodes()
	if len(nodes) != 3 {
		t.Fatalf("Nodes() has %d entries", len(nodes))
	}
	if nodes[0].Name() != "a" || nodes[1].Name() != "m" || nodes[2].Name() != "z" {
		t.Errorf("Nodes() order = %s, %s, %s", nodes[0].Name(), nodes[1].Name(), nodes[2].Name())
	}
	vals := s.Values()
	if vals[0] != 1 || vals[1] != 13 || vals[2] != 26 {
		t.Errorf("Values() = %v", vals)
	}
}

func TestMergeScopesLaterWins(t *testing.T) {
	a := expr.NewSymbol("a", shape.Int())
	first := NewScope().Bind(a, "old").Bind(expr.NewSymbol("b", shape.Int()), "b")
	second := NewScope().Bind(a, "new")

	merged := MergeScopes(first, second, nil)
	if merged.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", merged.Len())
	}
	if v, _ := merged.Get(a); v != "new" {
		t.Errorf("Get(a) = %v, want new", v)
	}

	// The merge is a copy; binding it does not touch the sources.
	merged.Bind(expr.NewSymbol("c", shape.Int()), "c")
	if first.Len() != 2 || second.Len() != 1 {
		t.Error("MergeScopes aliased a source scope")
	}
}

func TestScopeClone(t *testing.T) {
	a := expr.NewSymbol("a", shape.Int())
	s := NewScope().Bind(a, 1)
	c := s.Clone()
	c.Bind(expr.NewSymbol("b", shape.Int()), 2)
	if s.Len() != 1 || c.Len() != 2 {
		t.Errorf("Len() = %d, %d, want 1, 2", s.Len(), c.Len())
	}
}
