package engine

import (
	"github.com/funvibe/ember/pkg/expr"
)

// BindResources normalizes interactive expressions into the abstract form
// the rest of the engine expects. Leaves that carry attached concrete
// data are replaced by plain symbols of the same name and shape, and the
// attached data is pushed into the scope. Caller-supplied bindings win on
// key collision.
func BindResources(e *expr.Node, scope *Scope) (*expr.Node, *Scope) {
	resources := e.Resources()
	if len(resources) == 0 {
		return e, MergeScopes(scope)
	}
	derived := NewScope()
	subs := make(map[*expr.Node]*expr.Node, len(resources))
	for _, r := range resources {
		sym := expr.NewSymbol(r.Node.Name(), r.Node.Shape())
		subs[r.Node] = sym
		derived.Bind(sym, r.Data)
	}
	return e.Subs(subs), MergeScopes(derived, scope)
}
