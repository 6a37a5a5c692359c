package engine

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/funvibe/ember/pkg/expr"
)

// Handler signatures for the five extension points. Handlers are bound to
// a pattern over (expression kind, runtime data types); resolution picks
// the most specific registered match.

// ComputeUpFunc produces a value for e given already-computed values for
// its direct inputs.
type ComputeUpFunc func(e *expr.Node, args []any, scope *Scope) (any, error)

// ComputeDownFunc evaluates the entire remaining expression in one step
// from its ultimate leaf values.
type ComputeDownFunc func(e *expr.Node, leaves []any) (any, error)

// PreComputeFunc transforms a bound value before evaluation begins.
type PreComputeFunc func(e *expr.Node, data any, scope *Scope) (any, error)

// PostComputeFunc cleans up the computed result before it is returned.
type PostComputeFunc func(e *expr.Node, result any, scope *Scope) (any, error)

// OptimizeFunc rewrites the expression given the data it will run against.
type OptimizeFunc func(e *expr.Node, leaves []any) (*expr.Node, error)

// TypeOf returns the reflect.Type pattern for T, for handler registration.
// Interface types match any value implementing them; concrete types match
// exactly.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

type dispatchEntry[F any] struct {
	kind expr.Kind
	data []reflect.Type // nil slice matches any arity; nil element any type
	fn   F
}

// dispatchTable is one append-only handler table. Registration happens at
// startup; lookups during evaluation take the read lock only.
type dispatchTable[F any] struct {
	mu      sync.RWMutex
	entries []dispatchEntry[F]
}

func (t *dispatchTable[F]) add(kind expr.Kind, data []reflect.Type, fn F) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, dispatchEntry[F]{kind: kind, data: data, fn: fn})
}

// lookup resolves the most specific handler for the call. Data-type
// specificity outweighs expression-kind specificity, so a backend that
// owns a data type wins over a generic kind handler; equal scores go to
// the latest registration.
func (t *dispatchTable[F]) lookup(kind expr.Kind, args []any) (F, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var best F
	bestScore, found := -1, false
	for _, e := range t.entries {
		score, ok := e.match(kind, args)
		if ok && score >= bestScore {
			best, bestScore, found = e.fn, score, true
		}
	}
	return best, found
}

func (e *dispatchEntry[F]) match(kind expr.Kind, args []any) (int, bool) {
	score := 0
	if e.kind != expr.AnyKind {
		if e.kind != kind {
			return 0, false
		}
		score++
	}
	if e.data == nil {
		return score, true
	}
	if len(e.data) != len(args) {
		return 0, false
	}
	for i, pat := range e.data {
		if pat == nil {
			continue
		}
		at := reflect.TypeOf(args[i])
		switch {
		case at == nil:
			return 0, false
		case at == pat:
			score += 4
		case pat.Kind() == reflect.Interface && at.Implements(pat):
			score += 2
		case at.AssignableTo(pat):
			score += 2
		default:
			return 0, false
		}
	}
	return score, true
}

var (
	computeUpTable   = &dispatchTable[ComputeUpFunc]{}
	computeDownTable = &dispatchTable[ComputeDownFunc]{}
	preComputeTable  = &dispatchTable[PreComputeFunc]{}
	postComputeTable = &dispatchTable[PostComputeFunc]{}
	optimizeTable    = &dispatchTable[OptimizeFunc]{}
)

// RegisterComputeUp binds a ComputeUp handler to an expression kind and
// the runtime types of the child values. A nil data slice matches any
// argument list; expr.AnyKind matches any kind.
func RegisterComputeUp(kind expr.Kind, data []reflect.Type, fn ComputeUpFunc) {
	computeUpTable.add(kind, data, fn)
}

// RegisterComputeDown binds a whole-tree handler to an expression kind and
// the runtime types of the leaf values.
func RegisterComputeDown(kind expr.Kind, data []reflect.Type, fn ComputeDownFunc) {
	computeDownTable.add(kind, data, fn)
}

// RegisterPreCompute binds a pre-processing handler for bound values of
// the given type. A nil type matches any value.
func RegisterPreCompute(kind expr.Kind, data reflect.Type, fn PreComputeFunc) {
	preComputeTable.add(kind, []reflect.Type{data}, fn)
}

// RegisterPostCompute binds a final-stage handler for results of the
// given type.
func RegisterPostCompute(kind expr.Kind, data reflect.Type, fn PostComputeFunc) {
	postComputeTable.add(kind, []reflect.Type{data}, fn)
}

// RegisterOptimize binds an expression rewriter for the given kind and
// leaf value types.
func RegisterOptimize(kind expr.Kind, data []reflect.Type, fn OptimizeFunc) {
	optimizeTable.add(kind, data, fn)
}

// ComputeUp dispatches to the most specific registered handler, falling
// back to the defaults: primitive literals pass through unchanged,
// container literals are rebuilt with each element computed against the
// same scope, and everything else is unsupported. Backends may call this
// to delegate after normalizing their own data.
func ComputeUp(e *expr.Node, args []any, scope *Scope) (any, error) {
	if fn, ok := computeUpTable.lookup(e.Kind(), args); ok {
		return fn(e, args, scope)
	}
	return defaultComputeUp(e, args, scope)
}

func defaultComputeUp(e *expr.Node, args []any, scope *Scope) (any, error) {
	if e.Kind() == expr.LITERAL_NODE {
		v := e.Value()
		if isPrimitive(v) {
			return v, nil
		}
		switch vv := v.(type) {
		case []any:
			out := make([]any, len(vv))
			for i, item := range vv {
				r, err := computeElement(item, scope)
				if err != nil {
					return nil, err
				}
				out[i] = r
			}
			return out, nil
		case map[string]any:
			out := make(map[string]any, len(vv))
			for k, item := range vv {
				r, err := computeElement(item, scope)
				if err != nil {
					return nil, err
				}
				out[k] = r
			}
			return out, nil
		}
		return v, nil
	}
	return nil, fmt.Errorf("%w: compute_up %s over (%s)", ErrUnsupported, e.Kind(), typeNames(args))
}

// computeElement evaluates nested expression nodes inside container
// literals; plain values pass through.
func computeElement(item any, scope *Scope) (any, error) {
	if node, ok := item.(*expr.Node); ok {
		return Compute(node, scope, nil)
	}
	return item, nil
}

// ComputeDown dispatches the whole-tree fast path. With no matching
// handler it is unsupported; the fixpoint driver then falls back to
// bottom-up reduction.
func ComputeDown(e *expr.Node, leaves []any) (any, error) {
	if fn, ok := computeDownTable.lookup(e.Kind(), leaves); ok {
		return fn(e, leaves)
	}
	return nil, fmt.Errorf("%w: compute_down %s over (%s)", ErrUnsupported, e.Kind(), typeNames(leaves))
}

// PreCompute dispatches backend pre-processing of a bound value. The
// default is identity.
func PreCompute(e *expr.Node, data any, scope *Scope) (any, error) {
	if fn, ok := preComputeTable.lookup(e.Kind(), []any{data}); ok {
		return fn(e, data, scope)
	}
	return data, nil
}

// PostCompute dispatches final-stage cleanup of the result. The default
// is identity.
func PostCompute(e *expr.Node, result any, scope *Scope) (any, error) {
	if fn, ok := postComputeTable.lookup(e.Kind(), []any{result}); ok {
		return fn(e, result, scope)
	}
	return result, nil
}

// Optimize dispatches expression rewriting against the leaf data. With no
// matching handler it is unsupported, which callers treat as "leave the
// expression unchanged".
func Optimize(e *expr.Node, leaves []any) (*expr.Node, error) {
	if fn, ok := optimizeTable.lookup(e.Kind(), leaves); ok {
		return fn(e, leaves)
	}
	return nil, fmt.Errorf("%w: optimize %s", ErrUnsupported, e.Kind())
}

func typeNames(args []any) string {
	names := make([]string, len(args))
	for i, a := range args {
		if a == nil {
			names[i] = "nil"
			continue
		}
		names[i] = reflect.TypeOf(a).String()
	}
	return strings.Join(names, ", ")
}
