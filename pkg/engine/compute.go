package engine

import (
	"errors"
	"fmt"

	"github.com/funvibe/ember/pkg/expr"
)

// Config carries the per-call options recognized by Compute. The zero
// value (or a nil *Config) uses the registered dispatch hooks for both
// Optimize and PreCompute.
type Config struct {
	// Optimize overrides the dispatch-resolved optimize hook for this
	// call. Ignored when DisableOptimize is set.
	Optimize OptimizeFunc
	// DisableOptimize turns the optimize hook off entirely.
	DisableOptimize bool

	// PreCompute overrides the dispatch-resolved pre-compute hook for
	// this call. Ignored when DisablePreCompute is set.
	PreCompute PreComputeFunc
	// DisablePreCompute turns the pre-compute hook off entirely.
	DisablePreCompute bool
}

func (c *Config) optimizeHook() OptimizeFunc {
	if c == nil {
		return Optimize
	}
	if c.DisableOptimize {
		return nil
	}
	if c.Optimize != nil {
		return c.Optimize
	}
	return Optimize
}

func (c *Config) preComputeHook() PreComputeFunc {
	if c == nil {
		return PreCompute
	}
	if c.DisablePreCompute {
		return nil
	}
	if c.PreCompute != nil {
		return c.PreCompute
	}
	return PreCompute
}

// Compute evaluates an expression against data sources bound in scope and
// returns the final materialized value. Each call owns a fresh leaf
// allocator, binds attached resources, applies PreCompute to every bound
// value and Optimize to the whole expression, runs the fixpoint driver,
// and finishes with PostCompute.
func Compute(e *expr.Node, scope *Scope, cfg *Config) (any, error) {
	if scope == nil {
		scope = NewScope()
	}
	ctx := newEvalContext()

	bound, boundScope := BindResources(e, scope)

	if pre := cfg.preComputeHook(); pre != nil {
		rescoped := NewScope()
		for _, n := range boundScope.Nodes() {
			v, _ := boundScope.Get(n)
			pv, err := pre(n, v, boundScope)
			if err != nil {
				return nil, fmt.Errorf("compute %s: pre_compute: %w", ctx.id, err)
			}
			rescoped.Bind(n, pv)
		}
		boundScope = rescoped
	}

	if opt := cfg.optimizeHook(); opt != nil {
		// Only values bound to symbols the expression actually
		// references participate in whole-tree optimization.
		var vals []any
		for _, n := range boundScope.Nodes() {
			if bound.Contains(n) {
				v, _ := boundScope.Get(n)
				vals = append(vals, v)
			}
		}
		rewritten, err := opt(bound, vals)
		switch {
		case err == nil:
			bound = rewritten
		case errors.Is(err, ErrUnsupported):
			// Keep the expression unchanged.
		default:
			return nil, fmt.Errorf("compute %s: optimize: %w", ctx.id, err)
		}
	}

	result, err := ctx.evaluate(bound, boundScope, cfg)
	if err != nil {
		return nil, fmt.Errorf("compute %s: %w", ctx.id, err)
	}
	return PostCompute(bound, result, boundScope)
}

// ComputeOne is the convenience form for expressions with exactly one
// free symbol: it binds that symbol to data and delegates to Compute.
func ComputeOne(e *expr.Node, data any, cfg *Config) (any, error) {
	var symbols []*expr.Node
	for _, t := range e.Subterms() {
		if t.Kind() == expr.SYMBOL_NODE {
			symbols = append(symbols, t)
		}
	}
	if len(symbols) != 1 {
		return nil, fmt.Errorf("%w: expression has %d free symbols, want 1", ErrAmbiguousBinding, len(symbols))
	}
	return Compute(e, NewScope().Bind(symbols[0], data), cfg)
}
