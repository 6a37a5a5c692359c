package memtable

import (
	"sync"

	"github.com/funvibe/ember/pkg/engine"
	"github.com/funvibe/ember/pkg/expr"
)

var registerOnce sync.Once

// Register installs the in-memory handlers into the engine's dispatch
// tables. Safe to call from init functions and more than once.
func Register() {
	registerOnce.Do(func() {
		engine.RegisterComputeUp(expr.FIELD_NODE, nil, computeField)
		engine.RegisterComputeUp(expr.PROJECT_NODE, nil, computeProject)
		engine.RegisterComputeUp(expr.FILTER_NODE, nil, computeFilter)
		engine.RegisterComputeUp(expr.BINOP_NODE, nil, computeBinOp)
		engine.RegisterComputeUp(expr.REDUCE_NODE, nil, computeReduce)
		engine.RegisterComputeUp(expr.DISTINCT_NODE, nil, computeDistinct)
		engine.RegisterComputeUp(expr.SORT_NODE, nil, computeSort)
		engine.RegisterComputeUp(expr.HEAD_NODE, nil, computeHead)

		// Lazy sources are drained before evaluation begins, and lazy
		// results are materialized before they reach the caller.
		engine.RegisterPreCompute(expr.AnyKind, engine.TypeOf[engine.Sequence](), drainValue)
		engine.RegisterPostCompute(expr.AnyKind, engine.TypeOf[engine.Sequence](), drainResult)

		engine.RegisterOptimize(expr.BINOP_NODE, nil, optimizeArith)
	})
}

func drainValue(_ *expr.Node, data any, _ *engine.Scope) (any, error) {
	return Drain(data.(engine.Sequence)), nil
}

func drainResult(_ *expr.Node, result any, _ *engine.Scope) (any, error) {
	return Drain(result.(engine.Sequence)), nil
}
