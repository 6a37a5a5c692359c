package engine_test

import (
	"errors"
	"testing"

	"github.com/funvibe/ember/pkg/backend/memtable"
	"github.com/funvibe/ember/pkg/engine"
	"github.com/funvibe/ember/pkg/expr"
	"github.com/funvibe/ember/pkg/shape"
)

func init() {
	memtable.Register()
}

func accountsShape() shape.Shape {
	return shape.Seq(shape.Record(
		shape.Field{Name: "name", Shape: shape.String()},
		shape.Field{Name: "balance", Shape: shape.Int()},
	))
}

func accountRows() [][]any {
	return [][]any{
		{"Alice", int64(100)},
		{"Bob", int64(-200)},
		{"Charlie", int64(-300)},
		{"Dennis", int64(400)},
	}
}

func deadbeats(t *expr.Node) *expr.Node {
	return expr.Field(expr.Filter(t, expr.BinOp(expr.OpLT, expr.Field(t, "balance"), expr.Literal(int64(0)))), "name")
}

func wantColumn(t *testing.T, got any, want ...any) {
	t.Helper()
	col, ok := got.([]any)
	if !ok {
		t.Fatalf("result is %T, want []any", got)
	}
	if len(col) != len(want) {
		t.Fatalf("result %v has %d entries, want %d", col, len(col), len(want))
	}
	for i := range want {
		if col[i] != want[i] {
			t.Errorf("result[%d] = %v, want %v", i, col[i], want[i])
		}
	}
}

func TestComputeFilterThenField(t *testing.T) {
	sym := expr.NewSymbol("t", accountsShape())
	e := deadbeats(sym)

	got, err := engine.Compute(e, engine.NewScope().Bind(sym, accountRows()), nil)
	if err != nil {
		t.Fatal(err)
	}
	wantColumn(t, got, "Bob", "Charlie")
}

func TestComputeAggregateArithmetic(t *testing.T) {
	sh := shape.Seq(shape.Record(shape.Field{Name: "amount", Shape: shape.Int()}))
	s := expr.NewSymbol("s", sh)
	rows := [][]any{{int64(100)}, {int64(200)}, {int64(300)}}
	e := expr.BinOp(expr.OpAdd, expr.Reduce(expr.ReduceSum, expr.Field(s, "amount")), expr.Literal(int64(1)))

	got, err := engine.Compute(e, engine.NewScope().Bind(s, rows), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(601) {
		t.Errorf("result = %v (%T), want 601", got, got)
	}
}

func TestComputeSortProjectHead(t *testing.T) {
	sym := expr.NewSymbol("t", accountsShape())
	e := expr.Head(expr.Project(expr.Sort(sym, "balance", false), "name", "balance"), 2)

	got, err := engine.Compute(e, engine.NewScope().Bind(sym, accountRows()), nil)
	if err != nil {
		t.Fatal(err)
	}
	rows, ok := got.([][]any)
	if !ok {
		t.Fatalf("result is %T, want [][]any", got)
	}
	if len(rows) != 2 || rows[0][0] != "Dennis" || rows[1][0] != "Alice" {
		t.Errorf("result = %v, want Dennis then Alice", rows)
	}
}

func TestComputeCompoundPredicate(t *testing.T) {
	sym := expr.NewSymbol("t", accountsShape())
	bal := expr.Field(sym, "balance")
	pred := expr.BinOp(expr.OpAnd,
		expr.BinOp(expr.OpLT, bal, expr.Literal(int64(0))),
		expr.BinOp(expr.OpGT, bal, expr.Literal(int64(-250))))
	e := expr.Field(expr.Filter(sym, pred), "name")

	got, err := engine.Compute(e, engine.NewScope().Bind(sym, accountRows()), nil)
	if err != nil {
		t.Fatal(err)
	}
	wantColumn(t, got, "Bob")
}

func TestComputeOneMatchesCompute(t *testing.T) {
	sym := expr.NewSymbol("t", accountsShape())
	e := deadbeats(sym)

	viaScope, err := engine.Compute(e, engine.NewScope().Bind(sym, accountRows()), nil)
	if err != nil {
		t.Fatal(err)
	}
	viaOne, err := engine.ComputeOne(e, accountRows(), nil)
	if err != nil {
		t.Fatal(err)
	}
	a, b := viaScope.([]any), viaOne.([]any)
	if len(a) != len(b) {
		t.Fatalf("results differ in length: %v vs %v", a, b)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("results differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestComputeOneRejectsAmbiguousBinding(t *testing.T) {
	sh := accountsShape()
	a := expr.NewSymbol("a", sh)
	b := expr.NewSymbol("b", sh)
	e := expr.BinOp(expr.OpEQ, expr.Reduce(expr.ReduceCount, a), expr.Reduce(expr.ReduceCount, b))

	_, err := engine.ComputeOne(e, accountRows(), nil)
	if !errors.Is(err, engine.ErrAmbiguousBinding) {
		t.Errorf("error = %v, want ErrAmbiguousBinding", err)
	}

	// Zero symbols is just as ambiguous.
	_, err = engine.ComputeOne(expr.Literal(int64(1)), accountRows(), nil)
	if !errors.Is(err, engine.ErrAmbiguousBinding) {
		t.Errorf("error = %v, want ErrAmbiguousBinding", err)
	}
}

func TestComputeBoundRootShortCircuits(t *testing.T) {
	sym := expr.NewSymbol("t", accountsShape())
	got, err := engine.Compute(sym, engine.NewScope().Bind(sym, "sentinel"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got != "sentinel" {
		t.Errorf("result = %v, want sentinel", got)
	}
}

func TestComputeUnboundSymbolPassesThrough(t *testing.T) {
	sym := expr.NewSymbol("t", accountsShape())
	got, err := engine.Compute(sym, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	node, ok := got.(*expr.Node)
	if !ok || !node.Equal(sym) {
		t.Errorf("result = %v, want the symbol itself", got)
	}
}

func TestComputeNoFreeSymbols(t *testing.T) {
	e := expr.BinOp(expr.OpAdd, expr.Literal(int64(1)), expr.Literal(int64(2)))

	// Without the optimizer the expression is its own result.
	got, err := engine.Compute(e, nil, &engine.Config{DisableOptimize: true})
	if err != nil {
		t.Fatal(err)
	}
	node, ok := got.(*expr.Node)
	if !ok || !node.Equal(e) {
		t.Errorf("result = %v, want the expression unchanged", got)
	}

	// With the optimizer, constant folding runs before evaluation.
	got, err = engine.Compute(e, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	node, ok = got.(*expr.Node)
	if !ok || node.Kind() != expr.LITERAL_NODE || node.Value() != int64(3) {
		t.Errorf("result = %v, want literal 3", got)
	}
}

func TestComputeConfigOptimizeOverride(t *testing.T) {
	sym := expr.NewSymbol("t", accountsShape())
	e := deadbeats(sym)
	replacement := expr.Field(sym, "name")

	cfg := &engine.Config{
		Optimize: func(e2 *expr.Node, _ []any) (*expr.Node, error) {
			if e2.Equal(e) {
				return replacement, nil
			}
			return nil, engine.ErrUnsupported
		},
	}
	got, err := engine.Compute(e, engine.NewScope().Bind(sym, accountRows()), cfg)
	if err != nil {
		t.Fatal(err)
	}
	wantColumn(t, got, "Alice", "Bob", "Charlie", "Dennis")
}

func TestComputeConfigPreComputeOverride(t *testing.T) {
	sym := expr.NewSymbol("t", accountsShape())
	e := expr.Field(sym, "name")

	cfg := &engine.Config{
		PreCompute: func(_ *expr.Node, data any, _ *engine.Scope) (any, error) {
			if rows, ok := data.([][]any); ok {
				return rows[:1], nil
			}
			return data, nil
		},
	}
	got, err := engine.Compute(e, engine.NewScope().Bind(sym, accountRows()), cfg)
	if err != nil {
		t.Fatal(err)
	}
	wantColumn(t, got, "Alice")
}

func TestComputeDistinctMaterializesStream(t *testing.T) {
	sh := shape.Seq(shape.Record(shape.Field{Name: "tag", Shape: shape.String()}))
	sym := expr.NewSymbol("t", sh)
	rows := [][]any{{"a"}, {"b"}, {"a"}, {"c"}, {"b"}}
	e := expr.Distinct(expr.Field(sym, "tag"))

	// PreCompute disabled, so the lazy result reaches PostCompute, which
	// must drain it to a plain column.
	cfg := &engine.Config{DisablePreCompute: true}
	got, err := engine.Compute(e, engine.NewScope().Bind(sym, rows), cfg)
	if err != nil {
		t.Fatal(err)
	}
	wantColumn(t, got, "a", "b", "c")

	// With the default hooks the stream is drained mid-pipeline instead.
	got, err = engine.Compute(e, engine.NewScope().Bind(sym, rows), nil)
	if err != nil {
		t.Fatal(err)
	}
	wantColumn(t, got, "a", "b", "c")
}

func TestBindResourcesDerivesScope(t *testing.T) {
	sh := accountsShape()
	data := expr.FromData("t", sh, accountRows())
	e := deadbeats(data)

	bound, scope := engine.BindResources(e, nil)
	if len(bound.Resources()) != 0 {
		t.Error("bound tree still carries attached data")
	}
	if scope.Len() != 1 {
		t.Fatalf("derived scope has %d entries, want 1", scope.Len())
	}
	leaf := bound.Leaves()[0]
	if leaf.Kind() != expr.SYMBOL_NODE || leaf.Name() != "t" {
		t.Errorf("leaf = %v, want plain symbol t", leaf)
	}
	if v, ok := scope.Get(leaf); !ok || len(v.([][]any)) != 4 {
		t.Error("attached rows not bound to the replacement symbol")
	}
}

func TestBindResourcesCallerBindingWins(t *testing.T) {
	sh := accountsShape()
	data := expr.FromData("t", sh, accountRows())
	caller := engine.NewScope().Bind(expr.NewSymbol("t", sh), [][]any{{"Zoe", int64(-1)}})

	e := deadbeats(data)
	got, err := engine.Compute(e, caller, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantColumn(t, got, "Zoe")
}

func TestComputeInteractiveExpression(t *testing.T) {
	sh := accountsShape()
	data := expr.FromData("t", sh, accountRows())
	got, err := engine.Compute(deadbeats(data), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	wantColumn(t, got, "Bob", "Charlie")
}

func TestComputeReduceOps(t *testing.T) {
	sym := expr.NewSymbol("t", accountsShape())
	scope := func() *engine.Scope { return engine.NewScope().Bind(sym, accountRows()) }
	bal := expr.Field(sym, "balance")

	tests := []struct {
		e    *expr.Node
		want any
	}{
		{expr.Reduce(expr.ReduceCount, sym), int64(4)},
		{expr.Reduce(expr.ReduceSum, bal), int64(0)},
		{expr.Reduce(expr.ReduceMin, bal), int64(-300)},
		{expr.Reduce(expr.ReduceMax, bal), int64(400)},
	}
	for _, tt := range tests {
		got, err := engine.Compute(tt.e, scope(), nil)
		if err != nil {
			t.Fatalf("%s: %v", tt.e, err)
		}
		if got != tt.want {
			t.Errorf("%s = %v, want %v", tt.e, got, tt.want)
		}
	}
}
