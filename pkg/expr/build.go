package expr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/funvibe/ember/pkg/shape"
)

// Binary operators understood by BinOp.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "%"
	OpLT  = "<"
	OpGT  = ">"
	OpLE  = "<="
	OpGE  = ">="
	OpEQ  = "=="
	OpNE  = "!="
	OpAnd = "and"
	OpOr  = "or"
)

// Reduction operators understood by Reduce.
const (
	ReduceSum   = "sum"
	ReduceCount = "count"
	ReduceMin   = "min"
	ReduceMax   = "max"
)

// NewSymbol builds a free-variable leaf with no disambiguating token.
func NewSymbol(name string, sh shape.Shape) *Node {
	return NewSymbolToken(name, sh, NoToken)
}

// NewSymbolToken builds a free-variable leaf. Symbols with the same name
// but different tokens are distinct nodes.
func NewSymbolToken(name string, sh shape.Shape, token int) *Node {
	n := &Node{kind: SYMBOL_NODE, shape: sh, name: name, token: token}
	n.key = "sym(" + name + "@" + strconv.Itoa(token) + "):" + sh.String()
	return n
}

// Literal wraps a concrete Go value as an expression node. The shape is
// derived from the value's type where possible.
func Literal(v any) *Node {
	n := &Node{kind: LITERAL_NODE, token: NoToken, value: v, shape: literalShape(v)}
	n.key = fmt.Sprintf("lit(%T:%#v)", v, v)
	return n
}

// FromData builds an interactive leaf: an expression rooted directly in a
// concrete data source. The resource binder later swaps it for a plain
// symbol plus a scope entry. The attached data does not participate in
// structural identity.
func FromData(name string, sh shape.Shape, data any) *Node {
	n := &Node{kind: DATA_NODE, shape: sh, name: name, token: NoToken, data: data}
	n.key = "data(" + name + "):" + sh.String()
	return n
}

// Field selects one named field from a record or a sequence of records.
func Field(t *Node, name string) *Node {
	sh := shape.Unknown()
	if f, ok := t.shape.Field(name); ok {
		if t.shape.Kind == shape.SEQ_SHAPE {
			sh = shape.Seq(f.Shape)
		} else {
			sh = f.Shape
		}
	}
	n := &Node{kind: FIELD_NODE, shape: sh, name: name, token: NoToken, field: name, inputs: []*Node{t}}
	n.key = compoundKey("field", name, n.inputs)
	return n
}

// Project narrows a record sequence to the named fields, preserving their
// declared order in the projection list.
func Project(t *Node, names ...string) *Node {
	var fields []shape.Field
	for _, name := range names {
		if f, ok := t.shape.Field(name); ok {
			fields = append(fields, f)
		} else {
			fields = append(fields, shape.Field{Name: name, Shape: shape.Unknown()})
		}
	}
	sh := shape.Record(fields...)
	if t.shape.Kind == shape.SEQ_SHAPE {
		sh = shape.Seq(sh)
	}
	n := &Node{
		kind: PROJECT_NODE, shape: sh, name: t.name, token: NoToken,
		fields: append([]string(nil), names...), inputs: []*Node{t},
	}
	n.key = compoundKey("project", strings.Join(names, ","), n.inputs)
	return n
}

// Filter keeps the elements of t for which pred holds. The predicate is an
// ordinary sub-expression and counts as an input of the node.
func Filter(t, pred *Node) *Node {
	n := &Node{kind: FILTER_NODE, shape: t.shape, name: t.name, token: NoToken, inputs: []*Node{t, pred}}
	n.key = compoundKey("filter", "", n.inputs)
	return n
}

// BinOp applies a binary operator elementwise. Comparison operators yield
// booleans; arithmetic follows the operands' scalar kinds.
func BinOp(op string, left, right *Node) *Node {
	n := &Node{kind: BINOP_NODE, shape: binOpShape(op, left.shape, right.shape), token: NoToken, op: op, inputs: []*Node{left, right}}
	n.key = compoundKey("binop", op, n.inputs)
	return n
}

// Reduce collapses a sequence to a single scalar with the given reduction.
func Reduce(op string, t *Node) *Node {
	sh := shape.Unknown()
	switch op {
	case ReduceCount:
		sh = shape.Int()
	case ReduceSum, ReduceMin, ReduceMax:
		sh = t.shape.Element()
		if !sh.IsScalar() {
			sh = shape.Unknown()
		}
	}
	name := ""
	if t.name != "" {
		name = t.name + "_" + op
	}
	n := &Node{kind: REDUCE_NODE, shape: sh, name: name, token: NoToken, reduce: op, inputs: []*Node{t}}
	n.key = compoundKey("reduce", op, n.inputs)
	return n
}

// Distinct removes duplicate elements, preserving first occurrence.
func Distinct(t *Node) *Node {
	n := &Node{kind: DISTINCT_NODE, shape: t.shape, name: t.name, token: NoToken, inputs: []*Node{t}}
	n.key = compoundKey("distinct", "", n.inputs)
	return n
}

// Sort orders a record sequence by one field.
func Sort(t *Node, field string, ascending bool) *Node {
	n := &Node{kind: SORT_NODE, shape: t.shape, name: t.name, token: NoToken, sortField: field, ascending: ascending, inputs: []*Node{t}}
	n.key = compoundKey("sort", field+":"+strconv.FormatBool(ascending), n.inputs)
	return n
}

// Head keeps the first count elements.
func Head(t *Node, count int64) *Node {
	n := &Node{kind: HEAD_NODE, shape: t.shape, name: t.name, token: NoToken, count: count, inputs: []*Node{t}}
	n.key = compoundKey("head", strconv.FormatInt(count, 10), n.inputs)
	return n
}

func compoundKey(kind, param string, inputs []*Node) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte('(')
	b.WriteString(param)
	for _, in := range inputs {
		b.WriteByte(';')
		b.WriteString(in.key)
	}
	b.WriteByte(')')
	return b.String()
}

func literalShape(v any) shape.Shape {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return shape.Int()
	case float32, float64:
		return shape.Float()
	case string:
		return shape.String()
	case bool:
		return shape.Bool()
	case time.Time:
		return shape.Time()
	}
	return shape.Unknown()
}

func binOpShape(op string, left, right shape.Shape) shape.Shape {
	seq := left.Kind == shape.SEQ_SHAPE || right.Kind == shape.SEQ_SHAPE
	elem := func(s shape.Shape) shape.Shape {
		if s.Kind == shape.SEQ_SHAPE {
			return s.Element()
		}
		return s
	}
	var out shape.Shape
	switch op {
	case OpLT, OpGT, OpLE, OpGE, OpEQ, OpNE, OpAnd, OpOr:
		out = shape.Bool()
	default:
		l, r := elem(left), elem(right)
		switch {
		case l.Kind == shape.FLOAT_SHAPE || r.Kind == shape.FLOAT_SHAPE:
			out = shape.Float()
		case l.Kind == shape.INT_SHAPE && r.Kind == shape.INT_SHAPE:
			out = shape.Int()
		case l.Equal(r):
			out = l
		default:
			out = shape.Unknown()
		}
	}
	if seq {
		return shape.Seq(out)
	}
	return out
}

func (n *Node) render() string {
	switch n.kind {
	case SYMBOL_NODE, DATA_NODE:
		if n.token != NoToken {
			return n.name + "_" + strconv.Itoa(n.token)
		}
		return n.name
	case LITERAL_NODE:
		return fmt.Sprintf("%v", n.value)
	case FIELD_NODE:
		return n.inputs[0].render() + "." + n.field
	case PROJECT_NODE:
		return "project(" + n.inputs[0].render() + ", " + strings.Join(n.fields, ", ") + ")"
	case FILTER_NODE:
		return n.inputs[0].render() + "[" + n.inputs[1].render() + "]"
	case BINOP_NODE:
		return "(" + n.inputs[0].render() + " " + n.op + " " + n.inputs[1].render() + ")"
	case REDUCE_NODE:
		return n.reduce + "(" + n.inputs[0].render() + ")"
	case DISTINCT_NODE:
		return "distinct(" + n.inputs[0].render() + ")"
	case SORT_NODE:
		dir := "asc"
		if !n.ascending {
			dir = "desc"
		}
		return "sort(" + n.inputs[0].render() + ", " + n.sortField + ", " + dir + ")"
	case HEAD_NODE:
		return "head(" + n.inputs[0].render() + ", " + strconv.FormatInt(n.count, 10) + ")"
	}
	return string(n.kind)
}
