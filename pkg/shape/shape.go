// Package shape describes the static shape of expressions and the values
// they evaluate to: scalar kinds, records with ordered fields, and
// variable-length sequences. Shapes are built with constructors; there is
// no textual shape syntax.
package shape

import "strings"

type Kind string

const (
	INT_SHAPE     Kind = "INT"
	FLOAT_SHAPE   Kind = "FLOAT"
	STRING_SHAPE  Kind = "STRING"
	BOOL_SHAPE    Kind = "BOOL"
	TIME_SHAPE    Kind = "TIME"
	RECORD_SHAPE  Kind = "RECORD"
	SEQ_SHAPE     Kind = "SEQ"
	UNKNOWN_SHAPE Kind = "UNKNOWN"
)

// Field is one named column of a record shape. Order is significant.
type Field struct {
	Name  string
	Shape Shape
}

// Shape is a structural type descriptor. The zero value is the unknown
// shape. Shapes are compared by their canonical String form.
type Shape struct {
	Kind   Kind
	Elem   *Shape  // element shape, SEQ only
	Fields []Field // ordered fields, RECORD only
}

func Int() Shape    { return Shape{Kind: INT_SHAPE} }
func Float() Shape  { return Shape{Kind: FLOAT_SHAPE} }
func String() Shape { return Shape{Kind: STRING_SHAPE} }
func Bool() Shape   { return Shape{Kind: BOOL_SHAPE} }
func Time() Shape   { return Shape{Kind: TIME_SHAPE} }

func Unknown() Shape { return Shape{Kind: UNKNOWN_SHAPE} }

// Seq returns the shape of a variable-length sequence of elem.
func Seq(elem Shape) Shape {
	e := elem
	return Shape{Kind: SEQ_SHAPE, Elem: &e}
}

// Record returns a record shape with the given ordered fields.
func Record(fields ...Field) Shape {
	return Shape{Kind: RECORD_SHAPE, Fields: fields}
}

// IsZero reports whether s is the zero (unspecified) shape.
func (s Shape) IsZero() bool { return s.Kind == "" }

// IsScalar reports whether s is one of the primitive scalar kinds.
func (s Shape) IsScalar() bool {
	switch s.Kind {
	case INT_SHAPE, FLOAT_SHAPE, STRING_SHAPE, BOOL_SHAPE, TIME_SHAPE:
		return true
	}
	return false
}

// Element returns the element shape of a sequence, or the unknown shape.
func (s Shape) Element() Shape {
	if s.Kind == SEQ_SHAPE && s.Elem != nil {
		return *s.Elem
	}
	return Unknown()
}

// Field looks up a field by name on a record shape, or on the record
// element of a sequence shape.
func (s Shape) Field(name string) (Field, bool) {
	rec := s
	if s.Kind == SEQ_SHAPE {
		rec = s.Element()
	}
	if rec.Kind != RECORD_SHAPE {
		return Field{}, false
	}
	for _, f := range rec.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldIndex returns the positional index of a field by name, resolving
// through a sequence element like Field does.
func (s Shape) FieldIndex(name string) (int, bool) {
	rec := s
	if s.Kind == SEQ_SHAPE {
		rec = s.Element()
	}
	if rec.Kind != RECORD_SHAPE {
		return 0, false
	}
	for i, f := range rec.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// FieldNames returns the ordered field names, resolving through a
// sequence element. Nil for non-record shapes.
func (s Shape) FieldNames() []string {
	rec := s
	if s.Kind == SEQ_SHAPE {
		rec = s.Element()
	}
	if rec.Kind != RECORD_SHAPE {
		return nil
	}
	names := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		names[i] = f.Name
	}
	return names
}

// String renders the canonical form, e.g. "var * {name: STRING, balance: INT}".
// Two shapes are equivalent iff their canonical forms are equal.
func (s Shape) String() string {
	switch s.Kind {
	case "":
		return string(UNKNOWN_SHAPE)
	case SEQ_SHAPE:
		return "var * " + s.Element().String()
	case RECORD_SHAPE:
		var b strings.Builder
		b.WriteByte('{')
		for i, f := range s.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Name)
			b.WriteString(": ")
			b.WriteString(f.Shape.String())
		}
		b.WriteByte('}')
		return b.String()
	default:
		return string(s.Kind)
	}
}

// Equal reports structural equivalence.
func (s Shape) Equal(o Shape) bool { return s.String() == o.String() }
