package engine

import (
	"reflect"
	"sort"
	"time"
)

// Sequence is a lazy, single-pass stream of values produced by a backend.
// For type-break purposes containers and sequences are mutually
// substitutable: a backend that accepted a slice will usually accept a
// stream of the same elements, and vice versa.
type Sequence interface {
	Next() (any, bool)
}

var sequenceType = reflect.TypeOf((*Sequence)(nil)).Elem()

// TypeChange reports whether the runtime shapes of new differ from old
// enough that continuing bottom-up evaluation is no longer safe. The
// predicate is deliberately heuristic: it approximates "would a backend
// handler written for the old shapes still accept the new shapes".
//
// Primitives never constitute a break. A size difference always does.
// Otherwise both sets are ordered canonically by runtime type and aligned
// pairs are checked with a subtype-compatible predicate.
func TypeChange(old, new []any) bool {
	if allPrimitive(old) && allPrimitive(new) {
		return false
	}
	if len(old) != len(new) {
		return true
	}
	oldTypes := sortedTypes(old)
	newTypes := sortedTypes(new)
	for i := range oldTypes {
		if !subtypeCompatible(newTypes[i], oldTypes[i]) {
			return true
		}
	}
	return false
}

func isPrimitive(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, string, bool, time.Time:
		return true
	}
	return false
}

func allPrimitive(vals []any) bool {
	for _, v := range vals {
		if !isPrimitive(v) {
			return false
		}
	}
	return true
}

func sortedTypes(vals []any) []reflect.Type {
	types := make([]reflect.Type, len(vals))
	for i, v := range vals {
		types[i] = reflect.TypeOf(v)
	}
	sort.SliceStable(types, func(i, j int) bool {
		return typeName(types[i]) < typeName(types[j])
	})
	return types
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	return t.String()
}

// subtypeCompatible reports whether a value of type n can stand in for a
// value of type o. Identical types qualify, assignability qualifies
// (covering interface-typed patterns), and containers are interchangeable
// with lazy sequences in either direction.
func subtypeCompatible(n, o reflect.Type) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil {
		return false
	}
	if n.AssignableTo(o) || o.AssignableTo(n) {
		return true
	}
	if (isContainer(n) && isSequence(o)) || (isContainer(o) && isSequence(n)) {
		return true
	}
	return false
}

func isContainer(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}

func isSequence(t reflect.Type) bool {
	return t.Implements(sequenceType)
}
