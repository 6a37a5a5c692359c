package memtable

import "github.com/funvibe/ember/pkg/engine"

// Stream is a lazy, single-pass sequence of values. It satisfies
// engine.Sequence, so the type-break detector treats it as substitutable
// with a container of the same elements.
type Stream struct {
	next func() (any, bool)
}

func NewStream(next func() (any, bool)) *Stream { return &Stream{next: next} }

func (s *Stream) Next() (any, bool) { return s.next() }

// FromSlice wraps a slice in a single-pass stream.
func FromSlice(vals []any) *Stream {
	i := 0
	return NewStream(func() (any, bool) {
		if i >= len(vals) {
			return nil, false
		}
		v := vals[i]
		i++
		return v, true
	})
}

// Drain consumes a sequence into a slice.
func Drain(seq engine.Sequence) []any {
	var out []any
	for {
		v, ok := seq.Next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}
