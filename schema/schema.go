// Package schema describes the expected shape of external term
// format values.
//
// A Schema is plain data: a category and, for compound categories,
// the schemas of the children. Schemas are immutable once built and
// safe to share between goroutines.
package schema

import (
	"fmt"
	"slices"
	"strings"
)

// Kind is the category of a value.
type Kind uint8

const (
	Invalid Kind = iota
	KindInteger
	KindFloat
	KindString
	KindBinary
	KindAtom
	KindTuple
	KindList
	KindMixedList
	KindMap
)

var kindNames = [...]string{
	Invalid:       "invalid",
	KindInteger:   "integer",
	KindFloat:     "float",
	KindString:    "string",
	KindBinary:    "binary",
	KindAtom:      "atom",
	KindTuple:     "tuple",
	KindList:      "list",
	KindMixedList: "mixed list",
	KindMap:       "map",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsLeaf reports whether k is a scalar category.
func (k Kind) IsLeaf() bool {
	return k >= KindInteger && k <= KindAtom
}

// IsFixed reports whether values of category k have a number of
// children fixed by their schema, rather than by the value's header.
func (k Kind) IsFixed() bool {
	return k == KindTuple || k == KindMixedList
}

// Schema describes the expected shape of a value.
//
// The zero Schema is invalid and matches nothing.
type Schema struct {
	kind  Kind
	elems []Schema
}

// Leaf schemas.
var (
	Integer = Schema{kind: KindInteger}
	Float   = Schema{kind: KindFloat}
	String  = Schema{kind: KindString}
	Binary  = Schema{kind: KindBinary}
	Atom    = Schema{kind: KindAtom}
)

func mustValid(ctor string, elems []Schema) {
	for i, e := range elems {
		if e.IsZero() {
			panic(fmt.Sprintf("schema.%s: element %d is the invalid schema", ctor, i))
		}
	}
}

// Tuple returns the schema of a tuple whose elements have the given
// schemas, in order.
func Tuple(fields ...Schema) Schema {
	mustValid("Tuple", fields)
	return Schema{KindTuple, slices.Clone(fields)}
}

// List returns the schema of a list of any length, whose elements
// all have schema elem.
func List(elem Schema) Schema {
	mustValid("List", []Schema{elem})
	return Schema{KindList, []Schema{elem}}
}

// MixedList returns the schema of a list whose elements have the
// given schemas, in order.
func MixedList(elems ...Schema) Schema {
	mustValid("MixedList", elems)
	return Schema{KindMixedList, slices.Clone(elems)}
}

// Map returns the schema of a map with keys of schema key and values
// of schema val.
func Map(key, val Schema) Schema {
	mustValid("Map", []Schema{key, val})
	return Schema{KindMap, []Schema{key, val}}
}

// Kind returns the category of the schema.
func (s Schema) Kind() Kind {
	return s.kind
}

// IsZero reports whether s is the invalid zero Schema.
func (s Schema) IsZero() bool {
	return s.kind == Invalid
}

// Len returns the number of fields of a Tuple or MixedList
// schema. It returns zero for other kinds.
func (s Schema) Len() int {
	if !s.kind.IsFixed() {
		return 0
	}
	return len(s.elems)
}

// Field returns the schema of the i-th field of a Tuple or MixedList
// schema.
func (s Schema) Field(i int) Schema {
	if !s.kind.IsFixed() {
		panic(fmt.Sprintf("schema.Field called on %s schema", s.kind))
	}
	return s.elems[i]
}

// Elem returns the element schema of a List schema.
func (s Schema) Elem() Schema {
	if s.kind != KindList {
		panic(fmt.Sprintf("schema.Elem called on %s schema", s.kind))
	}
	return s.elems[0]
}

// Key returns the key schema of a Map schema.
func (s Schema) Key() Schema {
	if s.kind != KindMap {
		panic(fmt.Sprintf("schema.Key called on %s schema", s.kind))
	}
	return s.elems[0]
}

// Value returns the value schema of a Map schema.
func (s Schema) Value() Schema {
	if s.kind != KindMap {
		panic(fmt.Sprintf("schema.Value called on %s schema", s.kind))
	}
	return s.elems[1]
}

// Equal reports whether s and o describe the same shape.
func (s Schema) Equal(o Schema) bool {
	return s.kind == o.kind && slices.EqualFunc(s.elems, o.elems, Schema.Equal)
}

// String returns the textual form of the schema, as accepted by
// [Parse].
func (s Schema) String() string {
	var b strings.Builder
	s.writeTo(&b)
	return b.String()
}

func (s Schema) writeTo(b *strings.Builder) {
	switch s.kind {
	case KindInteger:
		b.WriteByte('i')
	case KindFloat:
		b.WriteByte('f')
	case KindString:
		b.WriteByte('s')
	case KindBinary:
		b.WriteByte('b')
	case KindAtom:
		b.WriteByte('a')
	case KindTuple:
		b.WriteByte('{')
		for _, e := range s.elems {
			e.writeTo(b)
		}
		b.WriteByte('}')
	case KindList:
		b.WriteByte('[')
		s.elems[0].writeTo(b)
		b.WriteByte(']')
	case KindMixedList:
		b.WriteByte('<')
		for _, e := range s.elems {
			e.writeTo(b)
		}
		b.WriteByte('>')
	case KindMap:
		b.WriteByte('#')
		s.elems[0].writeTo(b)
		s.elems[1].writeTo(b)
	default:
		b.WriteByte('?')
	}
}
