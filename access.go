package etf

import (
	"fmt"
	"iter"
	"reflect"

	"github.com/danderson/etf/schema"
)

// The typed getters below are promoted into [Tuple], [List] and
// [MixedList]. Which getter applies to a position is fixed by the
// schema, so calling the wrong one is a programming error and
// panics, like calling the wrong kind accessor on a reflect.Value.

// elemSchema returns the schema of the i-th child.
func (c *compound) elemSchema(i int) schema.Schema {
	if c.schema.Kind() == schema.KindList {
		return c.schema.Elem()
	}
	return c.schema.Field(i)
}

func (c *compound) at(i int, want schema.Kind, method string) Node {
	if got := c.elemSchema(i).Kind(); got != want {
		panic(fmt.Sprintf("etf: %s(%d) called on %s element of %s", method, i, got, c.schema))
	}
	return c.children[i]
}

// Value returns the i-th child's plain value if it is a leaf, or the
// child node itself if it is a compound.
func (c *compound) Value(i int) any {
	return valueOf(c.children[i])
}

// Int returns the i-th child, which must be an integer.
func (c *compound) Int(i int) int64 {
	return c.at(i, schema.KindInteger, "Int").(*Integer).Value
}

// Float returns the i-th child, which must be a float.
func (c *compound) Float(i int) float64 {
	return c.at(i, schema.KindFloat, "Float").(*Float).Value
}

// Str returns the i-th child, which must be a string.
func (c *compound) Str(i int) string {
	return c.at(i, schema.KindString, "Str").(*String).Value
}

// Bytes returns the i-th child, which must be a binary.
func (c *compound) Bytes(i int) []byte {
	return c.at(i, schema.KindBinary, "Bytes").(*Binary).Value
}

// Atom returns the name of the i-th child, which must be an atom.
func (c *compound) Atom(i int) string {
	return c.at(i, schema.KindAtom, "Atom").(*Atom).Value
}

// Tuple returns the i-th child, which must be a tuple.
func (c *compound) Tuple(i int) *Tuple {
	return c.at(i, schema.KindTuple, "Tuple").(*Tuple)
}

// List returns the i-th child, which must be a list.
func (c *compound) List(i int) *List {
	return c.at(i, schema.KindList, "List").(*List)
}

// MixedList returns the i-th child, which must be a mixed list.
func (c *compound) MixedList(i int) *MixedList {
	return c.at(i, schema.KindMixedList, "MixedList").(*MixedList)
}

// Map returns the i-th child, which must be a map.
func (c *compound) Map(i int) *Map {
	return c.at(i, schema.KindMap, "Map").(*Map)
}

// All returns an iterator over the list's elements, in wire order.
func (l *List) All() iter.Seq2[int, Node] {
	return func(yield func(int, Node) bool) {
		for i, n := range l.children {
			if !yield(i, n) {
				return
			}
		}
	}
}

// Indexed is implemented by [Tuple], [List] and [MixedList].
type Indexed interface {
	Node
	Len() int
	Value(i int) any
}

// Get returns the i-th child of c as a T. T must be the plain value
// type of a leaf element (int64, float64, string or []byte, and
// string for atoms), or the node pointer type of a compound element.
func Get[T any](c Indexed, i int) T {
	return as[T](c.Value(i), c.Schema())
}

// Elems returns an iterator over the elements of l as T values. T
// follows the same rules as [Get].
func Elems[T any](l *List) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, n := range l.children {
			if !yield(as[T](valueOf(n), l.schema)) {
				return
			}
		}
	}
}

func as[T any](v any, parent schema.Schema) T {
	ret, ok := v.(T)
	if !ok {
		panic(fmt.Sprintf("etf: element of %s is %T, not %s", parent, v, reflect.TypeFor[T]()))
	}
	return ret
}
