package etf

import (
	"fmt"

	"github.com/danderson/etf/schema"
)

// A Node is a decoded value.
//
// The set of Node implementations is closed: it is exactly [*Integer],
// [*Float], [*String], [*Binary], [*Atom], [*Tuple], [*List],
// [*MixedList] and [*Map]. A compound node owns its children, which
// are only reachable through it.
type Node interface {
	// Schema returns the schema the node was decoded against.
	Schema() schema.Schema

	decode(st *decodeState) error
	encode(e *Encoder) error
}

// newNode returns an empty node for s.
func newNode(s schema.Schema) Node {
	switch s.Kind() {
	case schema.KindInteger:
		return &Integer{}
	case schema.KindFloat:
		return &Float{}
	case schema.KindString:
		return &String{}
	case schema.KindBinary:
		return &Binary{}
	case schema.KindAtom:
		return &Atom{}
	case schema.KindTuple:
		return &Tuple{compound{schema: s}}
	case schema.KindList:
		return &List{compound{schema: s}}
	case schema.KindMixedList:
		return &MixedList{compound{schema: s}}
	case schema.KindMap:
		return &Map{schema: s}
	default:
		panic(fmt.Sprintf("etf: cannot create node for %s schema", s.Kind()))
	}
}

// valueOf returns the plain value of a leaf node, or n itself for
// compound nodes.
func valueOf(n Node) any {
	switch n := n.(type) {
	case *Integer:
		return n.Value
	case *Float:
		return n.Value
	case *String:
		return n.Value
	case *Binary:
		return n.Value
	case *Atom:
		return n.Value
	default:
		return n
	}
}

// Integer is a decoded integer.
type Integer struct {
	Value int64
}

func (*Integer) Schema() schema.Schema { return schema.Integer }

func (n *Integer) encode(e *Encoder) error {
	e.current().Integer(n.Value)
	return nil
}

// Float is a decoded float.
type Float struct {
	Value float64
}

func (*Float) Schema() schema.Schema { return schema.Float }

func (n *Float) encode(e *Encoder) error {
	e.current().Float(n.Value)
	return nil
}

// String is a decoded byte string.
type String struct {
	Value string
}

func (*String) Schema() schema.Schema { return schema.String }

func (n *String) encode(e *Encoder) error {
	e.current().String(n.Value)
	return nil
}

// Binary is a decoded binary.
type Binary struct {
	Value []byte
}

func (*Binary) Schema() schema.Schema { return schema.Binary }

func (n *Binary) encode(e *Encoder) error {
	e.current().Binary(n.Value)
	return nil
}

// Atom is a decoded atom.
//
// Atom is also how atoms are written: values of type Atom and *Atom
// given to [Encoder.Encode] encode as the atom Value.
type Atom struct {
	Value string
}

func (*Atom) Schema() schema.Schema { return schema.Atom }

func (n *Atom) encode(e *Encoder) error {
	return e.current().Atom(n.Value)
}

// compound is the common part of nodes with indexed children.
type compound struct {
	schema   schema.Schema
	arity    int
	children []Node
}

func (c *compound) Schema() schema.Schema { return c.schema }

// Arity returns the element count declared by the value's wire
// header.
//
// For tuples and mixed lists, the number of decoded children is set
// by the schema and can differ from Arity, see
// [SessionOptions.StrictArity].
func (c *compound) Arity() int { return c.arity }

// Len returns the number of decoded children.
func (c *compound) Len() int { return len(c.children) }

// Node returns the i-th child.
func (c *compound) Node(i int) Node { return c.children[i] }

func (c *compound) encodeChildren(e *Encoder) error {
	for _, child := range c.children {
		if err := child.encode(e); err != nil {
			return err
		}
	}
	return nil
}

// Tuple is a decoded tuple.
type Tuple struct {
	compound
}

func (t *Tuple) encode(e *Encoder) error {
	return e.compound(schema.KindTuple, len(t.children), func() error {
		return t.encodeChildren(e)
	})
}

// List is a decoded list whose elements all share a schema.
type List struct {
	compound
}

func (l *List) encode(e *Encoder) error {
	return e.compound(schema.KindList, len(l.children), func() error {
		return l.encodeChildren(e)
	})
}

// MixedList is a decoded list whose elements each have their own
// schema.
type MixedList struct {
	compound
}

func (l *MixedList) encode(e *Encoder) error {
	return e.compound(schema.KindMixedList, len(l.children), func() error {
		return l.encodeChildren(e)
	})
}

// Map is a decoded map.
//
// A Map keeps its key/value pairs in wire order, and a projection
// from key to value for lookups. Leaf keys and values are projected
// as their plain Go values; compound keys and values are projected as
// the child node itself.
type Map struct {
	schema schema.Schema
	arity  int
	// pairs is the decoded keys and values, interleaved.
	pairs []Node
	// index maps projected keys to the position of the corresponding
	// value in pairs.
	index map[any]int
}

func (m *Map) Schema() schema.Schema { return m.schema }

func (m *Map) encode(e *Encoder) error {
	return e.compound(schema.KindMap, len(m.pairs)/2, func() error {
		for _, n := range m.pairs {
			if err := n.encode(e); err != nil {
				return err
			}
		}
		return nil
	})
}
