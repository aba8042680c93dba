package etf

import (
	"errors"

	"github.com/danderson/etf/fragments"
	"github.com/danderson/etf/schema"
)

// decodeState is the state of one schema-driven decode over a
// session's input.
//
// Decoding is plain recursive descent, so nesting depth is bounded
// by maxDepth rather than by the goroutine stack.
type decodeState struct {
	dec         *fragments.Decoder
	strictArity bool
	maxDepth    int
	depth       int
}

// fail annotates err with the schema and input offset of the value
// that failed to decode. Errors that already carry a location, from
// deeper in the tree, are relayed unchanged.
func (st *decodeState) fail(s schema.Schema, offset int, err error) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Offset: offset, Schema: s, Err: err}
}

func (st *decodeState) enter(s schema.Schema, offset int) error {
	if st.depth >= st.maxDepth {
		return st.fail(s, offset, ErrTooDeep)
	}
	st.depth++
	return nil
}

func (st *decodeState) leave() {
	st.depth--
}

// child decodes a fresh node of schema s and appends it to into. The
// node is appended even if decoding fails, so that partially built
// trees still hold everything decoded so far.
func (st *decodeState) child(into *[]Node, s schema.Schema) error {
	n := newNode(s)
	*into = append(*into, n)
	return n.decode(st)
}

// capacity returns a safe preallocation size for a compound whose
// header declares arity elements. Every element takes at least one
// byte, so a header can't claim more elements than there are bytes
// left.
func (st *decodeState) capacity(arity int) int {
	return max(0, min(arity, st.dec.Remaining()))
}

func (n *Integer) decode(st *decodeState) error {
	off := st.dec.Offset()
	v, err := st.dec.Integer()
	if err != nil {
		return st.fail(schema.Integer, off, err)
	}
	n.Value = v
	return nil
}

func (n *Float) decode(st *decodeState) error {
	off := st.dec.Offset()
	v, err := st.dec.Float()
	if err != nil {
		return st.fail(schema.Float, off, err)
	}
	n.Value = v
	return nil
}

func (n *String) decode(st *decodeState) error {
	off := st.dec.Offset()
	v, err := st.dec.String()
	if err != nil {
		return st.fail(schema.String, off, err)
	}
	n.Value = v
	return nil
}

func (n *Binary) decode(st *decodeState) error {
	off := st.dec.Offset()
	v, err := st.dec.Binary()
	if err != nil {
		return st.fail(schema.Binary, off, err)
	}
	n.Value = v
	return nil
}

func (n *Atom) decode(st *decodeState) error {
	off := st.dec.Offset()
	v, err := st.dec.Atom()
	if err != nil {
		return st.fail(schema.Atom, off, err)
	}
	n.Value = v
	return nil
}

// fixed decodes one child per field of c's schema, in order.
func (st *decodeState) fixed(c *compound, offset int) error {
	want := c.schema.Len()
	if st.strictArity && c.arity != want {
		return st.fail(c.schema, offset, &ArityError{Want: want, Got: c.arity})
	}
	if err := st.enter(c.schema, offset); err != nil {
		return err
	}
	defer st.leave()

	c.children = make([]Node, 0, want)
	for i := range want {
		if err := st.child(&c.children, c.schema.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tuple) decode(st *decodeState) error {
	off := st.dec.Offset()
	arity, err := st.dec.TupleHeader()
	if err != nil {
		return st.fail(t.schema, off, err)
	}
	t.arity = arity
	return st.fixed(&t.compound, off)
}

func (l *MixedList) decode(st *decodeState) error {
	off := st.dec.Offset()
	arity, tail, err := st.dec.ListHeader()
	if err != nil {
		return st.fail(l.schema, off, err)
	}
	l.arity = arity
	if err := st.fixed(&l.compound, off); err != nil {
		return err
	}
	return st.listTail(l.schema, tail)
}

func (l *List) decode(st *decodeState) error {
	off := st.dec.Offset()
	arity, tail, err := st.dec.ListHeader()
	if err != nil {
		return st.fail(l.schema, off, err)
	}
	l.arity = arity
	if err := st.enter(l.schema, off); err != nil {
		return err
	}
	defer st.leave()

	elem := l.schema.Elem()
	l.children = make([]Node, 0, st.capacity(arity))
	for range arity {
		if err := st.child(&l.children, elem); err != nil {
			return err
		}
	}
	return st.listTail(l.schema, tail)
}

// listTail consumes the terminator of a list, if its header said it
// has one. The bare empty list is its own terminator.
func (st *decodeState) listTail(s schema.Schema, tail bool) error {
	if !tail {
		return nil
	}
	off := st.dec.Offset()
	if err := st.dec.ListTail(); err != nil {
		return st.fail(s, off, err)
	}
	return nil
}

func (m *Map) decode(st *decodeState) error {
	off := st.dec.Offset()
	arity, err := st.dec.MapHeader()
	if err != nil {
		return st.fail(m.schema, off, err)
	}
	m.arity = arity
	if err := st.enter(m.schema, off); err != nil {
		return err
	}
	defer st.leave()

	key, val := m.schema.Key(), m.schema.Value()
	m.pairs = make([]Node, 0, st.capacity(2*arity))
	m.index = make(map[any]int, st.capacity(arity))
	for range arity {
		if err := st.child(&m.pairs, key); err != nil {
			return err
		}
		if err := st.child(&m.pairs, val); err != nil {
			return err
		}
		m.index[projectKey(m.pairs[len(m.pairs)-2])] = len(m.pairs) - 1
	}
	return nil
}
