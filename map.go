package etf

import (
	"iter"
	"math"
	"reflect"
)

// projectKey returns the projection key for a decoded map key.
func projectKey(n Node) any {
	if b, ok := n.(*Binary); ok {
		// []byte isn't comparable, so binary keys project as
		// strings.
		return string(b.Value)
	}
	return valueOf(n)
}

// normalizeKey converts a caller-supplied lookup key to the form
// used by the projection.
func normalizeKey(k any) any {
	switch k := k.(type) {
	case Node:
		if isLeaf(k) {
			return projectKey(k)
		}
		return k
	case Atom:
		return k.Value
	case Integer:
		return k.Value
	case Float:
		return k.Value
	case String:
		return k.Value
	case Binary:
		return string(k.Value)
	case []byte:
		return string(k)
	}

	v := reflect.ValueOf(k)
	switch {
	case !v.IsValid():
		return k
	case intKinds.Has(v.Kind()):
		return v.Int()
	case uintKinds.Has(v.Kind()):
		if v.Uint() > math.MaxInt64 {
			return k
		}
		return int64(v.Uint())
	case floatKinds.Has(v.Kind()):
		return v.Float()
	case v.Kind() == reflect.String:
		return v.String()
	}
	return k
}

func isLeaf(n Node) bool {
	return n.Schema().Kind().IsLeaf()
}

// Arity returns the number of key/value pairs declared by the map's
// wire header.
func (m *Map) Arity() int {
	return m.arity
}

// Len returns the number of distinct keys in the map.
func (m *Map) Len() int {
	return len(m.index)
}

// Lookup returns the value associated with key. If the map's wire
// encoding contains key more than once, the last value wins.
//
// Leaf keys are looked up by value: integer keys match any Go
// integer, binary keys match a []byte or string, atom keys match the
// atom name. Compound keys are looked up by node identity.
//
// Leaf values are returned as their plain value, compound values as
// their node.
func (m *Map) Lookup(key any) (any, bool) {
	i, ok := m.index[normalizeKey(key)]
	if !ok {
		return nil, false
	}
	return valueOf(m.pairs[i]), true
}

// Pair returns the i-th key/value pair, in wire order.
func (m *Map) Pair(i int) (key, val Node) {
	return m.pairs[2*i], m.pairs[2*i+1]
}

// All returns an iterator over the map's key/value pairs in wire
// order, including pairs whose key is repeated later. Keys and values
// are yielded as by [Map.Lookup].
func (m *Map) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		for i := 0; i+1 < len(m.pairs); i += 2 {
			if !yield(valueOf(m.pairs[i]), valueOf(m.pairs[i+1])) {
				return
			}
		}
	}
}

// LookupAs is like [Map.Lookup], but returns the value as a V. V
// follows the same rules as [Get].
func LookupAs[V any](m *Map, key any) (V, bool) {
	v, ok := m.Lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return as[V](v, m.schema), true
}

// Keys returns an iterator over the map's distinct keys, in the wire
// order of the pairs that won. Keys are yielded as by [Map.Lookup].
func (m *Map) Keys() iter.Seq[any] {
	return func(yield func(any) bool) {
		for i := 0; i+1 < len(m.pairs); i += 2 {
			k := projectKey(m.pairs[i])
			if m.index[k] != i+1 {
				continue
			}
			if !yield(valueOf(m.pairs[i])) {
				return
			}
		}
	}
}
