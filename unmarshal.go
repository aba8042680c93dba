package etf

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/etf/internal/cache"
	"github.com/danderson/etf/schema"
)

// ErrTrailingData is the error returned by [Unmarshal] when its input
// holds more than one value.
var ErrTrailingData = errors.New("trailing data after value")

var schemas cache.Cache[reflect.Type, schema.Schema]

// SchemaFor returns the schema of the terms that values of type t
// encode to, following the mapping described in [Marshal].
//
// Types whose encoding isn't fixed, such as interfaces and compound
// node types, have no schema.
func SchemaFor(t reflect.Type) (schema.Schema, error) {
	return schemaForSeen(t, mapset.New[reflect.Type]())
}

// SchemaOf returns the schema of type T, as by [SchemaFor].
func SchemaOf[T any]() (schema.Schema, error) {
	return SchemaFor(reflect.TypeFor[T]())
}

func schemaForSeen(t reflect.Type, seen mapset.Set[reflect.Type]) (ret schema.Schema, err error) {
	if ret, err := schemas.Get(t); !errors.Is(err, cache.ErrNotFound) {
		return ret, err
	}
	if seen.Has(t) {
		return schema.Schema{}, typeErr(t, "recursive type")
	}
	seen.Add(t)
	defer seen.Remove(t)

	defer func(t reflect.Type) {
		if err != nil {
			schemas.SetErr(t, err)
		} else {
			schemas.Set(t, ret)
		}
	}(t)

	switch t {
	case reflect.TypeFor[Integer]():
		return schema.Integer, nil
	case reflect.TypeFor[Float]():
		return schema.Float, nil
	case reflect.TypeFor[String]():
		return schema.String, nil
	case reflect.TypeFor[Binary]():
		return schema.Binary, nil
	case reflect.TypeFor[Atom]():
		return schema.Atom, nil
	}
	if t.Kind() == reflect.Interface || t.Implements(nodeType) || reflect.PointerTo(t).Implements(nodeType) {
		return schema.Schema{}, typeErr(t, "encoding isn't fixed by the type")
	}

	switch k := t.Kind(); {
	case k == reflect.Pointer:
		return schemaForSeen(t.Elem(), seen)
	case k == reflect.Bool:
		return schema.Atom, nil
	case intKinds.Has(k), uintKinds.Has(k):
		return schema.Integer, nil
	case floatKinds.Has(k):
		return schema.Float, nil
	case k == reflect.String:
		return schema.String, nil
	case k == reflect.Slice, k == reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return schema.Binary, nil
		}
		elem, err := schemaForSeen(t.Elem(), seen)
		if err != nil {
			return schema.Schema{}, err
		}
		return schema.List(elem), nil
	case k == reflect.Struct:
		fs, err := getStructInfo(t)
		if err != nil {
			return schema.Schema{}, typeErr(t, "%w", err)
		}
		var fields []schema.Schema
		for _, f := range fs.StructFields {
			var field schema.Schema
			switch {
			case f.Binary:
				field = schema.Binary
			case f.Atom:
				field = schema.Atom
			default:
				if field, err = schemaForSeen(f.Type, seen); err != nil {
					return schema.Schema{}, err
				}
			}
			fields = append(fields, field)
		}
		return schema.Tuple(fields...), nil
	case k == reflect.Map:
		key, err := schemaForSeen(t.Key(), seen)
		if err != nil {
			return schema.Schema{}, err
		}
		val, err := schemaForSeen(t.Elem(), seen)
		if err != nil {
			return schema.Schema{}, err
		}
		return schema.Map(key, val), nil
	}
	return schema.Schema{}, typeErr(t, "no term mapping for type")
}

// Unmarshal decodes a buffer written by [Marshal] into v, which must
// be a non-nil pointer.
//
// The buffer is decoded against the schema of v's type, as returned
// by [SchemaFor], and must hold exactly one value. Integers that
// don't fit their destination cause a [*RangeError]. Arrays must
// match the decoded list's length exactly. Maps are cleared before
// the decoded pairs are stored.
func Unmarshal(bs []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return typeErr(reflect.TypeOf(v), "Unmarshal needs a non-nil pointer")
	}
	sch, err := SchemaFor(rv.Type().Elem())
	if err != nil {
		return err
	}
	s := NewSession(bs, SessionOptions{})
	n := s.Parse(sch)
	if err := s.Err(); err != nil {
		return err
	}
	if s.Remaining() > 0 {
		return fmt.Errorf("%w: %d bytes", ErrTrailingData, s.Remaining())
	}
	return assign(rv.Elem(), n)
}

// assign stores the value of n into v. n must have been decoded
// against the schema of v's type.
func assign(v reflect.Value, n Node) error {
	t := v.Type()
	if t.Kind() == reflect.Pointer {
		if v.IsNil() {
			v.Set(reflect.New(t.Elem()))
		}
		return assign(v.Elem(), n)
	}
	if nv := reflect.ValueOf(n); nv.Type().Elem() == t {
		// Node types given by value, such as Atom.
		v.Set(nv.Elem())
		return nil
	}

	switch n := n.(type) {
	case *Integer:
		switch {
		case intKinds.Has(t.Kind()):
			if v.OverflowInt(n.Value) {
				return &RangeError{Value: n.Value, Type: t.String()}
			}
			v.SetInt(n.Value)
			return nil
		case uintKinds.Has(t.Kind()):
			if n.Value < 0 || v.OverflowUint(uint64(n.Value)) {
				return &RangeError{Value: n.Value, Type: t.String()}
			}
			v.SetUint(uint64(n.Value))
			return nil
		}
	case *Float:
		if floatKinds.Has(t.Kind()) {
			if v.OverflowFloat(n.Value) {
				return &RangeError{Value: n.Value, Type: t.String()}
			}
			v.SetFloat(n.Value)
			return nil
		}
	case *String:
		if t.Kind() == reflect.String {
			v.SetString(n.Value)
			return nil
		}
	case *Atom:
		switch t.Kind() {
		case reflect.String:
			v.SetString(n.Value)
			return nil
		case reflect.Bool:
			switch n.Value {
			case "true":
				v.SetBool(true)
				return nil
			case "false":
				v.SetBool(false)
				return nil
			}
			return typeErr(t, "atom %q is not a boolean", n.Value)
		}
	case *Binary:
		switch t.Kind() {
		case reflect.String:
			v.SetString(string(n.Value))
			return nil
		case reflect.Slice:
			bs := reflect.MakeSlice(t, len(n.Value), len(n.Value))
			setBytes(bs, n.Value)
			v.Set(bs)
			return nil
		case reflect.Array:
			if t.Len() != len(n.Value) {
				return typeErr(t, "cannot hold a binary of %d bytes", len(n.Value))
			}
			setBytes(v, n.Value)
			return nil
		}
	case *List:
		return assignList(v, n)
	case *Tuple:
		if t.Kind() == reflect.Struct {
			fs, err := getStructInfo(t)
			if err != nil {
				return typeErr(t, "%w", err)
			}
			for i, f := range fs.StructFields {
				if err := assign(f.GetWithAlloc(v), n.Node(i)); err != nil {
					return err
				}
			}
			return nil
		}
	case *Map:
		if t.Kind() == reflect.Map {
			m := reflect.MakeMapWithSize(t, n.Len())
			for i := range len(n.pairs) / 2 {
				k, val := n.Pair(i)
				mk := reflect.New(t.Key()).Elem()
				if err := assign(mk, k); err != nil {
					return err
				}
				mv := reflect.New(t.Elem()).Elem()
				if err := assign(mv, val); err != nil {
					return err
				}
				m.SetMapIndex(mk, mv)
			}
			v.Set(m)
			return nil
		}
	}
	return typeErr(t, "cannot hold a %s value", n.Schema())
}

func assignList(v reflect.Value, l *List) error {
	t := v.Type()
	switch t.Kind() {
	case reflect.Slice:
		s := reflect.MakeSlice(t, l.Len(), l.Len())
		for i := range l.Len() {
			if err := assign(s.Index(i), l.Node(i)); err != nil {
				return err
			}
		}
		v.Set(s)
		return nil
	case reflect.Array:
		if t.Len() != l.Len() {
			return typeErr(t, "cannot hold a list of %d elements", l.Len())
		}
		for i := range l.Len() {
			if err := assign(v.Index(i), l.Node(i)); err != nil {
				return err
			}
		}
		return nil
	}
	return typeErr(t, "cannot hold a %s value", l.Schema())
}

// setBytes copies bs into v, a slice or array of a byte kind of at
// least len(bs) elements.
func setBytes(v reflect.Value, bs []byte) {
	for i, b := range bs {
		v.Index(i).SetUint(uint64(b))
	}
}
