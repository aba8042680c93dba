package etf

import (
	"errors"
	"math"
	"reflect"
	"slices"

	"github.com/creachadair/mds/mapset"
	"github.com/danderson/etf/internal/cache"
	"github.com/danderson/etf/schema"
)

// encoderFunc writes v to e.
type encoderFunc func(e *Encoder, v reflect.Value) error

var (
	nodeType = reflect.TypeFor[Node]()

	encoders cache.Cache[reflect.Type, encoderFunc]
)

func encoderFor(t reflect.Type) (encoderFunc, error) {
	return encoderForSeen(t, mapset.New[reflect.Type]())
}

// encoderForSeen returns the encoder for t. seen is the set of types
// whose encoders are being derived further up the stack, reaching
// one of them again means t is recursive.
func encoderForSeen(t reflect.Type, seen mapset.Set[reflect.Type]) (ret encoderFunc, err error) {
	if ret, err := encoders.Get(t); !errors.Is(err, cache.ErrNotFound) {
		return ret, err
	}
	if seen.Has(t) {
		return nil, typeErr(t, "recursive type")
	}
	seen.Add(t)
	defer seen.Remove(t)

	defer func(t reflect.Type) {
		if err != nil {
			encoders.SetErr(t, err)
		} else {
			encoders.Set(t, ret)
		}
	}(t)

	switch {
	case t.Kind() == reflect.Interface:
		return newInterfaceEncoder(t), nil
	case t.Implements(nodeType):
		return newNodeEncoder(t), nil
	case reflect.PointerTo(t).Implements(nodeType):
		return newNodeValueEncoder(t), nil
	}

	switch k := t.Kind(); {
	case k == reflect.Pointer:
		return newPtrEncoder(t, seen)
	case k == reflect.Bool:
		return newBoolEncoder(), nil
	case intKinds.Has(k):
		return newIntEncoder(), nil
	case uintKinds.Has(k):
		return newUintEncoder(t), nil
	case floatKinds.Has(k):
		return newFloatEncoder(), nil
	case k == reflect.String:
		return newStringEncoder(), nil
	case k == reflect.Slice, k == reflect.Array:
		return newSliceEncoder(t, seen)
	case k == reflect.Struct:
		return newStructEncoder(t, seen)
	case k == reflect.Map:
		return newMapEncoder(t, seen)
	}
	return nil, typeErr(t, "no term mapping for type")
}

func newInterfaceEncoder(t reflect.Type) encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		if v.IsNil() {
			return typeErr(t, "nil interface value has no encoding")
		}
		return e.value(v.Elem())
	}
}

func newNodeEncoder(t reflect.Type) encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		if v.IsNil() {
			return typeErr(t, "nil node has no encoding")
		}
		return v.Interface().(Node).encode(e)
	}
}

// newNodeValueEncoder returns an encoder for node types given by
// value, such as Atom{"ok"}.
func newNodeValueEncoder(t reflect.Type) encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		if v.CanAddr() {
			return v.Addr().Interface().(Node).encode(e)
		}
		p := reflect.New(t)
		p.Elem().Set(v)
		return p.Interface().(Node).encode(e)
	}
}

func newPtrEncoder(t reflect.Type, seen mapset.Set[reflect.Type]) (encoderFunc, error) {
	elemEnc, err := encoderForSeen(t.Elem(), seen)
	if err != nil {
		return nil, err
	}
	fn := func(e *Encoder, v reflect.Value) error {
		if v.IsNil() {
			return elemEnc(e, reflect.Zero(t.Elem()))
		}
		return elemEnc(e, v.Elem())
	}
	return fn, nil
}

func newBoolEncoder() encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		if v.Bool() {
			return e.current().Atom("true")
		}
		return e.current().Atom("false")
	}
}

func newIntEncoder() encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		e.current().Integer(v.Int())
		return nil
	}
}

func newUintEncoder(t reflect.Type) encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		u := v.Uint()
		if u > math.MaxInt64 {
			return &RangeError{Value: u, Type: t.String()}
		}
		e.current().Integer(int64(u))
		return nil
	}
}

func newFloatEncoder() encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		e.current().Float(v.Float())
		return nil
	}
}

func newStringEncoder() encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		e.current().String(v.String())
		return nil
	}
}

func newBinaryStringEncoder() encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		e.current().Binary([]byte(v.String()))
		return nil
	}
}

func newAtomStringEncoder() encoderFunc {
	return func(e *Encoder, v reflect.Value) error {
		return e.current().Atom(v.String())
	}
}

func newSliceEncoder(t reflect.Type, seen mapset.Set[reflect.Type]) (encoderFunc, error) {
	if t.Elem().Kind() == reflect.Uint8 {
		fn := func(e *Encoder, v reflect.Value) error {
			// Element-wise, the element type may be a named byte
			// type that reflect.Copy won't convert.
			bs := make([]byte, v.Len())
			for i := range bs {
				bs[i] = byte(v.Index(i).Uint())
			}
			e.current().Binary(bs)
			return nil
		}
		return fn, nil
	}

	elemEnc, err := encoderForSeen(t.Elem(), seen)
	if err != nil {
		return nil, err
	}
	fn := func(e *Encoder, v reflect.Value) error {
		ln := v.Len()
		return e.compound(schema.KindList, ln, func() error {
			for i := range ln {
				if err := elemEnc(e, v.Index(i)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return fn, nil
}

func newStructEncoder(t reflect.Type, seen mapset.Set[reflect.Type]) (encoderFunc, error) {
	fs, err := getStructInfo(t)
	if err != nil {
		return nil, typeErr(t, "%w", err)
	}

	var frags []encoderFunc
	for _, f := range fs.StructFields {
		fEnc, err := newStructFieldEncoder(f, seen)
		if err != nil {
			return nil, err
		}
		frags = append(frags, fEnc)
	}

	fn := func(e *Encoder, v reflect.Value) error {
		return e.compound(schema.KindTuple, len(frags), func() error {
			for _, frag := range frags {
				if err := frag(e, v); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return fn, nil
}

// Note, the returned encoder expects to be given the entire struct,
// not just the one field being encoded.
func newStructFieldEncoder(f *structField, seen mapset.Set[reflect.Type]) (encoderFunc, error) {
	var fEnc encoderFunc
	switch {
	case f.Binary:
		fEnc = newBinaryStringEncoder()
	case f.Atom:
		fEnc = newAtomStringEncoder()
	default:
		var err error
		fEnc, err = encoderForSeen(f.Type, seen)
		if err != nil {
			return nil, err
		}
	}
	fn := func(e *Encoder, v reflect.Value) error {
		return fEnc(e, f.GetWithZero(v))
	}
	return fn, nil
}

func newMapEncoder(t reflect.Type, seen mapset.Set[reflect.Type]) (encoderFunc, error) {
	kt := t.Key()
	kEnc, err := encoderForSeen(kt, seen)
	if err != nil {
		return nil, err
	}
	vEnc, err := encoderForSeen(t.Elem(), seen)
	if err != nil {
		return nil, err
	}
	var kCmp func(a, b reflect.Value) int
	if orderedKeyKinds.Has(kt.Kind()) {
		kCmp = mapKeyCmp(kt)
	}

	fn := func(e *Encoder, v reflect.Value) error {
		ks := v.MapKeys()
		if kCmp != nil {
			slices.SortFunc(ks, kCmp)
		}
		return e.compound(schema.KindMap, len(ks), func() error {
			for _, mk := range ks {
				if err := kEnc(e, mk); err != nil {
					return err
				}
				if err := vEnc(e, v.MapIndex(mk)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return fn, nil
}
