package etf

import (
	"fmt"
	"reflect"

	"github.com/creachadair/mds/stack"
	"github.com/danderson/etf/fragments"
	"github.com/danderson/etf/schema"
	"go.uber.org/zap"
)

// EncoderOptions configures an [Encoder].
type EncoderOptions struct {
	// OmitVersion leaves out the version byte that normally starts
	// the output, for embedding encoded values in a larger buffer.
	OmitVersion bool
	// Logger receives encode failures at debug level. Nil means the
	// package [Logger].
	Logger *zap.Logger
}

// An Encoder writes a sequence of values to a buffer.
//
// Compound values are written into a scratch buffer which is
// spliced into its parent, after the compound's header, once all of
// its elements are written. This lets the header carry the element
// count without knowing it up front, and keeps the output of nested
// compounds correctly ordered.
//
// Failures are sticky: after a failed Encode, the Encoder stops
// writing and returns the same error from every further Encode.
type Encoder struct {
	base    fragments.Encoder
	scratch *stack.Stack[*fragments.Encoder]
	log     *zap.Logger
	err     error
}

// NewEncoder returns an Encoder whose output starts with the version
// byte, unless opts says otherwise.
func NewEncoder(opts EncoderOptions) *Encoder {
	ret := &Encoder{
		scratch: stack.New[*fragments.Encoder](),
		log:     opts.Logger,
	}
	if ret.log == nil {
		ret.log = Logger()
	}
	if !opts.OmitVersion {
		ret.base.Version()
	}
	return ret
}

// current returns the buffer that values are currently written to.
func (e *Encoder) current() *fragments.Encoder {
	if top, ok := e.scratch.Peek(0); ok {
		return top
	}
	return &e.base
}

// compound writes a compound of the given kind with n elements. The
// elements are written by body.
func (e *Encoder) compound(kind schema.Kind, n int, body func() error) (err error) {
	e.scratch.Push(&fragments.Encoder{})
	defer func() {
		inner, _ := e.scratch.Pop()
		if err != nil {
			return
		}
		parent := e.current()
		switch kind {
		case schema.KindTuple:
			parent.TupleHeader(n)
		case schema.KindMap:
			parent.MapHeader(n)
		default:
			parent.ListHeader(n)
		}
		parent.Write(inner.Out)
		if kind != schema.KindTuple && kind != schema.KindMap && n > 0 {
			parent.EmptyList()
		}
	}()
	return body()
}

// Encode writes v to the output. See [Marshal] for how Go values map
// to terms.
//
// If Encode fails, nothing of v is written.
func (e *Encoder) Encode(v any) error {
	if e.err != nil {
		return e.err
	}
	mark := len(e.base.Out)
	if err := e.value(reflect.ValueOf(v)); err != nil {
		e.base.Out = e.base.Out[:mark]
		e.err = err
		e.log.Debug("encode failed", zap.String("type", fmt.Sprintf("%T", v)), zap.Error(err))
		return err
	}
	return nil
}

func (e *Encoder) value(v reflect.Value) error {
	if !v.IsValid() {
		return typeErr(nil, "untyped nil has no encoding")
	}
	enc, err := encoderFor(v.Type())
	if err != nil {
		return err
	}
	return enc(e, v)
}

// Err returns the Encoder's sticky error, or nil.
func (e *Encoder) Err() error {
	return e.err
}

// Bytes returns the output written so far.
func (e *Encoder) Bytes() []byte {
	return e.base.Out
}

// Marshal returns the encoding of v, preceded by the version byte.
//
// Marshal traverses v recursively, using the following
// type-dependent encodings:
//
// Nodes encode as the value they were decoded from, with map pairs
// in the order they were decoded. [Atom] values encode as atoms.
//
// Signed and unsigned integers encode as integers. Unsigned values
// greater than [math.MaxInt64] cannot be encoded, and cause a
// [*RangeError]. Floats encode as floats, bools as the atoms true and
// false.
//
// Strings encode as strings. []byte and [N]byte encode as binaries.
// Other slices and arrays encode as lists. Nil slices encode the same
// as empty slices.
//
// Structs encode as tuples of their exported fields, in declaration
// order. Embedded struct fields are encoded as if their inner
// exported fields were fields in the outer struct. A field tagged
// `etf:"-"` is skipped. A string field tagged `etf:"binary"` or
// `etf:"atom"` encodes as a binary or an atom respectively.
//
// Maps encode as maps. If the key type is a bool, integer, float or
// string type, pairs are written in key order.
//
// Pointers encode as the value pointed to. A nil pointer encodes as
// the zero value of the type pointed to. Interface values encode as
// their dynamic value.
//
// Complex, channel and function values cannot be encoded, nor can
// recursive types. Attempting to encode them causes Marshal to
// return a [TypeError].
func Marshal(v any) ([]byte, error) {
	e := NewEncoder(EncoderOptions{})
	if err := e.Encode(v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
