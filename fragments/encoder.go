package fragments

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// ErrAtomLength is returned when encoding an atom whose name is
// longer than the runtime accepts.
var ErrAtomLength = errors.New("atom name too long")

// An Encoder provides utilities to write external term format values
// to a byte slice.
//
// Methods always pick the most compact encoding available for the
// given value, matching what the Erlang runtime itself produces.
type Encoder struct {
	// Out is the encoded output.
	Out []byte
}

// Write writes bs as-is to the output. It is the caller's
// responsibility to ensure bs holds whole encoded values.
func (e *Encoder) Write(bs []byte) {
	e.Out = append(e.Out, bs...)
}

// Version writes the format version byte.
func (e *Encoder) Version() {
	e.Out = append(e.Out, Version)
}

func (e *Encoder) tag(t Tag) {
	e.Out = append(e.Out, byte(t))
}

// Integer writes an integer.
func (e *Encoder) Integer(v int64) {
	switch {
	case v >= 0 && v <= maxSmallInteger:
		e.tag(TagSmallInteger)
		e.Out = append(e.Out, byte(v))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		e.tag(TagInteger)
		e.Out = binary.BigEndian.AppendUint32(e.Out, uint32(int32(v)))
	default:
		sign, mag := byte(0), uint64(v)
		if v < 0 {
			sign, mag = 1, uint64(-v)
		}
		var digits [8]byte
		n := 0
		for ; mag > 0; n++ {
			digits[n] = byte(mag)
			mag >>= 8
		}
		e.tag(TagSmallBig)
		e.Out = append(e.Out, byte(n), sign)
		e.Out = append(e.Out, digits[:n]...)
	}
}

// Float writes a float.
func (e *Encoder) Float(f float64) {
	e.tag(TagNewFloat)
	e.Out = binary.BigEndian.AppendUint64(e.Out, math.Float64bits(f))
}

// String writes a byte string. The empty string is written as the
// empty list, and strings too long for STRING_EXT are written as a
// list of small integers.
func (e *Encoder) String(s string) {
	switch {
	case len(s) == 0:
		e.EmptyList()
	case len(s) <= maxStringExt:
		e.tag(TagString)
		e.Out = binary.BigEndian.AppendUint16(e.Out, uint16(len(s)))
		e.Out = append(e.Out, s...)
	default:
		e.ListHeader(len(s))
		for i := 0; i < len(s); i++ {
			e.tag(TagSmallInteger)
			e.Out = append(e.Out, s[i])
		}
		e.EmptyList()
	}
}

// Binary writes a binary.
func (e *Encoder) Binary(bs []byte) {
	e.tag(TagBinary)
	e.Out = binary.BigEndian.AppendUint32(e.Out, uint32(len(bs)))
	e.Out = append(e.Out, bs...)
}

// Atom writes an atom with the given UTF-8 name.
func (e *Encoder) Atom(name string) error {
	if !utf8.ValidString(name) {
		return fmt.Errorf("atom name %q is not valid UTF-8", name)
	}
	if n := utf8.RuneCountInString(name); n > maxAtomChars {
		return fmt.Errorf("%w: %d characters, max %d", ErrAtomLength, n, maxAtomChars)
	}
	if len(name) <= math.MaxUint8 {
		e.tag(TagSmallAtomUTF8)
		e.Out = append(e.Out, byte(len(name)))
	} else {
		e.tag(TagAtomUTF8)
		e.Out = binary.BigEndian.AppendUint16(e.Out, uint16(len(name)))
	}
	e.Out = append(e.Out, name...)
	return nil
}

// TupleHeader writes the header of a tuple with n elements. The n
// elements must be written next.
func (e *Encoder) TupleHeader(n int) {
	if n <= math.MaxUint8 {
		e.tag(TagSmallTuple)
		e.Out = append(e.Out, byte(n))
		return
	}
	e.tag(TagLargeTuple)
	e.Out = binary.BigEndian.AppendUint32(e.Out, uint32(n))
}

// ListHeader writes the header of a list with n elements. A list of
// zero elements is written as the empty list, which is a complete
// value. For n > 0, the n elements and then the list's terminating
// [Encoder.EmptyList] must be written next.
func (e *Encoder) ListHeader(n int) {
	if n == 0 {
		e.EmptyList()
		return
	}
	e.tag(TagList)
	e.Out = binary.BigEndian.AppendUint32(e.Out, uint32(n))
}

// EmptyList writes the empty list.
func (e *Encoder) EmptyList() {
	e.tag(TagNil)
}

// MapHeader writes the header of a map with n key/value pairs. The
// pairs must be written next, each key followed by its value.
func (e *Encoder) MapHeader(n int) {
	e.tag(TagMap)
	e.Out = binary.BigEndian.AppendUint32(e.Out, uint32(n))
}
