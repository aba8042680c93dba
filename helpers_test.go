package etf

import (
	"encoding/binary"
	"math"
	"slices"
	"testing"

	"github.com/danderson/etf/schema"
	"github.com/kr/pretty"
)

// Simple is a struct with simple fields.
type Simple struct {
	A int16
	B bool
}

// Nested is a struct with a struct field.
type Nested struct {
	A byte
	B Simple
}

// Embedded is a struct that embeds another struct by value.
type Embedded struct {
	Simple
	C byte
}

// EmbeddedShadow is a struct that embeds another struct by value,
// with one of the embedded fields shadowed by an outer field.
type EmbeddedShadow struct {
	Simple
	B byte
}

// Embedded_P is a struct that embeds another struct by pointer.
type Embedded_P struct {
	*Simple
	C byte
}

// Arrays is a struct with various degrees of complicated lists
// inside.
type Arrays struct {
	A []string
	B []Simple
	C [][]Nested
}

// Tagged is a struct whose fields use etf struct tags.
type Tagged struct {
	Name   string `etf:"atom"`
	Data   string `etf:"binary"`
	Hidden int    `etf:"-"`
	Count  uint32
	hidden int
}

// myByte is a named byte type.
type myByte byte

// Tree is a self-referential struct, which cannot be encoded.
type Tree struct {
	Left  *Tree
	Right *Tree
}

// BadTag is a struct with an invalid struct tag.
type BadTag struct {
	A int `etf:"atom"`
}

// term returns the version byte followed by bs.
func term(bs ...byte) []byte {
	return append([]byte{131}, bs...)
}

// cat concatenates encoded fragments.
func cat(parts ...[]byte) []byte {
	return slices.Concat(parts...)
}

// f64 returns the NEW_FLOAT encoding of f.
func f64(f float64) []byte {
	return binary.BigEndian.AppendUint64([]byte{'F'}, math.Float64bits(f))
}

// str returns the STRING encoding of s.
func str(s string) []byte {
	return append([]byte{'k', 0, byte(len(s))}, s...)
}

// bin returns the BINARY encoding of s.
func bin(s string) []byte {
	return append([]byte{'m', 0, 0, 0, byte(len(s))}, s...)
}

// atom returns the SMALL_ATOM_UTF8 encoding of s.
func atom(s string) []byte {
	return append([]byte{'w', byte(len(s))}, s...)
}

// i32 returns the INTEGER encoding of v.
func i32(v int32) []byte {
	return binary.BigEndian.AppendUint32([]byte{'b'}, uint32(v))
}

// parse decodes buf against the schema text sch in a fresh session,
// and fails the test if decoding fails.
func parse(t *testing.T, buf []byte, sch string) Node {
	t.Helper()
	s := NewSession(buf, SessionOptions{})
	n := s.Parse(schema.MustParse(sch))
	if !s.IsValid() {
		t.Fatalf("decoding %s failed: %v\n  raw: % x\n  partial: %# v", sch, s.Err(), buf, pretty.Formatter(n))
	}
	if s.Remaining() != 0 {
		t.Fatalf("decoding %s left %d bytes unconsumed\n  raw: % x", sch, s.Remaining(), buf)
	}
	return n
}
