package fragments

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// A Decoder reads external term format values from a byte slice.
//
// Every method either consumes exactly one complete scalar (or one
// compound header) and advances the cursor past it, or fails and
// leaves the cursor where it was. The cursor never moves backwards.
type Decoder struct {
	// In is the input to read. It must not be modified while the
	// Decoder is in use.
	In []byte

	// offset is the number of bytes consumed off the front of In so
	// far.
	offset int
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.offset
}

// Remaining returns the number of unconsumed input bytes.
func (d *Decoder) Remaining() int {
	return len(d.In) - d.offset
}

// peek returns n bytes starting off bytes past the cursor, without
// consuming them.
func (d *Decoder) peek(off, n int) ([]byte, error) {
	start := d.offset + off
	if n < 0 || start > len(d.In) || n > len(d.In)-start {
		return nil, ErrShortBuffer
	}
	return d.In[start : start+n], nil
}

// Tag returns the tag of the next value without consuming it.
func (d *Decoder) Tag() (Tag, error) {
	bs, err := d.peek(0, 1)
	if err != nil {
		return 0, err
	}
	return Tag(bs[0]), nil
}

func (d *Decoder) expect(want ...Tag) (Tag, error) {
	t, err := d.Tag()
	if err != nil {
		return 0, err
	}
	if !slices.Contains(want, t) {
		return 0, &TagError{Offset: d.offset, Got: t, Want: want}
	}
	return t, nil
}

// Version reads the format version byte that starts every buffer.
func (d *Decoder) Version() (byte, error) {
	bs, err := d.peek(0, 1)
	if err != nil {
		return 0, err
	}
	if bs[0] != Version {
		return 0, &VersionError{Got: bs[0]}
	}
	d.offset++
	return bs[0], nil
}

// Integer reads an integer. Bignums are accepted if their value fits
// in an int64.
func (d *Decoder) Integer() (int64, error) {
	t, err := d.expect(TagSmallInteger, TagInteger, TagSmallBig, TagLargeBig)
	if err != nil {
		return 0, err
	}
	switch t {
	case TagSmallInteger:
		bs, err := d.peek(1, 1)
		if err != nil {
			return 0, err
		}
		d.offset += 2
		return int64(bs[0]), nil
	case TagInteger:
		bs, err := d.peek(1, 4)
		if err != nil {
			return 0, err
		}
		d.offset += 5
		return int64(int32(binary.BigEndian.Uint32(bs))), nil
	case TagSmallBig:
		hdr, err := d.peek(1, 2)
		if err != nil {
			return 0, err
		}
		return d.big(3, int(hdr[0]), hdr[1])
	default:
		hdr, err := d.peek(1, 5)
		if err != nil {
			return 0, err
		}
		n := binary.BigEndian.Uint32(hdr)
		if int64(n) > int64(d.Remaining()) {
			return 0, ErrShortBuffer
		}
		return d.big(6, int(n), hdr[4])
	}
}

// big reads n little-endian magnitude bytes starting off bytes past
// the cursor.
func (d *Decoder) big(off, n int, sign byte) (int64, error) {
	digits, err := d.peek(off, n)
	if err != nil {
		return 0, err
	}
	var mag uint64
	for i := len(digits) - 1; i >= 0; i-- {
		if mag>>56 != 0 {
			return 0, ErrRange
		}
		mag = mag<<8 | uint64(digits[i])
	}
	var ret int64
	if sign == 0 {
		if mag > math.MaxInt64 {
			return 0, ErrRange
		}
		ret = int64(mag)
	} else {
		if mag > 1<<63 {
			return 0, ErrRange
		}
		ret = -int64(mag)
	}
	d.offset += off + n
	return ret, nil
}

// Float reads a float, in either the current 8-byte encoding or the
// legacy text encoding.
func (d *Decoder) Float() (float64, error) {
	t, err := d.expect(TagNewFloat, TagFloat)
	if err != nil {
		return 0, err
	}
	if t == TagNewFloat {
		bs, err := d.peek(1, 8)
		if err != nil {
			return 0, err
		}
		d.offset += 9
		return math.Float64frombits(binary.BigEndian.Uint64(bs)), nil
	}
	bs, err := d.peek(1, floatExtLen)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimRight(string(bs), "\x00"), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed %s: %w", TagFloat, err)
	}
	d.offset += 1 + floatExtLen
	return f, nil
}

// String reads a byte string. Besides STRING_EXT, the empty list is
// accepted as the empty string, and a proper list of small integers
// is accepted as the byte string it spells.
func (d *Decoder) String() (string, error) {
	t, err := d.expect(TagString, TagNil, TagList)
	if err != nil {
		return "", err
	}
	switch t {
	case TagNil:
		d.offset++
		return "", nil
	case TagString:
		hdr, err := d.peek(1, 2)
		if err != nil {
			return "", err
		}
		ln := int(binary.BigEndian.Uint16(hdr))
		body, err := d.peek(3, ln)
		if err != nil {
			return "", err
		}
		d.offset += 3 + ln
		return string(body), nil
	default:
		hdr, err := d.peek(1, 4)
		if err != nil {
			return "", err
		}
		n := binary.BigEndian.Uint32(hdr)
		if int64(n)*2+1 > int64(d.Remaining()) {
			return "", ErrShortBuffer
		}
		body, err := d.peek(5, int(n)*2+1)
		if err != nil {
			return "", err
		}
		ret := make([]byte, n)
		for i := range ret {
			if t := Tag(body[2*i]); t != TagSmallInteger {
				return "", &TagError{Offset: d.offset + 5 + 2*i, Got: t, Want: []Tag{TagSmallInteger}}
			}
			ret[i] = body[2*i+1]
		}
		if t := Tag(body[len(body)-1]); t != TagNil {
			return "", &TagError{Offset: d.offset + 5 + len(body) - 1, Got: t, Want: []Tag{TagNil}}
		}
		d.offset += 5 + len(body)
		return string(ret), nil
	}
}

// Binary reads a binary. The returned slice does not alias In.
func (d *Decoder) Binary() ([]byte, error) {
	if _, err := d.expect(TagBinary); err != nil {
		return nil, err
	}
	hdr, err := d.peek(1, 4)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(hdr)
	if int64(n) > int64(d.Remaining()) {
		return nil, ErrShortBuffer
	}
	body, err := d.peek(5, int(n))
	if err != nil {
		return nil, err
	}
	d.offset += 5 + int(n)
	return bytes.Clone(body), nil
}

// Atom reads an atom and returns its name as UTF-8.
func (d *Decoder) Atom() (string, error) {
	t, err := d.expect(TagAtom, TagAtomUTF8, TagSmallAtom, TagSmallAtomUTF8)
	if err != nil {
		return "", err
	}
	var (
		off int
		ln  int
	)
	switch t {
	case TagAtom, TagAtomUTF8:
		hdr, err := d.peek(1, 2)
		if err != nil {
			return "", err
		}
		off, ln = 3, int(binary.BigEndian.Uint16(hdr))
	default:
		hdr, err := d.peek(1, 1)
		if err != nil {
			return "", err
		}
		off, ln = 2, int(hdr[0])
	}
	body, err := d.peek(off, ln)
	if err != nil {
		return "", err
	}
	d.offset += off + ln
	if t == TagAtomUTF8 || t == TagSmallAtomUTF8 {
		return string(body), nil
	}
	return latin1(body), nil
}

func latin1(bs []byte) string {
	var b strings.Builder
	b.Grow(len(bs))
	for _, c := range bs {
		b.WriteRune(rune(c))
	}
	return b.String()
}

// TupleHeader reads a tuple header and returns the tuple's arity.
func (d *Decoder) TupleHeader() (int, error) {
	t, err := d.expect(TagSmallTuple, TagLargeTuple)
	if err != nil {
		return 0, err
	}
	if t == TagSmallTuple {
		bs, err := d.peek(1, 1)
		if err != nil {
			return 0, err
		}
		d.offset += 2
		return int(bs[0]), nil
	}
	bs, err := d.peek(1, 4)
	if err != nil {
		return 0, err
	}
	d.offset += 5
	return int(binary.BigEndian.Uint32(bs)), nil
}

// ListHeader reads a list header and returns the list's arity. The
// empty list reads as a header of arity zero with no tail.
//
// If tail is true, the header was a LIST_EXT, and after reading the
// list's elements the caller must consume the list's tail with
// [Decoder.ListTail]. This holds for LIST_EXT headers of arity zero
// too.
func (d *Decoder) ListHeader() (arity int, tail bool, err error) {
	t, err := d.expect(TagList, TagNil)
	if err != nil {
		return 0, false, err
	}
	if t == TagNil {
		d.offset++
		return 0, false, nil
	}
	bs, err := d.peek(1, 4)
	if err != nil {
		return 0, false, err
	}
	d.offset += 5
	return int(binary.BigEndian.Uint32(bs)), true, nil
}

// ListTail reads the empty list that terminates a proper list.
func (d *Decoder) ListTail() error {
	if _, err := d.expect(TagNil); err != nil {
		return err
	}
	d.offset++
	return nil
}

// MapHeader reads a map header and returns the number of key/value
// pairs in the map.
func (d *Decoder) MapHeader() (int, error) {
	if _, err := d.expect(TagMap); err != nil {
		return 0, err
	}
	bs, err := d.peek(1, 4)
	if err != nil {
		return 0, err
	}
	d.offset += 5
	return int(binary.BigEndian.Uint32(bs)), nil
}
