package fragments

import "fmt"

// Version is the leading byte of every external term format buffer.
const Version = 131

// A Tag is the one byte type marker that precedes every encoded
// value.
type Tag byte

const (
	TagNewFloat      Tag = 'F'
	TagSmallInteger  Tag = 'a'
	TagInteger       Tag = 'b'
	TagFloat         Tag = 'c'
	TagAtom          Tag = 'd'
	TagSmallTuple    Tag = 'h'
	TagLargeTuple    Tag = 'i'
	TagNil           Tag = 'j'
	TagString        Tag = 'k'
	TagList          Tag = 'l'
	TagBinary        Tag = 'm'
	TagSmallBig      Tag = 'n'
	TagLargeBig      Tag = 'o'
	TagSmallAtom     Tag = 's'
	TagMap           Tag = 't'
	TagAtomUTF8      Tag = 'v'
	TagSmallAtomUTF8 Tag = 'w'
)

var tagNames = map[Tag]string{
	TagNewFloat:      "NEW_FLOAT_EXT",
	TagSmallInteger:  "SMALL_INTEGER_EXT",
	TagInteger:       "INTEGER_EXT",
	TagFloat:         "FLOAT_EXT",
	TagAtom:          "ATOM_EXT",
	TagSmallTuple:    "SMALL_TUPLE_EXT",
	TagLargeTuple:    "LARGE_TUPLE_EXT",
	TagNil:           "NIL_EXT",
	TagString:        "STRING_EXT",
	TagList:          "LIST_EXT",
	TagBinary:        "BINARY_EXT",
	TagSmallBig:      "SMALL_BIG_EXT",
	TagLargeBig:      "LARGE_BIG_EXT",
	TagSmallAtom:     "SMALL_ATOM_EXT",
	TagMap:           "MAP_EXT",
	TagAtomUTF8:      "ATOM_UTF8_EXT",
	TagSmallAtomUTF8: "SMALL_ATOM_UTF8_EXT",
}

func (t Tag) String() string {
	if s, ok := tagNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tag(%d)", byte(t))
}

const (
	// maxSmallInteger is the largest value SMALL_INTEGER_EXT holds.
	maxSmallInteger = 255
	// maxStringExt is the longest byte string STRING_EXT holds.
	maxStringExt = 0xffff
	// maxAtomChars is the longest atom the runtime accepts, in
	// characters.
	maxAtomChars = 255
	// floatExtLen is the size of FLOAT_EXT's text body.
	floatExtLen = 31
)
