package etf

import (
	"errors"
	"reflect"

	"github.com/danderson/etf/fragments"
	"github.com/danderson/etf/schema"
	"go.uber.org/zap"
)

// DefaultMaxDepth is the compound nesting limit of sessions that
// don't set [SessionOptions.MaxDepth].
const DefaultMaxDepth = 4096

// SessionOptions configures a [Session].
type SessionOptions struct {
	// StrictArity makes tuples and mixed lists whose wire header
	// declares a different element count than their schema fail to
	// decode with an [*ArityError].
	//
	// By default, such values decode one child per schema position
	// regardless of the header, and the header count is available
	// from Arity.
	StrictArity bool
	// MaxDepth is the maximum compound nesting depth. Zero means
	// DefaultMaxDepth.
	MaxDepth int
	// Logger receives decode failures at debug level. Nil means the
	// package [Logger].
	Logger *zap.Logger
}

// A Session decodes a sequence of values out of one buffer.
//
// The buffer starts with the format version byte, followed by any
// number of encoded values which are decoded in order by successive
// calls to [Session.Parse].
//
// Validity is sticky: once a decode fails, the session stays invalid
// and further calls to Parse do nothing.
type Session struct {
	dec     fragments.Decoder
	st      decodeState
	log     *zap.Logger
	version byte
	roots   []Node
	err     error
}

// NewSession returns a session reading buf. The version byte is read
// and checked immediately, a bad version makes the session invalid
// before any Parse.
func NewSession(buf []byte, opts SessionOptions) *Session {
	ret := &Session{
		dec: fragments.Decoder{In: buf},
		log: opts.Logger,
	}
	if ret.log == nil {
		ret.log = Logger()
	}
	ret.st = decodeState{
		dec:         &ret.dec,
		strictArity: opts.StrictArity,
		maxDepth:    opts.MaxDepth,
	}
	if ret.st.maxDepth <= 0 {
		ret.st.maxDepth = DefaultMaxDepth
	}

	v, err := ret.dec.Version()
	if err != nil {
		ret.err = &DecodeError{Offset: 0, Err: err}
		ret.log.Debug("bad version header", zap.Error(err))
		return ret
	}
	ret.version = v
	return ret
}

// Parse decodes the next value from the buffer against s, records it
// as a root of the session and returns it.
//
// If decoding fails, the session becomes invalid and the returned
// node holds whatever was decoded before the failure. If the session
// is already invalid, Parse returns an empty node for s without
// reading any input.
func (s *Session) Parse(sch schema.Schema) Node {
	n := newNode(sch)
	if s.err != nil {
		return n
	}
	s.roots = append(s.roots, n)
	s.st.depth = 0
	if err := n.decode(&s.st); err != nil {
		s.err = err
		off := s.dec.Offset()
		var de *DecodeError
		if errors.As(err, &de) {
			off = de.Offset
		}
		s.log.Debug("decode failed",
			zap.Stringer("schema", sch),
			zap.Int("offset", off),
			zap.Error(err))
	}
	return n
}

// IsValid reports whether every decode in the session so far has
// succeeded.
func (s *Session) IsValid() bool {
	return s.err == nil
}

// Err returns the first decode failure of the session, or nil.
func (s *Session) Err() error {
	return s.err
}

// Roots returns the nodes returned by Parse, in call order. Calls
// made after the session became invalid are not recorded.
func (s *Session) Roots() []Node {
	return s.roots
}

// Offset returns the number of input bytes consumed so far,
// including the version byte.
func (s *Session) Offset() int {
	return s.dec.Offset()
}

// Remaining returns the number of unconsumed input bytes.
func (s *Session) Remaining() int {
	return s.dec.Remaining()
}

// Version returns the buffer's version byte, or 0 if it could not be
// read.
func (s *Session) Version() byte {
	return s.version
}

// ParseAs decodes the next value from s against sch, and returns it
// as a T. For leaf schemas T is the plain value type (int64, float64,
// string, []byte, and string for atoms), for compound schemas it is
// the node pointer type.
//
// ParseAs returns the session's error if it is or becomes invalid.
func ParseAs[T any](s *Session, sch schema.Schema) (T, error) {
	n := s.Parse(sch)
	if err := s.Err(); err != nil {
		var zero T
		return zero, err
	}
	v, ok := valueOf(n).(T)
	if !ok {
		var zero T
		return zero, typeErr(reflect.TypeFor[T](), "cannot hold a %s value", sch)
	}
	return v, nil
}
