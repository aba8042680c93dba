package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danderson/etf/internal/cache"
)

var parsed cache.Cache[string, Schema]

var leafSpecifiers = map[byte]Schema{
	'i': Integer,
	'f': Float,
	's': String,
	'b': Binary,
	'a': Atom,
}

// Parse parses the textual form of a schema.
//
// Leaf schemas are written as a single letter: i (integer), f
// (float), s (string), b (binary) and a (atom). A tuple is written as
// its element schemas between braces, {sbif}. A list is its element
// schema between brackets, [i]. A mixed list is its element schemas
// between angle brackets, <is>. A map is a # followed by its key and
// value schemas, #i{is}. Whitespace between specifiers is ignored.
func Parse(s string) (Schema, error) {
	if ret, err := parsed.Get(s); err == nil {
		return ret, nil
	} else if !errors.Is(err, cache.ErrNotFound) {
		return Schema{}, err
	}

	ret, err := parse(s, nil)
	if err != nil {
		parsed.SetErr(s, err)
		return Schema{}, err
	}
	parsed.Set(s, ret)
	return ret, nil
}

// MustParse is like [Parse], but panics if s is invalid.
func MustParse(s string) Schema {
	ret, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return ret
}

func parse(s string, resolve func(string) (Schema, error)) (Schema, error) {
	p := parser{rest: s, resolve: resolve}
	ret, err := p.one()
	if err != nil {
		return Schema{}, fmt.Errorf("invalid schema %q: %w", s, err)
	}
	p.skipSpace()
	if p.rest != "" {
		return Schema{}, fmt.Errorf("invalid schema %q: unexpected %q after complete schema", s, p.rest)
	}
	return ret, nil
}

type parser struct {
	rest    string
	resolve func(string) (Schema, error)
}

func (p *parser) skipSpace() {
	p.rest = strings.TrimLeft(p.rest, " \t\r\n")
}

// one consumes the first complete schema from the front of the
// input.
func (p *parser) one() (Schema, error) {
	p.skipSpace()
	if p.rest == "" {
		return Schema{}, errors.New("unexpected end of schema")
	}
	c := p.rest[0]
	if ret, ok := leafSpecifiers[c]; ok {
		p.rest = p.rest[1:]
		return ret, nil
	}

	switch c {
	case '{':
		elems, err := p.seq('}')
		if err != nil {
			return Schema{}, err
		}
		return Schema{KindTuple, elems}, nil
	case '<':
		elems, err := p.seq('>')
		if err != nil {
			return Schema{}, err
		}
		return Schema{KindMixedList, elems}, nil
	case '[':
		p.rest = p.rest[1:]
		elem, err := p.one()
		if err != nil {
			return Schema{}, err
		}
		p.skipSpace()
		if !strings.HasPrefix(p.rest, "]") {
			return Schema{}, errors.New("missing closing ] in list schema")
		}
		p.rest = p.rest[1:]
		return List(elem), nil
	case '#':
		p.rest = p.rest[1:]
		key, err := p.one()
		if err != nil {
			return Schema{}, err
		}
		val, err := p.one()
		if err != nil {
			return Schema{}, err
		}
		return Map(key, val), nil
	case '$':
		name := p.rest[1:]
		if i := strings.IndexFunc(name, notNameRune); i >= 0 {
			name = name[:i]
		}
		if name == "" {
			return Schema{}, errors.New("empty schema reference")
		}
		if p.resolve == nil {
			return Schema{}, fmt.Errorf("schema reference $%s used outside of a registry", name)
		}
		p.rest = p.rest[1+len(name):]
		return p.resolve(name)
	case '}', '>', ']':
		return Schema{}, fmt.Errorf("unexpected closing %q", c)
	default:
		return Schema{}, fmt.Errorf("unknown schema specifier %q", c)
	}
}

// seq consumes a sequence of schemas up to and including the closing
// delimiter.
func (p *parser) seq(closing byte) ([]Schema, error) {
	p.rest = p.rest[1:]
	var ret []Schema
	for {
		p.skipSpace()
		if p.rest == "" {
			return nil, fmt.Errorf("missing closing %q", closing)
		}
		if p.rest[0] == closing {
			p.rest = p.rest[1:]
			return ret, nil
		}
		elem, err := p.one()
		if err != nil {
			return nil, err
		}
		ret = append(ret, elem)
	}
}

func notNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	case r == '_' || r == '-' || r == '.':
		return false
	}
	return true
}
