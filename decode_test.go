package etf

import (
	"errors"
	"slices"
	"testing"

	"github.com/creachadair/mds/mtest"
	"github.com/danderson/etf/fragments"
	"github.com/danderson/etf/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/kr/pretty"
)

func TestParseInteger(t *testing.T) {
	s := NewSession(term('a', 101), SessionOptions{})
	n := s.Parse(schema.Integer)
	if !s.IsValid() {
		t.Fatalf("Parse failed: %v", s.Err())
	}
	if got, want := n.(*Integer).Value, int64(101); got != want {
		t.Errorf("got %d, want %d", got, want)
	}
	if got := s.Offset(); got != 3 {
		t.Errorf("Offset() = %d, want 3", got)
	}
	if got := s.Version(); got != 131 {
		t.Errorf("Version() = %d, want 131", got)
	}
}

func TestParseTuple(t *testing.T) {
	buf := term(cat(
		[]byte{'h', 4},
		str("v1string"),
		bin("v2binary"),
		[]byte{'a', 222},
		f64(1.23))...)
	tup := parse(t, buf, "{sbif}").(*Tuple)

	if got := tup.Len(); got != 4 {
		t.Fatalf("Len() = %d, want 4", got)
	}
	if got := tup.Str(0); got != "v1string" {
		t.Errorf("Str(0) = %q, want v1string", got)
	}
	if got := tup.Bytes(1); string(got) != "v2binary" {
		t.Errorf("Bytes(1) = %q, want v2binary", got)
	}
	if got := tup.Int(2); got != 222 {
		t.Errorf("Int(2) = %d, want 222", got)
	}
	if got := tup.Float(3); got != 1.23 {
		t.Errorf("Float(3) = %v, want 1.23", got)
	}
}

func TestParseListOfTuples(t *testing.T) {
	tests := []struct {
		name string
		sch  string
		key  func(string) []byte
	}{
		{"string keys", "[{si}]", str},
		{"atom keys", "[{ai}]", atom},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := term(cat(
				[]byte{'l', 0, 0, 0, 2},
				[]byte{'h', 2}, tc.key("j1"), []byte{'a', 1},
				[]byte{'h', 2}, tc.key("j2"), []byte{'a', 2},
				[]byte{'j'})...)
			l := parse(t, buf, tc.sch).(*List)

			type pair struct {
				K string
				V int64
			}
			var got []pair
			for _, n := range l.All() {
				tup := n.(*Tuple)
				got = append(got, pair{Get[string](tup, 0), tup.Int(1)})
			}
			want := []pair{{"j1", 1}, {"j2", 2}}
			if diff := cmp.Diff(got, want); diff != "" {
				t.Errorf("wrong list contents (-got+want):\n%s", diff)
			}
		})
	}
}

func TestParseMap(t *testing.T) {
	buf := term(cat(
		[]byte{'t', 0, 0, 0, 2},
		i32(1000), []byte{'h', 2}, i32(1000), str("AAAA"),
		i32(2000), []byte{'h', 2}, i32(2000), str("BBBB"))...)
	m := parse(t, buf, "#i{is}").(*Map)

	if got := m.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	v, ok := m.Lookup(1000)
	if !ok {
		t.Fatal("Lookup(1000) not found")
	}
	if got := v.(*Tuple).Str(1); got != "AAAA" {
		t.Errorf("Lookup(1000).Str(1) = %q, want AAAA", got)
	}
	if tup, ok := LookupAs[*Tuple](m, uint16(2000)); !ok || tup.Int(0) != 2000 {
		t.Errorf("LookupAs(2000) = %# v, %v", pretty.Formatter(tup), ok)
	}
	if _, ok := m.Lookup(3000); ok {
		t.Error("Lookup(3000) found a value")
	}
}

func TestParseTruncated(t *testing.T) {
	s := NewSession(term('b', 0, 0), SessionOptions{})
	s.Parse(schema.Integer)
	if s.IsValid() {
		t.Fatal("session valid after truncated integer")
	}
	if !errors.Is(s.Err(), fragments.ErrShortBuffer) {
		t.Errorf("Err() = %v, want ErrShortBuffer", s.Err())
	}
	var de *DecodeError
	if !errors.As(s.Err(), &de) {
		t.Fatalf("Err() is %T, want *DecodeError", s.Err())
	}
	if de.Offset != 1 || !de.Schema.Equal(schema.Integer) {
		t.Errorf("DecodeError at %d for %s, want offset 1 for i", de.Offset, de.Schema)
	}
}

func TestSessionSticky(t *testing.T) {
	buf := term(cat(
		[]byte{'a', 1},
		str("oops"),
		[]byte{'a', 3})...)
	s := NewSession(buf, SessionOptions{})

	if n := s.Parse(schema.Integer); n.(*Integer).Value != 1 {
		t.Fatalf("first Parse = %# v, want 1", pretty.Formatter(n))
	}
	s.Parse(schema.Integer)
	if s.IsValid() {
		t.Fatal("session valid after decoding string as integer")
	}
	var te *fragments.TagError
	if !errors.As(s.Err(), &te) || te.Got != fragments.TagString {
		t.Fatalf("Err() = %v, want tag error for STRING", s.Err())
	}
	first := s.Err()
	off := s.Offset()

	// The last value is a perfectly good integer, but the session
	// is already invalid.
	n := s.Parse(schema.Integer)
	if n.(*Integer).Value != 0 {
		t.Errorf("Parse on invalid session returned %# v, want empty node", pretty.Formatter(n))
	}
	if s.Offset() != off {
		t.Errorf("Parse on invalid session moved the cursor from %d to %d", off, s.Offset())
	}
	if s.Err() != first {
		t.Errorf("Err() changed from %v to %v", first, s.Err())
	}
	if got := len(s.Roots()); got != 2 {
		t.Errorf("len(Roots()) = %d, want 2", got)
	}

	// Compound parses on an invalid session are also empty.
	l := s.Parse(schema.List(schema.Integer)).(*List)
	if l.Len() != 0 || l.Arity() != 0 {
		t.Errorf("Parse on invalid session returned non-empty list")
	}
}

func TestSessionBadVersion(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"wrong version", []byte{130, 'a', 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(tc.buf, SessionOptions{})
			if s.IsValid() {
				t.Fatal("session with bad version is valid")
			}
			n := s.Parse(schema.Integer)
			if n.(*Integer).Value != 0 || s.Offset() != 0 {
				t.Errorf("Parse on bad version decoded input")
			}
			if len(s.Roots()) != 0 {
				t.Errorf("Roots() = %v, want none", s.Roots())
			}
		})
	}
}

func TestPartialTree(t *testing.T) {
	buf := term(cat(
		[]byte{'h', 3, 'a', 5},
		str("nope"),
		[]byte{'a', 7})...)
	s := NewSession(buf, SessionOptions{})
	tup := s.Parse(schema.MustParse("{iii}")).(*Tuple)
	if s.IsValid() {
		t.Fatal("session valid after bad tuple element")
	}
	// The failed child is kept, decoding stops there.
	if got := tup.Len(); got != 2 {
		t.Fatalf("partial tuple has %d children, want 2", got)
	}
	if got := tup.Int(0); got != 5 {
		t.Errorf("Int(0) = %d, want 5", got)
	}
	var de *DecodeError
	if !errors.As(s.Err(), &de) || de.Offset != 5 || !de.Schema.Equal(schema.Integer) {
		t.Errorf("Err() = %v, want failure of i at offset 5", s.Err())
	}
}

func TestArity(t *testing.T) {
	tests := []struct {
		name      string
		buf       []byte
		sch       string
		arity     int
		len       int
		remaining int
	}{
		{"header longer", term('h', 3, 'a', 1, 'a', 2, 'a', 3), "{ii}", 3, 2, 2},
		{"header shorter", term('h', 1, 'a', 1, 'a', 2), "{ii}", 1, 2, 0},
		{"header matches", term('h', 2, 'a', 1, 'a', 2), "{ii}", 2, 2, 0},
		{"mixed list", term('l', 0, 0, 0, 2, 'a', 1, 'k', 0, 1, 'x', 'j'), "<is>", 2, 2, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession(tc.buf, SessionOptions{})
			n := s.Parse(schema.MustParse(tc.sch))
			if !s.IsValid() {
				t.Fatalf("lenient Parse failed: %v", s.Err())
			}
			c := n.(interface {
				Arity() int
				Len() int
			})
			if c.Arity() != tc.arity || c.Len() != tc.len {
				t.Errorf("Arity()=%d Len()=%d, want %d and %d", c.Arity(), c.Len(), tc.arity, tc.len)
			}
			if s.Remaining() != tc.remaining {
				t.Errorf("Remaining() = %d, want %d", s.Remaining(), tc.remaining)
			}

			strict := NewSession(tc.buf, SessionOptions{StrictArity: true})
			strict.Parse(schema.MustParse(tc.sch))
			var ae *ArityError
			gotErr := errors.As(strict.Err(), &ae)
			if wantErr := tc.arity != tc.len; gotErr != wantErr {
				t.Fatalf("strict Parse err = %v, want ArityError: %v", strict.Err(), wantErr)
			}
			if gotErr && (ae.Got != tc.arity || ae.Want != tc.len) {
				t.Errorf("ArityError = %+v, want Got=%d Want=%d", ae, tc.arity, tc.len)
			}
		})
	}
}

func TestMapOverwrite(t *testing.T) {
	buf := term(
		't', 0, 0, 0, 3,
		'a', 1, 'a', 10,
		'a', 1, 'a', 20,
		'a', 2, 'a', 30)
	m := parse(t, buf, "#ii").(*Map)

	if got := m.Arity(); got != 3 {
		t.Errorf("Arity() = %d, want 3", got)
	}
	if got := m.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if v, _ := LookupAs[int64](m, 1); v != 20 {
		t.Errorf("Lookup(1) = %d, want 20", v)
	}
	if got, want := slices.Collect(m.Keys()), []any{int64(1), int64(2)}; !cmp.Equal(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
	var pairs [][2]any
	for k, v := range m.All() {
		pairs = append(pairs, [2]any{k, v})
	}
	want := [][2]any{{int64(1), int64(10)}, {int64(1), int64(20)}, {int64(2), int64(30)}}
	if diff := cmp.Diff(pairs, want); diff != "" {
		t.Errorf("All() wrong (-got+want):\n%s", diff)
	}
}

func TestMapKeyProjection(t *testing.T) {
	buf := term(cat(
		[]byte{'t', 0, 0, 0, 2},
		bin("k1"), []byte{'a', 1},
		bin("k2"), []byte{'a', 2})...)
	m := parse(t, buf, "#bi").(*Map)
	if v, ok := LookupAs[int64](m, "k1"); !ok || v != 1 {
		t.Errorf(`Lookup("k1") = %d, %v`, v, ok)
	}
	if v, ok := LookupAs[int64](m, []byte("k2")); !ok || v != 2 {
		t.Errorf(`Lookup([]byte("k2")) = %d, %v`, v, ok)
	}
	if v, ok := LookupAs[int64](m, &Binary{Value: []byte("k2")}); !ok || v != 2 {
		t.Errorf(`Lookup(&Binary{"k2"}) = %d, %v`, v, ok)
	}

	abuf := term(cat(
		[]byte{'t', 0, 0, 0, 1},
		atom("ok"), str("yes"))...)
	am := parse(t, abuf, "#as").(*Map)
	if v, ok := LookupAs[string](am, Atom{"ok"}); !ok || v != "yes" {
		t.Errorf(`Lookup(Atom{"ok"}) = %q, %v`, v, ok)
	}
}

func TestEmptyValues(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		sch  string
	}{
		{"empty list", term('j'), "[i]"},
		{"empty mixed list", term('j'), "<>"},
		{"empty tuple", term('h', 0), "{}"},
		{"empty map", term('t', 0, 0, 0, 0), "#ii"},
		{"empty string", term('j'), "s"},
		{"empty binary", term('m', 0, 0, 0, 0), "b"},
		{"empty string ext", term('k', 0, 0), "s"},
		{"empty list ext", term('l', 0, 0, 0, 0, 'j'), "[i]"},
		{"empty mixed list ext", term('l', 0, 0, 0, 0, 'j'), "<>"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n := parse(t, tc.buf, tc.sch)
			switch n := n.(type) {
			case *List:
				if n.Len() != 0 || n.Arity() != 0 {
					t.Errorf("list not empty")
				}
			case *MixedList:
				if n.Len() != 0 {
					t.Errorf("mixed list not empty")
				}
			case *Tuple:
				if n.Len() != 0 {
					t.Errorf("tuple not empty")
				}
			case *Map:
				if n.Len() != 0 || n.Arity() != 0 {
					t.Errorf("map not empty")
				}
			case *String:
				if n.Value != "" {
					t.Errorf("string = %q, want empty", n.Value)
				}
			case *Binary:
				if len(n.Value) != 0 {
					t.Errorf("binary = %q, want empty", n.Value)
				}
			default:
				t.Fatalf("unexpected node %T", n)
			}
		})
	}
}

func TestEmptyListExtInTuple(t *testing.T) {
	// A LIST_EXT of arity zero still has a NIL tail, which must be
	// consumed before the next element.
	buf := term(
		'h', 2,
		'l', 0, 0, 0, 0, 'j',
		'a', 7)
	tup := parse(t, buf, "{[i]i}").(*Tuple)
	if got := tup.List(0).Len(); got != 0 {
		t.Errorf("List(0).Len() = %d, want 0", got)
	}
	if got := tup.Int(1); got != 7 {
		t.Errorf("Int(1) = %d, want 7", got)
	}
}

func TestDepthLimit(t *testing.T) {
	buf := term(
		'l', 0, 0, 0, 1,
		'l', 0, 0, 0, 1,
		'l', 0, 0, 0, 1,
		'a', 1,
		'j', 'j', 'j')
	sch := schema.MustParse("[[[i]]]")

	s := NewSession(buf, SessionOptions{MaxDepth: 3})
	l := s.Parse(sch).(*List)
	if !s.IsValid() {
		t.Fatalf("Parse at MaxDepth 3 failed: %v", s.Err())
	}
	if got := l.List(0).List(0).Int(0); got != 1 {
		t.Errorf("innermost value = %d, want 1", got)
	}

	s = NewSession(buf, SessionOptions{MaxDepth: 2})
	s.Parse(sch)
	if !errors.Is(s.Err(), ErrTooDeep) {
		t.Errorf("Parse at MaxDepth 2 = %v, want ErrTooDeep", s.Err())
	}
}

func TestHugeArity(t *testing.T) {
	// A header claiming billions of elements must fail cleanly
	// rather than preallocating.
	s := NewSession(term('l', 0xff, 0xff, 0xff, 0xff, 'a', 1), SessionOptions{})
	s.Parse(schema.List(schema.Integer))
	if !errors.Is(s.Err(), fragments.ErrShortBuffer) {
		t.Errorf("Err() = %v, want ErrShortBuffer", s.Err())
	}
}

func TestAccessorPanics(t *testing.T) {
	buf := term(cat(
		[]byte{'h', 2},
		str("x"),
		[]byte{'l', 0, 0, 0, 1, 'a', 1, 'j'})...)
	tup := parse(t, buf, "{s[i]}").(*Tuple)

	mtest.MustPanic(t, func() { tup.Int(0) })
	mtest.MustPanic(t, func() { tup.Map(1) })
	mtest.MustPanic(t, func() { tup.Str(2) })
	mtest.MustPanic(t, func() { Get[int64](tup, 0) })

	l := tup.List(1)
	mtest.MustPanic(t, func() { l.Str(0) })
	mtest.MustPanic(t, func() {
		for range Elems[string](l) {
		}
	})
}

func TestElemsAndGet(t *testing.T) {
	buf := term(cat(
		[]byte{'l', 0, 0, 0, 3, 'a', 1, 'a', 2, 'a', 3, 'j'})...)
	l := parse(t, buf, "[i]").(*List)

	if got := slices.Collect(Elems[int64](l)); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("Elems() = %v, want [1 2 3]", got)
	}
	// Restartable, and stops early.
	for v := range Elems[int64](l) {
		if v != 1 {
			t.Errorf("first element = %d, want 1", v)
		}
		break
	}
	if got := Get[int64](l, 2); got != 3 {
		t.Errorf("Get(2) = %d, want 3", got)
	}

	mbuf := term(cat(
		[]byte{'l', 0, 0, 0, 2},
		[]byte{'h', 1, 'a', 1},
		atom("x"),
		[]byte{'j'})...)
	ml := parse(t, mbuf, "<{i}a>").(*MixedList)
	if got := Get[*Tuple](ml, 0).Int(0); got != 1 {
		t.Errorf("Get[*Tuple](0).Int(0) = %d, want 1", got)
	}
	if got := ml.Atom(1); got != "x" {
		t.Errorf("Atom(1) = %q, want x", got)
	}
}

func TestParseAs(t *testing.T) {
	s := NewSession(term(cat(str("hi"), []byte{'h', 1, 'a', 4})...), SessionOptions{})
	got, err := ParseAs[string](s, schema.String)
	if err != nil || got != "hi" {
		t.Fatalf("ParseAs[string] = %q, %v", got, err)
	}
	tup, err := ParseAs[*Tuple](s, schema.MustParse("{i}"))
	if err != nil || tup.Int(0) != 4 {
		t.Fatalf("ParseAs[*Tuple] = %v, %v", tup, err)
	}

	s = NewSession(term('a', 1), SessionOptions{})
	if _, err := ParseAs[string](s, schema.Integer); err == nil {
		t.Error("ParseAs[string] of integer schema succeeded")
	}
}
