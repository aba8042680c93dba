// Package etf decodes and encodes the Erlang external term format.
//
// Decoding is driven by a declared [schema.Schema] that states the
// expected shape of the input: which positions of a tuple hold which
// kind of value, what the elements of a list are, and so on. A
// [Session] reads the version byte of a buffer, then decodes values
// out of it one by one:
//
//	s := etf.NewSession(buf, etf.SessionOptions{})
//	t := s.Parse(schema.MustParse("{sbif}")).(*etf.Tuple)
//	if !s.IsValid() {
//	    return s.Err()
//	}
//	name, size := t.Str(0), t.Int(2)
//
// Decoded values are a tree of [Node]s. Compound nodes have typed
// getters for their children, such as [Tuple.Int] or [Map.Lookup].
// Because the schema fixes the kind of every position, calling a
// getter of the wrong kind is a programming error, and panics.
//
// Session validity is sticky: after the first failed decode, the
// session stays invalid and further calls to Parse return empty nodes
// without reading input. Callers can decode a whole message and check
// [Session.IsValid] once at the end.
//
// Encoding goes the other way. An [Encoder] writes Go values, or
// decoded Node trees, to a buffer. [Marshal] and [Unmarshal] are
// one-shot forms that derive the schema from a Go type, see
// [SchemaFor].
//
// Only the subset of the format that carries plain data is
// supported: integers, floats, atoms, strings, binaries, tuples,
// lists and maps. Pids, references, ports, funs and compressed terms
// are not.
package etf
