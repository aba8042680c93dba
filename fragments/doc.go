// package fragments provides low-level encoding and decoding helpers
// for the Erlang external term format.
//
// The provided encoder and decoder are very low level: each method
// reads or writes a single scalar or a single compound header, and
// knows nothing about the shape of the term being processed. It is
// the caller's responsibility to produce well-formed terms with these
// tools.
//
// You should not need to use this package at all, unless you are
// walking terms by hand. Package etf drives these primitives from a
// declared schema.
package fragments
