package etf

import (
	"reflect"

	"github.com/creachadair/mds/mapset"
)

var (
	// intKinds is the set of signed integer kinds that map to
	// integer terms.
	intKinds = mapset.New(
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
	)

	// uintKinds is the set of unsigned integer kinds that map to
	// integer terms.
	uintKinds = mapset.New(
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Uintptr,
	)

	// floatKinds is the set of kinds that map to float terms.
	floatKinds = mapset.New(
		reflect.Float32,
		reflect.Float64,
	)

	// orderedKeyKinds is the set of map key kinds that the encoder
	// sorts, so that encoding a Go map is deterministic.
	orderedKeyKinds = mapset.New(
		reflect.Bool,
		reflect.String,
		reflect.Int,
		reflect.Int8,
		reflect.Int16,
		reflect.Int32,
		reflect.Int64,
		reflect.Uint,
		reflect.Uint8,
		reflect.Uint16,
		reflect.Uint32,
		reflect.Uint64,
		reflect.Uintptr,
		reflect.Float32,
		reflect.Float64,
	)
)
