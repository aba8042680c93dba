package etf

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/danderson/etf/internal/cache"
)

// structField is the information about a struct field that needs to
// be encoded or decoded.
type structField struct {
	Name  string
	Index [][]int
	Type  reflect.Type

	// Binary is whether a string field is exchanged as a binary.
	Binary bool
	// Atom is whether a string field is exchanged as an atom.
	Atom bool
}

// GetWithZero loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithZero returns a non-settable zero value of the field.
func (f *structField) GetWithZero(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				return reflect.Zero(f.Type)
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

// GetWithAlloc loads the struct field from structVal. If loading
// requires traversing a nil pointer into an embedded struct,
// GetWithAlloc allocates zero values appropriately. The returned
// [reflect.Value] is settable.
func (f *structField) GetWithAlloc(structVal reflect.Value) reflect.Value {
	v := structVal
	for i, hop := range f.Index {
		if i > 0 {
			if v.IsNil() {
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.FieldByIndex(hop)
	}
	return v
}

func (f *structField) String() string {
	var opts []string
	if f.Binary {
		opts = append(opts, "binary")
	}
	if f.Atom {
		opts = append(opts, "atom")
	}
	ret := fmt.Sprintf("%s: %s at %v", f.Name, f.Type, f.Index)
	if len(opts) > 0 {
		ret += " (" + strings.Join(opts, ",") + ")"
	}
	return ret
}

// structInfo is the information about a struct relevant to encoding
// and decoding. A struct is exchanged as a tuple of its fields.
type structInfo struct {
	// Name is the struct's name, for use in diagnostics.
	Name string
	// Type is the struct's type.
	Type reflect.Type

	// StructFields is the information about each struct field that
	// is a tuple element, in tuple order.
	StructFields []*structField
}

func (s *structInfo) String() string {
	var ret strings.Builder
	fmt.Fprintf(&ret, "%s: struct, fields:\n", s.Name)
	for _, f := range s.StructFields {
		ret.WriteString(f.String())
		ret.WriteByte('\n')
	}
	return ret.String()
}

var structCache cache.Cache[reflect.Type, *structInfo]

// getStructInfo returns the structInfo for t.
//
// getStructInfo returns an error if t is not a struct, or if a
// struct tag is malformed or doesn't fit its field.
func getStructInfo(t reflect.Type) (*structInfo, error) {
	if ret, err := structCache.Get(t); err != cache.ErrNotFound {
		return ret, err
	}
	ret, err := deriveStructInfo(t)
	if err != nil {
		structCache.SetErr(t, err)
		return nil, err
	}
	structCache.Set(t, ret)
	return ret, nil
}

func deriveStructInfo(t reflect.Type) (*structInfo, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%s is not a struct", t)
	}

	ret := &structInfo{
		Name: t.String(),
		Type: t,
	}
	for _, field := range reflect.VisibleFields(t) {
		if !field.IsExported() {
			continue
		}
		if field.Anonymous && derefType(field.Type).Kind() == reflect.Struct {
			// Promoted fields follow in the list.
			continue
		}
		skip, binary, atom, err := parseStructTag(field)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", ret.Name, field.Name, err)
		}
		if skip {
			continue
		}
		if (binary || atom) && field.Type.Kind() != reflect.String {
			return nil, fmt.Errorf("field %s.%s: binary and atom options need a string field, not %s", ret.Name, field.Name, field.Type)
		}
		ret.StructFields = append(ret.StructFields, &structField{
			Name:   field.Name,
			Type:   field.Type,
			Index:  allocSteps(t, field.Index),
			Binary: binary,
			Atom:   atom,
		})
	}
	return ret, nil
}

// parseStructTag returns the information contained in field's "etf"
// struct tag.
func parseStructTag(field reflect.StructField) (skip, binary, atom bool, err error) {
	tag := field.Tag.Get("etf")
	if tag == "-" {
		return true, false, false, nil
	}
	if tag == "" {
		return false, false, false, nil
	}
	for _, f := range strings.Split(tag, ",") {
		switch f {
		case "binary":
			binary = true
		case "atom":
			atom = true
		default:
			return false, false, false, fmt.Errorf("unknown etf tag option %q", f)
		}
	}
	if binary && atom {
		return false, false, false, fmt.Errorf("etf tag options binary and atom are exclusive")
	}
	return false, binary, atom, nil
}
