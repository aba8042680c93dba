package schema

import (
	"fmt"
	"maps"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/creachadair/mds/mapset"
)

// A Registry is a set of named schemas.
//
// Registries are usually loaded from a TOML file, with one schema
// per key of a [schemas] table:
//
//	[schemas]
//	person = "{i s [a]}"
//	people = "[$person]"
//
// Within a registry, $name refers to the schema of another entry.
type Registry map[string]Schema

type registryFile struct {
	Schemas map[string]string `toml:"schemas"`
}

// ParseRegistry parses a TOML schema registry.
func ParseRegistry(data []byte) (Registry, error) {
	var raw registryFile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parsing schema registry: %w", err)
	}
	return newRegistry(raw.Schemas)
}

// LoadRegistry reads and parses the TOML schema registry at path.
func LoadRegistry(path string) (Registry, error) {
	var raw registryFile
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return nil, fmt.Errorf("loading schema registry %s: %w", path, err)
	}
	return newRegistry(raw.Schemas)
}

func newRegistry(src map[string]string) (Registry, error) {
	ret := Registry{}
	resolving := mapset.New[string]()

	var resolve func(string) (Schema, error)
	resolve = func(name string) (Schema, error) {
		if s, ok := ret[name]; ok {
			return s, nil
		}
		text, ok := src[name]
		if !ok {
			return Schema{}, fmt.Errorf("unknown schema $%s", name)
		}
		if resolving.Has(name) {
			return Schema{}, fmt.Errorf("schema $%s refers to itself", name)
		}
		resolving.Add(name)
		defer resolving.Remove(name)

		s, err := parse(text, resolve)
		if err != nil {
			return Schema{}, err
		}
		ret[name] = s
		return s, nil
	}

	for _, name := range slices.Sorted(maps.Keys(src)) {
		if _, err := resolve(name); err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
	}
	return ret, nil
}

// Lookup returns the named schema.
func (r Registry) Lookup(name string) (Schema, error) {
	s, ok := r[name]
	if !ok {
		return Schema{}, fmt.Errorf("no schema named %q in registry", name)
	}
	return s, nil
}
