// Package registry holds the default raw value of every opaque field that
// compact text export may strip. A registry is built offline by a survey of
// reference files, shipped as a versioned JSON asset and never mutated after
// it is loaded, so it is safe to share between goroutines.
package registry

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"sort"
	"sync"

	"github.com/Garik-/dse/pkg/ledger"
)

var (
	// ErrInvalid reports a registry asset that cannot be loaded.
	ErrInvalid = errors.New("invalid registry")

	defaultOnce sync.Once
	defaultReg  *Registry
)

//go:embed defaults.json
var defaultsJSON []byte

// Key identifies one field of one record type.
type Key struct {
	Record string
	Field  string
}

func (k Key) String() string { return k.Record + "." + k.Field }

// Entry is the default of one field.
type Entry struct {
	Value []byte
	// Strippable fields may be omitted from compact text when they hold Value.
	Strippable bool
}

// Registry maps (record type, field id) to a default raw value.
type Registry struct {
	version string
	entries map[Key]Entry
}

// New builds a registry from entries. The map and its values are copied.
func New(version string, entries map[Key]Entry) *Registry {
	r := &Registry{version: version, entries: make(map[Key]Entry, len(entries))}
	for k, e := range entries {
		r.entries[k] = Entry{Value: append([]byte(nil), e.Value...), Strippable: e.Strippable}
	}
	return r
}

// Default returns the registry embedded in the binary.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := Load(bytes.NewReader(defaultsJSON))
		if err != nil {
			panic(fmt.Sprintf("registry: embedded defaults: %v", err))
		}
		defaultReg = r
	})
	return defaultReg
}

type fileEntry struct {
	Record     string `json:"record"`
	Field      string `json:"field"`
	Value      string `json:"value"`
	Strippable bool   `json:"strippable"`
}

type file struct {
	Version string      `json:"version"`
	Entries []fileEntry `json:"entries"`
}

// Load reads a registry asset.
func Load(r io.Reader) (*Registry, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w - %v", ErrInvalid, err)
	}
	if f.Version == "" {
		return nil, fmt.Errorf("%w - missing version", ErrInvalid)
	}

	reg := &Registry{version: f.Version, entries: make(map[Key]Entry, len(f.Entries))}
	for _, e := range f.Entries {
		k := Key{Record: e.Record, Field: e.Field}
		if k.Record == "" || k.Field == "" {
			return nil, fmt.Errorf("%w - entry without record or field", ErrInvalid)
		}
		if _, dup := reg.entries[k]; dup {
			return nil, fmt.Errorf("%w - duplicate entry %s", ErrInvalid, k)
		}
		v, err := hex.DecodeString(e.Value)
		if err != nil || len(v) == 0 {
			return nil, fmt.Errorf("%w - %s: bad value %q", ErrInvalid, k, e.Value)
		}
		reg.entries[k] = Entry{Value: v, Strippable: e.Strippable}
	}
	return reg, nil
}

// LoadFile reads a registry asset from disk.
func LoadFile(name string) (*Registry, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Save writes the registry in the asset format, entries sorted by key.
func (r *Registry) Save(w io.Writer) error {
	f := file{Version: r.version, Entries: make([]fileEntry, 0, len(r.entries))}
	for _, k := range r.Keys() {
		e := r.entries[k]
		f.Entries = append(f.Entries, fileEntry{
			Record:     k.Record,
			Field:      k.Field,
			Value:      hex.EncodeToString(e.Value),
			Strippable: e.Strippable,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(f)
}

// Version names the survey the registry was built from.
func (r *Registry) Version() string { return r.version }

// Len is the number of entries.
func (r *Registry) Len() int { return len(r.entries) }

// Keys returns all keys sorted by record then field.
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Record != keys[j].Record {
			return keys[i].Record < keys[j].Record
		}
		return keys[i].Field < keys[j].Field
	})
	return keys
}

// Lookup returns a copy of the default raw value of record.field.
func (r *Registry) Lookup(record, field string) ([]byte, bool) {
	if r == nil {
		return nil, false
	}
	e, ok := r.entries[Key{Record: record, Field: field}]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), e.Value...), true
}

// IsStrippable reports whether record.field has a default that compact
// export may rely on.
func (r *Registry) IsStrippable(record, field string) bool {
	if r == nil {
		return false
	}
	e, ok := r.entries[Key{Record: record, Field: field}]
	return ok && e.Strippable
}

// Matches reports whether raw equals the strippable default of record.field.
func (r *Registry) Matches(record, field string, raw []byte) bool {
	if r == nil {
		return false
	}
	e, ok := r.entries[Key{Record: record, Field: field}]
	return ok && e.Strippable && bytes.Equal(e.Value, raw)
}

// Validate checks that every entry names an opaque field of one of schemas
// and has that field's size.
func (r *Registry) Validate(schemas ...*ledger.Schema) error {
	byName := make(map[string]*ledger.Schema, len(schemas))
	for _, s := range schemas {
		byName[s.Name()] = s
	}

	for _, k := range r.Keys() {
		s, ok := byName[k.Record]
		if !ok {
			return fmt.Errorf("%w - %s: unknown record type", ErrInvalid, k)
		}
		d, ok := s.Lookup(k.Field)
		if !ok {
			return fmt.Errorf("%w - %s: unknown field", ErrInvalid, k)
		}
		if d.Class != ledger.ClassOpaque {
			return fmt.Errorf("%w - %s: field is %s", ErrInvalid, k, d.Class)
		}
		if n := len(r.entries[k].Value); n != d.Size {
			return fmt.Errorf("%w - %s: value has %d bytes, field has %d", ErrInvalid, k, n, d.Size)
		}
	}
	return nil
}
