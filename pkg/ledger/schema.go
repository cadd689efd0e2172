// Package ledger holds the field-level layout of every record a container
// file is made of. A schema lists the fields of a record in byte order and
// tags each one as Known or Opaque; records decoded through a schema keep the
// raw bytes of every field so that encoding them again reproduces the input.
package ledger

import "fmt"

// Schema is the static, ordered field layout of one record type.
type Schema struct {
	name    string
	fields  []Descriptor
	offsets []int
	index   map[string]int
	size    int
}

// NewSchema builds a schema. It panics on duplicate or empty field ids since
// schemas are package level tables.
func NewSchema(name string, fields ...Descriptor) *Schema {
	s := &Schema{
		name:    name,
		fields:  make([]Descriptor, len(fields)),
		offsets: make([]int, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	copy(s.fields, fields)

	for i, d := range s.fields {
		if d.ID == "" || d.Size <= 0 {
			panic(fmt.Sprintf("ledger: schema %s field %d is malformed", name, i))
		}
		if _, dup := s.index[d.ID]; dup {
			panic(fmt.Sprintf("ledger: schema %s has duplicate field %s", name, d.ID))
		}
		s.index[d.ID] = i
		s.offsets[i] = s.size
		s.size += d.Size
	}
	return s
}

// Name is the record type used as the registry key.
func (s *Schema) Name() string { return s.name }

// Size is the encoded size of a record in bytes.
func (s *Schema) Size() int { return s.size }

// Len is the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Field returns the i-th descriptor.
func (s *Schema) Field(i int) Descriptor { return s.fields[i] }

// Offset returns the byte offset of the i-th field inside the record.
func (s *Schema) Offset(i int) int { return s.offsets[i] }

// Lookup finds a descriptor by id.
func (s *Schema) Lookup(id string) (Descriptor, bool) {
	i, ok := s.index[id]
	if !ok {
		return Descriptor{}, false
	}
	return s.fields[i], true
}

// Index returns the position of id in the schema.
func (s *Schema) Index(id string) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

func (s *Schema) String() string { return s.name }
