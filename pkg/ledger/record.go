package ledger

import (
	"bytes"
	"fmt"
)

// Defaults supplies raw values for opaque fields of freshly built records.
type Defaults interface {
	Lookup(record, field string) ([]byte, bool)
}

// ShortError reports a record that runs past the end of its input.
type ShortError struct {
	Schema    string
	Expected  int
	Available int
}

func (e *ShortError) Error() string {
	return fmt.Sprintf("record %s needs %d bytes, %d available", e.Schema, e.Expected, e.Available)
}

// Field is one decoded field. Raw always holds the field's bytes; Known
// fields are additionally readable through the typed accessors of Record.
type Field struct {
	ID     string
	Class  Class
	Offset int
	Raw    []byte
}

// Record is a decoded instance of a schema. Its fields cover the record's
// byte span exactly, in schema order.
type Record struct {
	Schema *Schema
	Fields []Field
}

// Decode consumes exactly s.Size() bytes from the start of b.
func Decode(s *Schema, b []byte) (*Record, error) {
	if len(b) < s.size {
		return nil, &ShortError{Schema: s.name, Expected: s.size, Available: len(b)}
	}

	r := &Record{Schema: s, Fields: make([]Field, len(s.fields))}
	for i, d := range s.fields {
		off := s.offsets[i]
		raw := make([]byte, d.Size)
		copy(raw, b[off:off+d.Size])
		r.Fields[i] = Field{ID: d.ID, Class: d.Class, Offset: off, Raw: raw}
	}
	return r, nil
}

// NewRecord builds a record from scratch. Opaque fields take their default
// from d when it has one; everything else starts zeroed.
func NewRecord(s *Schema, d Defaults) *Record {
	r := &Record{Schema: s, Fields: make([]Field, len(s.fields))}
	for i, desc := range s.fields {
		raw := make([]byte, desc.Size)
		if desc.Class == ClassOpaque && d != nil {
			if def, ok := d.Lookup(s.name, desc.ID); ok && len(def) == desc.Size {
				copy(raw, def)
			}
		}
		r.Fields[i] = Field{ID: desc.ID, Class: desc.Class, Offset: s.offsets[i], Raw: raw}
	}
	return r
}

// Size is the encoded size of the record.
func (r *Record) Size() int { return r.Schema.size }

// AppendTo appends the encoded record to dst.
func (r *Record) AppendTo(dst []byte) []byte {
	for _, f := range r.Fields {
		dst = append(dst, f.Raw...)
	}
	return dst
}

// Bytes returns the encoded record.
func (r *Record) Bytes() []byte {
	return r.AppendTo(make([]byte, 0, r.Schema.size))
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	c := &Record{Schema: r.Schema, Fields: make([]Field, len(r.Fields))}
	for i, f := range r.Fields {
		f.Raw = append([]byte(nil), f.Raw...)
		c.Fields[i] = f
	}
	return c
}

// Equal reports whether both records have the same schema and bytes.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Schema != o.Schema || len(r.Fields) != len(o.Fields) {
		return false
	}
	for i := range r.Fields {
		if !bytes.Equal(r.Fields[i].Raw, o.Fields[i].Raw) {
			return false
		}
	}
	return true
}

func (r *Record) mustIndex(id string) int {
	i, ok := r.Schema.index[id]
	if !ok {
		panic(fmt.Sprintf("ledger: %s has no field %s", r.Schema.name, id))
	}
	return i
}

// Raw returns the bytes of field id. The slice aliases the record.
func (r *Record) Raw(id string) []byte {
	return r.Fields[r.mustIndex(id)].Raw
}

// SetRaw replaces the bytes of field id.
func (r *Record) SetRaw(id string, raw []byte) error {
	i, ok := r.Schema.index[id]
	if !ok {
		return fmt.Errorf("ledger: %s has no field %s", r.Schema.name, id)
	}
	d := r.Schema.fields[i]
	if len(raw) != d.Size {
		return fmt.Errorf("%w - %s.%s takes %d bytes, got %d", ErrRange, r.Schema.name, id, d.Size, len(raw))
	}
	r.Fields[i].Raw = append([]byte(nil), raw...)
	return nil
}

// Int returns an integer field. Signed types are sign-extended.
func (r *Record) Int(id string) int64 {
	i := r.mustIndex(id)
	return r.Schema.fields[i].intValue(r.Fields[i].Raw)
}

// Uint returns an integer field as its unsigned bit pattern.
func (r *Record) Uint(id string) uint32 {
	i := r.mustIndex(id)
	d := r.Schema.fields[i]
	v := d.intValue(r.Fields[i].Raw)
	if d.signed() {
		return uint32(v) & (1<<uint(8*d.Size) - 1)
	}
	return uint32(v)
}

// Bool returns a bool field; any non-zero byte is true.
func (r *Record) Bool(id string) bool {
	return r.Fields[r.mustIndex(id)].Raw[0] != 0
}

// Name returns the text of a name field up to its terminator.
func (r *Record) Name(id string) string {
	i := r.mustIndex(id)
	return r.Schema.fields[i].decodeName(r.Fields[i].Raw)
}

// SetInt stores v in an integer field after a range check.
func (r *Record) SetInt(id string, v int64) error {
	i, ok := r.Schema.index[id]
	if !ok {
		return fmt.Errorf("ledger: %s has no field %s", r.Schema.name, id)
	}
	d := r.Schema.fields[i]
	if !d.integer() {
		return fmt.Errorf("ledger: %s.%s is not an integer field", r.Schema.name, id)
	}
	raw, err := d.encodeInt(v)
	if err != nil {
		return err
	}
	r.Fields[i].Raw = raw
	return nil
}

// SetUint stores v in an integer field after a range check.
func (r *Record) SetUint(id string, v uint32) error {
	return r.SetInt(id, int64(v))
}

// SetBool stores a bool field as 0 or 1.
func (r *Record) SetBool(id string, v bool) error {
	var b byte
	if v {
		b = 1
	}
	return r.SetRaw(id, []byte{b})
}

// SetName stores s NUL terminated and padded.
func (r *Record) SetName(id string, s string) error {
	i, ok := r.Schema.index[id]
	if !ok {
		return fmt.Errorf("ledger: %s has no field %s", r.Schema.name, id)
	}
	d := r.Schema.fields[i]
	if d.Type != Name {
		return fmt.Errorf("ledger: %s.%s is not a name field", r.Schema.name, id)
	}
	raw, err := d.encodeName(s)
	if err != nil {
		return err
	}
	r.Fields[i].Raw = raw
	return nil
}
