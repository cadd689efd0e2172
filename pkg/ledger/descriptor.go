package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Class separates fields whose meaning is understood from spans that are
// only carried along.
type Class int

const (
	ClassKnown Class = iota + 1
	ClassOpaque
)

func (c Class) String() string {
	switch c {
	case ClassKnown:
		return "known"
	case ClassOpaque:
		return "opaque"
	}
	return "class(" + strconv.Itoa(int(c)) + ")"
}

// Type is the on-disk representation of a field.
type Type int

const (
	U8 Type = iota + 1
	I8
	U16
	I16
	U32
	Bool
	Bytes
	Name
)

var (
	// ErrRange is returned when a value does not fit its field.
	ErrRange = errors.New("value out of range")
	// ErrSyntax is returned when a textual value cannot be read for its field type.
	ErrSyntax = errors.New("invalid value syntax")
)

// Descriptor describes one field of a record schema.
type Descriptor struct {
	ID    string
	Class Class
	Type  Type
	Size  int
	// Pad fills a Name field after its NUL terminator.
	Pad byte
	// Derived fields are recomputed from the rest of the file on every encode.
	Derived bool
}

func sizeOf(t Type) int {
	switch t {
	case U8, I8, Bool:
		return 1
	case U16, I16:
		return 2
	case U32:
		return 4
	}
	panic(fmt.Sprintf("ledger: type %d has no fixed size", t))
}

// Known declares a fixed-size understood field.
func Known(id string, t Type) Descriptor {
	return Descriptor{ID: id, Class: ClassKnown, Type: t, Size: sizeOf(t)}
}

// Opaque declares a fixed-size field of unknown meaning.
func Opaque(id string, t Type) Descriptor {
	return Descriptor{ID: id, Class: ClassOpaque, Type: t, Size: sizeOf(t)}
}

// OpaqueBytes declares an uninterpreted span of n bytes.
func OpaqueBytes(id string, n int) Descriptor {
	return Descriptor{ID: id, Class: ClassOpaque, Type: Bytes, Size: n}
}

// Derived declares a known field whose value is owned by the encoder
// (lengths, counts).
func Derived(id string, t Type) Descriptor {
	d := Known(id, t)
	d.Derived = true
	return d
}

// KnownName declares an n-byte NUL terminated ASCII name filled with pad.
func KnownName(id string, n int, pad byte) Descriptor {
	return Descriptor{ID: id, Class: ClassKnown, Type: Name, Size: n, Pad: pad}
}

func (d Descriptor) signed() bool {
	return d.Type == I8 || d.Type == I16
}

func (d Descriptor) integer() bool {
	switch d.Type {
	case U8, I8, U16, I16, U32:
		return true
	}
	return false
}

func (d Descriptor) bounds() (int64, int64) {
	bits := uint(8 * d.Size)
	if d.signed() {
		return -(1 << (bits - 1)), 1<<(bits-1) - 1
	}
	return 0, 1<<bits - 1
}

func (d Descriptor) intValue(raw []byte) int64 {
	var u uint64
	for i := len(raw) - 1; i >= 0; i-- {
		u = u<<8 | uint64(raw[i])
	}
	if d.signed() {
		shift := uint(64 - 8*len(raw))
		return int64(u<<shift) >> shift
	}
	return int64(u)
}

func (d Descriptor) encodeInt(v int64) ([]byte, error) {
	lo, hi := d.bounds()
	if v < lo || v > hi {
		return nil, fmt.Errorf("%w - %s: %d not in [%d, %d]", ErrRange, d.ID, v, lo, hi)
	}
	raw := make([]byte, d.Size)
	u := uint64(v)
	for i := range raw {
		raw[i] = byte(u >> (8 * uint(i)))
	}
	return raw, nil
}

func (d Descriptor) encodeName(s string) ([]byte, error) {
	if len(s) > d.Size-1 {
		return nil, fmt.Errorf("%w - %s: name %q longer than %d bytes", ErrRange, d.ID, s, d.Size-1)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7E {
			return nil, fmt.Errorf("%w - %s: name %q is not printable ASCII", ErrRange, d.ID, s)
		}
	}
	raw := make([]byte, d.Size)
	for i := range raw {
		raw[i] = d.Pad
	}
	copy(raw, s)
	raw[len(s)] = 0
	return raw, nil
}

func (d Descriptor) decodeName(raw []byte) string {
	if i := strings.IndexByte(string(raw), 0); i >= 0 {
		return string(raw[:i])
	}
	return string(raw)
}

// Format renders raw in the field's semantic form. The second result is
// false when parsing that form back would not reproduce raw exactly; callers
// must then fall back to the raw bytes.
func (d Descriptor) Format(raw []byte) (string, bool) {
	if len(raw) != d.Size {
		return "", false
	}
	switch {
	case d.integer():
		return strconv.FormatInt(d.intValue(raw), 10), true
	case d.Type == Bool:
		switch raw[0] {
		case 0:
			return "false", true
		case 1:
			return "true", true
		}
		return "", false
	case d.Type == Name:
		s := d.decodeName(raw)
		canon, err := d.encodeName(s)
		if err != nil || string(canon) != string(raw) {
			return "", false
		}
		return s, true
	case d.Type == Bytes:
		return hex.EncodeToString(raw), true
	}
	return "", false
}

// Parse converts the semantic form produced by Format back to raw bytes.
// Integers are decimal or carry a 0x prefix.
func (d Descriptor) Parse(s string) ([]byte, error) {
	switch {
	case d.integer():
		v, err := parseInt(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w - %s: %q", ErrSyntax, d.ID, s)
		}
		return d.encodeInt(v)
	case d.Type == Bool:
		switch strings.TrimSpace(s) {
		case "true", "1":
			return []byte{1}, nil
		case "false", "0":
			return []byte{0}, nil
		}
		return nil, fmt.Errorf("%w - %s: %q is not a bool", ErrSyntax, d.ID, s)
	case d.Type == Name:
		return d.encodeName(s)
	case d.Type == Bytes:
		return ParseRaw(d, s)
	}
	return nil, fmt.Errorf("%w - %s: unsupported type %d", ErrSyntax, d.ID, d.Type)
}

// ParseRaw reads a hex dump of exactly d.Size bytes.
func ParseRaw(d Descriptor, s string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w - %s: %v", ErrSyntax, d.ID, err)
	}
	if len(raw) != d.Size {
		return nil, fmt.Errorf("%w - %s: expected %d raw bytes, got %d", ErrRange, d.ID, d.Size, len(raw))
	}
	return raw, nil
}

// parseInt reads a decimal or 0x-prefixed hexadecimal integer. Leading zeros
// never select octal.
func parseInt(s string) (int64, error) {
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")

	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base, digits = 16, digits[2:]
	}
	if digits == "" || strings.HasPrefix(digits, "-") || strings.HasPrefix(digits, "+") {
		return 0, strconv.ErrSyntax
	}

	v, err := strconv.ParseInt(digits, base, 64)
	if neg {
		v = -v
	}
	return v, err
}
