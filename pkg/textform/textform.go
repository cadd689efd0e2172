// Package textform converts containers to and from an editable XML document.
//
// Every record becomes an element whose children are its fields, named by
// field id. Known fields hold their value, opaque fields hold a raw:HEX
// marker. In Compact mode derived fields are left out, as are opaque fields
// still equal to their registry default; import fills both back in.
package textform

import (
	"encoding/xml"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Mode selects how much of the model is written out.
type Mode int

const (
	Full Mode = iota + 1
	Compact
)

func (m Mode) String() string {
	switch m {
	case Full:
		return "full"
	case Compact:
		return "compact"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseMode accepts "full" or "compact".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "full":
		return Full, nil
	case "compact":
		return Compact, nil
	}
	return 0, fmt.Errorf("%w - unknown mode %q", ErrSyntax, s)
}

var (
	// ErrSchemaMismatch is matched by SchemaMismatchError.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrMissingField reports a field the text omits and nothing can supply.
	ErrMissingField = errors.New("missing field")
	// ErrSyntax reports a malformed document or value.
	ErrSyntax = errors.New("invalid text")
)

// SchemaMismatchError names an element the schema has no place for.
type SchemaMismatchError struct {
	Record string
	Field  string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s has no field or element %q", e.Record, e.Field)
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }

var textLog = zap.NewNop()

// EnableDebugLogging routes export and import diagnostics to l.
func EnableDebugLogging(l *zap.Logger) {
	textLog = l
}

const rawPrefix = "raw:"

// node is one element of the document.
type node struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Nodes   []*node    `xml:",any"`
}

func newNode(name string) *node {
	return &node{XMLName: xml.Name{Local: name}}
}

func (n *node) name() string { return n.XMLName.Local }

func (n *node) add(child *node) *node {
	n.Nodes = append(n.Nodes, child)
	return child
}

func (n *node) setAttr(name, value string) {
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}
