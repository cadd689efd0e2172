package textform

import (
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/Garik-/dse/pkg/container"
	"github.com/Garik-/dse/pkg/event"
	"github.com/Garik-/dse/pkg/ledger"
	"github.com/Garik-/dse/pkg/registry"
	"github.com/Garik-/dse/pkg/varlen"
	"go.uber.org/zap"
)

type importer struct {
	format container.Format
	reg    *registry.Registry
	log    *zap.Logger
	// derived is set when a derived field was absent from the text.
	derived bool
}

// FromText builds a container from a document written by ToText. Opaque
// fields the text leaves out are taken from reg. Derived fields are
// recomputed when the document is Compact or omits any of them; otherwise
// the values written are kept as they are.
func FromText(data []byte, reg *registry.Registry) (*container.Container, error) {
	log := textLog.Named("FromText")

	var root node
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("%w - %v", ErrSyntax, err)
	}

	f, err := container.ParseFormat(root.name())
	if err != nil {
		return nil, fmt.Errorf("%w - %v", ErrSyntax, err)
	}

	mode := Full
	if s, ok := root.attr("mode"); ok {
		if mode, err = ParseMode(s); err != nil {
			return nil, err
		}
	}
	if v, ok := root.attr("registry"); ok && mode == Compact && reg != nil && v != reg.Version() {
		log.Warn("registry version differs from export",
			zap.String("exported", v), zap.String("loaded", reg.Version()))
	}

	im := &importer{format: f, reg: reg, log: log}
	c := &container.Container{Format: f}

	for _, n := range root.Nodes {
		switch n.name() {
		case "header":
			if c.Header != nil {
				return nil, fmt.Errorf("%w - second file header", ErrSyntax)
			}
			if c.Header, err = im.record(n, f.HeaderSchema()); err != nil {
				return nil, err
			}
		case "chunk":
			ch, err := im.chunk(n)
			if err != nil {
				return nil, fmt.Errorf("chunk %d: %w", len(c.Chunks), err)
			}
			c.Chunks = append(c.Chunks, ch)
		case "trailer":
			if c.Trailer, err = hexData(n.Text); err != nil {
				return nil, fmt.Errorf("trailer: %w", err)
			}
		default:
			return nil, &SchemaMismatchError{Record: f.String(), Field: n.name()}
		}
	}
	if c.Header == nil {
		if c.Header, err = im.record(newNode("header"), f.HeaderSchema()); err != nil {
			return nil, err
		}
	}

	if mode == Compact || im.derived {
		if err := c.Refresh(); err != nil {
			return nil, err
		}
	}

	log.Debug("imported", zap.Stringer("format", f), zap.Stringer("mode", mode), zap.Int("chunks", len(c.Chunks)))
	return c, nil
}

func hexData(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w - %v", ErrSyntax, err)
	}
	if len(b) == 0 {
		return nil, nil
	}
	return b, nil
}

// value reads a field written by render.
func value(d ledger.Descriptor, s string) ([]byte, error) {
	if d.Type != ledger.Name {
		s = strings.TrimSpace(s)
	}
	if strings.HasPrefix(s, rawPrefix) {
		return ledger.ParseRaw(d, s[len(rawPrefix):])
	}
	return d.Parse(s)
}

func (im *importer) record(n *node, s *ledger.Schema) (*ledger.Record, error) {
	r := ledger.NewRecord(s, nil)
	seen := make([]bool, s.Len())

	for _, child := range n.Nodes {
		id := child.name()
		i, ok := s.Index(id)
		if !ok {
			return nil, &SchemaMismatchError{Record: s.Name(), Field: id}
		}
		if seen[i] {
			return nil, fmt.Errorf("%w - %s.%s given twice", ErrSyntax, s, id)
		}
		seen[i] = true

		raw, err := value(s.Field(i), child.Text)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", s, id, err)
		}
		if err := r.SetRaw(id, raw); err != nil {
			return nil, err
		}
	}

	for i, ok := range seen {
		if ok {
			continue
		}
		d := s.Field(i)
		switch {
		case d.Derived:
			im.derived = true
		case d.Class == ledger.ClassOpaque:
			def, ok := im.reg.Lookup(s.Name(), d.ID)
			if !ok {
				im.log.Debug("registry miss", zap.String("record", s.Name()), zap.String("field", d.ID))
				return nil, fmt.Errorf("%w - %s.%s has no registry default", ErrMissingField, s, d.ID)
			}
			if err := r.SetRaw(d.ID, def); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("%w - %s.%s", ErrMissingField, s, d.ID)
		}
	}
	return r, nil
}

// single returns the only child called name, or an empty element if there
// is none, so that every field of the record is filled in as missing.
func single(nodes []*node, name string) (*node, error) {
	var found *node
	for _, n := range nodes {
		if n.name() != name {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%w - more than one %s element", ErrSyntax, name)
		}
		found = n
	}
	if found == nil {
		return newNode(name), nil
	}
	return found, nil
}

// expectOnly rejects children other than the listed element names.
func expectOnly(tag string, nodes []*node, names ...string) error {
next:
	for _, n := range nodes {
		for _, name := range names {
			if n.name() == name {
				continue next
			}
		}
		return &SchemaMismatchError{Record: tag, Field: n.name()}
	}
	return nil
}

func (im *importer) chunk(n *node) (*container.Chunk, error) {
	s, ok := n.attr("tag")
	if !ok {
		return nil, fmt.Errorf("%w - chunk without tag", ErrSyntax)
	}
	tag, err := container.ParseTag(s)
	if err != nil {
		return nil, fmt.Errorf("%w - %v", ErrSyntax, err)
	}

	ch := &container.Chunk{Tag: tag, Payload: container.NewPayload(im.format, tag)}
	hdr, err := single(n.Nodes, "header")
	if err != nil {
		return nil, err
	}
	if ch.Header, err = im.record(hdr, im.format.ChunkSchema(tag)); err != nil {
		return nil, err
	}

	var body []*node
	for _, c := range n.Nodes {
		if c.name() != "header" {
			body = append(body, c)
		}
	}
	if err := im.payload(tag.String(), ch.Payload, body); err != nil {
		return nil, err
	}
	return ch, nil
}

func (im *importer) payload(tag string, p container.Payload, body []*node) error {
	var err error
	switch p := p.(type) {
	case *container.Song:
		if err = expectOnly(tag, body, "song"); err != nil {
			return err
		}
		p.Info, err = im.singleRecord(body, "song", container.SongSchema)
	case *container.Track:
		if err = expectOnly(tag, body, "preamble", "events"); err != nil {
			return err
		}
		if p.Preamble, err = im.singleRecord(body, "preamble", container.TrackSchema); err != nil {
			return err
		}
		p.Events, err = events(body)
	case *container.End:
		err = expectOnly(tag, body)
	case *container.WaveTable:
		if err = expectOnly(tag, body, "slot"); err != nil {
			return err
		}
		for _, slot := range body {
			var rec *ledger.Record
			if len(slot.Nodes) > 0 {
				if err = expectOnly(tag, slot.Nodes, "sample"); err != nil {
					return err
				}
				if rec, err = im.singleRecord(slot.Nodes, "sample", container.SampleSchema); err != nil {
					return err
				}
			}
			p.Slots = append(p.Slots, rec)
		}
	case *container.ProgramTable:
		if err = expectOnly(tag, body, "slot"); err != nil {
			return err
		}
		for _, slot := range body {
			var prg *container.Program
			if len(slot.Nodes) > 0 {
				if prg, err = im.program(tag, slot.Nodes); err != nil {
					return err
				}
			}
			p.Slots = append(p.Slots, prg)
		}
	case *container.KeygroupTable:
		if err = expectOnly(tag, body, "keygroup"); err != nil {
			return err
		}
		for _, g := range body {
			rec, err := im.record(g, container.KeygroupSchema)
			if err != nil {
				return err
			}
			p.Groups = append(p.Groups, rec)
		}
	case *container.SampleData:
		p.Data, err = data(tag, body)
	case *container.Blob:
		p.Data, err = data(tag, body)
	}
	return err
}

func (im *importer) singleRecord(nodes []*node, name string, s *ledger.Schema) (*ledger.Record, error) {
	n, err := single(nodes, name)
	if err != nil {
		return nil, err
	}
	return im.record(n, s)
}

func (im *importer) program(tag string, nodes []*node) (*container.Program, error) {
	if err := expectOnly(tag, nodes, "program", "lfo", "split"); err != nil {
		return nil, err
	}
	info, err := im.singleRecord(nodes, "program", container.ProgramSchema)
	if err != nil {
		return nil, err
	}

	prg := &container.Program{Info: info}
	for _, n := range nodes {
		var rec *ledger.Record
		switch n.name() {
		case "lfo":
			if rec, err = im.record(n, container.LFOSchema); err != nil {
				return nil, err
			}
			prg.LFOs = append(prg.LFOs, rec)
		case "split":
			if rec, err = im.record(n, container.SplitSchema); err != nil {
				return nil, err
			}
			prg.Splits = append(prg.Splits, rec)
		}
	}
	return prg, nil
}

func data(tag string, body []*node) ([]byte, error) {
	if err := expectOnly(tag, body, "data"); err != nil {
		return nil, err
	}
	n, err := single(body, "data")
	if err != nil {
		return nil, err
	}
	return hexData(n.Text)
}

func events(body []*node) ([]event.Event, error) {
	n, err := single(body, "events")
	if err != nil {
		return nil, err
	}

	var out []event.Event
	for i, en := range n.Nodes {
		e, err := parseEvent(en)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func intAttr(n *node, name string, max uint64) (uint64, error) {
	s, ok := n.attr(name)
	if !ok {
		return 0, fmt.Errorf("%w - %s without %s", ErrSyntax, n.name(), name)
	}
	digits, base := strings.TrimSpace(s), 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		digits, base = digits[2:], 16
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil || v > max {
		return 0, fmt.Errorf("%w - %s %s=%q", ErrSyntax, n.name(), name, s)
	}
	return v, nil
}

func parseEvent(n *node) (event.Event, error) {
	var e event.Event
	switch n.name() {
	case "Note":
		vel, err := intAttr(n, "velocity", 0x7F)
		if err != nil {
			return e, err
		}
		oct, err := intAttr(n, "octave", 3)
		if err != nil {
			return e, err
		}
		key, err := intAttr(n, "key", 0x0F)
		if err != nil {
			return e, err
		}
		dur, err := intAttr(n, "duration", event.MaxDuration)
		if err != nil {
			return e, err
		}
		e = event.Event{Op: byte(vel), Octave: uint8(oct), Key: uint8(key), Duration: uint32(dur)}
		e.DurationBytes = varlen.CanonicalCount(e.Duration)

		if _, ok := n.attr("count"); ok {
			count, err := intAttr(n, "count", 3)
			if err != nil {
				return e, err
			}
			if int(count) < e.DurationBytes {
				return e, fmt.Errorf("%w - duration %d does not fit %d bytes", ErrSyntax, e.Duration, count)
			}
			e.DurationBytes = int(count)
		}
	case "Pause":
		op, err := intAttr(n, "op", 0xFF)
		if err != nil {
			return e, err
		}
		if event.KindOf(byte(op)) != event.KindPause {
			return e, fmt.Errorf("%w - 0x%02X is not a pause", ErrSyntax, op)
		}
		e.Op = byte(op)
	default:
		name := n.name()
		if name == "Command" {
			s, ok := n.attr("op")
			if !ok {
				return e, fmt.Errorf("%w - Command without op", ErrSyntax)
			}
			name = s
		}
		op, ok := event.LookupName(name)
		if !ok {
			return e, &SchemaMismatchError{Record: "events", Field: name}
		}
		e.Op = op.Code

		if s, ok := n.attr("params"); ok {
			params, err := hexData(s)
			if err != nil {
				return e, err
			}
			e.Params = params
		}
	}
	return e, e.Validate()
}
