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
	"go.uber.org/zap"
)

type exporter struct {
	mode Mode
	reg  *registry.Registry
	log  *zap.Logger
}

// ToText renders c. reg decides which opaque fields Compact mode may leave
// out; it may be nil, in which case every field is written.
func ToText(c *container.Container, mode Mode, reg *registry.Registry) ([]byte, error) {
	if mode != Full && mode != Compact {
		return nil, fmt.Errorf("%w - unknown mode %d", ErrSyntax, int(mode))
	}
	e := &exporter{mode: mode, reg: reg, log: textLog.Named("ToText")}

	root := newNode(c.Format.String())
	root.setAttr("mode", mode.String())
	if reg != nil {
		root.setAttr("registry", reg.Version())
	}

	root.add(e.record("header", c.Header))
	for i, ch := range c.Chunks {
		n, err := e.chunk(ch)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		root.add(n)
	}
	if len(c.Trailer) > 0 {
		root.add(&node{XMLName: xml.Name{Local: "trailer"}, Text: hex.EncodeToString(c.Trailer)})
	}

	out, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, err
	}
	e.log.Debug("exported", zap.Stringer("mode", mode), zap.Int("chunks", len(c.Chunks)), zap.Int("size", len(out)))
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func (e *exporter) chunk(ch *container.Chunk) (*node, error) {
	n := newNode("chunk")
	n.setAttr("tag", ch.Tag.String())
	n.add(e.record("header", ch.Header))

	switch p := ch.Payload.(type) {
	case *container.Song:
		n.add(e.record("song", p.Info))
	case *container.Track:
		n.add(e.record("preamble", p.Preamble))
		events := n.add(newNode("events"))
		for _, ev := range p.Events {
			events.add(eventNode(ev))
		}
	case *container.End:
	case *container.WaveTable:
		for _, s := range p.Slots {
			slot := n.add(newNode("slot"))
			if s != nil {
				slot.add(e.record("sample", s))
			}
		}
	case *container.ProgramTable:
		for _, prg := range p.Slots {
			slot := n.add(newNode("slot"))
			if prg == nil {
				continue
			}
			slot.add(e.record("program", prg.Info))
			for _, l := range prg.LFOs {
				slot.add(e.record("lfo", l))
			}
			for _, s := range prg.Splits {
				slot.add(e.record("split", s))
			}
		}
	case *container.KeygroupTable:
		for _, g := range p.Groups {
			n.add(e.record("keygroup", g))
		}
	case *container.SampleData:
		addData(n, p.Data)
	case *container.Blob:
		addData(n, p.Data)
	default:
		return nil, fmt.Errorf("%s: unsupported payload %T", ch.Tag, p)
	}
	return n, nil
}

func addData(n *node, data []byte) {
	if len(data) > 0 {
		n.add(&node{XMLName: xml.Name{Local: "data"}, Text: hex.EncodeToString(data)})
	}
}

func (e *exporter) record(name string, r *ledger.Record) *node {
	n := newNode(name)
	s := r.Schema
	for i, f := range r.Fields {
		d := s.Field(i)
		if e.mode == Compact && e.omit(s, d, f.Raw) {
			continue
		}
		n.add(&node{XMLName: xml.Name{Local: d.ID}, Text: render(d, f.Raw)})
	}
	return n
}

// omit reports whether Compact mode can leave the field out.
func (e *exporter) omit(s *ledger.Schema, d ledger.Descriptor, raw []byte) bool {
	if d.Derived {
		return true
	}
	if d.Class != ledger.ClassOpaque {
		return false
	}
	if _, ok := e.reg.Lookup(s.Name(), d.ID); !ok {
		e.log.Debug("registry miss", zap.String("record", s.Name()), zap.String("field", d.ID))
		return false
	}
	return e.reg.Matches(s.Name(), d.ID, raw)
}

// render writes Known fields by value unless that would not read back to
// the same bytes.
func render(d ledger.Descriptor, raw []byte) string {
	if d.Class == ledger.ClassKnown {
		if s, ok := d.Format(raw); ok && !strings.HasPrefix(s, rawPrefix) {
			return s
		}
	}
	return rawPrefix + hex.EncodeToString(raw)
}

func eventNode(e event.Event) *node {
	var n *node
	switch e.Kind() {
	case event.KindNote:
		n = newNode("Note")
		n.setAttr("velocity", strconv.Itoa(int(e.Velocity())))
		n.setAttr("octave", strconv.Itoa(int(e.Octave)))
		n.setAttr("key", strconv.Itoa(int(e.Key)))
		n.setAttr("duration", strconv.FormatUint(uint64(e.Duration), 10))
		if !e.Canonical() {
			n.setAttr("count", strconv.Itoa(e.DurationBytes))
		}
		return n
	case event.KindPause:
		n = newNode("Pause")
		n.setAttr("op", fmt.Sprintf("0x%02X", e.Op))
		return n
	}

	if name := e.Name(); strings.HasPrefix(name, "0x") {
		n = newNode("Command")
		n.setAttr("op", name)
	} else {
		n = newNode(name)
	}
	if len(e.Params) > 0 {
		n.setAttr("params", hex.EncodeToString(e.Params))
	}
	return n
}
