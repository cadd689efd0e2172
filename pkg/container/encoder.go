package container

import (
	"encoding/binary"
	"fmt"
	"io"
	"reflect"

	"github.com/Garik-/dse/pkg/ledger"
	"go.uber.org/zap"
)

const (
	chunkHeaderSize = 16
	delimiterSize   = 16
	maxPointer      = 0xFFFF

	tablePad = 0xAA
	trackPad = 0x98
)

var keygroupPad = []byte{0x67, 0xC0, 0x40, 0x00, 0x88, 0x00, 0xFF, 0x04}

// trackPadding aligns a track chunk of n bytes, header included, to 4.
func trackPadding(n int) []byte {
	return fill(align(n, 4)-n, trackPad)
}

// keygroupPadding follows n bytes of keygroup records.
func keygroupPadding(n int) []byte {
	if (chunkHeaderSize+n)%16 == 0 {
		return nil
	}
	return keygroupPad
}

func sampleDataPadding(n int) []byte {
	total := chunkHeaderSize + n
	return fill(align(total, 16)-total, 0)
}

func padding(p Payload, n int) []byte {
	switch p.(type) {
	case *Track:
		return trackPadding(chunkHeaderSize + n)
	case *KeygroupTable:
		return keygroupPadding(n)
	case *SampleData:
		return sampleDataPadding(n)
	}
	return nil
}

// Encoder writes containers.
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode refreshes the derived fields of c and writes it.
func (e *Encoder) Encode(c *Container) error {
	b, err := Encode(c)
	if err != nil {
		return err
	}
	_, err = e.w.Write(b)
	return err
}

// Encode returns the binary form of c. It refreshes every derived field of c
// first, so c is modified.
func Encode(c *Container) ([]byte, error) {
	bodies, err := c.refresh()
	if err != nil {
		return nil, err
	}

	magic := c.Format.Magic()
	out := make([]byte, 0, c.Header.Uint("flen")+uint32(len(c.Trailer)))
	out = append(out, magic[:]...)
	out = c.Header.AppendTo(out)

	for i, ch := range c.Chunks {
		out = append(out, ch.Tag[:]...)
		out = ch.Header.AppendTo(out)
		out = append(out, bodies[i]...)
		out = append(out, padding(ch.Payload, len(bodies[i]))...)
	}
	out = append(out, c.Trailer...)

	encoderLog.Named("Encode").Debug("encoded",
		zap.Stringer("format", c.Format),
		zap.Int("chunks", len(c.Chunks)),
		zap.Int("size", len(out)),
	)
	return out, nil
}

// Refresh recomputes every derived length and count from the data.
func (c *Container) Refresh() error {
	_, err := c.refresh()
	return err
}

func (c *Container) refresh() ([][]byte, error) {
	if err := c.check(); err != nil {
		return nil, err
	}

	tracks := len(c.Tracks())
	for i, ch := range c.Chunks {
		var err error
		switch p := ch.Payload.(type) {
		case *Song:
			err = p.Info.SetUint("nbtrks", uint32(tracks))
		case *ProgramTable:
			for _, prg := range p.Slots {
				if prg == nil {
					continue
				}
				if err = prg.Info.SetUint("nbsplits", uint32(len(prg.Splits))); err != nil {
					break
				}
				if err = prg.Info.SetUint("nblfos", uint32(len(prg.LFOs))); err != nil {
					break
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%w - %s chunk %d: %v", ErrEncode, ch.Tag, i, err)
		}
	}

	bodies := make([][]byte, len(c.Chunks))
	size := len(c.Format.Magic()) + c.Header.Size()
	for i, ch := range c.Chunks {
		body, err := encodePayload(ch.Payload)
		if err != nil {
			return nil, fmt.Errorf("%w - %s chunk %d: %v", ErrEncode, ch.Tag, i, err)
		}
		if _, ok := ch.Header.Schema.Index("chunklen"); ok {
			if err := ch.Header.SetUint("chunklen", uint32(len(body))); err != nil {
				return nil, fmt.Errorf("%w - %s chunk %d: %v", ErrEncode, ch.Tag, i, err)
			}
		}
		bodies[i] = body
		size += chunkHeaderSize + len(body) + len(padding(ch.Payload, len(body)))
	}

	if c.Format == SWDL {
		if err := c.refreshSWDL(bodies); err != nil {
			return nil, err
		}
	}
	if err := c.Header.SetInt("flen", int64(size)); err != nil {
		return nil, fmt.Errorf("%w - %v", ErrEncode, err)
	}
	return bodies, nil
}

func (c *Container) refreshSWDL(bodies [][]byte) error {
	var slots, wavilen int
	for i, ch := range c.Chunks {
		var err error
		switch p := ch.Payload.(type) {
		case *WaveTable:
			slots, wavilen = len(p.Slots), len(bodies[i])
		case *ProgramTable:
			err = c.Header.SetInt("nbprgislots", int64(len(p.Slots)))
		case *SampleData:
			err = c.Header.SetInt("pcmdlen", int64(len(p.Data)))
		}
		if err != nil {
			return fmt.Errorf("%w - %s chunk %d: %v", ErrEncode, ch.Tag, i, err)
		}
	}
	if err := c.Header.SetInt("nbwavislots", int64(slots)); err != nil {
		return fmt.Errorf("%w - %v", ErrEncode, err)
	}
	if err := c.Header.SetInt("wavilen", int64(wavilen)); err != nil {
		return fmt.Errorf("%w - %v", ErrEncode, err)
	}
	return nil
}

func encodePayload(p Payload) ([]byte, error) {
	switch p := p.(type) {
	case *Song:
		return p.Info.Bytes(), nil
	case *Track:
		out := p.Preamble.Bytes()
		for i, e := range p.Events {
			var err error
			if out, err = e.AppendTo(out); err != nil {
				return nil, fmt.Errorf("event %d: %w", i, err)
			}
		}
		return out, nil
	case *End:
		return nil, nil
	case *WaveTable:
		return pointerTable(len(p.Slots), func(i int) []byte {
			if p.Slots[i] == nil {
				return nil
			}
			return p.Slots[i].Bytes()
		})
	case *ProgramTable:
		return pointerTable(len(p.Slots), func(i int) []byte {
			if p.Slots[i] == nil {
				return nil
			}
			return p.Slots[i].bytes()
		})
	case *KeygroupTable:
		var out []byte
		for _, g := range p.Groups {
			out = g.AppendTo(out)
		}
		return out, nil
	case *SampleData:
		return p.Data, nil
	case *Blob:
		return p.Data, nil
	}
	return nil, fmt.Errorf("unsupported payload %T", p)
}

// pointerTable lays out n entries behind a table of u16 offsets relative to
// the table start. Empty entries get offset 0.
func pointerTable(n int, entry func(i int) []byte) ([]byte, error) {
	table := 2 * n
	out := make([]byte, align(table, 16))
	for i := table; i < len(out); i++ {
		out[i] = tablePad
	}

	for i := 0; i < n; i++ {
		b := entry(i)
		if b == nil {
			continue
		}
		if len(out) > maxPointer {
			return nil, fmt.Errorf("slot %d: offset 0x%X does not fit a 16-bit pointer", i, len(out))
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(len(out)))
		out = append(out, b...)
	}
	return out, nil
}

func (p *Program) bytes() []byte {
	out := p.Info.Bytes()
	for _, l := range p.LFOs {
		out = l.AppendTo(out)
	}
	out = append(out, fill(delimiterSize, byte(p.Info.Uint("padbyte")))...)
	for _, s := range p.Splits {
		out = s.AppendTo(out)
	}
	return out
}

// check verifies that every record sits where its schema belongs, so the
// encoded file decodes back into the same shape.
func (c *Container) check() error {
	if c.Format != SMDL && c.Format != SWDL {
		return fmt.Errorf("%w - unknown format %d", ErrEncode, int(c.Format))
	}
	if err := expect(c.Header, c.Format.HeaderSchema()); err != nil {
		return fmt.Errorf("%w - header: %v", ErrEncode, err)
	}
	for i, ch := range c.Chunks {
		if ch == nil {
			return fmt.Errorf("%w - chunk %d is nil", ErrEncode, i)
		}
		if err := c.checkChunk(ch); err != nil {
			return fmt.Errorf("%w - %s chunk %d: %v", ErrEncode, ch.Tag, i, err)
		}
	}
	return nil
}

func (c *Container) checkChunk(ch *Chunk) error {
	if err := expect(ch.Header, c.Format.ChunkSchema(ch.Tag)); err != nil {
		return err
	}

	if want := NewPayload(c.Format, ch.Tag); reflect.TypeOf(ch.Payload) != reflect.TypeOf(want) {
		return fmt.Errorf("payload %T, expected %T", ch.Payload, want)
	}

	switch p := ch.Payload.(type) {
	case *Song:
		return expect(p.Info, SongSchema)
	case *Track:
		return expect(p.Preamble, TrackSchema)
	case *WaveTable:
		for _, s := range p.Slots {
			if s == nil {
				continue
			}
			if err := expect(s, SampleSchema); err != nil {
				return err
			}
		}
	case *ProgramTable:
		for _, prg := range p.Slots {
			if prg == nil {
				continue
			}
			if err := expect(prg.Info, ProgramSchema); err != nil {
				return err
			}
			if err := expectAll(prg.LFOs, LFOSchema); err != nil {
				return err
			}
			if err := expectAll(prg.Splits, SplitSchema); err != nil {
				return err
			}
		}
	case *KeygroupTable:
		return expectAll(p.Groups, KeygroupSchema)
	}
	return nil
}

func expect(r *ledger.Record, s *ledger.Schema) error {
	if r == nil {
		return fmt.Errorf("missing %s record", s)
	}
	if r.Schema != s || len(r.Fields) != s.Len() {
		return fmt.Errorf("record %s where %s belongs", r.Schema, s)
	}
	for i, f := range r.Fields {
		if len(f.Raw) != s.Field(i).Size {
			return fmt.Errorf("%s.%s holds %d bytes, expected %d", s, f.ID, len(f.Raw), s.Field(i).Size)
		}
	}
	return nil
}

func expectAll(rs []*ledger.Record, s *ledger.Schema) error {
	for _, r := range rs {
		if err := expect(r, s); err != nil {
			return err
		}
	}
	return nil
}
