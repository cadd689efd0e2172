package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/ioutil"

	"github.com/Garik-/dse/pkg/event"
	"github.com/Garik-/dse/pkg/ledger"
	"go.uber.org/zap"
)

type chunkParser func(d *Decoder, start int, hdr *ledger.Record) (Payload, error)

var parsers = map[Format]map[Tag]chunkParser{
	SMDL: {
		TagSong:  parseSong,
		TagTrack: parseTrack,
		TagEOC:   parseEnd,
	},
	SWDL: {
		TagWavi: parseWaveTable,
		TagPrgi: parseProgramTable,
		TagKgrp: parseKeygroups,
		TagPcmd: parseSampleData,
		TagEOD:  parseEnd,
	},
}

// Decoder reads a whole file into a Container. Tolerated inconsistencies
// are collected in Mismatches.
type Decoder struct {
	r      io.Reader
	data   []byte
	offset int
	c      *Container

	Container  *Container
	Mismatches []Mismatch
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Parse decodes data, discarding the mismatch report.
func Parse(data []byte) (*Container, error) {
	d := NewDecoder(bytes.NewReader(data))
	if err := d.Decode(); err != nil {
		return nil, err
	}
	return d.Container, nil
}

func (d *Decoder) Decode() error {
	log := decoderLog.Named("Decode")

	data, err := ioutil.ReadAll(d.r)
	if err != nil {
		return err
	}
	d.data, d.offset, d.Mismatches, d.Container = data, 0, nil, nil

	var magic Tag
	if len(data) < len(magic) {
		return fmt.Errorf("%w - file is %d bytes", ErrBadSignature, len(data))
	}
	copy(magic[:], data)

	var f Format
	switch magic {
	case magicSMDL:
		f = SMDL
	case magicSWDL:
		f = SWDL
	default:
		return fmt.Errorf("%w - magic %q", ErrBadSignature, magic[:])
	}
	d.offset = len(magic)

	hdr, err := d.readRecord(f.String()+" header", f.HeaderSchema())
	if err != nil {
		return err
	}
	if v := hdr.Uint("version"); v != Version {
		return fmt.Errorf("%w - %s version 0x%X, expected 0x%X", ErrBadSignature, f, v, Version)
	}

	d.c = &Container{Format: f, Header: hdr}
	term := f.Terminator()
	terminated := false

	for d.remaining() > 0 {
		start := d.offset
		ch, err := d.parseChunk()
		if err != nil {
			return err
		}
		d.c.Chunks = append(d.c.Chunks, ch)
		log.Debug("chunk", zap.Stringer("tag", ch.Tag), zap.Int("offset", start), zap.Int("size", d.offset-start))

		if ch.Tag == term {
			terminated = true
			break
		}
	}

	end := d.offset
	if !terminated {
		d.mismatch(Mismatch{Tag: term.String(), Offset: end, Field: "terminator", Declared: 0, Actual: 1})
	}
	if d.remaining() > 0 {
		d.c.Trailer = append([]byte(nil), d.data[d.offset:]...)
		d.mismatch(Mismatch{Tag: "trailer", Offset: end, Field: "length", Declared: int64(len(d.c.Trailer)), Actual: int64(len(d.c.Trailer))})
	}
	if flen := int64(hdr.Uint("flen")); flen != int64(end) {
		d.mismatch(Mismatch{Tag: f.String(), Offset: len(magic), Field: "flen", Declared: flen, Actual: int64(end)})
	}
	d.checkCounts()

	log.Debug("decoded",
		zap.Stringer("format", f),
		zap.Int("chunks", len(d.c.Chunks)),
		zap.Int("mismatches", len(d.Mismatches)),
	)
	d.Container = d.c
	return nil
}

func (d *Decoder) parseChunk() (*Chunk, error) {
	start := d.offset
	if d.remaining() < chunkHeaderSize {
		return nil, d.truncated("chunk header", chunkHeaderSize)
	}

	var tag Tag
	copy(tag[:], d.data[d.offset:])
	d.offset += len(tag)

	hdr, err := d.readRecord(tag.String(), d.c.Format.ChunkSchema(tag))
	if err != nil {
		return nil, err
	}

	parse, ok := parsers[d.c.Format][tag]
	if !ok {
		parse = parseBlob
	}
	p, err := parse(d, start, hdr)
	if err != nil {
		return nil, err
	}
	return &Chunk{Tag: tag, Header: hdr, Payload: p}, nil
}

// checkCounts reports header counts that disagree with the chunks found.
func (d *Decoder) checkCounts() {
	c := d.c
	switch c.Format {
	case SMDL:
		tracks := int64(len(c.Tracks()))
		for _, ch := range c.Chunks {
			if s, ok := ch.Payload.(*Song); ok {
				if n := int64(s.Info.Uint("nbtrks")); n != tracks {
					d.mismatch(Mismatch{Tag: TagSong.String(), Field: "nbtrks", Declared: n, Actual: tracks})
				}
			}
		}
	case SWDL:
		if ch, ok := c.Find(TagWavi); ok {
			if n, l := int64(c.Header.Uint("wavilen")), int64(ch.Header.Uint("chunklen")); n != l {
				d.mismatch(Mismatch{Tag: c.Format.String(), Field: "wavilen", Declared: n, Actual: l})
			}
		}
		if ch, ok := c.Find(TagPcmd); ok {
			if n, l := int64(c.Header.Uint("pcmdlen")), int64(len(ch.Payload.(*SampleData).Data)); n != l {
				d.mismatch(Mismatch{Tag: c.Format.String(), Field: "pcmdlen", Declared: n, Actual: l})
			}
		}
	}
}

func parseSong(d *Decoder, start int, hdr *ledger.Record) (Payload, error) {
	info, err := d.readRecord(TagSong.String(), SongSchema)
	if err != nil {
		return nil, err
	}
	return &Song{Info: info}, nil
}

func parseEnd(d *Decoder, start int, hdr *ledger.Record) (Payload, error) {
	if n := int64(hdr.Uint("chunklen")); n != 0 {
		d.mismatch(Mismatch{Tag: string(d.data[start : start+4]), Offset: start, Field: "chunklen", Declared: n, Actual: 0})
	}
	return &End{}, nil
}

func parseBlob(d *Decoder, start int, hdr *ledger.Record) (Payload, error) {
	tag := string(d.data[start : start+4])
	body, err := d.body(tag, hdr)
	if err != nil {
		return nil, err
	}
	d.offset += len(body)
	decoderLog.Named("parseBlob").Debug("unknown chunk kept", zap.String("tag", tag), zap.Int("size", len(body)))
	return &Blob{Data: append([]byte(nil), body...)}, nil
}

func parseTrack(d *Decoder, start int, hdr *ledger.Record) (Payload, error) {
	tag := TagTrack.String()
	declared := int(hdr.Uint("chunklen"))
	if declared > d.remaining() {
		return nil, d.truncated(tag, declared)
	}

	pre, err := d.readRecord(tag, TrackSchema)
	if err != nil {
		return nil, err
	}

	events, n, err := event.Decode(d.data[d.offset:], declared-TrackSchema.Size(), d.offset)
	if err != nil {
		var short *event.ShortError
		if errors.As(err, &short) {
			return nil, &TruncatedError{Tag: tag, Offset: short.Offset, Expected: short.Expected, Available: short.Available}
		}
		return nil, fmt.Errorf("%s chunk at offset %d: %w", tag, start, err)
	}
	d.offset += n

	if actual := TrackSchema.Size() + n; actual != declared {
		d.mismatch(Mismatch{Tag: tag, Offset: start, Field: "chunklen", Declared: int64(declared), Actual: int64(actual)})
	}
	for _, e := range events {
		if !e.Canonical() {
			decoderLog.Named("parseTrack").Debug("non-canonical duration",
				zap.Int("offset", start), zap.Uint32("duration", e.Duration), zap.Int("bytes", e.DurationBytes))
		}
	}

	d.skipFill(tag, trackPad, len(trackPadding(d.offset-start)))
	return &Track{Preamble: pre, Events: events}, nil
}

func parseWaveTable(d *Decoder, start int, hdr *ledger.Record) (Payload, error) {
	tag := TagWavi.String()
	body, err := d.body(tag, hdr)
	if err != nil {
		return nil, err
	}

	ptrs, err := d.pointers(tag, body, int(d.c.Header.Uint("nbwavislots")))
	if err != nil {
		return nil, err
	}

	t := &WaveTable{}
	sizes := make([]int, len(ptrs))
	if len(ptrs) > 0 {
		t.Slots = make([]*ledger.Record, len(ptrs))
	}
	for i, p := range ptrs {
		if p == 0 {
			continue
		}
		rec, err := recordAt(tag, SampleSchema, body, p, d.offset)
		if err != nil {
			return nil, err
		}
		t.Slots[i] = rec
		sizes[i] = SampleSchema.Size()
	}

	d.checkLayout(tag, body, ptrs, sizes)
	d.offset += len(body)
	return t, nil
}

func parseProgramTable(d *Decoder, start int, hdr *ledger.Record) (Payload, error) {
	tag := TagPrgi.String()
	body, err := d.body(tag, hdr)
	if err != nil {
		return nil, err
	}

	ptrs, err := d.pointers(tag, body, int(d.c.Header.Uint("nbprgislots")))
	if err != nil {
		return nil, err
	}

	t := &ProgramTable{}
	sizes := make([]int, len(ptrs))
	if len(ptrs) > 0 {
		t.Slots = make([]*Program, len(ptrs))
	}
	for i, p := range ptrs {
		if p == 0 {
			continue
		}
		prg, size, err := d.parseProgram(body, p)
		if err != nil {
			return nil, err
		}
		t.Slots[i] = prg
		sizes[i] = size
	}

	d.checkLayout(tag, body, ptrs, sizes)
	d.offset += len(body)
	return t, nil
}

func (d *Decoder) parseProgram(body []byte, off int) (*Program, int, error) {
	tag := TagPrgi.String()
	base := d.offset
	pos := off

	info, err := recordAt(tag, ProgramSchema, body, pos, base)
	if err != nil {
		return nil, 0, err
	}
	pos += ProgramSchema.Size()

	prg := &Program{Info: info}
	for i := 0; i < int(info.Uint("nblfos")); i++ {
		lfo, err := recordAt(tag, LFOSchema, body, pos, base)
		if err != nil {
			return nil, 0, err
		}
		prg.LFOs = append(prg.LFOs, lfo)
		pos += LFOSchema.Size()
	}

	if pos+delimiterSize > len(body) {
		return nil, 0, &TruncatedError{Tag: tag, Offset: base + pos, Expected: delimiterSize, Available: len(body) - pos}
	}
	padbyte := byte(info.Uint("padbyte"))
	for i, b := range body[pos : pos+delimiterSize] {
		if b != padbyte {
			d.mismatch(Mismatch{Tag: tag, Offset: base + pos + i, Field: "delimiter", Declared: int64(b), Actual: int64(padbyte)})
			break
		}
	}
	pos += delimiterSize

	for i := 0; i < int(info.Uint("nbsplits")); i++ {
		split, err := recordAt(tag, SplitSchema, body, pos, base)
		if err != nil {
			return nil, 0, err
		}
		prg.Splits = append(prg.Splits, split)
		pos += SplitSchema.Size()
	}

	return prg, pos - off, nil
}

func parseKeygroups(d *Decoder, start int, hdr *ledger.Record) (Payload, error) {
	tag := TagKgrp.String()
	body, err := d.body(tag, hdr)
	if err != nil {
		return nil, err
	}

	size := KeygroupSchema.Size()
	n := len(body) / size
	if n*size != len(body) {
		d.mismatch(Mismatch{Tag: tag, Offset: start, Field: "chunklen", Declared: int64(len(body)), Actual: int64(n * size)})
	}

	t := &KeygroupTable{}
	for i := 0; i < n; i++ {
		rec, err := recordAt(tag, KeygroupSchema, body, i*size, d.offset)
		if err != nil {
			return nil, err
		}
		t.Groups = append(t.Groups, rec)
	}
	d.offset += len(body)

	pad := keygroupPadding(n * size)
	if len(pad) > 0 {
		if next, ok := d.peekTag(); ok && isKnownTag(next) {
			d.mismatch(Mismatch{Tag: tag, Offset: d.offset, Field: "padding length", Declared: 0, Actual: int64(len(pad))})
			return t, nil
		}
	}
	d.skipPadding(tag, pad)
	return t, nil
}

func parseSampleData(d *Decoder, start int, hdr *ledger.Record) (Payload, error) {
	tag := TagPcmd.String()
	body, err := d.body(tag, hdr)
	if err != nil {
		return nil, err
	}
	d.offset += len(body)

	d.skipFill(tag, 0, len(sampleDataPadding(len(body))))
	return &SampleData{Data: append([]byte(nil), body...)}, nil
}

func isKnownTag(t Tag) bool {
	for _, m := range parsers {
		if _, ok := m[t]; ok {
			return true
		}
	}
	return false
}
