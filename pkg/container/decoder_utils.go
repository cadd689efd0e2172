package container

import (
	"encoding/binary"

	"github.com/Garik-/dse/pkg/ledger"
	"go.uber.org/zap"
)

func (d *Decoder) remaining() int {
	return len(d.data) - d.offset
}

func (d *Decoder) truncated(tag string, expected int) error {
	return &TruncatedError{Tag: tag, Offset: d.offset, Expected: expected, Available: d.remaining()}
}

func (d *Decoder) mismatch(m Mismatch) {
	d.Mismatches = append(d.Mismatches, m)
	decoderLog.Named("mismatch").Debug(m.Field,
		zap.String("tag", m.Tag),
		zap.Int("offset", m.Offset),
		zap.Int64("declared", m.Declared),
		zap.Int64("actual", m.Actual),
	)
}

// readRecord decodes s at the current offset and moves past it.
func (d *Decoder) readRecord(tag string, s *ledger.Schema) (*ledger.Record, error) {
	r, err := ledger.Decode(s, d.data[d.offset:])
	if err != nil {
		return nil, d.truncated(tag, s.Size())
	}
	d.offset += s.Size()
	return r, nil
}

// body returns the declared payload of the current chunk without moving.
func (d *Decoder) body(tag string, hdr *ledger.Record) ([]byte, error) {
	declared := int(hdr.Uint("chunklen"))
	if declared > d.remaining() {
		return nil, d.truncated(tag, declared)
	}
	return d.data[d.offset : d.offset+declared], nil
}

// recordAt decodes s at off inside body, which starts at file offset base.
func recordAt(tag string, s *ledger.Schema, body []byte, off, base int) (*ledger.Record, error) {
	if off > len(body) {
		return nil, &TruncatedError{Tag: tag, Offset: base + off, Expected: s.Size(), Available: 0}
	}
	r, err := ledger.Decode(s, body[off:])
	if err != nil {
		return nil, &TruncatedError{Tag: tag, Offset: base + off, Expected: s.Size(), Available: len(body) - off}
	}
	return r, nil
}

// pointers reads a table of n little-endian u16 offsets.
func (d *Decoder) pointers(tag string, body []byte, n int) ([]int, error) {
	if 2*n > len(body) {
		return nil, &TruncatedError{Tag: tag, Offset: d.offset, Expected: 2 * n, Available: len(body)}
	}
	out := make([]int, n)
	for i := range out {
		out[i] = int(binary.LittleEndian.Uint16(body[2*i:]))
	}
	return out, nil
}

// checkLayout compares a pointer table with the layout the encoder would
// write for entries of the given sizes (0 for an empty slot).
func (d *Decoder) checkLayout(tag string, body []byte, ptrs, sizes []int) {
	table := 2 * len(ptrs)
	pos := align(table, 16)

	for i := table; i < pos && i < len(body); i++ {
		if body[i] != tablePad {
			d.mismatch(Mismatch{Tag: tag, Offset: d.offset + i, Field: "padding", Declared: int64(body[i]), Actual: tablePad})
			break
		}
	}

	for i, p := range ptrs {
		if sizes[i] == 0 {
			continue
		}
		if p != pos {
			d.mismatch(Mismatch{Tag: tag, Offset: d.offset + 2*i, Field: "pointer", Declared: int64(p), Actual: int64(pos)})
		}
		pos += sizes[i]
	}

	if pos != len(body) {
		d.mismatch(Mismatch{Tag: tag, Offset: d.offset, Field: "chunklen", Declared: int64(len(body)), Actual: int64(pos)})
	}
}

// skipFill consumes the run of pad bytes ending a chunk whose canonical
// padding is want bytes long. A run of any length is accepted when a chunk
// tag follows it, otherwise want bytes are consumed as padding. Any
// difference from the canonical padding is reported.
func (d *Decoder) skipFill(tag string, pad byte, want int) {
	n := 0
	for n < d.remaining() && d.data[d.offset+n] == pad {
		n++
	}
	if n < want && d.remaining() >= want && !d.tagAt(d.offset+n) {
		d.skipPadding(tag, fill(want, pad))
		return
	}
	if n != want {
		d.mismatch(Mismatch{Tag: tag, Offset: d.offset, Field: "padding length", Declared: int64(n), Actual: int64(want)})
	}
	d.offset += n
}

// tagAt reports whether a chunk tag plausibly starts at off: a tag the
// decoder knows or four printable ASCII bytes.
func (d *Decoder) tagAt(off int) bool {
	var t Tag
	if len(d.data)-off < len(t) {
		return false
	}
	copy(t[:], d.data[off:])
	if isKnownTag(t) {
		return true
	}
	for _, b := range t {
		if b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}

// skipPadding consumes len(want) bytes, reporting the first that differs.
func (d *Decoder) skipPadding(tag string, want []byte) {
	n := len(want)
	if n > d.remaining() {
		d.mismatch(Mismatch{Tag: tag, Offset: d.offset, Field: "padding length", Declared: int64(d.remaining()), Actual: int64(n)})
		n = d.remaining()
	}
	for i := 0; i < n; i++ {
		if b := d.data[d.offset+i]; b != want[i] {
			d.mismatch(Mismatch{Tag: tag, Offset: d.offset + i, Field: "padding", Declared: int64(b), Actual: int64(want[i])})
			break
		}
	}
	d.offset += n
}

func (d *Decoder) peekTag() (Tag, bool) {
	var t Tag
	if d.remaining() < len(t) {
		return t, false
	}
	copy(t[:], d.data[d.offset:])
	return t, true
}

func align(n, to int) int {
	return (n + to - 1) / to * to
}

func fill(n int, b byte) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}
