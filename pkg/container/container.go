// Package container models the chunked SMDL (sequence) and SWDL (wave bank)
// files and owns their binary parse and encode.
//
// A Container keeps every chunk in file order. Each chunk holds a header
// record and a typed payload; tags the package does not know are kept as
// opaque blobs. Length and count fields are derived: they are reported when
// they disagree with the data on read and recomputed on every encode.
package container

import (
	"fmt"

	"github.com/Garik-/dse/pkg/event"
	"github.com/Garik-/dse/pkg/ledger"
)

// Version is the only format version understood.
const Version = 0x415

// Format tells the two file kinds apart.
type Format int

const (
	SMDL Format = iota + 1
	SWDL
)

var (
	magicSMDL = Tag{'s', 'm', 'd', 'l'}
	magicSWDL = Tag{'s', 'w', 'd', 'l'}
)

func (f Format) String() string {
	switch f {
	case SMDL:
		return "smdl"
	case SWDL:
		return "swdl"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

// Magic is the signature the file starts with.
func (f Format) Magic() Tag {
	if f == SWDL {
		return magicSWDL
	}
	return magicSMDL
}

// HeaderSchema is the layout of the file header after the signature.
func (f Format) HeaderSchema() *ledger.Schema {
	if f == SWDL {
		return SWDLHeaderSchema
	}
	return SMDLHeaderSchema
}

// ChunkSchema is the layout of the 12 bytes following a chunk tag.
func (f Format) ChunkSchema(tag Tag) *ledger.Schema {
	if f == SWDL {
		return SWDLChunkSchema
	}
	if tag == TagSong {
		return SongHeaderSchema
	}
	return SMDLChunkSchema
}

// Terminator is the tag of the last chunk.
func (f Format) Terminator() Tag {
	if f == SWDL {
		return TagEOD
	}
	return TagEOC
}

// ParseFormat accepts "smdl" or "swdl".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "smdl":
		return SMDL, nil
	case "swdl":
		return SWDL, nil
	}
	return 0, fmt.Errorf("unknown format %q", s)
}

// Tag is a four byte chunk identifier.
type Tag [4]byte

var (
	TagSong  = Tag{'s', 'o', 'n', 'g'}
	TagTrack = Tag{'t', 'r', 'k', ' '}
	TagEOC   = Tag{'e', 'o', 'c', ' '}
	TagWavi  = Tag{'w', 'a', 'v', 'i'}
	TagPrgi  = Tag{'p', 'r', 'g', 'i'}
	TagKgrp  = Tag{'k', 'g', 'r', 'p'}
	TagPcmd  = Tag{'p', 'c', 'm', 'd'}
	TagEOD   = Tag{'e', 'o', 'd', ' '}
)

func (t Tag) String() string { return string(t[:]) }

// ParseTag reads a tag from its four character form.
func ParseTag(s string) (Tag, error) {
	var t Tag
	if len(s) != len(t) {
		return t, fmt.Errorf("chunk tag %q is not 4 bytes", s)
	}
	copy(t[:], s)
	return t, nil
}

// Container is one decoded file.
type Container struct {
	Format Format
	Header *ledger.Record
	Chunks []*Chunk
	// Trailer holds bytes found after the terminator chunk, nil when none.
	Trailer []byte
}

// Chunk is a tag, its header record and a payload.
type Chunk struct {
	Tag     Tag
	Header  *ledger.Record
	Payload Payload
}

// Payload is one of *Song, *Track, *End, *WaveTable, *ProgramTable,
// *KeygroupTable, *SampleData or *Blob.
type Payload interface {
	payload()
}

// Song is the fixed song record of a sequence.
type Song struct {
	Info *ledger.Record
}

// Track is a preamble and its event stream.
type Track struct {
	Preamble *ledger.Record
	Events   []event.Event
}

// End marks the terminator chunk.
type End struct{}

// WaveTable is the sample info pointer table. A nil slot is empty.
type WaveTable struct {
	Slots []*ledger.Record
}

// Program is one program entry of the program pointer table.
type Program struct {
	Info   *ledger.Record
	LFOs   []*ledger.Record
	Splits []*ledger.Record
}

// ProgramTable is the program pointer table. A nil slot is empty.
type ProgramTable struct {
	Slots []*Program
}

// KeygroupTable is the flat keygroup list.
type KeygroupTable struct {
	Groups []*ledger.Record
}

// SampleData is raw sample memory.
type SampleData struct {
	Data []byte
}

// Blob is the payload of a tag without a known layout.
type Blob struct {
	Data []byte
}

func (*Song) payload()          {}
func (*Track) payload()         {}
func (*End) payload()           {}
func (*WaveTable) payload()     {}
func (*ProgramTable) payload()  {}
func (*KeygroupTable) payload() {}
func (*SampleData) payload()    {}
func (*Blob) payload()          {}

// New builds a minimal valid file. Opaque fields take their values from d.
func New(f Format, d ledger.Defaults) *Container {
	c := &Container{Format: f, Header: ledger.NewRecord(f.HeaderSchema(), d)}
	_ = c.Header.SetUint("version", Version)
	_ = c.Header.SetName("fname", "")

	if f == SMDL {
		song := ledger.NewRecord(SongSchema, d)
		_ = song.SetUint("tpqn", 48)
		c.Chunks = []*Chunk{
			{Tag: TagSong, Header: ledger.NewRecord(SongHeaderSchema, d), Payload: &Song{Info: song}},
			NewChunk(f, TagEOC, &End{}, d),
		}
	} else {
		c.Chunks = []*Chunk{
			NewChunk(f, TagWavi, &WaveTable{}, d),
			NewChunk(f, TagEOD, &End{}, d),
		}
	}

	_ = c.Refresh()
	return c
}

// NewPayload returns an empty payload of the type the decoder produces for
// tag.
func NewPayload(f Format, tag Tag) Payload {
	switch {
	case tag == f.Terminator():
		return &End{}
	case f == SMDL && tag == TagSong:
		return &Song{}
	case f == SMDL && tag == TagTrack:
		return &Track{}
	case f == SWDL && tag == TagWavi:
		return &WaveTable{}
	case f == SWDL && tag == TagPrgi:
		return &ProgramTable{}
	case f == SWDL && tag == TagKgrp:
		return &KeygroupTable{}
	case f == SWDL && tag == TagPcmd:
		return &SampleData{}
	}
	return &Blob{}
}

// NewChunk builds a chunk with a fresh header record.
func NewChunk(f Format, tag Tag, p Payload, d ledger.Defaults) *Chunk {
	return &Chunk{Tag: tag, Header: ledger.NewRecord(f.ChunkSchema(tag), d), Payload: p}
}

// NewTrack builds a track chunk holding only an end-of-track event.
func NewTrack(d ledger.Defaults, trkid, chanid uint8) *Chunk {
	pre := ledger.NewRecord(TrackSchema, d)
	_ = pre.SetUint("trkid", uint32(trkid))
	_ = pre.SetUint("chanid", uint32(chanid))

	return NewChunk(SMDL, TagTrack, &Track{
		Preamble: pre,
		Events:   []event.Event{{Op: event.EndOfTrack}},
	}, d)
}

// Terminator returns the index of the terminator chunk or -1.
func (c *Container) Terminator() int {
	term := c.Format.Terminator()
	for i, ch := range c.Chunks {
		if ch.Tag == term {
			return i
		}
	}
	return -1
}

// Add inserts ch before the terminator chunk and returns its index.
func (c *Container) Add(ch *Chunk) int {
	i := c.Terminator()
	if i < 0 {
		c.Chunks = append(c.Chunks, ch)
		return len(c.Chunks) - 1
	}
	c.Chunks = append(c.Chunks, nil)
	copy(c.Chunks[i+1:], c.Chunks[i:])
	c.Chunks[i] = ch
	return i
}

// Find returns the first chunk with tag.
func (c *Container) Find(tag Tag) (*Chunk, bool) {
	for _, ch := range c.Chunks {
		if ch.Tag == tag {
			return ch, true
		}
	}
	return nil, false
}

// Tracks returns the indexes of all track chunks in file order.
func (c *Container) Tracks() []int {
	var out []int
	for i, ch := range c.Chunks {
		if _, ok := ch.Payload.(*Track); ok {
			out = append(out, i)
		}
	}
	return out
}
