package container

import (
	"bytes"
	"encoding/binary"
)

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}

func le32(v uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return b
}

func put32(b []byte, off int, v uint32) {
	binary.LittleEndian.PutUint32(b[off:], v)
}

func put16(b []byte, off int, v uint16) {
	binary.LittleEndian.PutUint16(b[off:], v)
}

func smdlHeader(flen uint32) []byte {
	h := make([]byte, 60)
	put32(h, 4, flen)
	put16(h, 8, Version)
	put16(h, 20, 2008)
	copy(h[28:44], "bgm0001\x00\xff\xff\xff\xff\xff\xff\xff\xff")
	put32(h, 44, 1)
	put32(h, 48, 1)
	put32(h, 52, 0xFFFFFFFF)
	put32(h, 56, 0xFFFFFFFF)
	return h
}

func smdlChunk(tag string, chunklen uint32) []byte {
	var b bytes.Buffer
	b.WriteString(tag)
	b.Write(le32(0x01000000))
	b.Write(le32(0x0000FF04))
	b.Write(le32(chunklen))
	return b.Bytes()
}

// trackEvents: a note (vel 0x64, key 1, one duration byte 0x30), a pause
// and end of track.
var trackEvents = []byte{0x64, 0x41, 0x30, 0x80, 0x98}

// smdlFixture is 172 bytes: header, song, one track and eoc.
func smdlFixture() []byte {
	var b bytes.Buffer
	b.WriteString("smdl")
	b.Write(smdlHeader(172))

	b.WriteString("song")
	b.Write(le32(0x01000000))
	b.Write(le32(0x0000FF10))
	b.Write(le32(0xFFFFFFB0))
	song := make([]byte, 48)
	put16(song, 2, 48)
	song[6] = 1 // nbtrks
	song[7] = 1 // nbchans
	b.Write(song)

	b.Write(smdlChunk("trk ", uint32(4+len(trackEvents))))
	b.Write([]byte{0x00, 0x00, 0x00, 0x00})
	b.Write(trackEvents)
	b.Write([]byte{0x98, 0x98, 0x98})

	b.Write(smdlChunk("eoc ", 0))
	return b.Bytes()
}

func swdlHeader(flen, pcmdlen uint32, wavislots, prgislots uint16, wavilen uint32) []byte {
	h := make([]byte, 76)
	put32(h, 4, flen)
	put16(h, 8, Version)
	copy(h[28:44], "bank\x00\xaa\xaa\xaa\xaa\xaa\xaa\xaa\xaa\xaa\xaa\xaa")
	h[44] = 0
	put32(h, 56, 0x10)
	put32(h, 60, pcmdlen)
	put16(h, 66, wavislots)
	put16(h, 68, prgislots)
	put32(h, 72, wavilen)
	return h
}

func swdlChunk(tag string, chunklen uint32) []byte {
	var b bytes.Buffer
	b.WriteString(tag)
	b.Write(le16(0))
	b.Write(le16(0x0415))
	b.Write(le32(0x10))
	b.Write(le32(chunklen))
	return b.Bytes()
}

// minimalSWDL holds an empty wave table and the terminator.
func minimalSWDL() []byte {
	var b bytes.Buffer
	b.WriteString("swdl")
	b.Write(swdlHeader(112, 0, 0, 0, 0))
	b.Write(swdlChunk("wavi", 0))
	b.Write(swdlChunk("eod ", 0))
	return b.Bytes()
}

func fillBytes(n int, v byte) []byte {
	return bytes.Repeat([]byte{v}, n)
}

// swdlFixture is 384 bytes: two wave slots (the second empty), one program
// with an LFO and a split, one keygroup, five bytes of sample data.
func swdlFixture() []byte {
	var b bytes.Buffer
	b.WriteString("swdl")
	b.Write(swdlHeader(384, 5, 2, 1, 80))

	b.Write(swdlChunk("wavi", 80))
	b.Write(le16(16))
	b.Write(le16(0))
	b.Write(fillBytes(12, 0xAA))
	sample := make([]byte, 64)
	put16(sample, 2, 7)
	sample[6] = 60
	sample[9] = 127
	b.Write(sample)

	b.Write(swdlChunk("prgi", 112))
	b.Write(le16(16))
	b.Write(fillBytes(14, 0xAA))
	prg := make([]byte, 16)
	put16(prg, 0, 3)
	put16(prg, 2, 1) // nbsplits
	prg[4] = 127
	prg[5] = 64
	prg[11] = 1 // nblfos
	prg[12] = 0xAA
	b.Write(prg)
	lfo := make([]byte, 16)
	lfo[2] = 1
	b.Write(lfo)
	b.Write(fillBytes(16, 0xAA))
	split := make([]byte, 48)
	split[4] = 0
	split[5] = 127
	put16(split, 18, 7)
	b.Write(split)

	b.Write(swdlChunk("kgrp", 8))
	b.Write([]byte{0x00, 0x00, 0xFF, 0x08, 0x00, 0x7F, 0x00, 0x00})
	b.Write(keygroupPad)

	b.Write(swdlChunk("pcmd", 5))
	b.Write([]byte{1, 2, 3, 4, 5})
	b.Write(fillBytes(11, 0))

	b.Write(swdlChunk("eod ", 0))
	return b.Bytes()
}
