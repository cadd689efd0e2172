package event

import (
	"fmt"
	"strconv"
	"strings"
)

// Command opcodes with a name of their own.
const (
	RepeatLastPause    byte = 0x90
	AddToLastPause     byte = 0x91
	Pause8Bits         byte = 0x92
	Pause16Bits        byte = 0x93
	Pause24Bits        byte = 0x94
	PauseUntilRelease  byte = 0x95
	EndOfTrack         byte = 0x98
	LoopPoint          byte = 0x99
	SetTrackOctave     byte = 0xA0
	AddToTrackOctave   byte = 0xA1
	SetTempo           byte = 0xA4
	SetTempo2          byte = 0xA5
	SetSwdl            byte = 0xA9
	SetBank            byte = 0xAA
	SkipNextByte       byte = 0xAB
	SetProgram         byte = 0xAC
	SkipNext2Bytes     byte = 0xCB
	PitchBend          byte = 0xD7
	SetTrackVolume     byte = 0xE0
	SetTrackExpression byte = 0xE3
	SetTrackPan        byte = 0xE8
	SkipNext2Bytes2    byte = 0xF8
)

const firstCommand = 0x90

// Opcode describes the parameter shape of one command.
type Opcode struct {
	Code   byte
	Name   string
	Params int
}

var (
	commands [0x100 - firstCommand]Opcode
	valid    [0x100 - firstCommand]bool
	byName   = make(map[string]byte)
)

func def(code byte, params int, name string) {
	if name == "" {
		name = hexName(code)
	}
	commands[code-firstCommand] = Opcode{Code: code, Name: name, Params: params}
	valid[code-firstCommand] = true
	byName[strings.ToLower(name)] = code
}

func hexName(code byte) string {
	return fmt.Sprintf("0x%02X", code)
}

func init() {
	def(RepeatLastPause, 0, "RepeatLastPause")
	def(AddToLastPause, 1, "AddToLastPause")
	def(Pause8Bits, 1, "Pause8Bits")
	def(Pause16Bits, 2, "Pause16Bits")
	def(Pause24Bits, 3, "Pause24Bits")
	def(PauseUntilRelease, 1, "PauseUntilRelease")
	def(EndOfTrack, 0, "EndOfTrack")
	def(LoopPoint, 0, "LoopPoint")
	def(0x9C, 1, "")
	def(0x9D, 0, "")
	def(0x9E, 0, "")
	def(SetTrackOctave, 1, "SetTrackOctave")
	def(AddToTrackOctave, 1, "AddToTrackOctave")
	def(SetTempo, 1, "SetTempo")
	def(SetTempo2, 1, "SetTempo2")
	def(0xA8, 2, "")
	def(SetSwdl, 1, "SetSwdl")
	def(SetBank, 1, "SetBank")
	def(SkipNextByte, 1, "SkipNextByte")
	def(SetProgram, 1, "SetProgram")
	def(0xAF, 3, "")
	def(0xB0, 0, "")
	def(0xB1, 1, "")
	def(0xB2, 1, "")
	def(0xB3, 1, "")
	def(0xB4, 2, "")
	def(0xB5, 1, "")
	def(0xB6, 1, "")
	def(0xBC, 1, "")
	def(0xBE, 1, "")
	def(0xBF, 1, "")
	def(0xC0, 1, "")
	def(0xC3, 1, "")
	def(SkipNext2Bytes, 2, "SkipNext2Bytes")
	def(0xD0, 1, "")
	def(0xD1, 1, "")
	def(0xD2, 1, "")
	def(0xD3, 2, "")
	def(0xD4, 3, "")
	def(0xD5, 2, "")
	def(0xD6, 2, "")
	def(PitchBend, 2, "PitchBend")
	def(0xD8, 2, "")
	def(0xDB, 1, "")
	def(0xDC, 5, "")
	def(0xDD, 4, "")
	def(0xDF, 1, "")
	def(SetTrackVolume, 1, "SetTrackVolume")
	def(0xE1, 1, "")
	def(0xE2, 3, "")
	def(SetTrackExpression, 1, "SetTrackExpression")
	def(0xE4, 5, "")
	def(0xE5, 4, "")
	def(0xE7, 1, "")
	def(SetTrackPan, 1, "SetTrackPan")
	def(0xE9, 1, "")
	def(0xEA, 3, "")
	def(0xEC, 5, "")
	def(0xED, 4, "")
	def(0xEF, 1, "")
	def(0xF0, 5, "")
	def(0xF1, 4, "")
	def(0xF2, 2, "")
	def(0xF3, 3, "")
	def(0xF6, 1, "")
	def(SkipNext2Bytes2, 2, "SkipNext2Bytes2")
}

// Lookup returns the command table entry of code. Notes, pauses and codes
// without an entry report false.
func Lookup(code byte) (Opcode, bool) {
	if code < firstCommand || !valid[code-firstCommand] {
		return Opcode{}, false
	}
	return commands[code-firstCommand], true
}

// LookupName resolves a command by name, case-insensitively. Unnamed
// commands are addressed as "0xNN"; a plain decimal code is accepted too.
func LookupName(name string) (Opcode, bool) {
	if code, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return commands[code-firstCommand], true
	}
	if v, err := strconv.ParseUint(strings.TrimSpace(name), 0, 8); err == nil {
		return Lookup(byte(v))
	}
	return Opcode{}, false
}
