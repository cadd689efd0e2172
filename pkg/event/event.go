// Package event decodes and encodes the event stream of a sequence track.
//
// Opcodes 0x00-0x7F play a note (the opcode is the velocity) and carry one
// variable-length key-down duration whose byte-count is packed into the
// following byte. Opcodes 0x80-0x8F are fixed-duration pauses. Opcodes
// 0x90-0xFF are commands with a fixed number of parameter bytes.
package event

import (
	"errors"
	"fmt"

	"github.com/Garik-/dse/pkg/varlen"
)

// MaxDuration is the largest key-down duration a note can carry.
const MaxDuration = 0xFFFFFF

// Kind groups opcodes by parameter shape.
type Kind int

const (
	KindNote Kind = iota + 1
	KindPause
	KindCommand
)

func (k Kind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindPause:
		return "pause"
	case KindCommand:
		return "command"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrUnknownOpcode is matched by UnknownOpcodeError.
	ErrUnknownOpcode = errors.New("unknown opcode")
	// ErrShort is matched by ShortError.
	ErrShort = errors.New("event runs past end of data")
	// ErrInvalid reports an event that cannot be encoded.
	ErrInvalid = errors.New("invalid event")
)

// UnknownOpcodeError reports a byte with no opcode table entry. Event
// boundaries after it cannot be recovered.
type UnknownOpcodeError struct {
	Offset int
	Byte   byte
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown opcode 0x%02X at offset %d", e.Byte, e.Offset)
}

func (e *UnknownOpcodeError) Is(target error) bool { return target == ErrUnknownOpcode }

// ShortError reports an event whose parameters run past the data.
type ShortError struct {
	Offset    int
	Expected  int
	Available int
}

func (e *ShortError) Error() string {
	return fmt.Sprintf("event at offset %d needs %d bytes, %d available", e.Offset, e.Expected, e.Available)
}

func (e *ShortError) Is(target error) bool { return target == ErrShort }

// Event is one decoded track event.
type Event struct {
	// Op is the opcode byte. For notes it is the velocity.
	Op byte
	// Params are the fixed parameter bytes of a command, nil when it has none.
	Params []byte

	// Note fields.
	Octave   uint8
	Key      uint8
	Duration uint32
	// DurationBytes is the byte-count the duration was stored with. It is kept
	// for inspection only; encoding always uses the canonical count.
	DurationBytes int
}

// KindOf classifies an opcode byte.
func KindOf(op byte) Kind {
	switch {
	case op < 0x80:
		return KindNote
	case op < firstCommand:
		return KindPause
	}
	return KindCommand
}

// Kind classifies the event.
func (e Event) Kind() Kind { return KindOf(e.Op) }

// Velocity of a note event.
func (e Event) Velocity() uint8 { return e.Op }

// Name is the command name, "Note" or "Pause".
func (e Event) Name() string {
	switch e.Kind() {
	case KindNote:
		return "Note"
	case KindPause:
		return "Pause"
	}
	if op, ok := Lookup(e.Op); ok {
		return op.Name
	}
	return hexName(e.Op)
}

// IsEndOfTrack reports the end-of-track command.
func (e Event) IsEndOfTrack() bool { return e.Op == EndOfTrack }

// Canonical reports whether the duration was stored with its minimal byte-count.
func (e Event) Canonical() bool {
	return e.Kind() != KindNote || varlen.IsCanonical(e.Duration, e.DurationBytes)
}

func (e Event) String() string {
	switch e.Kind() {
	case KindNote:
		return fmt.Sprintf("Note(vel=%d oct=%d key=%d dur=%d)", e.Op, e.Octave, e.Key, e.Duration)
	case KindPause:
		return fmt.Sprintf("Pause(0x%02X)", e.Op)
	}
	return fmt.Sprintf("%s%v", e.Name(), e.Params)
}

// NewNote builds a play-note event.
func NewNote(velocity, octave, key uint8, duration uint32) (Event, error) {
	if KindOf(velocity) != KindNote {
		return Event{}, fmt.Errorf("%w - velocity %d above 127", ErrInvalid, velocity)
	}
	e := Event{Op: velocity, Octave: octave, Key: key, Duration: duration}
	e.DurationBytes = varlen.CanonicalCount(duration)
	return e, e.Validate()
}

// NewPause builds a fixed-duration pause; code must be 0x80-0x8F.
func NewPause(code byte) (Event, error) {
	if KindOf(code) != KindPause {
		return Event{}, fmt.Errorf("%w - 0x%02X is not a pause", ErrInvalid, code)
	}
	return Event{Op: code}, nil
}

// NewCommand builds a command by name, see LookupName.
func NewCommand(name string, params ...byte) (Event, error) {
	op, ok := LookupName(name)
	if !ok {
		return Event{}, fmt.Errorf("%w - no command named %q", ErrInvalid, name)
	}
	e := Event{Op: op.Code}
	if len(params) > 0 {
		e.Params = append([]byte(nil), params...)
	}
	return e, e.Validate()
}

// Validate checks that the event can be encoded.
func (e Event) Validate() error {
	switch e.Kind() {
	case KindNote:
		if e.Octave > 3 || e.Key > 0x0F {
			return fmt.Errorf("%w - note octave %d key %d", ErrInvalid, e.Octave, e.Key)
		}
		if e.Duration > MaxDuration {
			return fmt.Errorf("%w - key-down duration %d above %d", ErrInvalid, e.Duration, MaxDuration)
		}
		if len(e.Params) != 0 {
			return fmt.Errorf("%w - note with parameters", ErrInvalid)
		}
	case KindPause:
		if len(e.Params) != 0 {
			return fmt.Errorf("%w - pause with parameters", ErrInvalid)
		}
	default:
		op, ok := Lookup(e.Op)
		if !ok {
			return &UnknownOpcodeError{Offset: -1, Byte: e.Op}
		}
		if len(e.Params) != op.Params {
			return fmt.Errorf("%w - %s takes %d parameters, got %d", ErrInvalid, op.Name, op.Params, len(e.Params))
		}
	}
	return nil
}

// Size is the encoded size of a valid event.
func (e Event) Size() int {
	switch e.Kind() {
	case KindNote:
		return 2 + varlen.CanonicalCount(e.Duration)
	case KindPause:
		return 1
	}
	return 1 + len(e.Params)
}

// AppendTo appends the encoded event to dst.
func (e Event) AppendTo(dst []byte) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return dst, err
	}

	dst = append(dst, e.Op)
	switch e.Kind() {
	case KindNote:
		dur, n := varlen.EncodeCanonical(e.Duration)
		dst = append(dst, byte(n)<<6|e.Octave<<4|e.Key)
		dst = append(dst, dur...)
	case KindCommand:
		dst = append(dst, e.Params...)
	}
	return dst, nil
}

// Encode encodes a whole stream.
func Encode(events []Event) ([]byte, error) {
	var out []byte
	for i, e := range events {
		var err error
		if out, err = e.AppendTo(out); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}
	return out, nil
}

// StreamSize is the encoded size of a stream of valid events.
func StreamSize(events []Event) int {
	n := 0
	for _, e := range events {
		n += e.Size()
	}
	return n
}

// DecodeOne decodes the event at the start of buf and returns it with the
// number of bytes it took. base is the offset of buf[0] in the file and is
// only used in errors.
func DecodeOne(buf []byte, base int) (Event, int, error) {
	if len(buf) == 0 {
		return Event{}, 0, &ShortError{Offset: base, Expected: 1, Available: 0}
	}

	e := Event{Op: buf[0]}
	switch e.Kind() {
	case KindNote:
		if len(buf) < 2 {
			return Event{}, 0, &ShortError{Offset: base, Expected: 2, Available: len(buf)}
		}
		info := buf[1]
		e.DurationBytes = int(info >> 6)
		e.Octave = info >> 4 & 0x03
		e.Key = info & 0x0F

		d, err := varlen.Decode(buf[2:], e.DurationBytes)
		if err != nil {
			return Event{}, 0, &ShortError{Offset: base, Expected: 2 + e.DurationBytes, Available: len(buf)}
		}
		e.Duration = d
		return e, 2 + e.DurationBytes, nil
	case KindPause:
		return e, 1, nil
	}

	op, ok := Lookup(e.Op)
	if !ok {
		return Event{}, 0, &UnknownOpcodeError{Offset: base, Byte: e.Op}
	}
	if len(buf) < 1+op.Params {
		return Event{}, 0, &ShortError{Offset: base, Expected: 1 + op.Params, Available: len(buf)}
	}
	if op.Params > 0 {
		e.Params = append([]byte(nil), buf[1:1+op.Params]...)
	}
	return e, 1 + op.Params, nil
}

// Decode reads events from buf until at least limit bytes are consumed. The
// last event may end past limit; the returned count says where it ended.
func Decode(buf []byte, limit int, base int) ([]Event, int, error) {
	var events []Event
	n := 0
	for n < limit {
		e, size, err := DecodeOne(buf[n:], base+n)
		if err != nil {
			return nil, n, err
		}
		events = append(events, e)
		n += size
	}
	return events, n, nil
}
