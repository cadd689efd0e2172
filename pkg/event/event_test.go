package event

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpcodeTable(t *testing.T) {
	op, ok := Lookup(0xE0)
	require.True(t, ok)
	assert.Equal(t, "SetTrackVolume", op.Name)
	assert.Equal(t, 1, op.Params)

	op, ok = Lookup(0xDC)
	require.True(t, ok)
	assert.Equal(t, "0xDC", op.Name)
	assert.Equal(t, 5, op.Params)

	for _, code := range []byte{0x96, 0x9F, 0xA2, 0xB7, 0xC4, 0xCF, 0xDE, 0xF7, 0xFF} {
		_, ok := Lookup(code)
		assert.False(t, ok, "0x%02X", code)
	}
	_, ok = Lookup(0x40)
	assert.False(t, ok)

	op, ok = LookupName("settempo")
	require.True(t, ok)
	assert.Equal(t, SetTempo, op.Code)

	op, ok = LookupName("0xdc")
	require.True(t, ok)
	assert.Equal(t, byte(0xDC), op.Code)

	op, ok = LookupName("152")
	require.True(t, ok)
	assert.Equal(t, EndOfTrack, op.Code)

	_, ok = LookupName("0x96")
	assert.False(t, ok)
	_, ok = LookupName("Bogus")
	assert.False(t, ok)
}

func TestDecodeNote(t *testing.T) {
	// velocity 0x64, two duration bytes, octave 2, key 5
	e, n, err := DecodeOne([]byte{0x64, 0x80 | 0x20 | 0x05, 0x34, 0x12, 0x98}, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, KindNote, e.Kind())
	assert.Equal(t, uint8(0x64), e.Velocity())
	assert.Equal(t, uint8(2), e.Octave)
	assert.Equal(t, uint8(5), e.Key)
	assert.Equal(t, uint32(0x1234), e.Duration)
	assert.Equal(t, 2, e.DurationBytes)
	assert.True(t, e.Canonical())
	assert.Nil(t, e.Params)
}

func TestNonCanonicalZeroDuration(t *testing.T) {
	in := []byte{0x7F, 0x40 | 0x13, 0x00}
	e, n, err := DecodeOne(in, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, uint32(0), e.Duration)
	assert.Equal(t, 1, e.DurationBytes)
	assert.False(t, e.Canonical())

	out, err := e.AppendTo(nil)
	require.NoError(t, err)
	// re-encoded with a byte-count of zero, one byte shorter
	assert.Equal(t, []byte{0x7F, 0x13}, out)
	assert.Equal(t, 2, e.Size())

	again, _, err := DecodeOne(out, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, again.DurationBytes)
	assert.Equal(t, e.Duration, again.Duration)
}

func TestDecodeCommandAndPause(t *testing.T) {
	in := []byte{0x85, 0xE0, 0x7F, 0xD7, 0x00, 0x10, 0x98}
	events, n, err := Decode(in, len(in), 100)
	require.NoError(t, err)
	assert.Equal(t, len(in), n)
	require.Len(t, events, 4)

	assert.Equal(t, KindPause, events[0].Kind())
	assert.Nil(t, events[0].Params)
	assert.Equal(t, "SetTrackVolume", events[1].Name())
	assert.Equal(t, []byte{0x7F}, events[1].Params)
	assert.Equal(t, []byte{0x00, 0x10}, events[2].Params)
	assert.True(t, events[3].IsEndOfTrack())
	assert.Nil(t, events[3].Params)

	out, err := Encode(events)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, len(in), StreamSize(events))
}

func TestDecodeOverrunsLimit(t *testing.T) {
	in := []byte{0x92, 0x10, 0x98}
	events, n, err := Decode(in, 1, 0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 2, n)
}

func TestDecodeUnknownOpcode(t *testing.T) {
	_, _, err := Decode([]byte{0x85, 0x96, 0x00}, 3, 40)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOpcode))

	var uerr *UnknownOpcodeError
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, 41, uerr.Offset)
	assert.Equal(t, byte(0x96), uerr.Byte)
}

func TestDecodeShort(t *testing.T) {
	_, _, err := DecodeOne([]byte{0xDC, 1, 2}, 8)
	assert.True(t, errors.Is(err, ErrShort))

	_, _, err = DecodeOne([]byte{0x10, 0xC0, 1}, 0)
	var serr *ShortError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, 5, serr.Expected)
	assert.Equal(t, 3, serr.Available)

	_, _, err = DecodeOne([]byte{0x10}, 0)
	assert.True(t, errors.Is(err, ErrShort))
}

func TestConstructors(t *testing.T) {
	e, err := NewNote(100, 1, 11, 0xFFFFFF)
	require.NoError(t, err)
	out, err := e.AppendTo(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{100, 0xC0 | 0x10 | 11, 0xFF, 0xFF, 0xFF}, out)

	_, err = NewNote(100, 1, 11, 0x1000000)
	assert.True(t, errors.Is(err, ErrInvalid))
	_, err = NewNote(100, 4, 0, 1)
	assert.True(t, errors.Is(err, ErrInvalid))
	_, err = NewNote(0x80, 0, 0, 1)
	assert.Error(t, err)

	e, err = NewCommand("SetTempo", 120)
	require.NoError(t, err)
	assert.Equal(t, Event{Op: SetTempo, Params: []byte{120}}, e)

	e, err = NewCommand("EndOfTrack")
	require.NoError(t, err)
	assert.True(t, e.IsEndOfTrack())
	assert.Nil(t, e.Params)

	_, err = NewCommand("SetTempo")
	assert.True(t, errors.Is(err, ErrInvalid))
	_, err = NewCommand("0xF9")
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = NewPause(0x8F)
	assert.NoError(t, err)

	_, err = Encode([]Event{{Op: 0xF9}})
	assert.True(t, errors.Is(err, ErrUnknownOpcode))
}
