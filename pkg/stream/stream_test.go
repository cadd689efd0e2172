package stream

import (
	"errors"
	"testing"

	"github.com/Garik-/dse/pkg/container"
	"github.com/Garik-/dse/pkg/event"
	"github.com/Garik-/dse/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSequence(t *testing.T) (*container.Container, *Track) {
	t.Helper()
	c := container.New(container.SMDL, registry.Default())
	i := c.Add(container.NewTrack(registry.Default(), 1, 0))

	trk, err := Open(c, i)
	require.NoError(t, err)
	return c, trk
}

func note(t *testing.T, vel, key uint8, dur uint32) event.Event {
	t.Helper()
	e, err := event.NewNote(vel, 2, key, dur)
	require.NoError(t, err)
	return e
}

func TestOpen(t *testing.T) {
	c, trk := newSequence(t)
	assert.Equal(t, 1, trk.Chunk())
	assert.Equal(t, 1, trk.Len())

	_, err := Open(c, 0)
	assert.True(t, errors.Is(err, ErrNotTrack))
	_, err = Open(c, 9)
	assert.True(t, errors.Is(err, ErrNotTrack))

	all := Tracks(c)
	require.Len(t, all, 1)
	assert.Equal(t, 1, all[0].Chunk())
}

func TestEdit(t *testing.T) {
	c, trk := newSequence(t)

	require.NoError(t, trk.Insert(0, note(t, 100, 4, 48)))
	tempo, err := event.NewCommand("SetTempo", 120)
	require.NoError(t, err)
	require.NoError(t, trk.Insert(0, tempo))
	assert.Equal(t, 3, trk.Len())

	e, err := trk.Read(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(100), e.Velocity())

	// the view writes through to the container
	events := c.Chunks[1].Payload.(*container.Track).Events
	require.Len(t, events, 3)
	assert.Equal(t, event.SetTempo, events[0].Op)

	require.NoError(t, trk.Replace(1, note(t, 90, 4, 24)))
	e, err = trk.Read(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(90), e.Velocity())
	assert.Equal(t, uint32(24), e.Duration)

	require.NoError(t, trk.Remove(0))
	all, err := trk.Events()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, event.KindNote, all[0].Kind())
	assert.True(t, all[1].IsEndOfTrack())
}

func TestEdit_Invalid(t *testing.T) {
	_, trk := newSequence(t)

	err := trk.Insert(5, event.Event{Op: event.LoopPoint})
	assert.True(t, errors.Is(err, ErrIndex))

	err = trk.Replace(-1, event.Event{Op: event.LoopPoint})
	assert.True(t, errors.Is(err, ErrIndex))

	err = trk.Remove(1)
	assert.True(t, errors.Is(err, ErrIndex))

	_, err = trk.Read(1)
	assert.True(t, errors.Is(err, ErrIndex))

	err = trk.Insert(0, event.Event{Op: event.SetTempo})
	assert.True(t, errors.Is(err, event.ErrInvalid))

	err = trk.Append(event.Event{Op: event.LoopPoint}, event.Event{Op: 0x96})
	assert.True(t, errors.Is(err, event.ErrUnknownOpcode))
	assert.Equal(t, 1, trk.Len())
}

func TestRead_ReturnsCopy(t *testing.T) {
	_, trk := newSequence(t)
	tempo, err := event.NewCommand("SetTempo", 120)
	require.NoError(t, err)
	require.NoError(t, trk.Insert(0, tempo))

	e, err := trk.Read(0)
	require.NoError(t, err)
	e.Params[0] = 1

	again, err := trk.Read(0)
	require.NoError(t, err)
	assert.Equal(t, []byte{120}, again.Params)
}

func TestRemoveAll(t *testing.T) {
	c, trk := newSequence(t)
	require.NoError(t, trk.Remove(0))
	assert.Equal(t, 0, trk.Len())
	assert.Nil(t, c.Chunks[1].Payload.(*container.Track).Events)

	require.NoError(t, trk.Close())
	require.NoError(t, trk.Close())
	assert.Equal(t, 1, trk.Len())
}

func TestAppend_DerivesChunkLength(t *testing.T) {
	c, trk := newSequence(t)
	require.NoError(t, trk.Remove(0))
	require.NoError(t, trk.Append(note(t, 100, 0, 0x1234)))
	require.NoError(t, trk.Close())

	out, err := container.Encode(c)
	require.NoError(t, err)

	// preamble 4 + note 4 + end of track 1
	assert.Equal(t, uint32(9), c.Chunks[1].Header.Uint("chunklen"))

	back, err := container.Parse(out)
	require.NoError(t, err)
	again, err := Open(back, 1)
	require.NoError(t, err)
	e, err := again.Read(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), e.Duration)
}

func TestOffset(t *testing.T) {
	_, trk := newSequence(t)
	require.NoError(t, trk.Insert(0, note(t, 100, 0, 0x1234)))

	off, err := trk.Offset(0)
	require.NoError(t, err)
	assert.Equal(t, 4, off)

	off, err = trk.Offset(1)
	require.NoError(t, err)
	assert.Equal(t, 8, off)

	off, err = trk.Offset(2)
	require.NoError(t, err)
	assert.Equal(t, 9, off)

	_, err = trk.Offset(3)
	assert.True(t, errors.Is(err, ErrIndex))
}

func TestPause(t *testing.T) {
	assert.Nil(t, Pause(0))

	p := Pause(0x30)
	require.Len(t, p, 1)
	assert.Equal(t, event.Pause8Bits, p[0].Op)
	assert.Equal(t, []byte{0x30}, p[0].Params)

	p = Pause(0x1234)
	require.Len(t, p, 1)
	assert.Equal(t, event.Pause16Bits, p[0].Op)
	assert.Equal(t, []byte{0x34, 0x12}, p[0].Params)

	p = Pause(0x1000005)
	require.Len(t, p, 2)
	assert.Equal(t, event.Pause24Bits, p[0].Op)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, p[0].Params)
	assert.Equal(t, event.Pause8Bits, p[1].Op)
	assert.Equal(t, []byte{0x06}, p[1].Params)

	for _, e := range p {
		assert.NoError(t, e.Validate())
	}

	_, trk := newSequence(t)
	require.NoError(t, trk.AppendPause(0x1234))
	assert.Equal(t, 2, trk.Len())
}
