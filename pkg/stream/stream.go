// Package stream exposes the event list of a track chunk as an indexable,
// editable sequence.
//
// A Track does not copy anything: it remembers the chunk index and resolves
// the chunk on every call, so edits land in the Container that will later be
// encoded.
package stream

import (
	"errors"
	"fmt"

	"github.com/Garik-/dse/pkg/container"
	"github.com/Garik-/dse/pkg/event"
)

var (
	// ErrNotTrack is returned when the viewed chunk is missing or holds no events.
	ErrNotTrack = errors.New("chunk is not a track")
	// ErrIndex is returned for an event index outside the stream.
	ErrIndex = errors.New("event index out of range")
)

// Track is a view over the events of one track chunk.
type Track struct {
	c     *container.Container
	chunk int
}

// Open returns a view over chunk i of c.
func Open(c *container.Container, i int) (*Track, error) {
	t := &Track{c: c, chunk: i}
	if _, err := t.track(); err != nil {
		return nil, err
	}
	return t, nil
}

// Tracks returns a view per track chunk, in file order.
func Tracks(c *container.Container) []*Track {
	var out []*Track
	for _, i := range c.Tracks() {
		out = append(out, &Track{c: c, chunk: i})
	}
	return out
}

// Chunk is the index of the viewed chunk in its container.
func (t *Track) Chunk() int { return t.chunk }

func (t *Track) track() (*container.Track, error) {
	if t.chunk < 0 || t.chunk >= len(t.c.Chunks) {
		return nil, fmt.Errorf("%w - chunk %d of %d", ErrNotTrack, t.chunk, len(t.c.Chunks))
	}
	trk, ok := t.c.Chunks[t.chunk].Payload.(*container.Track)
	if !ok {
		return nil, fmt.Errorf("%w - chunk %d is %q", ErrNotTrack, t.chunk, t.c.Chunks[t.chunk].Tag)
	}
	return trk, nil
}

func checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w - %d not in [0, %d)", ErrIndex, i, n)
	}
	return nil
}

func clone(e event.Event) event.Event {
	if e.Params != nil {
		e.Params = append([]byte(nil), e.Params...)
	}
	return e
}

// Len is the number of events, 0 when the chunk is no longer a track.
func (t *Track) Len() int {
	trk, err := t.track()
	if err != nil {
		return 0
	}
	return len(trk.Events)
}

// Read returns a copy of event i.
func (t *Track) Read(i int) (event.Event, error) {
	trk, err := t.track()
	if err != nil {
		return event.Event{}, err
	}
	if err := checkIndex(i, len(trk.Events)); err != nil {
		return event.Event{}, err
	}
	return clone(trk.Events[i]), nil
}

// Events returns a copy of the whole stream.
func (t *Track) Events() ([]event.Event, error) {
	trk, err := t.track()
	if err != nil {
		return nil, err
	}
	out := make([]event.Event, len(trk.Events))
	for i, e := range trk.Events {
		out[i] = clone(e)
	}
	return out, nil
}

// Insert puts e before event i; i == Len() appends.
func (t *Track) Insert(i int, e event.Event) error {
	trk, err := t.track()
	if err != nil {
		return err
	}
	if err := checkIndex(i, len(trk.Events)+1); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}

	trk.Events = append(trk.Events, event.Event{})
	copy(trk.Events[i+1:], trk.Events[i:])
	trk.Events[i] = clone(e)
	return nil
}

// Replace overwrites event i.
func (t *Track) Replace(i int, e event.Event) error {
	trk, err := t.track()
	if err != nil {
		return err
	}
	if err := checkIndex(i, len(trk.Events)); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	trk.Events[i] = clone(e)
	return nil
}

// Remove deletes event i.
func (t *Track) Remove(i int) error {
	trk, err := t.track()
	if err != nil {
		return err
	}
	if err := checkIndex(i, len(trk.Events)); err != nil {
		return err
	}

	trk.Events = append(trk.Events[:i], trk.Events[i+1:]...)
	if len(trk.Events) == 0 {
		trk.Events = nil
	}
	return nil
}

// Append adds events at the end. Nothing is added if one of them is invalid.
func (t *Track) Append(events ...event.Event) error {
	trk, err := t.track()
	if err != nil {
		return err
	}
	for i, e := range events {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	for _, e := range events {
		trk.Events = append(trk.Events, clone(e))
	}
	return nil
}

// Offset is the position of event i inside the chunk payload, preamble
// included, as the next encode will write it.
func (t *Track) Offset(i int) (int, error) {
	trk, err := t.track()
	if err != nil {
		return 0, err
	}
	if err := checkIndex(i, len(trk.Events)+1); err != nil {
		return 0, err
	}
	return container.TrackSchema.Size() + event.StreamSize(trk.Events[:i]), nil
}
