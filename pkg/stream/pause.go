package stream

import "github.com/Garik-/dse/pkg/event"

// Pause returns the shortest run of explicit pause commands lasting ticks.
// Each command covers at most event.MaxDuration ticks.
func Pause(ticks uint32) []event.Event {
	var out []event.Event
	for ticks > 0 {
		n := ticks
		if n > event.MaxDuration {
			n = event.MaxDuration
		}
		ticks -= n

		switch {
		case n <= 0xFF:
			out = append(out, event.Event{Op: event.Pause8Bits, Params: []byte{byte(n)}})
		case n <= 0xFFFF:
			out = append(out, event.Event{Op: event.Pause16Bits, Params: []byte{byte(n), byte(n >> 8)}})
		default:
			out = append(out, event.Event{Op: event.Pause24Bits, Params: []byte{byte(n), byte(n >> 8), byte(n >> 16)}})
		}
	}
	return out
}

// AppendPause appends Pause(ticks).
func (t *Track) AppendPause(ticks uint32) error {
	return t.Append(Pause(ticks)...)
}

// Close appends an end-of-track event unless the stream already ends with one.
func (t *Track) Close() error {
	n := t.Len()
	if n > 0 {
		last, err := t.Read(n - 1)
		if err != nil {
			return err
		}
		if last.IsEndOfTrack() {
			return nil
		}
	}
	return t.Append(event.Event{Op: event.EndOfTrack})
}
