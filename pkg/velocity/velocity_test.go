package velocity

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/Garik-/dse/pkg/container"
	"github.com/Garik-/dse/pkg/event"
	"github.com/Garik-/dse/pkg/stream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func track(t *testing.T, notes ...event.Event) *stream.Track {
	t.Helper()
	c := container.New(container.SMDL, nil)
	i := c.Add(container.NewTrack(nil, 0, 0))
	trk, err := stream.Open(c, i)
	require.NoError(t, err)
	for _, n := range notes {
		require.NoError(t, trk.Insert(trk.Len()-1, n))
	}
	return trk
}

func note(t *testing.T, vel, key uint8) event.Event {
	t.Helper()
	e, err := event.NewNote(vel, 1, key, 12)
	require.NoError(t, err)
	return e
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	require.NoError(t, c.Observe(track(t, note(t, 90, 3), note(t, 60, 3), note(t, 90, 3), note(t, 0, 5))))
	require.NoError(t, c.Observe(track(t, note(t, 30, 7))))

	assert.Equal(t, Map{3: {60, 90}, 7: {30}}, c.Map())
}

func TestImport(t *testing.T) {
	f, err := ioutil.TempFile("", "velocity")
	require.NoError(t, err)
	defer os.Remove(f.Name())

	_, err = f.WriteString(`{"3": [60, 90], "7": [30]}`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	m, err := Import(f.Name())
	require.NoError(t, err)
	assert.Equal(t, Map{3: {60, 90}, 7: {30}}, m)

	_, err = Import(f.Name() + ".missing")
	assert.Error(t, err)
}

func TestHumanizer(t *testing.T) {
	trk := track(t, note(t, 100, 3), note(t, 100, 4), note(t, 100, 7))

	h := NewHumanizer(Map{3: {10, 60, 90, 127}, 7: {5}}, 20, 127, 1)
	n, err := h.Apply(trk)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, err := trk.Read(0)
	require.NoError(t, err)
	assert.Contains(t, []uint8{60, 90}, e.Velocity())

	e, err = trk.Read(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(100), e.Velocity())

	e, err = trk.Read(2)
	require.NoError(t, err)
	assert.Equal(t, uint8(100), e.Velocity())

	e, err = trk.Read(3)
	require.NoError(t, err)
	assert.True(t, e.IsEndOfTrack())
}
