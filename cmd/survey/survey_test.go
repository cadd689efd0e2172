package main

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Garik-/dse/pkg/container"
	"github.com/Garik-/dse/pkg/event"
	"github.com/Garik-/dse/pkg/ledger"
	"github.com/Garik-/dse/pkg/registry"
	"github.com/Garik-/dse/pkg/velocity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func writeFile(t *testing.T, dir, name string, c *container.Container) string {
	t.Helper()
	data, err := container.Encode(c)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, data, 0644))
	return path
}

func list(names ...string) <-chan string {
	out := make(chan string, len(names))
	for _, n := range names {
		out <- n
	}
	close(out)
	return out
}

func TestRunSurvey(t *testing.T) {
	dir, err := ioutil.TempDir("", "survey")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	reg := registry.Default()
	seq := container.New(container.SMDL, reg)
	ch := container.NewTrack(reg, 0, 0)
	ch.Payload.(*container.Track).Events = []event.Event{{Op: 90, Key: 3}, {Op: 60, Key: 3}, {Op: event.EndOfTrack}}
	seq.Add(ch)
	require.NoError(t, seq.Header.SetRaw("unk7", []byte{1, 2, 3, 4}))

	bank := container.New(container.SWDL, reg)

	paths := list(
		writeFile(t, dir, "a.smd", seq),
		writeFile(t, dir, "b.swd", bank),
		filepath.Join(dir, "missing.smd"),
	)

	s := registry.NewSurvey()
	vel := velocity.NewCollector()
	st, err := runSurvey(context.Background(), paths, 2, s, vel)
	require.NoError(t, err)

	assert.Equal(t, 2, st.files)
	assert.Len(t, multierr.Errors(st.failed), 1)
	assert.Equal(t, 1, s.Observations("smdl.header", "unk7"))
	assert.Equal(t, 1, s.Observations("swdl.header", "unk18"))
	assert.Equal(t, 2, s.Observations("smdl.chunk", "param1"))
	assert.Equal(t, velocity.Map{3: {60, 90}}, vel.Map())

	built := s.Build("test", 1)
	v, ok := built.Lookup("smdl.header", "unk7")
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3, 4}, v)
}

func TestRecords(t *testing.T) {
	bank := container.New(container.SWDL, nil)
	wavi, _ := bank.Find(container.TagWavi)
	wavi.Payload.(*container.WaveTable).Slots = []*ledger.Record{nil, ledger.NewRecord(container.SampleSchema, nil)}

	// header, wavi header, one sample, eod header
	assert.Len(t, records(bank), 4)
}

func TestRunSurvey_CancelledReleasesList(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := make(chan string)
	fed := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			paths <- filepath.Join("missing", "file.smd")
		}
		close(paths)
		close(fed)
	}()

	_, err := runSurvey(ctx, paths, 1, registry.NewSurvey(), nil)
	assert.True(t, errors.Is(err, context.Canceled))

	select {
	case <-fed:
	case <-time.After(5 * time.Second):
		t.Fatal("list reader still blocked")
	}
}
