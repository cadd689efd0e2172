package registry

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Garik-/dse/pkg/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = ledger.NewSchema("test.rec",
	ledger.Known("id", ledger.U16),
	ledger.Opaque("unk1", ledger.U8),
	ledger.Opaque("unk2", ledger.U32),
)

func TestDefaultLoads(t *testing.T) {
	r := Default()
	require.NotNil(t, r)
	assert.Equal(t, "eos-survey-1", r.Version())
	assert.True(t, r.Len() > 0)

	v, ok := r.Lookup("swdl.chunk", "unk2")
	require.True(t, ok)
	assert.Equal(t, []byte{0x15, 0x04}, v)
	assert.True(t, r.IsStrippable("swdl.chunk", "unk2"))

	_, ok = r.Lookup("swdl.chunk", "chunklen")
	assert.False(t, ok)

	assert.False(t, r.IsStrippable("swdl.split", "unk16"))
}

func TestLookupReturnsCopy(t *testing.T) {
	r := New("t", map[Key]Entry{{"test.rec", "unk2"}: {Value: []byte{1, 2, 3, 4}, Strippable: true}})

	v, ok := r.Lookup("test.rec", "unk2")
	require.True(t, ok)
	v[0] = 0xFF

	v, _ = r.Lookup("test.rec", "unk2")
	assert.Equal(t, []byte{1, 2, 3, 4}, v)
}

func TestMatches(t *testing.T) {
	r := New("t", map[Key]Entry{
		{"test.rec", "unk1"}: {Value: []byte{7}, Strippable: true},
		{"test.rec", "unk2"}: {Value: []byte{0, 0, 0, 0}},
	})

	assert.True(t, r.Matches("test.rec", "unk1", []byte{7}))
	assert.False(t, r.Matches("test.rec", "unk1", []byte{8}))
	assert.False(t, r.Matches("test.rec", "unk2", []byte{0, 0, 0, 0}))
	assert.False(t, r.Matches("test.rec", "missing", []byte{7}))

	var nilReg *Registry
	assert.False(t, nilReg.Matches("test.rec", "unk1", []byte{7}))
}

func TestLoadErrors(t *testing.T) {
	cases := []string{
		`{`,
		`{"entries":[]}`,
		`{"version":"v","entries":[{"record":"a","field":"b","value":"zz"}]}`,
		`{"version":"v","entries":[{"record":"a","field":"b","value":""}]}`,
		`{"version":"v","entries":[{"record":"a","field":"b","value":"00"},{"record":"a","field":"b","value":"01"}]}`,
		`{"version":"v","entries":[{"field":"b","value":"00"}]}`,
	}
	for _, c := range cases {
		_, err := Load(strings.NewReader(c))
		assert.True(t, errors.Is(err, ErrInvalid), c)
	}
}

func TestSaveLoad(t *testing.T) {
	r := New("v2", map[Key]Entry{
		{"test.rec", "unk1"}: {Value: []byte{0xAA}, Strippable: true},
		{"test.rec", "unk2"}: {Value: []byte{0xDE, 0xAD, 0xBE, 0xEF}},
	})

	var buf bytes.Buffer
	require.NoError(t, r.Save(&buf))

	got, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, r, got)
	assert.Equal(t, []Key{{"test.rec", "unk1"}, {"test.rec", "unk2"}}, got.Keys())
}

func TestValidate(t *testing.T) {
	ok := New("t", map[Key]Entry{{"test.rec", "unk2"}: {Value: []byte{0, 0, 0, 0}}})
	assert.NoError(t, ok.Validate(testSchema))

	bad := []map[Key]Entry{
		{{"other.rec", "unk2"}: {Value: []byte{0, 0, 0, 0}}},
		{{"test.rec", "nope"}: {Value: []byte{0}}},
		{{"test.rec", "id"}: {Value: []byte{0, 0}}},
		{{"test.rec", "unk2"}: {Value: []byte{0}}},
	}
	for _, e := range bad {
		err := New("t", e).Validate(testSchema)
		assert.True(t, errors.Is(err, ErrInvalid), "%v", e)
	}
}

func TestSurveyBuild(t *testing.T) {
	s := NewSurvey()
	observe := func(unk1 byte, unk2 []byte) {
		rec := ledger.NewRecord(testSchema, nil)
		require.NoError(t, rec.SetRaw("unk1", []byte{unk1}))
		require.NoError(t, rec.SetRaw("unk2", unk2))
		s.Observe(rec)
	}

	observe(5, []byte{0, 0, 0, 2})
	observe(5, []byte{0, 0, 0, 1})
	observe(5, []byte{0, 0, 0, 2})
	observe(3, []byte{0, 0, 0, 1})

	assert.Equal(t, 4, s.Observations("test.rec", "unk1"))
	assert.Equal(t, 0, s.Observations("test.rec", "id"))

	r := s.Build("survey", 0.75)

	v, ok := r.Lookup("test.rec", "unk1")
	require.True(t, ok)
	assert.Equal(t, []byte{5}, v)
	assert.True(t, r.IsStrippable("test.rec", "unk1"))

	// two values seen twice each; the lower one wins
	v, ok = r.Lookup("test.rec", "unk2")
	require.True(t, ok)
	assert.Equal(t, []byte{0, 0, 0, 1}, v)
	assert.False(t, r.IsStrippable("test.rec", "unk2"))

	_, ok = r.Lookup("test.rec", "id")
	assert.False(t, ok)

	assert.NoError(t, r.Validate(testSchema))
}
