package varlen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCanonical(t *testing.T) {
	b, n := EncodeCanonical(0)
	assert.Nil(t, b)
	assert.Equal(t, 0, n)

	b, n = EncodeCanonical(0x30)
	assert.Equal(t, []byte{0x30}, b)
	assert.Equal(t, 1, n)

	b, n = EncodeCanonical(0x100)
	assert.Equal(t, []byte{0x00, 0x01}, b)
	assert.Equal(t, 2, n)

	b, n = EncodeCanonical(0x123456)
	assert.Equal(t, []byte{0x56, 0x34, 0x12}, b)
	assert.Equal(t, 3, n)

	b, n = EncodeCanonical(0xFFFFFFFF)
	assert.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, b)
	assert.Equal(t, 4, n)
}

func TestDecodeRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0xFF, 0x100, 0xFFFF, 0x10000, 0xFFFFFF, 0x1000000, 0xDEADBEEF, 0xFFFFFFFF}
	for _, v := range values {
		b, n := EncodeCanonical(v)
		got, err := Decode(b, n)
		require.NoError(t, err)
		assert.Equal(t, v, got, "value %#x", v)
	}
}

func TestDecodeNonCanonical(t *testing.T) {
	v, err := Decode([]byte{0x00}, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), v)
	assert.False(t, IsCanonical(v, 1))

	v, err = Decode([]byte{0x05, 0x00, 0x00}, 3)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), v)
	assert.Equal(t, 1, CanonicalCount(v))
}

func TestDecodeIgnoresExtraBytes(t *testing.T) {
	v, err := Decode([]byte{0x34, 0x12, 0xFF}, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1234), v)
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte{0x01}, 2)
	assert.True(t, errors.Is(err, ErrShort))

	_, err = Decode([]byte{1, 2, 3, 4, 5}, 5)
	assert.True(t, errors.Is(err, ErrCount))

	_, err = Decode(nil, -1)
	assert.True(t, errors.Is(err, ErrCount))
}
