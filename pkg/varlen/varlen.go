// Package varlen encodes the variable-length integer parameters carried by
// track events. The byte-count of a parameter is stored next to it in the
// event stream and decoding is driven by that count only.
package varlen

import (
	"errors"
	"fmt"
)

// MaxBytes is the widest parameter the codec handles.
const MaxBytes = 4

var (
	// ErrCount is reported when a declared byte-count is outside 0..MaxBytes.
	ErrCount = errors.New("invalid declared byte-count")
	// ErrShort is reported when fewer bytes than declared are available.
	ErrShort = errors.New("not enough bytes for declared byte-count")
)

// Decode returns the little-endian value stored in the first count bytes of
// buf, zero-extended to 32 bits. Overlong encodings (a 0x00 byte with count 1)
// decode like their canonical form.
func Decode(buf []byte, count int) (uint32, error) {
	if count < 0 || count > MaxBytes {
		return 0, fmt.Errorf("%w - %d", ErrCount, count)
	}
	if len(buf) < count {
		return 0, fmt.Errorf("%w - need %d, have %d", ErrShort, count, len(buf))
	}

	var x uint32
	for i := count - 1; i >= 0; i-- {
		x = x<<8 | uint32(buf[i])
	}
	return x, nil
}

// CanonicalCount returns how many bytes EncodeCanonical uses for v.
func CanonicalCount(v uint32) int {
	n := 0
	for v != 0 {
		n++
		v >>= 8
	}
	return n
}

// EncodeCanonical returns the minimal little-endian form of v and its
// byte-count. Zero encodes as no bytes at all.
func EncodeCanonical(v uint32) ([]byte, int) {
	n := CanonicalCount(v)
	if n == 0 {
		return nil, 0
	}
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(v >> (8 * uint(i)))
	}
	return buf, n
}

// IsCanonical reports whether count is the byte-count EncodeCanonical would
// pick for v.
func IsCanonical(v uint32, count int) bool {
	return CanonicalCount(v) == count
}
