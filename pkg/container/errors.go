package container

import (
	"errors"
	"fmt"
)

var (
	// ErrBadSignature is returned for input that is not an SMDL or SWDL file
	// of the supported version.
	ErrBadSignature = errors.New("bad signature")
	// ErrTruncated is matched by TruncatedError.
	ErrTruncated = errors.New("truncated")
	// ErrEncode reports a model that cannot be written.
	ErrEncode = errors.New("cannot encode")
)

// TruncatedError reports a structure that declares more bytes than remain.
type TruncatedError struct {
	Tag       string
	Offset    int
	Expected  int
	Available int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("%s at offset %d: truncated, expected %d bytes, %d available",
		e.Tag, e.Offset, e.Expected, e.Available)
}

func (e *TruncatedError) Is(target error) bool { return target == ErrTruncated }

// Mismatch is a tolerated disagreement between what the file declares and
// what it contains. Re-encoding replaces Declared with Actual.
type Mismatch struct {
	Tag      string
	Offset   int
	Field    string
	Declared int64
	Actual   int64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s at offset %d: %s declared %d, actual %d", m.Tag, m.Offset, m.Field, m.Declared, m.Actual)
}
