package archive

import (
	"fmt"

	"github.com/cperrin88/modelvault/pkg/errors"
)

// Kind classifies why an archive was rejected.
type Kind string

// Rejection kinds.
const (
	KindUnsafePath      Kind = "unsupported path component"
	KindUnsupportedLink Kind = "unsupported link"
	KindUnsupportedType Kind = "unsupported entry type"
	KindMalformed       Kind = "malformed archive stream"
)

// Error describes an archive rejected during extraction.
type Error struct {
	Kind  Kind
	Entry string
	Err   error
}

func (e *Error) Error() string {
	msg := "archive entry contains " + string(e.Kind)
	if e.Kind == KindMalformed {
		msg = string(e.Kind)
	}
	if e.Entry != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Entry)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap lets errors.Is match errors.ErrArchive and the underlying cause.
func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{errors.ErrArchive, e.Err}
	}
	return []error{errors.ErrArchive}
}
