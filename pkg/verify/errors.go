package verify

import (
	"fmt"

	"github.com/cperrin88/modelvault/pkg/errors"
)

// SizeMismatchError is returned when a file's length differs from the manifest size.
type SizeMismatchError struct {
	ModelID  string
	Path     string
	Expected uint64
	Actual   uint64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("model %s: size mismatch for %s: expected %d bytes, got %d bytes",
		e.ModelID, e.Path, e.Expected, e.Actual)
}

// Unwrap lets errors.Is match errors.ErrSizeMismatch.
func (e *SizeMismatchError) Unwrap() error { return errors.ErrSizeMismatch }

// HashMismatchError is returned when a file's SHA-256 differs from the manifest digest.
type HashMismatchError struct {
	ModelID  string
	Path     string
	Expected string
	Actual   string
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("model %s: sha256 mismatch for %s: expected %s, got %s",
		e.ModelID, e.Path, e.Expected, e.Actual)
}

// Unwrap lets errors.Is match errors.ErrHashMismatch.
func (e *HashMismatchError) Unwrap() error { return errors.ErrHashMismatch }
