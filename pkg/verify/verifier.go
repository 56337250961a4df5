// Package verify checks downloaded model files against their manifest digests.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"

	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/manifest"
)

// DefaultBufferSize is the read buffer used while hashing.
const DefaultBufferSize = 8 * 1024

// Verifier validates files against manifest digests.
type Verifier struct {
	bufferSize int
}

// NewVerifier creates a new Verifier.
func NewVerifier() *Verifier {
	return &Verifier{bufferSize: DefaultBufferSize}
}

// Verify checks the file at path against d. The size is compared before any byte is hashed.
// Failures are *SizeMismatchError, *HashMismatchError, or an errors.ErrFilesystem wrap.
func (v *Verifier) Verify(path string, d manifest.Digest) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "stat %s: %v", path, err)
	}
	if !info.Mode().IsRegular() {
		return errors.Wrapf(errors.ErrFilesystem, "%s is not a regular file", path)
	}
	if actual := uint64(info.Size()); actual != d.SizeBytes {
		return &SizeMismatchError{ModelID: d.ModelID, Path: path, Expected: d.SizeBytes, Actual: actual}
	}

	actual, err := v.HashFile(path)
	if err != nil {
		return err
	}
	if actual != d.SHA256 {
		return &HashMismatchError{ModelID: d.ModelID, Path: path, Expected: d.SHA256, Actual: actual}
	}
	return nil
}

// HashFile returns the lowercase hex SHA-256 of the file at path.
func (v *Verifier) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrapf(errors.ErrFilesystem, "open %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	size := v.bufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	h := sha256.New()
	if _, err := io.CopyBuffer(h, onlyReader{f}, make([]byte, size)); err != nil {
		return "", errors.Wrapf(errors.ErrFilesystem, "read %s: %v", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// onlyReader hides *os.File's WriterTo so io.CopyBuffer uses the provided buffer.
type onlyReader struct {
	r io.Reader
}

func (o onlyReader) Read(p []byte) (int, error) {
	return o.r.Read(p)
}
