package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		msg      string
		expected string
	}{
		{name: "nil error", err: nil, msg: "context"},
		{name: "standard error", err: errors.New("boom"), msg: "context", expected: "context: boom"},
		{name: "empty message", err: errors.New("boom"), msg: "", expected: ": boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Wrap(tt.err, tt.msg)
			if tt.err == nil {
				assert.NoError(t, result)
				return
			}
			assert.EqualError(t, result, tt.expected)
			assert.ErrorIs(t, result, tt.err)
		})
	}
}

func TestWrapf(t *testing.T) {
	assert.NoError(t, Wrapf(nil, "model %s", "small"))

	err := Wrapf(ErrNotFound, "model %s", "small")
	assert.EqualError(t, err, "model small: not found")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
	}{
		{name: "hash mismatch", err: Wrap(ErrHashMismatch, "small"), code: CodeChecksumMismatch},
		{name: "size mismatch", err: Wrap(ErrSizeMismatch, "small"), code: CodeSizeMismatch},
		{name: "archive", err: fmt.Errorf("extract: %w", ErrArchive), code: CodeArchive},
		{name: "network", err: Wrap(ErrNetwork, "GET"), code: CodeNetwork},
		{name: "manifest", err: ErrManifest, code: CodeManifest},
		{name: "not found", err: ErrNotFound, code: CodeNotFound},
		{name: "state", err: ErrState, code: CodeState},
		{name: "filesystem", err: ErrFilesystem, code: CodeFilesystem},
		{name: "cancelled", err: Wrap(ErrCancelled, "small"), code: CodeCancelled},
		{name: "unknown", err: errors.New("something else"), code: CodeDownloadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := Classify(tt.err)
			require.NotNil(t, ce)
			assert.Equal(t, tt.code, ce.Code)
			assert.NotEmpty(t, ce.Message)
			assert.Equal(t, tt.err.Error(), ce.Detail)
		})
	}
}

func TestClassify_Nil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassify_PassesThroughCommandError(t *testing.T) {
	orig := &CommandError{Code: CodeState, Message: "busy"}
	assert.Same(t, orig, Classify(fmt.Errorf("wrapped: %w", orig)))
}
