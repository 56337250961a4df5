package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "small.bin.lock")

	first := NewFileLock(path)
	require.NoError(t, first.TryLock())
	assert.FileExists(t, path)

	second := NewFileLock(path)
	assert.ErrorIs(t, second.TryLock(), ErrLocked)

	require.NoError(t, first.Unlock())
	require.NoError(t, second.TryLock())
	require.NoError(t, second.Unlock())
}

func TestFileLock_UnlockIdempotent(t *testing.T) {
	l := NewFileLock(filepath.Join(t.TempDir(), "x.lock"))
	require.NoError(t, l.Unlock())
	require.NoError(t, l.TryLock())
	require.NoError(t, l.TryLock())
	require.NoError(t, l.Unlock())
	require.NoError(t, l.Unlock())
}
