package settings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "settings.yaml")
	s := NewFileStore(path)

	id, err := s.SelectedModel()
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.SetSelectedModel("small"))
	assert.FileExists(t, path)

	id, err = NewFileStore(path).SelectedModel()
	require.NoError(t, err)
	assert.Equal(t, "small", id)

	require.NoError(t, s.SetSelectedModel("turbo"))
	id, err = s.SelectedModel()
	require.NoError(t, err)
	assert.Equal(t, "turbo", id)
}

func TestFileStore_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("selected_model: [unterminated"), 0o600))

	_, err := NewFileStore(path).SelectedModel()
	assert.ErrorIs(t, err, errors.ErrConfigParse)
}

func TestMemoryStore(t *testing.T) {
	var s MemoryStore
	require.NoError(t, s.SetSelectedModel("large"))
	id, err := s.SelectedModel()
	require.NoError(t, err)
	assert.Equal(t, "large", id)
}
