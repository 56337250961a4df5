package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultDirs(t *testing.T) {
	assert.Equal(t, AppName, filepath.Base(DataDir()))
	assert.Equal(t, AppName, filepath.Base(StateDir()))
	assert.Equal(t, AppName, filepath.Base(ConfigDir()))
	assert.Equal(t, filepath.Join(DataDir(), "models"), ModelsDir())
}
