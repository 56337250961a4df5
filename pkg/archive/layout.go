package archive

import (
	"os"
	"path/filepath"

	"github.com/cperrin88/modelvault/pkg/errors"
)

// SingleRoot returns the directory to promote after extracting into dir.
// When dir holds exactly one entry and that entry is a directory, the archive wrapped its
// content in a top-level folder and that folder is returned. Otherwise dir itself is returned.
func SingleRoot(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", errors.Wrapf(errors.ErrFilesystem, "read %s: %v", dir, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(dir, entries[0].Name()), nil
	}
	return dir, nil
}
