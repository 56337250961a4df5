// Package settings persists user choices that outlive a single run, such as the selected model.
package settings

import (
	stderrors "errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/fsutil"
	"gopkg.in/yaml.v3"
)

// Store reads and writes the selected model id.
type Store interface {
	SelectedModel() (string, error)
	SetSelectedModel(id string) error
}

type state struct {
	SelectedModel string `yaml:"selected_model"`
}

// FileStore is a Store backed by a YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

var _ Store = (*FileStore)(nil)

// NewFileStore returns a store persisting to path. The file is created on first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// SelectedModel returns the selected model id, or "" when nothing was selected yet.
func (s *FileStore) SelectedModel() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return "", err
	}
	return st.SelectedModel, nil
}

// SetSelectedModel persists id as the selected model.
func (s *FileStore) SetSelectedModel(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.load()
	if err != nil {
		return err
	}
	st.SelectedModel = id
	return s.save(st)
}

func (s *FileStore) load() (state, error) {
	var st state
	data, err := os.ReadFile(s.path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return st, nil
		}
		return st, errors.Wrapf(errors.ErrFilesystem, "read settings %s: %v", s.path, err)
	}
	if err := yaml.Unmarshal(data, &st); err != nil {
		return st, errors.Wrapf(errors.ErrConfigParse, "settings %s: %v", s.path, err)
	}
	return st, nil
}

func (s *FileStore) save(st state) error {
	if err := fsutil.EnsureFileDir(s.path); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "create settings directory: %v", err)
	}
	data, err := yaml.Marshal(st)
	if err != nil {
		return errors.Wrap(errors.ErrConfigEncode, err.Error())
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.tmp")
	if err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "create temp settings file: %v", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.Wrapf(errors.ErrFilesystem, "write settings: %v", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(errors.ErrFilesystem, "close settings: %v", err)
	}
	if err := os.Chmod(tmpPath, fsutil.FileModeSecure); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(errors.ErrFilesystem, "chmod settings: %v", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.Wrapf(errors.ErrFilesystem, "replace settings: %v", err)
	}
	return nil
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu       sync.Mutex
	selected string
}

// SelectedModel implements Store.
func (m *MemoryStore) SelectedModel() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.selected, nil
}

// SetSelectedModel implements Store.
func (m *MemoryStore) SetSelectedModel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = id
	return nil
}
