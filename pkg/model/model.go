// Package model defines the descriptors and status types of downloadable speech models.
package model

import "fmt"

// EngineType identifies the inference engine that consumes a model.
type EngineType string

// Supported engine types.
const (
	EngineWhisper  EngineType = "whisper"
	EngineParakeet EngineType = "parakeet"
)

// Valid reports whether e is a known engine type.
func (e EngineType) Valid() bool {
	switch e {
	case EngineWhisper, EngineParakeet:
		return true
	default:
		return false
	}
}

// Descriptor describes a model that can be acquired. Descriptors are immutable once handed to the engine.
type Descriptor struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`
	Filename    string     `yaml:"filename" json:"filename"` // installed artifact name inside the models directory
	URL         string     `yaml:"url" json:"url"`
	SizeMB      uint64     `yaml:"size_mb,omitempty" json:"size_mb,omitempty"`
	Directory   bool       `yaml:"directory,omitempty" json:"is_directory"`
	Engine      EngineType `yaml:"engine" json:"engine_type"`
}

// Validate checks that the descriptor can be used to lay out files on disk.
func (d Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("model id cannot be empty")
	}
	if d.Filename == "" {
		return fmt.Errorf("model %s: filename cannot be empty", d.ID)
	}
	if !isPlainName(d.Filename) {
		return fmt.Errorf("model %s: filename %q must be a plain file name", d.ID, d.Filename)
	}
	if d.Engine != "" && !d.Engine.Valid() {
		return fmt.Errorf("model %s: unknown engine type %q", d.ID, d.Engine)
	}
	return nil
}

// PartialName returns the file name used while the artifact is being downloaded.
func (d Descriptor) PartialName() string {
	return d.Filename + ".partial"
}

// StagingName returns the directory name used while an archive is being extracted.
func (d Descriptor) StagingName() string {
	return d.Filename + ".extracting"
}

// LockName returns the advisory lock file name guarding acquisition of the model.
func (d Descriptor) LockName() string {
	return d.Filename + ".lock"
}

// Status is the engine's view of a model's presence on disk.
type Status struct {
	Downloaded  bool   `json:"is_downloaded"`
	Downloading bool   `json:"is_downloading"`
	PartialSize uint64 `json:"partial_size"`
}

// Info combines a descriptor with its current status.
type Info struct {
	Descriptor
	Status
}

func isPlainName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		switch r {
		case '/', '\\', ':', 0:
			return false
		}
	}
	return true
}
