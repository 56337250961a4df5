// Package engine acquires speech models: it downloads them with resume support, verifies them
// against a trusted manifest, unpacks archive models safely and installs them atomically.
//
// For a model whose artifact name is <name> the models directory holds:
//
//	<name>             the installed file or directory
//	<name>.partial     bytes downloaded so far
//	<name>.extracting  staging directory while an archive is unpacked
//	<name>.lock        advisory lock held during acquisition
package engine

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/download"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/cperrin88/modelvault/pkg/fsutil"
	"github.com/cperrin88/modelvault/pkg/manifest"
	"github.com/cperrin88/modelvault/pkg/model"
	"github.com/cperrin88/modelvault/pkg/verify"
)

// DefaultMaxConcurrent bounds AcquireAll when Options.MaxConcurrent is unset.
const DefaultMaxConcurrent = 2

// Options configure an Engine.
type Options struct {
	// ModelsDir is where models are installed. It is created if missing.
	ModelsDir string
	// BundledDir optionally holds model files shipped with the application.
	BundledDir string
	// Catalog lists the models the engine manages. Empty means model.DefaultCatalog().
	Catalog []model.Descriptor
	// Manifest is the trusted digest list. It is required.
	Manifest *manifest.Manifest
	// Fetcher performs transfers. Nil means a download.Session with default options.
	Fetcher download.Fetcher
	// Sink receives progress and lifecycle events. Nil discards them.
	Sink          events.Sink
	MaxConcurrent int
}

// Engine manages the models directory. All methods are safe for concurrent use.
type Engine struct {
	modelsDir     string
	bundledDir    string
	catalog       []model.Descriptor
	byID          map[string]model.Descriptor
	manifest      *manifest.Manifest
	fetcher       download.Fetcher
	verifier      *verify.Verifier
	sink          events.Sink
	maxConcurrent int
	registry      *registry
}

// New validates opts, prepares the models directory, migrates bundled models and reconciles
// every model's status with what is on disk.
func New(opts Options) (*Engine, error) {
	if opts.Manifest == nil {
		return nil, errors.Wrap(errors.ErrManifest, "a verified model manifest is required")
	}
	if opts.ModelsDir == "" {
		return nil, errors.ErrModelsDirEmpty
	}
	catalog := opts.Catalog
	if len(catalog) == 0 {
		catalog = model.DefaultCatalog()
	}

	byID := make(map[string]model.Descriptor, len(catalog))
	filenames := make(map[string]string, len(catalog))
	ids := make([]string, 0, len(catalog))
	for _, d := range catalog {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("invalid catalog: %w", err)
		}
		if _, dup := byID[d.ID]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate model id %s", d.ID)
		}
		if other, dup := filenames[d.Filename]; dup {
			return nil, fmt.Errorf("invalid catalog: models %s and %s share filename %s", other, d.ID, d.Filename)
		}
		byID[d.ID] = d
		filenames[d.Filename] = d.ID
		ids = append(ids, d.ID)
	}

	if err := os.MkdirAll(opts.ModelsDir, fsutil.DirModeDefault); err != nil {
		return nil, errors.Wrapf(errors.ErrFilesystem, "create models directory %s: %v", opts.ModelsDir, err)
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = download.NewSession(download.Options{})
	}
	sink := opts.Sink
	if sink == nil {
		sink = events.Discard
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}

	e := &Engine{
		modelsDir:     opts.ModelsDir,
		bundledDir:    opts.BundledDir,
		catalog:       append([]model.Descriptor(nil), catalog...),
		byID:          byID,
		manifest:      opts.Manifest,
		fetcher:       fetcher,
		verifier:      verify.NewVerifier(),
		sink:          sink,
		maxConcurrent: maxConcurrent,
		registry:      newRegistry(ids),
	}

	for _, d := range catalog {
		if _, ok := e.manifest.Lookup(d.ID); !ok {
			logger.Warn("Model has no manifest entry and cannot be downloaded", logger.Fields{"model": d.ID})
		}
	}

	if err := e.MigrateBundled(); err != nil {
		logger.Warn("Failed to migrate bundled models", logger.Fields{"error": err.Error()})
	}
	if err := e.RefreshAll(); err != nil {
		return nil, err
	}
	return e, nil
}

// ModelsDir returns the models directory.
func (e *Engine) ModelsDir() string {
	return e.modelsDir
}

// Models returns every catalog model with its current status, in catalog order.
func (e *Engine) Models() []model.Info {
	out := make([]model.Info, 0, len(e.catalog))
	for _, d := range e.catalog {
		out = append(out, model.Info{Descriptor: d, Status: e.registry.status(d.ID)})
	}
	return out
}

// Model returns one model with its current status.
func (e *Engine) Model(id string) (model.Info, error) {
	d, err := e.descriptor(id)
	if err != nil {
		return model.Info{}, err
	}
	return model.Info{Descriptor: d, Status: e.registry.status(id)}, nil
}

// Status returns the current status of id.
func (e *Engine) Status(id string) (model.Status, error) {
	if _, err := e.descriptor(id); err != nil {
		return model.Status{}, err
	}
	return e.registry.status(id), nil
}

// AnyDownloaded reports whether at least one model is installed.
func (e *Engine) AnyDownloaded() bool {
	for _, d := range e.catalog {
		if e.registry.status(d.ID).Downloaded {
			return true
		}
	}
	return false
}

// ModelPath returns the installed path of id. It fails with errors.ErrState while the model is
// downloading or when it is not installed.
func (e *Engine) ModelPath(id string) (string, error) {
	d, err := e.descriptor(id)
	if err != nil {
		return "", err
	}
	if e.registry.active(id) {
		return "", errors.Wrapf(errors.ErrState, "model %s is currently downloading", id)
	}
	if !e.onDisk(d) {
		return "", errors.Wrapf(errors.ErrState, "model %s is not downloaded", id)
	}
	return e.finalPath(d), nil
}

// Digest returns the manifest digest of id.
func (e *Engine) Digest(id string) (manifest.Digest, error) {
	if _, err := e.descriptor(id); err != nil {
		return manifest.Digest{}, err
	}
	d, ok := e.manifest.Lookup(id)
	if !ok {
		return manifest.Digest{}, errors.Wrapf(errors.ErrManifest, "no manifest entry for model %s", id)
	}
	return d, nil
}

func (e *Engine) descriptor(id string) (model.Descriptor, error) {
	d, ok := e.byID[id]
	if !ok {
		return model.Descriptor{}, errors.Wrapf(errors.ErrNotFound, "model %s", id)
	}
	return d, nil
}

func (e *Engine) finalPath(d model.Descriptor) string {
	return filepath.Join(e.modelsDir, d.Filename)
}

func (e *Engine) partialPath(d model.Descriptor) string {
	return filepath.Join(e.modelsDir, d.PartialName())
}

func (e *Engine) stagingPath(d model.Descriptor) string {
	return filepath.Join(e.modelsDir, d.StagingName())
}

func (e *Engine) lockPath(d model.Descriptor) string {
	return filepath.Join(e.modelsDir, d.LockName())
}

// onDisk reports whether the installed artifact of d exists with the expected shape. File models
// must also match the manifest size when the manifest knows them.
func (e *Engine) onDisk(d model.Descriptor) bool {
	final := e.finalPath(d)
	if d.Directory {
		return fsutil.IsDir(final)
	}
	size, ok, err := fsutil.FileSize(final)
	if err != nil || !ok {
		return false
	}
	if digest, known := e.manifest.Lookup(d.ID); known {
		return size == digest.SizeBytes
	}
	return true
}

func (e *Engine) emit(ev events.Event) {
	e.sink.Emit(ev)
}
