package engine

import (
	stderrors "errors"
	"os"
	"path/filepath"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/fsutil"
	"github.com/cperrin88/modelvault/pkg/model"
)

// MigrateBundled copies single-file models shipped in the bundled directory into the models
// directory when they are not installed yet. Copies are verified against the manifest before
// they are installed.
func (e *Engine) MigrateBundled() error {
	if e.bundledDir == "" {
		return nil
	}
	var errs []error
	for _, d := range e.catalog {
		if d.Directory {
			continue
		}
		if err := e.migrateOne(d); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func (e *Engine) migrateOne(d model.Descriptor) error {
	src := filepath.Join(e.bundledDir, d.Filename)
	if !fsutil.IsRegularFile(src) || e.onDisk(d) || e.registry.active(d.ID) {
		return nil
	}
	digest, ok := e.manifest.Lookup(d.ID)
	if !ok {
		return errors.Wrapf(errors.ErrManifest, "bundled model %s has no manifest entry", d.ID)
	}

	lock := fsutil.NewFileLock(e.lockPath(d))
	if err := lock.TryLock(); err != nil {
		return nil
	}
	defer func() { _ = lock.Unlock() }()

	partial := e.partialPath(d)
	if err := fsutil.Copy(src, partial, fsutil.FileModeDefault); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "bundled model %s: %v", d.ID, err)
	}
	if err := e.verifier.Verify(partial, digest); err != nil {
		_ = os.Remove(partial)
		return errors.Wrapf(err, "bundled model %s", d.ID)
	}
	if err := os.Rename(partial, e.finalPath(d)); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "bundled model %s: %v", d.ID, err)
	}
	logger.Info("Migrated bundled model", logger.Fields{"model": d.ID})
	return nil
}
