package engine

import (
	stderrors "errors"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/fsutil"
	"github.com/cperrin88/modelvault/pkg/model"
)

// Refresh recomputes the status of id from the models directory.
func (e *Engine) Refresh(id string) error {
	d, err := e.descriptor(id)
	if err != nil {
		return err
	}
	return e.reconcile(d, false)
}

// RefreshAll recomputes the status of every model and discards staging directories left behind
// by an interrupted extraction. Interrupted extractions are never resumed.
func (e *Engine) RefreshAll() error {
	var errs []error
	for _, d := range e.catalog {
		if err := e.reconcile(d, true); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// reconcile is the only place that derives status from disk. It does its I/O before taking
// the registry lock. The reported partial size never exceeds the manifest size; an oversized
// partial file stays on disk and Acquire rejects it.
func (e *Engine) reconcile(d model.Descriptor, discardStaging bool) error {
	if discardStaging {
		e.discardOrphanStaging(d)
	}

	downloaded := e.onDisk(d)
	partial, _, err := fsutil.FileSize(e.partialPath(d))
	if err != nil {
		err = errors.Wrapf(errors.ErrFilesystem, "model %s: %v", d.ID, err)
	}
	if digest, ok := e.manifest.Lookup(d.ID); ok && partial > digest.SizeBytes {
		logger.Warn("Partial download is larger than the manifest size and will not be resumed",
			logger.Fields{"model": d.ID, "partial": partial, "expected": digest.SizeBytes})
		partial = digest.SizeBytes
	}
	e.registry.setDisk(d.ID, downloaded, partial)
	return err
}

// discardOrphanStaging removes the staging directory of d unless an acquisition holds its lock.
func (e *Engine) discardOrphanStaging(d model.Descriptor) {
	staging := e.stagingPath(d)
	if exists, _ := fsutil.Exists(staging); !exists {
		return
	}
	if e.registry.active(d.ID) {
		return
	}

	lock := fsutil.NewFileLock(e.lockPath(d))
	if err := lock.TryLock(); err != nil {
		return
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := fsutil.RemoveIfExists(staging); err != nil {
		logger.Warn("Failed to discard interrupted extraction", logger.Fields{"model": d.ID, "error": err.Error()})
		return
	}
	logger.Info("Discarded interrupted extraction", logger.Fields{"model": d.ID, "path": staging})
}
