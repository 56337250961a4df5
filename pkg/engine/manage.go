package engine

import (
	stderrors "errors"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/fsutil"
)

// Delete removes the installed artifact, partial file and staging directory of id.
// It fails with errors.ErrState while id is downloading and with errors.ErrNotFound when
// neither the installed artifact nor a partial file existed. A leftover staging directory is
// removed but does not count as a model.
func (e *Engine) Delete(id string) error {
	d, err := e.descriptor(id)
	if err != nil {
		return err
	}
	if e.registry.active(id) {
		return errors.Wrapf(errors.ErrState, "model %s is downloading; cancel it first", id)
	}

	lock := fsutil.NewFileLock(e.lockPath(d))
	if err := lock.TryLock(); err != nil {
		if stderrors.Is(err, fsutil.ErrLocked) {
			return errors.Wrapf(errors.ErrState, "model %s is being downloaded by another process", id)
		}
		return errors.Wrapf(errors.ErrFilesystem, "model %s: %v", id, err)
	}
	defer func() { _ = lock.Unlock() }()

	removed := false
	var errs []error
	for _, path := range []string{e.finalPath(d), e.partialPath(d), e.stagingPath(d)} {
		ok, err := fsutil.RemoveIfExists(path)
		if err != nil {
			errs = append(errs, errors.Wrapf(errors.ErrFilesystem, "model %s: %v", id, err))
		}
		if path != e.stagingPath(d) {
			removed = removed || ok
		}
	}
	e.registry.takeRestart(id)

	if err := e.reconcile(d, false); err != nil {
		errs = append(errs, err)
	}
	if err := stderrors.Join(errs...); err != nil {
		return err
	}
	if !removed {
		return errors.Wrapf(errors.ErrNotFound, "no files found for model %s", id)
	}
	logger.Info("Model deleted", logger.Fields{"model": id})
	return nil
}

// Cancel stops the running acquisition of id, if any. The acquisition returns
// errors.ErrCancelled and leaves its partial file for a later resume. The status is
// refreshed from disk whether or not a download was running.
func (e *Engine) Cancel(id string) error {
	d, err := e.descriptor(id)
	if err != nil {
		return err
	}
	if e.registry.cancel(id) {
		logger.Info("Cancelling model download", logger.Fields{"model": id})
	}
	return e.reconcile(d, false)
}
