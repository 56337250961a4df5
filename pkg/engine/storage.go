package engine

import (
	stderrors "errors"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/fsutil"
	"github.com/dustin/go-humanize"
)

// Usage summarizes what the models directory holds.
type Usage struct {
	Directory      string `json:"directory"`
	Installed      int    `json:"installed"`
	InstalledBytes uint64 `json:"installed_bytes"`
	Partial        int    `json:"partial"`
	PartialBytes   uint64 `json:"partial_bytes"`
}

// Usage reports installed and partial bytes for every catalog model.
func (e *Engine) Usage() (Usage, error) {
	u := Usage{Directory: e.modelsDir}
	for _, d := range e.catalog {
		st := e.registry.status(d.ID)
		if st.Downloaded {
			size, err := fsutil.DiskSize(e.finalPath(d))
			if err != nil {
				return u, errors.Wrapf(errors.ErrFilesystem, "model %s: %v", d.ID, err)
			}
			u.Installed++
			u.InstalledBytes += size
		}
		partial, ok, err := fsutil.FileSize(e.partialPath(d))
		if err != nil {
			return u, errors.Wrapf(errors.ErrFilesystem, "model %s: %v", d.ID, err)
		}
		if ok && partial > 0 {
			u.Partial++
			u.PartialBytes += partial
		}
	}
	return u, nil
}

// DiscardPartial removes the partial download and staging directory of id and returns the
// number of partial bytes freed. Installed artifacts are left alone.
func (e *Engine) DiscardPartial(id string) (uint64, error) {
	d, err := e.descriptor(id)
	if err != nil {
		return 0, err
	}
	if e.registry.active(id) {
		return 0, errors.Wrapf(errors.ErrState, "model %s is downloading; cancel it first", id)
	}

	lock := fsutil.NewFileLock(e.lockPath(d))
	if err := lock.TryLock(); err != nil {
		if stderrors.Is(err, fsutil.ErrLocked) {
			return 0, errors.Wrapf(errors.ErrState, "model %s is being downloaded by another process", id)
		}
		return 0, errors.Wrapf(errors.ErrFilesystem, "model %s: %v", id, err)
	}
	defer func() { _ = lock.Unlock() }()

	freed, _, err := fsutil.FileSize(e.partialPath(d))
	if err != nil {
		return 0, errors.Wrapf(errors.ErrFilesystem, "model %s: %v", id, err)
	}
	for _, path := range []string{e.partialPath(d), e.stagingPath(d)} {
		if _, err := fsutil.RemoveIfExists(path); err != nil {
			return 0, errors.Wrapf(errors.ErrFilesystem, "model %s: %v", id, err)
		}
	}
	e.registry.takeRestart(id)

	if freed > 0 {
		logger.Info("Discarded partial download", logger.Fields{"model": id, "size": humanize.IBytes(freed)})
	}
	return freed, e.reconcile(d, false)
}
