package engine

import (
	"context"
	stderrors "errors"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/download"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/cperrin88/modelvault/pkg/fsutil"
	"github.com/cperrin88/modelvault/pkg/manifest"
	"github.com/cperrin88/modelvault/pkg/model"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// attempt carries everything one acquisition needs.
type attempt struct {
	id      string
	desc    model.Descriptor
	digest  manifest.Digest
	token   *download.CancelToken
	fields  logger.Fields
	uid     string
	final   string
	partial string
	staging string
}

// Acquire makes model id available in the models directory.
//
// An already installed model returns immediately without network activity. Otherwise the
// download resumes from any partial file, is verified against the manifest and is installed
// atomically. Concurrent calls for the same id fail with errors.ErrState. Cancel(id) stops a
// running acquisition, which then returns errors.ErrCancelled and keeps the partial file.
func (e *Engine) Acquire(ctx context.Context, id string) error {
	desc, err := e.descriptor(id)
	if err != nil {
		return err
	}
	digest, ok := e.manifest.Lookup(id)
	if !ok {
		return errors.Wrapf(errors.ErrManifest, "no manifest entry for model %s", id)
	}

	token, ok := e.registry.begin(id)
	if !ok {
		return errors.Wrapf(errors.ErrState, "model %s: download already in progress", id)
	}

	lock := fsutil.NewFileLock(e.lockPath(desc))
	if err := lock.TryLock(); err != nil {
		e.registry.end(id)
		if stderrors.Is(err, fsutil.ErrLocked) {
			return errors.Wrapf(errors.ErrState, "model %s: download already in progress in another process", id)
		}
		return errors.Wrapf(errors.ErrFilesystem, "model %s: %v", id, err)
	}

	uid := uuid.NewString()
	a := &attempt{
		id:      id,
		desc:    desc,
		digest:  digest,
		token:   token,
		uid:     uid,
		fields:  logger.Fields{"model": id, "attempt": uid},
		final:   e.finalPath(desc),
		partial: e.partialPath(desc),
		staging: e.stagingPath(desc),
	}

	defer func() {
		e.registry.end(id)
		if err := e.reconcile(desc, false); err != nil {
			logger.Warn("Failed to refresh model status", logger.Fields{"model": id, "error": err.Error()})
		}
		_ = lock.Unlock()
	}()

	err = e.acquire(ctx, a)
	if err != nil {
		logger.Error("Model acquisition failed", a.fields, logger.Fields{"error": err.Error()})
	}
	return err
}

func (e *Engine) acquire(ctx context.Context, a *attempt) error {
	if e.onDisk(a.desc) {
		if removed, err := fsutil.RemoveIfExists(a.partial); err != nil {
			return errors.Wrapf(errors.ErrFilesystem, "model %s: %v", a.id, err)
		} else if removed {
			logger.Debug("Removed stale partial file of installed model", a.fields)
		}
		logger.Info("Model already installed", a.fields)
		return nil
	}

	offset, err := e.resumeOffset(a)
	if err != nil {
		return err
	}

	if offset == a.digest.SizeBytes {
		verr := e.verifier.Verify(a.partial, a.digest)
		if verr == nil {
			logger.Info("Partial file already complete, installing without download", a.fields)
			return e.finish(ctx, a)
		}
		logger.Warn("Complete partial file failed verification, downloading again", a.fields,
			logger.Fields{"error": verr.Error()})
		offset = 0
	}

	if offset > 0 {
		logger.Info("Resuming model download", a.fields, logger.Fields{
			"offset": humanize.IBytes(offset),
			"total":  humanize.IBytes(a.digest.SizeBytes),
		})
	} else {
		logger.Info("Downloading model", a.fields, logger.Fields{"size": humanize.IBytes(a.digest.SizeBytes)})
	}

	n, err := e.fetcher.Fetch(ctx, download.Request{
		ModelID:       a.id,
		URL:           a.desc.URL,
		PartialPath:   a.partial,
		ResumeFrom:    offset,
		ExpectedTotal: a.digest.SizeBytes,
		Cancel:        a.token,
		OnProgress: func(p download.Progress) {
			e.emit(events.Event{
				Kind:       events.KindDownloadProgress,
				ModelID:    a.id,
				Attempt:    a.uid,
				Downloaded: p.Downloaded,
				Total:      p.Total,
				Percentage: p.Percentage,
			})
		},
	})
	if err != nil {
		switch {
		case stderrors.Is(err, errors.ErrCancelled):
			logger.Info("Model download cancelled, partial file kept", a.fields, logger.Fields{"bytes": n})
		case stderrors.Is(err, errors.ErrSizeMismatch):
			e.registry.markRestart(a.id)
		}
		return err
	}

	if err := e.verifier.Verify(a.partial, a.digest); err != nil {
		if stderrors.Is(err, errors.ErrSizeMismatch) || stderrors.Is(err, errors.ErrHashMismatch) {
			e.registry.markRestart(a.id)
		}
		return err
	}
	logger.Debug("Model verified", a.fields, logger.Fields{"sha256": a.digest.SHA256})

	return e.finish(ctx, a)
}

// resumeOffset returns the byte offset the next transfer starts from.
func (e *Engine) resumeOffset(a *attempt) (uint64, error) {
	size, exists, err := fsutil.FileSize(a.partial)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrFilesystem, "model %s: %v", a.id, err)
	}
	restart := e.registry.takeRestart(a.id)
	if !exists {
		return 0, nil
	}
	if restart {
		logger.Info("Discarding partial file that failed verification", a.fields)
		return 0, nil
	}
	if size > a.digest.SizeBytes {
		return 0, errors.Wrapf(errors.ErrState,
			"model %s: partial file holds %d bytes, more than the expected %d; delete the model to start over",
			a.id, size, a.digest.SizeBytes)
	}
	return size, nil
}

func (e *Engine) finish(ctx context.Context, a *attempt) error {
	var err error
	if a.desc.Directory {
		err = e.installArchive(ctx, a)
	} else {
		err = e.installFile(a)
	}
	if err != nil {
		return err
	}
	logger.Success("Model installed", a.fields, logger.Fields{"path": a.final})
	e.emit(events.Event{Kind: events.KindDownloadComplete, ModelID: a.id, Attempt: a.uid})
	return nil
}
