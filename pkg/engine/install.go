package engine

import (
	"context"
	"os"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/archive"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/events"
	"github.com/cperrin88/modelvault/pkg/fsutil"
)

// installFile promotes a verified partial file to its final name.
func (e *Engine) installFile(a *attempt) error {
	if err := os.Rename(a.partial, a.final); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "model %s: install %s: %v", a.id, a.final, err)
	}
	return nil
}

// installArchive unpacks a verified archive into the staging directory and swaps the result
// into place. The partial file is removed only after the swap succeeded.
func (e *Engine) installArchive(ctx context.Context, a *attempt) error {
	e.emit(events.Event{Kind: events.KindExtractionStarted, ModelID: a.id, Attempt: a.uid})

	if err := e.extractAndPromote(ctx, a); err != nil {
		if _, rmErr := fsutil.RemoveIfExists(a.staging); rmErr != nil {
			logger.Warn("Failed to remove staging directory", a.fields, logger.Fields{"error": rmErr.Error()})
		}
		e.emit(events.Event{Kind: events.KindExtractionFailed, ModelID: a.id, Attempt: a.uid, Error: err.Error()})
		return err
	}

	e.emit(events.Event{Kind: events.KindExtractionCompleted, ModelID: a.id, Attempt: a.uid})
	if err := os.Remove(a.partial); err != nil {
		logger.Warn("Failed to remove archive after extraction", a.fields, logger.Fields{"error": err.Error()})
	}
	return nil
}

func (e *Engine) extractAndPromote(ctx context.Context, a *attempt) error {
	if _, err := fsutil.RemoveIfExists(a.staging); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "model %s: clear staging: %v", a.id, err)
	}

	logger.Info("Extracting model archive", a.fields)
	if err := archive.ExtractFile(ctx, a.partial, a.staging); err != nil {
		return errors.Wrapf(err, "model %s: extraction failed", a.id)
	}

	root, err := archive.SingleRoot(a.staging)
	if err != nil {
		return err
	}

	if _, err := fsutil.RemoveIfExists(a.final); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "model %s: remove previous install: %v", a.id, err)
	}
	if err := os.Rename(root, a.final); err != nil {
		return errors.Wrapf(errors.ErrFilesystem, "model %s: install %s: %v", a.id, a.final, err)
	}
	if root != a.staging {
		if err := os.RemoveAll(a.staging); err != nil {
			logger.Warn("Failed to remove staging directory", a.fields, logger.Fields{"error": err.Error()})
		}
	}
	return nil
}
