package engine

import (
	"context"
	stderrors "errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// AcquireAll acquires every id, running at most Options.MaxConcurrent acquisitions at once.
// Each id is attempted regardless of the others; the returned error joins every failure.
func (e *Engine) AcquireAll(ctx context.Context, ids []string) error {
	seen := make(map[string]bool, len(ids))
	var g errgroup.Group
	g.SetLimit(e.maxConcurrent)

	var mu sync.Mutex
	var errs []error
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		g.Go(func() error {
			if err := e.Acquire(ctx, id); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return stderrors.Join(errs...)
}
