package engine

import (
	"sync"

	"github.com/cperrin88/modelvault/pkg/download"
	"github.com/cperrin88/modelvault/pkg/model"
)

// entry is the in-memory record of one model. Disk-derived fields are only written by reconcile.
type entry struct {
	downloaded  bool
	partialSize uint64
	token       *download.CancelToken // non-nil while an acquisition runs
	cancelled   bool
	restart     bool // next attempt must discard the partial file
}

// registry guards all per-model state behind one mutex. No I/O happens while it is held.
type registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func newRegistry(ids []string) *registry {
	r := &registry{entries: make(map[string]*entry, len(ids))}
	for _, id := range ids {
		r.entries[id] = &entry{}
	}
	return r
}

func (r *registry) get(id string) *entry {
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	return e
}

// begin marks id busy and returns the cancel token of the new attempt.
// It returns false if an acquisition for id is already running.
func (r *registry) begin(id string) (*download.CancelToken, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.get(id)
	if e.token != nil {
		return nil, false
	}
	e.token = download.NewCancelToken()
	e.cancelled = false
	return e.token, true
}

func (r *registry) end(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.get(id)
	e.token = nil
	e.cancelled = false
}

// cancel trips the active token of id and reports whether there was one.
func (r *registry) cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.get(id)
	if e.token == nil {
		return false
	}
	e.token.Cancel()
	e.cancelled = true
	return true
}

func (r *registry) active(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id).token != nil
}

func (r *registry) setDisk(id string, downloaded bool, partialSize uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.get(id)
	e.downloaded = downloaded
	e.partialSize = partialSize
}

func (r *registry) status(id string) model.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.get(id)
	return model.Status{
		Downloaded:  e.downloaded,
		Downloading: e.token != nil && !e.cancelled,
		PartialSize: e.partialSize,
	}
}

func (r *registry) markRestart(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.get(id).restart = true
}

// takeRestart reports and clears the restart flag of id.
func (r *registry) takeRestart(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.get(id)
	restart := e.restart
	e.restart = false
	return restart
}
