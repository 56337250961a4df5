// Package testutil provides HTTP servers and archive builders shared by package tests.
package testutil

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// ModelServer serves a single model blob with HTTP range support and records every request.
type ModelServer struct {
	*httptest.Server

	mu          sync.Mutex
	content     []byte
	requests    int
	ranges      []string
	userAgents  []string
	ignoreRange bool
	status      int
	stallAfter  int
	done        chan struct{}
}

// NewModelServer starts a server for content. It is closed when the test ends.
func NewModelServer(t *testing.T, content []byte) *ModelServer {
	t.Helper()
	s := &ModelServer{content: content, stallAfter: -1, done: make(chan struct{})}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Server.Close)
	t.Cleanup(func() { close(s.done) })
	return s
}

// ModelURL returns the URL of the served blob.
func (s *ModelServer) ModelURL() string {
	return s.Server.URL + "/model.bin"
}

// SetContent replaces the served blob.
func (s *ModelServer) SetContent(content []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.content = content
}

// IgnoreRange makes the server answer every request with the full body and status 200.
func (s *ModelServer) IgnoreRange() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignoreRange = true
}

// FailWith makes the server answer every request with status.
func (s *ModelServer) FailWith(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// StallAfter makes the server write n bytes of the body and then hold the connection open until
// the client goes away.
func (s *ModelServer) StallAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stallAfter = n
}

// Requests returns how many requests were served.
func (s *ModelServer) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// RangeHeaders returns the Range header of every request, in order. Requests without one record "".
func (s *ModelServer) RangeHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranges...)
}

// UserAgents returns the User-Agent header of every request, in order.
func (s *ModelServer) UserAgents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.userAgents...)
}

func (s *ModelServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests++
	s.ranges = append(s.ranges, r.Header.Get("Range"))
	s.userAgents = append(s.userAgents, r.Header.Get("User-Agent"))
	content := s.content
	ignoreRange := s.ignoreRange
	status := s.status
	stallAfter := s.stallAfter
	s.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	if stallAfter >= 0 {
		s.stall(w, r, content, stallAfter)
		return
	}

	if ignoreRange {
		r.Header.Del("Range")
	}
	http.ServeContent(w, r, "model.bin", time.Time{}, bytes.NewReader(content))
}

func (s *ModelServer) stall(w http.ResponseWriter, r *http.Request, content []byte, n int) {
	start := 0
	if rng := r.Header.Get("Range"); strings.HasPrefix(rng, "bytes=") {
		_, _ = fmt.Sscanf(strings.TrimSuffix(strings.TrimPrefix(rng, "bytes="), "-"), "%d", &start)
	}
	if start > len(content) {
		start = len(content)
	}
	body := content[start:]
	if n > len(body) {
		n = len(body)
	}

	w.Header().Set("Content-Length", fmt.Sprint(len(body)))
	if start > 0 {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, len(content)-1, len(content)))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_, _ = w.Write(body[:n])
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	select {
	case <-r.Context().Done():
	case <-s.done:
	}
}
