package download

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type progressLog struct {
	mu     sync.Mutex
	events []Progress
}

func (p *progressLog) record(ev Progress) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *progressLog) all() []Progress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Progress(nil), p.events...)
}

func newTestSession() *Session {
	return NewSession(Options{Timeout: 10 * time.Second, BufferSize: 4096})
}

func TestNewSession_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		opts       Options
		expectedUA string
		timeout    time.Duration
	}{
		{name: "defaults", expectedUA: DefaultUserAgent, timeout: DefaultTimeout},
		{name: "custom", opts: Options{UserAgent: "test-agent/1.0", Timeout: time.Second}, expectedUA: "test-agent/1.0", timeout: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession(tt.opts)
			require.NotNil(t, s)
			assert.Equal(t, tt.expectedUA, s.userAgent)
			assert.Equal(t, tt.timeout, s.client.Timeout)
			assert.Equal(t, DefaultBufferSize, s.bufferSize)
		})
	}
}

func TestFetch_FreshDownload(t *testing.T) {
	content := testutil.Blob(50_000)
	srv := testutil.NewModelServer(t, content)
	partial := filepath.Join(t.TempDir(), "model.bin.partial")
	var progress progressLog

	n, err := newTestSession().Fetch(context.Background(), Request{
		ModelID:       "small",
		URL:           srv.ModelURL(),
		PartialPath:   partial,
		ExpectedTotal: uint64(len(content)),
		OnProgress:    progress.record,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(len(content)), n)

	got, err := os.ReadFile(partial)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	assert.Equal(t, []string{""}, srv.RangeHeaders())
	assert.Equal(t, []string{DefaultUserAgent}, srv.UserAgents())

	events := progress.all()
	require.NotEmpty(t, events)
	var last uint64
	for _, ev := range events {
		assert.Equal(t, "small", ev.ModelID)
		assert.Equal(t, uint64(len(content)), ev.Total)
		assert.GreaterOrEqual(t, ev.Downloaded, last)
		last = ev.Downloaded
	}
	assert.Equal(t, float64(100), events[len(events)-1].Percentage)
}

func TestFetch_Resume(t *testing.T) {
	content := testutil.Blob(20_000)
	srv := testutil.NewModelServer(t, content)
	partial := filepath.Join(t.TempDir(), "model.bin.partial")
	require.NoError(t, os.WriteFile(partial, content[:7000], 0o644))
	var progress progressLog

	n, err := newTestSession().Fetch(context.Background(), Request{
		ModelID:       "small",
		URL:           srv.ModelURL(),
		PartialPath:   partial,
		ResumeFrom:    7000,
		ExpectedTotal: uint64(len(content)),
		OnProgress:    progress.record,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(len(content)), n)
	assert.Equal(t, []string{"bytes=7000-"}, srv.RangeHeaders())

	got, err := os.ReadFile(partial)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	events := progress.all()
	require.NotEmpty(t, events)
	assert.Equal(t, uint64(7000), events[0].Downloaded)
}

func TestFetch_ServerIgnoresRange(t *testing.T) {
	content := testutil.Blob(10_000)
	srv := testutil.NewModelServer(t, content)
	srv.IgnoreRange()
	partial := filepath.Join(t.TempDir(), "model.bin.partial")
	require.NoError(t, os.WriteFile(partial, content[:3000], 0o644))

	n, err := newTestSession().Fetch(context.Background(), Request{
		ModelID:       "small",
		URL:           srv.ModelURL(),
		PartialPath:   partial,
		ResumeFrom:    3000,
		ExpectedTotal: uint64(len(content)),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(len(content)), n)

	got, err := os.ReadFile(partial)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestFetch_UnknownTotalUsesContentLength(t *testing.T) {
	content := testutil.Blob(9000)
	srv := testutil.NewModelServer(t, content)
	partial := filepath.Join(t.TempDir(), "model.bin.partial")
	require.NoError(t, os.WriteFile(partial, content[:1000], 0o644))
	var progress progressLog

	_, err := newTestSession().Fetch(context.Background(), Request{
		ModelID:     "small",
		URL:         srv.ModelURL(),
		PartialPath: partial,
		ResumeFrom:  1000,
		OnProgress:  progress.record,
	})
	require.NoError(t, err)

	events := progress.all()
	require.NotEmpty(t, events)
	assert.Equal(t, uint64(len(content)), events[0].Total)
}

func TestFetch_BadStatusKeepsPartial(t *testing.T) {
	srv := testutil.NewModelServer(t, testutil.Blob(100))
	srv.FailWith(http.StatusNotFound)
	partial := filepath.Join(t.TempDir(), "model.bin.partial")
	require.NoError(t, os.WriteFile(partial, []byte("0123456789"), 0o644))

	n, err := newTestSession().Fetch(context.Background(), Request{
		ModelID:     "small",
		URL:         srv.ModelURL(),
		PartialPath: partial,
		ResumeFrom:  10,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrNetwork)
	assert.Contains(t, err.Error(), "unexpected status code: 404")
	assert.Equal(t, uint64(10), n)

	got, err := os.ReadFile(partial)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(got))
}

func TestFetch_PartialLargerThanExpected(t *testing.T) {
	srv := testutil.NewModelServer(t, testutil.Blob(100))

	_, err := newTestSession().Fetch(context.Background(), Request{
		ModelID:       "small",
		URL:           srv.ModelURL(),
		PartialPath:   filepath.Join(t.TempDir(), "model.bin.partial"),
		ResumeFrom:    200,
		ExpectedTotal: 100,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrState)
	assert.Zero(t, srv.Requests())
}

func TestFetch_ServerSendsTooMuch(t *testing.T) {
	content := testutil.Blob(10_000)
	srv := testutil.NewModelServer(t, content)
	partial := filepath.Join(t.TempDir(), "model.bin.partial")

	n, err := newTestSession().Fetch(context.Background(), Request{
		ModelID:       "small",
		URL:           srv.ModelURL(),
		PartialPath:   partial,
		ExpectedTotal: 6000,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSizeMismatch)
	assert.Equal(t, uint64(6000), n)

	info, err := os.Stat(partial)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), info.Size())
}

func TestFetch_CancelledBeforeStart(t *testing.T) {
	srv := testutil.NewModelServer(t, testutil.Blob(100))
	tok := NewCancelToken()
	tok.Cancel()

	_, err := newTestSession().Fetch(context.Background(), Request{
		ModelID:     "small",
		URL:         srv.ModelURL(),
		PartialPath: filepath.Join(t.TempDir(), "model.bin.partial"),
		Cancel:      tok,
	})
	assert.ErrorIs(t, err, errors.ErrCancelled)
	assert.Zero(t, srv.Requests())
}

func TestFetch_CancelStopsStalledTransfer(t *testing.T) {
	content := testutil.Blob(100_000)
	srv := testutil.NewModelServer(t, content)
	srv.StallAfter(4096)
	partial := filepath.Join(t.TempDir(), "model.bin.partial")
	tok := NewCancelToken()
	reached := make(chan struct{})
	var once sync.Once

	type result struct {
		n   uint64
		err error
	}
	done := make(chan result, 1)
	go func() {
		n, err := newTestSession().Fetch(context.Background(), Request{
			ModelID:       "small",
			URL:           srv.ModelURL(),
			PartialPath:   partial,
			ExpectedTotal: uint64(len(content)),
			Cancel:        tok,
			OnProgress: func(p Progress) {
				if p.Downloaded >= 4096 {
					once.Do(func() { close(reached) })
				}
			},
		})
		done <- result{n, err}
	}()

	select {
	case <-reached:
	case <-time.After(5 * time.Second):
		t.Fatal("transfer never reached the stall point")
	}
	tok.Cancel()

	select {
	case res := <-done:
		require.Error(t, res.err)
		assert.ErrorIs(t, res.err, errors.ErrCancelled)
		assert.Equal(t, uint64(4096), res.n)
	case <-time.After(5 * time.Second):
		t.Fatal("cancel did not stop the transfer")
	}

	info, err := os.Stat(partial)
	require.NoError(t, err)
	assert.Equal(t, int64(4096), info.Size())
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := testutil.NewModelServer(t, testutil.Blob(10_000))
	srv.StallAfter(0)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := newTestSession().Fetch(ctx, Request{
		ModelID:     "small",
		URL:         srv.ModelURL(),
		PartialPath: filepath.Join(t.TempDir(), "model.bin.partial"),
	})
	assert.ErrorIs(t, err, errors.ErrCancelled)
}

func TestCheckContentRange(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		offset  uint64
		wantErr bool
	}{
		{name: "missing header", header: "", offset: 10},
		{name: "matching", header: "bytes 10-99/100", offset: 10},
		{name: "wrong start", header: "bytes 0-99/100", offset: 10, wantErr: true},
		{name: "malformed unit", header: "items 10-99/100", offset: 10, wantErr: true},
		{name: "malformed number", header: "bytes x-99/100", offset: 10, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkContentRange(tt.header, tt.offset)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTotalSize(t *testing.T) {
	assert.Equal(t, uint64(500), totalSize(500, 100, 50))
	assert.Equal(t, uint64(150), totalSize(0, 100, 50))
	assert.Equal(t, uint64(50), totalSize(0, 0, 50))
	assert.Equal(t, uint64(0), totalSize(0, 100, -1))
}
