package download

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cperrin88/modelvault/internal/logger"
	"github.com/cperrin88/modelvault/pkg/errors"
	"github.com/cperrin88/modelvault/pkg/fsutil"
)

// Defaults for NewSession.
const (
	DefaultUserAgent      = "modelvault/1.0"
	DefaultTimeout        = 10 * time.Minute
	DefaultConnectTimeout = 30 * time.Second
	DefaultBufferSize     = 32 * 1024
)

// Options configure a Session.
type Options struct {
	// Timeout bounds a whole request, body included. Zero means DefaultTimeout.
	Timeout time.Duration
	// ConnectTimeout bounds establishing the TCP connection. Zero means DefaultConnectTimeout.
	ConnectTimeout time.Duration
	UserAgent      string
	BufferSize     int
}

// Session is the HTTP implementation of Fetcher.
type Session struct {
	client     *http.Client
	userAgent  string
	bufferSize int
}

var _ Fetcher = (*Session)(nil)

// NewSession creates a Session from opts.
func NewSession(opts Options) *Session {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &Session{
		client:     &http.Client{Timeout: opts.Timeout, Transport: transport},
		userAgent:  opts.UserAgent,
		bufferSize: opts.BufferSize,
	}
}

// Fetch implements Fetcher.
func (s *Session) Fetch(ctx context.Context, req Request) (uint64, error) {
	if req.Cancel == nil {
		req.Cancel = NewCancelToken()
	}
	if req.ExpectedTotal > 0 && req.ResumeFrom > req.ExpectedTotal {
		return req.ResumeFrom, errors.Wrapf(errors.ErrState,
			"partial file for %s holds %d bytes, more than the expected %d", req.ModelID, req.ResumeFrom, req.ExpectedTotal)
	}
	if req.Cancel.Cancelled() {
		return req.ResumeFrom, cancelledError(req.ModelID)
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := context.AfterFunc(req.Cancel.ctx, func() { cancel(errors.ErrCancelled) })
	defer stop()

	resp, err := s.doRequest(ctx, req)
	if err != nil {
		return req.ResumeFrom, transferError(ctx, req, err)
	}
	defer func() { _ = resp.Body.Close() }()

	offset := req.ResumeFrom
	switch {
	case offset > 0 && resp.StatusCode == http.StatusOK:
		logger.Warn("Server ignored range request, restarting download from zero",
			logger.Fields{"model": req.ModelID, "offset": offset})
		offset = 0
	case resp.StatusCode == http.StatusPartialContent:
		if err := checkContentRange(resp.Header.Get("Content-Range"), offset); err != nil {
			return req.ResumeFrom, errors.Wrapf(errors.ErrNetwork, "model %s: %v", req.ModelID, err)
		}
	}

	file, err := openPartial(req.PartialPath, offset)
	if err != nil {
		return req.ResumeFrom, err
	}

	total := totalSize(req.ExpectedTotal, offset, resp.ContentLength)
	downloaded, copyErr := s.copyBody(ctx, req, file, resp.Body, offset, total)

	if err := file.Sync(); err != nil && copyErr == nil {
		copyErr = errors.Wrapf(errors.ErrFilesystem, "sync %s: %v", req.PartialPath, err)
	}
	if err := file.Close(); err != nil && copyErr == nil {
		copyErr = errors.Wrapf(errors.ErrFilesystem, "close %s: %v", req.PartialPath, err)
	}
	return downloaded, copyErr
}

func (s *Session) doRequest(ctx context.Context, req Request) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, http.NoBody)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNetwork, "failed to create request for %s: %v", req.URL, err)
	}
	httpReq.Header.Set("User-Agent", s.userAgent)
	if req.ResumeFrom > 0 {
		httpReq.Header.Set("Range", fmt.Sprintf("bytes=%d-", req.ResumeFrom))
	}

	logger.Debug("Requesting model", logger.Fields{"model": req.ModelID, "url": req.URL, "offset": req.ResumeFrom})
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d: %w", resp.StatusCode, errors.ErrNetwork)
	}
	return resp, nil
}

func (s *Session) copyBody(ctx context.Context, req Request, w io.Writer, body io.Reader, offset, total uint64) (uint64, error) {
	downloaded := offset
	report := func() {
		if req.OnProgress != nil {
			req.OnProgress(Progress{
				ModelID:    req.ModelID,
				Downloaded: downloaded,
				Total:      total,
				Percentage: Percentage(downloaded, total),
			})
		}
	}
	report()

	buf := make([]byte, s.bufferSize)
	for {
		if req.Cancel.Cancelled() {
			return downloaded, cancelledError(req.ModelID)
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			overflow := req.ExpectedTotal > 0 && downloaded+uint64(n) > req.ExpectedTotal
			if overflow {
				chunk = chunk[:req.ExpectedTotal-downloaded]
			}
			if _, err := w.Write(chunk); err != nil {
				return downloaded, errors.Wrapf(errors.ErrFilesystem, "write %s: %v", req.PartialPath, err)
			}
			downloaded += uint64(len(chunk))
			report()
			if overflow {
				return downloaded, errors.Wrapf(errors.ErrSizeMismatch,
					"model %s: server sent more than the expected %d bytes", req.ModelID, req.ExpectedTotal)
			}
		}

		if readErr == io.EOF {
			return downloaded, nil
		}
		if readErr != nil {
			return downloaded, transferError(ctx, req, readErr)
		}
	}
}

// openPartial opens the partial file positioned at offset. Offset 0 truncates it.
func openPartial(path string, offset uint64) (*os.File, error) {
	if offset == 0 {
		f, err := fsutil.CreateFilePerm(path, fsutil.FileModeDefault)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrFilesystem, "create %s: %v", path, err)
		}
		return f, nil
	}

	f, err := os.OpenFile(path, os.O_WRONLY, fsutil.FileModeDefault)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFilesystem, "open %s: %v", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(errors.ErrFilesystem, "stat %s: %v", path, err)
	}
	if uint64(info.Size()) < offset {
		_ = f.Close()
		return nil, errors.Wrapf(errors.ErrState, "partial file %s holds %d bytes, cannot resume at %d", path, info.Size(), offset)
	}
	if uint64(info.Size()) > offset {
		if err := f.Truncate(int64(offset)); err != nil {
			_ = f.Close()
			return nil, errors.Wrapf(errors.ErrFilesystem, "truncate %s: %v", path, err)
		}
	}
	if _, err := f.Seek(int64(offset), io.SeekStart); err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(errors.ErrFilesystem, "seek %s: %v", path, err)
	}
	return f, nil
}

// totalSize prefers the manifest size, then the server's remaining length plus the resume offset.
func totalSize(expected, offset uint64, contentLength int64) uint64 {
	if expected > 0 {
		return expected
	}
	if contentLength >= 0 {
		return offset + uint64(contentLength)
	}
	return 0
}

// checkContentRange verifies that a 206 response starts at offset. A missing header is accepted.
func checkContentRange(header string, offset uint64) error {
	if header == "" {
		return nil
	}
	rng, ok := strings.CutPrefix(header, "bytes ")
	if !ok {
		return fmt.Errorf("malformed Content-Range %q", header)
	}
	first, _, ok := strings.Cut(rng, "-")
	if !ok {
		return fmt.Errorf("malformed Content-Range %q", header)
	}
	start, err := strconv.ParseUint(first, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed Content-Range %q", header)
	}
	if start != offset {
		return fmt.Errorf("server resumed at byte %d, requested %d", start, offset)
	}
	return nil
}

func cancelledError(id string) error {
	return errors.Wrapf(errors.ErrCancelled, "model %s", id)
}

func transferError(ctx context.Context, req Request, err error) error {
	if stderrors.Is(err, errors.ErrNetwork) {
		return errors.Wrapf(err, "model %s", req.ModelID)
	}
	if req.Cancel.Cancelled() || stderrors.Is(context.Cause(ctx), errors.ErrCancelled) {
		return cancelledError(req.ModelID)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrapf(errors.ErrCancelled, "model %s: %v", req.ModelID, ctxErr)
	}
	return errors.Wrapf(errors.ErrNetwork, "model %s: %v", req.ModelID, err)
}
