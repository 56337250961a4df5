package download

import "context"

// CancelToken is a one-way switch shared between the owner of a transfer and the transfer itself.
// Once tripped it stays tripped.
type CancelToken struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewCancelToken returns an untripped token.
func NewCancelToken() *CancelToken {
	ctx, cancel := context.WithCancel(context.Background())
	return &CancelToken{ctx: ctx, cancel: cancel}
}

// Cancel trips the token. It is safe to call more than once and from any goroutine.
func (t *CancelToken) Cancel() {
	t.cancel()
}

// Cancelled reports whether the token has been tripped.
func (t *CancelToken) Cancelled() bool {
	return t.ctx.Err() != nil
}

// Done is closed when the token is tripped.
func (t *CancelToken) Done() <-chan struct{} {
	return t.ctx.Done()
}
