package fetch

import (
	"context"
	"io"
	"net/http"
	"sync"
)

// ctxTransport ties each round trip to the context of the Get in flight,
// so cancellation aborts the dial, the headers wait and the body read.
// The collector has no per-request context of its own.
type ctxTransport struct {
	mu   sync.Mutex
	base http.RoundTripper
	ctx  context.Context
}

func (t *ctxTransport) set(base http.RoundTripper) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.base = base
}

func (t *ctxTransport) bind(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ctx = ctx
}

func (t *ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	base, ctx := t.base, t.ctx
	t.mu.Unlock()
	if base == nil {
		base = http.DefaultTransport
	}
	if ctx == nil {
		return base.RoundTrip(req)
	}

	// Keep the client's own deadline and add the caller's cancellation.
	rctx, cancel := context.WithCancel(req.Context())
	stop := context.AfterFunc(ctx, cancel)
	release := func() {
		stop()
		cancel()
	}

	resp, err := base.RoundTrip(req.WithContext(rctx))
	if err != nil {
		release()
		return nil, err
	}
	resp.Body = &releaseBody{ReadCloser: resp.Body, release: release}
	return resp, nil
}

type releaseBody struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releaseBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}
