// Package fetch issues single HTTP GETs and normalizes their outcome.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
)

// StatusTransportFailure is reported when no HTTP response was received.
const StatusTransportFailure = -1

const (
	ctxStatusKey = "status"
	ctxBodyKey   = "body"
)

// DefaultTimeout bounds every outbound request unless overridden.
const DefaultTimeout = 30 * time.Second

// Response is the normalized outcome of one GET.
type Response struct {
	Status int
	Body   []byte
	// Err is the classified failure for transport errors and non-200 statuses.
	Err error
}

// OK reports a 200 response.
func (r Response) OK() bool {
	return r.Status == http.StatusOK
}

// NotFound reports a 404 response.
func (r Response) NotFound() bool {
	return r.Status == http.StatusNotFound
}

// Getter is the capability the downloaders depend on.
type Getter interface {
	Get(ctx context.Context, url string, header http.Header, timeout time.Duration) Response
}

// Fetcher wraps a synchronous colly collector.
type Fetcher struct {
	collector *colly.Collector
	transport *ctxTransport
	timeout   time.Duration
	metrics   *Metrics
	log       *slog.Logger

	mu sync.Mutex
}

// NewFetcher builds a fetcher whose requests are bounded by timeout.
func NewFetcher(timeout time.Duration, metrics *Metrics, log *slog.Logger) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	collector := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
	)
	// Requests never carry cookies.
	collector.DisableCookies()
	collector.MaxBodySize = 0
	collector.SetRequestTimeout(timeout)

	transport := &ctxTransport{base: &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}}
	collector.WithTransport(transport)

	collector.OnResponse(func(r *colly.Response) {
		r.Ctx.Put(ctxStatusKey, r.StatusCode)
		r.Ctx.Put(ctxBodyKey, r.Body)
	})

	return &Fetcher{
		collector: collector,
		transport: transport,
		timeout:   timeout,
		metrics:   metrics,
		log:       log,
	}
}

// WithTransport swaps the HTTP transport, e.g. for a mock in tests.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.transport.set(rt)
}

// Get issues one GET. It never retries and never returns a Go error:
// transport failures come back as StatusTransportFailure with a nil body.
// Canceling ctx aborts a request in flight.
func (f *Fetcher) Get(ctx context.Context, url string, header http.Header, timeout time.Duration) Response {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return Response{Status: StatusTransportFailure, Err: transportError(err)}
	}
	if timeout <= 0 {
		timeout = f.timeout
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.collector.SetRequestTimeout(timeout)
	defer f.collector.SetRequestTimeout(f.timeout)
	f.transport.bind(ctx)
	defer f.transport.bind(nil)

	f.log.Info("request url", slog.String("url", url))
	start := time.Now()
	cctx := colly.NewContext()
	err := f.collector.Request(http.MethodGet, url, nil, cctx, header.Clone())
	f.metrics.ObserveDuration(time.Since(start))

	status, ok := cctx.GetAny(ctxStatusKey).(int)
	if !ok {
		if err == nil {
			err = fmt.Errorf("no response for %s", url)
		}
		classified := transportError(err)
		category := ErrorTypeLabel(classified)
		f.log.Warn("request error",
			slog.String("url", url),
			slog.String("category", category),
			slog.Any("error", err),
		)
		f.metrics.IncRequest("transport_error")
		f.metrics.IncError(category)
		return Response{Status: StatusTransportFailure, Err: classified}
	}

	body, _ := cctx.GetAny(ctxBodyKey).([]byte)
	resp := Response{Status: status, Body: body}
	if status == http.StatusOK {
		f.metrics.IncRequest("ok")
		return resp
	}

	resp.Err = statusError(status)
	category := ErrorTypeLabel(resp.Err)
	f.log.Warn("Error status", slog.String("url", url), slog.Int("status", status))
	f.metrics.IncRequest(fmt.Sprintf("status_%d", status))
	f.metrics.IncError(category)
	return resp
}
