package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Transport failure kinds, also used as error_type metric labels.
const (
	KindTimeout    = "timeout"
	KindCanceled   = "canceled"
	KindConnection = "connection"
	KindTransport  = "transport"
)

// TransportError is a request that produced no HTTP response. The fetcher
// reports it with StatusTransportFailure and a nil body.
type TransportError struct {
	Kind string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is a response whose status is not 200.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d", e.Status)
}

// Label buckets the status for metrics. 404 is the "not published yet"
// answer of a daily source and keeps its own label.
func (e *StatusError) Label() string {
	switch {
	case e.Status == http.StatusNotFound:
		return "not_found"
	case e.Status == http.StatusForbidden:
		return "forbidden"
	case e.Status == http.StatusTooManyRequests:
		return "rate_limited"
	case e.Status >= 500:
		return "server_error"
	case e.Status >= 400:
		return "client_error"
	default:
		return "unexpected_status"
	}
}

// ErrorTypeLabel returns the metrics label for an error returned in a Response.
func ErrorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		return transport.Kind
	}
	var status *StatusError
	if errors.As(err, &status) {
		return status.Label()
	}
	return "other"
}

// transportError wraps a request error that left no status behind.
func transportError(err error) error {
	if err == nil {
		return nil
	}
	kind := KindTransport
	var netErr net.Error
	var opErr *net.OpError
	switch {
	case errors.Is(err, context.Canceled):
		kind = KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	case errors.As(err, &opErr):
		kind = KindConnection
	}
	return &TransportError{Kind: kind, Err: err}
}

// statusError returns nil for 200.
func statusError(status int) error {
	if status == http.StatusOK {
		return nil
	}
	return &StatusError{Status: status}
}
