package client

import (
	"context"
	"errors"
	"net"

	"github.com/go-resty/resty/v2"
)

// DefaultRetryPolicy is the default transport-level retry condition used by
// [Client]. It retries on transient connection errors. It does not retry on
// context cancellation, deadline exceeded, or DNS resolution failures.
//
// HTTP status codes are never retried here: 429 responses are handled by
// the rate-limit loop in [Client.Request], and every other non-2xx status
// is reported to the caller as a [RequestError].
//
// Supply a custom function via [WithRetryPolicy] to override this behaviour.
func DefaultRetryPolicy(_ *resty.Response, err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return false
	}

	return true
}
