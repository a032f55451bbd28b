// Package httpclient issues single synchronous GET requests over a reusable
// transport handle and returns the status, body and response headers.
package httpclient

import "context"

// Getter abstracts GET calls so callers can inject mocks or different clients.
type Getter interface {
	Get(ctx context.Context, uri string, headers map[string]string) (*Response, error)
}

// Transport opens handles. One handle is owned by exactly one Client.
type Transport interface {
	Open() (Handle, error)
}

// Handle is one reusable request context of a transport.
//
// Configure replaces the handle's options as a whole. Perform runs the
// configured request, blocks until the exchange finishes and returns the
// response body. StatusCode reports the final status of the last Perform.
type Handle interface {
	Configure(opts Options) error
	Perform(ctx context.Context) (string, error)
	StatusCode() int
	Close() error
}

// Resetter is implemented by handles that can return to their baseline state
// natively. Handles without it are reset by re-applying baseline options.
type Resetter interface {
	Reset()
}
