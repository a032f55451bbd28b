package httpclient

import (
	"context"
	"net/http"
	"sync"
)

// Config controls how a Client is built.
type Config struct {
	// AllowHTTP permits plain http requests and redirects in addition to
	// https. The zero value restricts the client to https.
	AllowHTTP bool
	// Transport opens the handle. Defaults to a resty-backed transport.
	Transport Transport
	Logger    Logger
}

// DefaultConfig returns the configuration used when nothing is overridden:
// https only, resty transport, no logging.
func DefaultConfig() Config {
	return Config{}
}

// Client performs GET requests over a single owned transport handle.
// Calls are serialised; the handle is reset before every request.
type Client struct {
	mu        sync.Mutex
	handle    Handle
	protocols ProtocolSet
	log       Logger
	closed    bool
}

// New opens a transport handle and returns a Client that owns it.
// Callers must Close the client to release the handle.
func New(cfg Config) (*Client, error) {
	transport := cfg.Transport
	if transport == nil {
		transport = NewRestyTransport()
	}

	handle, err := transport.Open()
	if err != nil {
		return nil, &InitializationError{Err: err}
	}
	if handle == nil {
		return nil, &InitializationError{Err: errNilHandle}
	}

	protocols := ProtoHTTPS
	if cfg.AllowHTTP {
		protocols |= ProtoHTTP
	}

	return &Client{
		handle:    handle,
		protocols: protocols,
		log:       ensureLogger(cfg.Logger),
	}, nil
}

// Protocols returns the scheme set requests are restricted to.
func (c *Client) Protocols() ProtocolSet { return c.protocols }

// Get performs a GET request for uri with the given request headers and
// blocks until the response has been read completely.
func (c *Client) Get(ctx context.Context, uri string, headers map[string]string) (*Response, error) {
	return c.exec(ctx, Options{URL: uri, Method: http.MethodGet}, headers)
}

func (c *Client) exec(ctx context.Context, opts Options, headers map[string]string) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &ConfigurationError{Op: "configure", Err: ErrClosed}
	}

	if err := c.reset(); err != nil {
		return nil, err
	}

	collector := newHeaderCollector()
	opts.Protocols = c.protocols
	opts.FollowRedirects = true
	opts.Header = formatHeaders(headers)
	opts.HeaderFunc = collector.line

	if err := c.handle.Configure(opts); err != nil {
		return nil, &ConfigurationError{Op: "configure", Err: err}
	}

	c.log.DebugObj("http request", "http_request", map[string]any{
		"method":       opts.Method,
		"uri":          opts.URL,
		"header_count": len(opts.Header),
		"protocols":    c.protocols.String(),
	})

	body, err := c.handle.Perform(ctx)
	if err != nil {
		c.log.WarnObj("http request failed", "http_error", map[string]any{
			"uri":   opts.URL,
			"error": err.Error(),
		})
		return nil, &TransportError{URI: opts.URL, Err: err}
	}

	resp := NewResponse(c.handle.StatusCode(), body, collector.headers)
	c.log.DebugObj("http response", "http_response", map[string]any{
		"uri":          opts.URL,
		"status_code":  resp.StatusCode(),
		"body_bytes":   len(body),
		"header_count": len(collector.headers),
	})
	return resp, nil
}

// reset returns the handle to its baseline so nothing leaks between calls.
func (c *Client) reset() error {
	if r, ok := c.handle.(Resetter); ok {
		r.Reset()
		return nil
	}
	if err := c.handle.Configure(baselineOptions()); err != nil {
		return &ConfigurationError{Op: "reset", Err: err}
	}
	return nil
}

// Close releases the transport handle. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.handle.Close()
}
