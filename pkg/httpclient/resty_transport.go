package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
)

const defaultMaxRedirects = 30

// RestyTransport opens handles backed by resty.Client.
type RestyTransport struct {
	roundTripper http.RoundTripper
	maxRedirects int
	logger       resty.Logger
}

// RestyOption customises a RestyTransport.
type RestyOption func(*RestyTransport)

// WithRoundTripper sets the round tripper every handle sends requests through.
func WithRoundTripper(rt http.RoundTripper) RestyOption {
	return func(t *RestyTransport) { t.roundTripper = rt }
}

// WithMaxRedirects caps the number of redirects followed per request.
func WithMaxRedirects(n int) RestyOption {
	return func(t *RestyTransport) {
		if n > 0 {
			t.maxRedirects = n
		}
	}
}

// WithRestyLogger routes resty's own warnings and errors to l.
func WithRestyLogger(l resty.Logger) RestyOption {
	return func(t *RestyTransport) { t.logger = l }
}

// NewRestyTransport creates a transport with the given options. Resty's own
// log output is discarded unless WithRestyLogger is given.
func NewRestyTransport(opts ...RestyOption) *RestyTransport {
	t := &RestyTransport{maxRedirects: defaultMaxRedirects}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = discardLogger{}
	}
	return t
}

// Open creates a handle with its own resty.Client.
func (t *RestyTransport) Open() (Handle, error) {
	next := t.roundTripper
	if next == nil {
		base, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			return nil, errors.New("default transport is not *http.Transport")
		}
		// Compression stays off so Content-Encoding and Content-Length
		// reach the header tap as sent.
		tr := base.Clone()
		tr.DisableCompression = true
		next = tr
	}

	tap := &headerTap{next: next}
	client := resty.New().
		SetTransport(tap).
		SetCookieJar(nil).
		SetLogger(t.logger)

	return &restyHandle{
		client:       client,
		tap:          tap,
		maxRedirects: t.maxRedirects,
	}, nil
}

// restyHandle is a single reusable request context.
type restyHandle struct {
	client       *resty.Client
	tap          *headerTap
	maxRedirects int

	opts       Options
	configured bool
	status     int
	closed     bool
}

// Reset drops every option and the status of the previous request.
func (h *restyHandle) Reset() {
	h.opts = Options{}
	h.configured = false
	h.status = 0
	h.tap.fn = nil
	h.client.SetRedirectPolicy(noRedirects())
}

// Configure validates and stores opts, replacing whatever was set before.
func (h *restyHandle) Configure(opts Options) error {
	if h.closed {
		return errHandleClosed
	}
	opts.Method = strings.ToUpper(strings.TrimSpace(opts.Method))
	if opts.Method == "" {
		return errors.New("request method is empty")
	}
	for _, line := range opts.Header {
		if name, _, ok := strings.Cut(line, ":"); !ok || strings.TrimSpace(name) == "" {
			return fmt.Errorf("malformed header line %q", line)
		}
	}
	opts.Header = append([]string(nil), opts.Header...)

	if opts.FollowRedirects {
		h.client.SetRedirectPolicy(followRedirects(opts.Protocols, h.maxRedirects))
	} else {
		h.client.SetRedirectPolicy(noRedirects())
	}
	h.tap.fn = opts.HeaderFunc
	h.opts = opts
	h.configured = true
	return nil
}

// Perform executes the configured request and returns the body.
func (h *restyHandle) Perform(ctx context.Context) (string, error) {
	if h.closed {
		return "", errHandleClosed
	}
	if !h.configured || h.opts.URL == "" {
		return "", errors.New("no URL set")
	}
	h.status = 0

	target, err := url.Parse(h.opts.URL)
	if err != nil {
		return "", fmt.Errorf("URL using bad/illegal format: %w", err)
	}
	if target.Scheme == "" {
		return "", fmt.Errorf("URL using bad/illegal format: missing scheme in %q", h.opts.URL)
	}
	if !h.opts.Protocols.Allows(target.Scheme) {
		return "", &protocolError{scheme: strings.ToLower(target.Scheme)}
	}

	req := h.client.R().SetContext(ctx)
	for _, line := range h.opts.Header {
		name, value, _ := strings.Cut(line, ":")
		req.SetHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	resp, err := req.Execute(h.opts.Method, h.opts.URL)
	if err != nil {
		return "", err
	}
	h.status = resp.StatusCode()
	return string(resp.Body()), nil
}

func (h *restyHandle) StatusCode() int { return h.status }

// Close releases idle connections held by the handle.
func (h *restyHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.client.GetClient().CloseIdleConnections()
	return nil
}

func followRedirects(protocols ProtocolSet, limit int) resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
		if len(via) >= limit {
			return fmt.Errorf("maximum (%d) redirects followed", limit)
		}
		if !protocols.Allows(req.URL.Scheme) {
			return &protocolError{scheme: strings.ToLower(req.URL.Scheme)}
		}
		return nil
	})
}

func noRedirects() resty.RedirectPolicy {
	return resty.RedirectPolicyFunc(func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	})
}

type discardLogger struct{}

func (discardLogger) Errorf(string, ...interface{}) {}
func (discardLogger) Warnf(string, ...interface{})  {}
func (discardLogger) Debugf(string, ...interface{}) {}

// headerTap hands every received response header block, redirect hops
// included, to the configured HeaderFunc one line at a time.
type headerTap struct {
	next http.RoundTripper
	fn   HeaderFunc
}

func (t *headerTap) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || t.fn == nil {
		return resp, err
	}
	for _, line := range headerLines(resp) {
		if t.fn(line) != len(line) {
			resp.Body.Close()
			return nil, errHeaderAborted
		}
	}
	return resp, nil
}

func (t *headerTap) CloseIdleConnections() {
	if c, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

// headerLines renders the status line, one line per header value and the
// terminating blank line, each ending in CRLF.
func headerLines(resp *http.Response) []string {
	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys)+2)
	lines = append(lines, fmt.Sprintf("%s %s\r\n", resp.Proto, resp.Status))
	for _, k := range keys {
		for _, v := range resp.Header[k] {
			lines = append(lines, k+": "+v+"\r\n")
		}
	}
	return append(lines, "\r\n")
}
