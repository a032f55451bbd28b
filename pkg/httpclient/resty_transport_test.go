package httpclient

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newRestyClient(t *testing.T, httpsOnly bool, opts ...RestyOption) *Client {
	t.Helper()
	c, err := New(Config{AllowHTTP: !httpsOnly, Transport: NewRestyTransport(opts...)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRestyTransportRejectsHTTPWhenHTTPSOnly(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newRestyClient(t, true)
	_, err := c.Get(context.Background(), srv.URL, nil)

	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if !errors.Is(err, ErrProtocolDisallowed) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if !strings.Contains(terr.Message(), `protocol "http" not supported or disabled`) {
		t.Fatalf("unexpected message %q", terr.Message())
	}
	if hits.Load() != 0 {
		t.Fatalf("server received %d requests, expected none", hits.Load())
	}
}

func TestRestyTransportPlainHTTPWhenAllowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Portal", "  padded  ")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newRestyClient(t, false)
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK || resp.Body() != "ok" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode(), resp.Body())
	}
	if v, _ := resp.Header("Content-Type"); v != "text/plain" {
		t.Fatalf("Content-Type = %q", v)
	}
	if v, _ := resp.Header("X-Portal"); v != "padded" {
		t.Fatalf("X-Portal = %q, expected trimmed value", v)
	}
}

func TestRestyTransportHTTPS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secure " + r.Header.Get("Accept")))
	}))
	defer srv.Close()

	c := newRestyClient(t, true, WithRoundTripper(srv.Client().Transport))
	resp, err := c.Get(context.Background(), srv.URL, map[string]string{"Accept": "text/plain"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Body() != "secure text/plain" {
		t.Fatalf("unexpected body %q", resp.Body())
	}
}

func TestRestyTransportBlocksRedirectToDisallowedScheme(t *testing.T) {
	var plainHits atomic.Int32
	plain := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		plainHits.Add(1)
	}))
	defer plain.Close()

	secure := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, plain.URL, http.StatusFound)
	}))
	defer secure.Close()

	c := newRestyClient(t, true, WithRoundTripper(secure.Client().Transport))
	_, err := c.Get(context.Background(), secure.URL, nil)
	if !errors.Is(err, ErrProtocolDisallowed) {
		t.Fatalf("expected protocol error on redirect, got %v", err)
	}
	if plainHits.Load() != 0 {
		t.Fatalf("redirect target was contacted")
	}
}

func TestRestyTransportFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Hop", "start")
		w.Header().Set("X-Only-Start", "1")
		http.Redirect(w, r, "/end", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/end", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Hop", "end")
		_, _ = w.Write([]byte("done"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := newRestyClient(t, false)
	resp, err := c.Get(context.Background(), srv.URL+"/start", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK || resp.Body() != "done" {
		t.Fatalf("unexpected final response %d %q", resp.StatusCode(), resp.Body())
	}
	if v, _ := resp.Header("X-Hop"); v != "end" {
		t.Fatalf("expected last hop to win, got %q", v)
	}
	if _, ok := resp.Header("X-Only-Start"); !ok {
		t.Fatalf("expected headers of intermediate hops to be captured")
	}
}

func TestRestyTransportDoesNotLeakRequestHeaders(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("X-Token"))
	}))
	defer srv.Close()

	c := newRestyClient(t, false)
	if _, err := c.Get(context.Background(), srv.URL, map[string]string{"X-Token": "secret"}); err != nil {
		t.Fatalf("first Get: %v", err)
	}
	if _, err := c.Get(context.Background(), srv.URL, nil); err != nil {
		t.Fatalf("second Get: %v", err)
	}

	if len(seen) != 2 || seen[0] != "secret" || seen[1] != "" {
		t.Fatalf("unexpected X-Token values %q", seen)
	}
}

func TestRestyTransportReturnsErrorStatusBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newRestyClient(t, false)
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusNotFound || strings.TrimSpace(resp.Body()) != "missing" {
		t.Fatalf("unexpected response %d %q", resp.StatusCode(), resp.Body())
	}
	if resp.IsOK() {
		t.Fatalf("404 reported as ok")
	}
}

func TestRestyHandleRejectsMalformedHeaderLine(t *testing.T) {
	h, err := NewRestyTransport().Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	err = h.Configure(Options{URL: "https://example.test", Method: http.MethodGet, Header: []string{"no colon here"}})
	if err == nil {
		t.Fatalf("expected malformed header error")
	}
	if err := h.Configure(Options{URL: "https://example.test"}); err == nil {
		t.Fatalf("expected error for empty method")
	}
}

func TestRestyHandleAbortsOnShortHeaderWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("body"))
	}))
	defer srv.Close()

	h, err := NewRestyTransport().Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	err = h.Configure(Options{
		URL:        srv.URL,
		Method:     http.MethodGet,
		Protocols:  ProtoHTTP,
		HeaderFunc: func(string) int { return 0 },
	})
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if _, err := h.Perform(context.Background()); !errors.Is(err, errHeaderAborted) {
		t.Fatalf("expected header abort, got %v", err)
	}
}

func TestRestyHandleResetDropsOptions(t *testing.T) {
	h, err := NewRestyTransport().Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer h.Close()

	if err := h.Configure(Options{URL: "https://example.test", Method: http.MethodGet, Protocols: ProtoHTTPS}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	h.(Resetter).Reset()

	if _, err := h.Perform(context.Background()); err == nil || !strings.Contains(err.Error(), "no URL set") {
		t.Fatalf("expected unconfigured handle error, got %v", err)
	}
}

func TestHeaderLines(t *testing.T) {
	resp := &http.Response{
		Proto:  "HTTP/1.1",
		Status: "200 OK",
		Header: http.Header{"B": {"2"}, "A": {"1", "1b"}},
	}
	got := strings.Join(headerLines(resp), "")
	want := "HTTP/1.1 200 OK\r\nA: 1\r\nA: 1b\r\nB: 2\r\n\r\n"
	if got != want {
		t.Fatalf("headerLines = %q, want %q", got, want)
	}
}

func TestRestyTransportZeroConfigRejectsPlainHTTP(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c, err := New(Config{Transport: NewRestyTransport()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, err := c.Get(context.Background(), srv.URL, nil); !errors.Is(err, ErrProtocolDisallowed) {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatalf("server received %d requests, expected none", hits.Load())
	}
}

func TestRestyTransportKeepsEncodingHeaders(t *testing.T) {
	var acceptEncoding atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ae := r.Header.Get("Accept-Encoding")
		acceptEncoding.Store(ae)
		if strings.Contains(ae, "gzip") {
			w.Header().Set("Content-Encoding", "gzip")
			gz := gzip.NewWriter(w)
			_, _ = gz.Write([]byte("hello"))
			_ = gz.Close()
			return
		}
		w.Header().Set("Content-Length", "5")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := newRestyClient(t, false)
	resp, err := c.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ae, _ := acceptEncoding.Load().(string); ae != "" {
		t.Fatalf("client requested compression: Accept-Encoding=%q", ae)
	}
	if resp.Body() != "hello" {
		t.Fatalf("unexpected body %q", resp.Body())
	}
	if v, ok := resp.Header("Content-Length"); !ok || v != "5" {
		t.Fatalf("Content-Length = %q (present=%v), expected 5", v, ok)
	}
}

func TestRestyTransportDiscardsLogsByDefault(t *testing.T) {
	if _, ok := NewRestyTransport().logger.(discardLogger); !ok {
		t.Fatalf("expected resty output to be discarded by default")
	}
	if _, ok := NewRestyTransport(WithRestyLogger(nil)).logger.(discardLogger); !ok {
		t.Fatalf("expected nil resty logger to fall back to discard")
	}
}
