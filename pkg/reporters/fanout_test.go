package reporters

import (
	"context"
	"errors"
	"testing"
)

type stubReporter struct {
	id     string
	typ    string
	err    error
	calls  int
	closed bool
}

func (s *stubReporter) ID() string   { return s.id }
func (s *stubReporter) Type() string { return s.typ }
func (s *stubReporter) Send(context.Context, Event) error {
	s.calls++
	return s.err
}
func (s *stubReporter) Close() error {
	s.closed = true
	return nil
}

func TestFanoutPublishAggregatesErrors(t *testing.T) {
	ok := &stubReporter{id: "ok", typ: "http"}
	bad := &stubReporter{id: "bad", typ: "http", err: errors.New("failed")}
	fanout := NewFanout([]Reporter{ok, nil, bad})

	if fanout.Size() != 2 {
		t.Fatalf("expected nil reporters to be skipped, size=%d", fanout.Size())
	}

	count, err := fanout.Publish(context.Background(), Event{})
	if count != 1 {
		t.Fatalf("expected 1 success, got %d", count)
	}
	if err == nil {
		t.Fatalf("expected aggregated error")
	}
	if ok.calls != 1 || bad.calls != 1 {
		t.Fatalf("expected every reporter to be called once, got %d/%d", ok.calls, bad.calls)
	}

	if err := fanout.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !ok.closed || !bad.closed {
		t.Fatalf("expected all reporters to be closed")
	}
}

func TestNilFanoutIsInert(t *testing.T) {
	var f *Fanout
	if n, err := f.Publish(context.Background(), Event{}); n != 0 || err != nil {
		t.Fatalf("nil fanout Publish = %d, %v", n, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("nil fanout Close: %v", err)
	}
}
