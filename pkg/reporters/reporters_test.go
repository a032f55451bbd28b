package reporters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeReportersFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write reporters file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeReportersFile(t, "reporters.yaml", `
reporters:
  - id: hook
    type: HTTP
    http:
      url: " https://hooks.example.test/fetch "
      headers:
        X-Token: abc
        "  ": dropped
  - id: queue
    type: sqs
    enabled: false
    sqs:
      uri: https://sqs.ap-south-1.amazonaws.com/123/fetches
      region: ap-south-1
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	if len(reg.All()) != 2 {
		t.Fatalf("expected 2 reporters, got %d", len(reg.All()))
	}

	hook, ok := reg.ByID("hook")
	if !ok {
		t.Fatalf("hook reporter missing")
	}
	if hook.Type != TypeHTTP {
		t.Fatalf("type should be lower-cased, got %q", hook.Type)
	}
	if hook.HTTP.URL != "https://hooks.example.test/fetch" || hook.HTTP.Method != "POST" {
		t.Fatalf("unexpected http config %#v", hook.HTTP)
	}
	if hook.HTTP.TimeoutSeconds != httpDefaultTimeoutSeconds {
		t.Fatalf("timeout default = %d", hook.HTTP.TimeoutSeconds)
	}
	if len(hook.HTTP.Headers) != 1 || hook.HTTP.Headers["X-Token"] != "abc" {
		t.Fatalf("unexpected headers %#v", hook.HTTP.Headers)
	}

	enabled := reg.Enabled()
	if len(enabled) != 1 || enabled[0].ID != "hook" {
		t.Fatalf("expected only hook enabled, got %#v", enabled)
	}
}

func TestLoadRegistryValidation(t *testing.T) {
	cases := map[string]string{
		"missing sqs region": "reporters:\n  - id: q\n    type: sqs\n    sqs:\n      uri: https://q\n",
		"missing http url":   "reporters:\n  - id: h\n    type: http\n    http: {}\n",
		"duplicate ids":      "reporters:\n  - id: h\n    type: http\n    http: {url: https://a}\n  - id: h\n    type: http\n    http: {url: https://b}\n",
		"empty":              "reporters: []\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := writeReportersFile(t, "reporters.yaml", content)
			if _, err := LoadRegistry(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reps, err := BuildAll(context.Background(), DefaultRegistry(), []ReporterConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(reps) != 1 || reps[0].Type() != TypeHTTP {
		t.Fatalf("unexpected reporters %#v", reps)
	}
}

func TestBuildAllClosesBuiltOnFailure(t *testing.T) {
	built := &stubReporter{id: "first", typ: "stub"}
	reg := NewRegistry(map[string]Builder{
		"stub": func(context.Context, ReporterConfig, Logger) (Reporter, error) { return built, nil },
		"fail": func(context.Context, ReporterConfig, Logger) (Reporter, error) { return nil, errors.New("nope") },
	})

	_, err := BuildAll(context.Background(), reg, []ReporterConfig{
		{ID: "first", Type: "stub"},
		{ID: "second", Type: "fail"},
	}, nil)
	if err == nil {
		t.Fatalf("expected build error")
	}
	if !built.closed {
		t.Fatalf("expected previously built reporter to be closed")
	}
}

func TestReporterForUnknownType(t *testing.T) {
	if _, err := DefaultRegistry().ReporterFor(context.Background(), ReporterConfig{ID: "x", Type: "carrier-pigeon"}, nil); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
