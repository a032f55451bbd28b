package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/samvad-hq/portal-fetch/internal/domain"
)

// Package storage keeps the most recent fetch outcome per target.

// Store records fetch results keyed by target id.
type Store interface {
	Close() error
	Record(result domain.FetchResult) error
	Last(targetID string) (domain.FetchResult, bool, error)
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

const (
	defaultResultTTL       = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ResultTTL <= 0 {
		opts.ResultTTL = defaultResultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                    { return nil }
func (noopStore) Record(domain.FetchResult) error { return nil }
func (noopStore) Last(string) (domain.FetchResult, bool, error) {
	return domain.FetchResult{}, false, nil
}
