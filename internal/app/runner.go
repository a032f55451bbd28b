package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/samvad-hq/portal-fetch/internal/config"
	"github.com/samvad-hq/portal-fetch/internal/domain"
	"github.com/samvad-hq/portal-fetch/internal/inspect"
	"github.com/samvad-hq/portal-fetch/internal/logger"
	"github.com/samvad-hq/portal-fetch/internal/storage"
	"github.com/samvad-hq/portal-fetch/pkg/httpclient"
	"github.com/samvad-hq/portal-fetch/pkg/reporters"
	"github.com/samvad-hq/portal-fetch/pkg/targets"
	"go.uber.org/zap"
)

// Runner fetches every configured target, records the outcome and reports it
// downstream. It owns the HTTP client, the history store and the reporters.
type Runner struct {
	targets  []targets.Target
	getter   httpclient.Getter
	client   *httpclient.Client
	store    storage.Store
	fanout   *reporters.Fanout
	interval time.Duration
	log      logger.Logger
	now      func() time.Time
}

// NewRunner builds a runner from config: targets file plus ad-hoc URLs, the
// resty-backed client, the history store and any enabled reporters.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	targetReg, err := loadTargets(cfg)
	if err != nil {
		return nil, err
	}
	list := targetReg.All()
	if len(list) == 0 {
		return nil, fmt.Errorf("no targets configured")
	}
	ids := make([]string, 0, len(list))
	for _, t := range list {
		ids = append(ids, t.ID)
	}
	log.InfoObj("targets loaded", "targets_meta", map[string]any{
		"count": len(ids),
		"ids":   ids,
	})

	var restyOpts []httpclient.RestyOption
	if zl, ok := log.(interface{ Sugar() *zap.SugaredLogger }); ok {
		restyOpts = append(restyOpts, httpclient.WithRestyLogger(zl.Sugar()))
	}
	client, err := httpclient.New(httpclient.Config{
		AllowHTTP: !cfg.HTTPSOnly,
		Transport: httpclient.NewRestyTransport(restyOpts...),
		Logger:    log,
	})
	if err != nil {
		return nil, fmt.Errorf("init http client: %w", err)
	}
	log.InfoObj("http client initialized", "http_client", map[string]any{
		"protocols": client.Protocols().String(),
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ResultTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"result_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	fanout, err := buildReporters(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		_ = client.Close()
		return nil, err
	}

	r := newRunner(list, client, store, fanout, cfg.FetchInterval, log)
	r.client = client
	return r, nil
}

func newRunner(list []targets.Target, getter httpclient.Getter, store storage.Store, fanout *reporters.Fanout, interval time.Duration, log logger.Logger) *Runner {
	if log == nil {
		log = &logger.NopLogger{}
	}
	if store == nil {
		store, _ = storage.NewStore("none", "", storage.Options{})
	}
	return &Runner{
		targets:  list,
		getter:   getter,
		store:    store,
		fanout:   fanout,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// loadTargets merges the targets file with command line URLs. When URLs are
// given a missing targets file is ignored.
func loadTargets(cfg *config.Config) (*targets.Registry, error) {
	path := cfg.TargetsFile
	if path != "" && len(cfg.URLs) > 0 {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}

	var (
		reg *targets.Registry
		err error
	)
	if path != "" {
		reg, err = targets.LoadRegistry(path)
		if err != nil {
			return nil, fmt.Errorf("load targets registry: %w", err)
		}
	} else {
		reg, _ = targets.NewRegistry(nil)
	}

	if err := reg.Add(targets.FromURLs(cfg.URLs)...); err != nil {
		return nil, fmt.Errorf("add command line targets: %w", err)
	}
	return reg, nil
}

func buildReporters(ctx context.Context, cfg *config.Config, log logger.Logger) (*reporters.Fanout, error) {
	if cfg.ReportersFile == "" {
		log.InfoObj("reporting disabled", "reporters_file", "")
		return reporters.NewFanout(nil), nil
	}

	reg, err := reporters.LoadRegistry(cfg.ReportersFile)
	if err != nil {
		return nil, fmt.Errorf("load reporters registry: %w", err)
	}
	enabled := reg.Enabled()
	built, err := reporters.BuildAll(ctx, reporters.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build reporters: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, rc := range enabled {
		summaries = append(summaries, map[string]string{"id": rc.ID, "type": rc.Type})
	}
	log.InfoObj("reporters registry loaded", "reporters_meta", map[string]any{
		"count":     len(summaries),
		"reporters": summaries,
	})
	return reporters.NewFanout(built), nil
}

// Run performs one pass over all targets. With a positive interval it keeps
// running passes on a ticker until ctx is done; per-pass failures are logged.
// A single pass returns the joined fetch errors.
func (r *Runner) Run(ctx context.Context) error {
	if r == nil || r.getter == nil {
		return fmt.Errorf("runner is not initialized")
	}

	r.log.InfoObj("fetch runner starting", "runner_state", map[string]any{
		"targets_count":   len(r.targets),
		"reporters_count": r.fanout.Size(),
		"interval":        r.interval.String(),
	})

	err := r.runOnce(ctx)
	if r.interval <= 0 {
		return err
	}
	if err != nil {
		r.log.ErrorObj("initial fetch pass had failures", "error", err.Error())
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.InfoObj("fetch runner exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			if err := r.runOnce(ctx); err != nil {
				r.log.ErrorObj("scheduled fetch pass had failures", "error", err.Error())
			}
		}
	}
}

// runOnce fetches every target sequentially. A failing target does not stop
// the pass.
func (r *Runner) runOnce(ctx context.Context) error {
	start := r.now()
	var errs []error
	failed := 0

	for _, t := range r.targets {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		result, err := r.fetch(ctx, t)
		if err != nil {
			failed++
			errs = append(errs, fmt.Errorf("target %q: %w", t.ID, err))
		}

		r.compareWithLast(result)
		if err := r.store.Record(result); err != nil {
			r.log.WarnObj("history record failed", "storage_error", map[string]any{
				"target_id": t.ID,
				"error":     err.Error(),
			})
		}

		if r.fanout.Size() > 0 {
			delivered, err := r.fanout.Publish(ctx, reporters.NewEvent(t.ID, t.Name, result))
			if err != nil {
				r.log.WarnObj("report delivery failed", "reporter_error", map[string]any{
					"target_id": t.ID,
					"delivered": delivered,
					"error":     err.Error(),
				})
			}
		}
	}

	r.log.InfoObj("fetch pass completed", "pass_meta", map[string]any{
		"targets_count": len(r.targets),
		"failed":        failed,
		"elapsed_ms":    r.now().Sub(start).Milliseconds(),
	})
	return errors.Join(errs...)
}

// compareWithLast logs when a target's outcome differs from the previous
// recorded fetch: a new status code, or a switch between failing and not.
func (r *Runner) compareWithLast(result domain.FetchResult) bool {
	prev, found, err := r.store.Last(result.TargetID)
	if err != nil {
		r.log.WarnObj("history lookup failed", "storage_error", map[string]any{
			"target_id": result.TargetID,
			"error":     err.Error(),
		})
		return false
	}
	if !found {
		return false
	}
	if prev.StatusCode == result.StatusCode && prev.Failed() == result.Failed() {
		return false
	}
	r.log.InfoObj("target status changed", "status_change", map[string]any{
		"target_id":       result.TargetID,
		"previous_status": prev.StatusCode,
		"previous_error":  prev.Error,
		"status_code":     result.StatusCode,
		"error":           result.Error,
		"previous_at":     prev.FetchedAt,
	})
	return true
}

// fetch performs the GET for t and turns the outcome into a FetchResult. The
// returned error is the transport failure, also recorded in the result.
func (r *Runner) fetch(ctx context.Context, t targets.Target) (domain.FetchResult, error) {
	start := r.now()
	result := domain.FetchResult{
		TargetID:  t.ID,
		URL:       t.URL,
		FetchedAt: start.UTC(),
	}

	resp, err := r.getter.Get(ctx, t.URL, targets.Headers(t))
	result.ElapsedMs = r.now().Sub(start).Milliseconds()
	if err != nil {
		result.Error = err.Error()
		r.log.WarnObj("fetch failed", "fetch_error", map[string]any{
			"target_id": t.ID,
			"url":       t.URL,
			"error":     err.Error(),
		})
		return result, err
	}

	body := resp.Body()
	result.StatusCode = resp.StatusCode()
	result.BodyBytes = len(body)
	if ct, ok := resp.Header("Content-Type"); ok {
		result.ContentType = ct
		if inspect.IsHTML(ct) {
			summary, err := inspect.Summarize([]byte(body), t.URL)
			if err != nil {
				r.log.DebugObj("html summary failed", "inspect_error", map[string]any{
					"target_id": t.ID,
					"error":     err.Error(),
				})
			} else {
				result.Title = summary.Title
				result.Description = summary.Description
				result.ImageURL = summary.ImageURL
			}
		}
	}

	r.log.InfoObj("fetch completed", "fetch_meta", map[string]any{
		"target_id":   t.ID,
		"status_code": result.StatusCode,
		"body_bytes":  result.BodyBytes,
		"elapsed_ms":  result.ElapsedMs,
	})
	return result, nil
}

// Close releases the client, the reporters and the history store.
func (r *Runner) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.client != nil {
		if err := r.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close http client: %w", err))
		}
	}
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if r.store != nil {
		if err := r.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	return errors.Join(errs...)
}
