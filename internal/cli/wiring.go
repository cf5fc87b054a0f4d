package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/youseo/internal/config"
	"github.com/rshade/youseo/internal/engine"
	"github.com/rshade/youseo/internal/engine/batch"
	"github.com/rshade/youseo/internal/engine/cache"
	"github.com/rshade/youseo/internal/logging"
	"github.com/rshade/youseo/internal/youtube"
)

// newYouTubeFetcher builds the Data API client behind a quota guard.
func newYouTubeFetcher(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (engine.EntityFetcher, error) {
	client, err := youtube.NewClient(ctx, cfg.YouTube.APIKey, logging.ComponentLogger(logger, "youtube"))
	if err != nil {
		return nil, err
	}
	return youtube.NewQuotaGuard(client, cfg.YouTube.QuotaCooldown.Std(), logger), nil
}

// openStore opens the cache store described by cfg.
func openStore(cfg *config.Config, logger zerolog.Logger) (*cache.Store, error) {
	store, err := cache.NewStore(cfg.StoreConfig(), cache.WithLogger(logging.ComponentLogger(logger, "cache")))
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return store, nil
}

// pipeline is everything analyze and batch need to process videos.
type pipeline struct {
	store        *cache.Store
	metrics      *cache.Metrics
	engine       *engine.Engine
	orchestrator *batch.Orchestrator
}

// Close releases the cache store.
func (p *pipeline) Close() error {
	return p.store.Close()
}

// newPipeline wires store, metrics, fetcher, engine and orchestrator.
func (a *app) newPipeline(ctx context.Context, progress batch.ProgressCallback) (*pipeline, error) {
	fetcher, err := a.newFetcher(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}

	store, err := openStore(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}

	metrics, err := cache.NewMetrics()
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	eng := engine.New(fetcher, store,
		engine.WithLogger(logging.ComponentLogger(a.logger, "engine")),
		engine.WithMetrics(metrics),
		engine.WithRelatedResults(a.cfg.YouTube.RelatedResults),
	)
	orch := batch.NewOrchestrator(eng,
		batch.WithResolver(youtube.ExtractVideoID),
		batch.WithLogger(logging.ComponentLogger(a.logger, "batch")),
		batch.WithProgressCallback(progress),
	)

	return &pipeline{store: store, metrics: metrics, engine: eng, orchestrator: orch}, nil
}

// finish runs the post-run housekeeping shared by analyze and batch: the
// optional metrics dump, a metrics log line and the optional sweep.
func (p *pipeline) finish(a *app, metricsFile string) error {
	if metricsFile != "" {
		if err := p.metrics.WriteTextfile(metricsFile); err != nil {
			return fmt.Errorf("writing metrics file: %w", err)
		}
	}

	if snapshot, err := p.metrics.Snapshot(); err == nil {
		for category, counts := range snapshot {
			a.logger.Debug().
				Str("category", string(category)).
				Float64("hits", counts.Hits).
				Float64("misses", counts.Misses).
				Float64("bypasses", counts.Bypasses).
				Float64("remote_calls", counts.RemoteCalls).
				Float64("remote_errors", counts.RemoteErrors).
				Float64("coalesced", counts.Coalesced).
				Msg("fetch cache counters")
		}
	}

	if a.cfg.Cache.AutoSweep && p.store.Enabled() {
		removed, err := p.store.SweepExpired()
		if err != nil {
			a.logger.Warn().Err(err).Msg("automatic cache sweep failed")
		} else {
			a.logger.Debug().Int("removed", removed).Msg("automatic cache sweep")
		}
	}
	return nil
}

// runOptions merges config defaults with command flags.
func (a *app) runOptions(flags *runFlags, bypass bool) batch.Options {
	opts := batch.Options{
		AnalyzeComments: !flags.noComments,
		AIInsights:      !flags.noAI,
		MaxComments:     a.cfg.Batch.MaxComments,
		BypassCache:     bypass,
		ItemTimeout:     a.cfg.Batch.ItemTimeout.Std(),
		Workers:         a.cfg.Batch.Workers,
	}
	if flags.maxComments > 0 {
		opts.MaxComments = flags.maxComments
	}
	if flags.itemTimeout > 0 {
		opts.ItemTimeout = flags.itemTimeout
	}
	if flags.workers > 0 {
		opts.Workers = flags.workers
	}
	return opts
}
