package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/youseo/internal/engine"
	"github.com/rshade/youseo/internal/logging"
)

const (
	// DefaultWorkers is the number of items processed concurrently.
	DefaultWorkers = 4

	// MaxWorkers caps the worker pool.
	MaxWorkers = 32

	// DefaultItemTimeout bounds the remote calls of one item.
	DefaultItemTimeout = 2 * time.Minute
)

// Resolver maps a raw input to a video id.
// Errors should wrap engine.ErrMalformed; other errors are wrapped with it.
type Resolver func(raw string) (string, error)

// BundleFetcher fetches everything the analyzer needs for one video.
// *engine.Engine implements it.
type BundleFetcher interface {
	FetchBundle(ctx context.Context, videoID string, opts engine.FetchOptions) (engine.Bundle, error)
}

// Options controls one run.
type Options struct {
	AnalyzeComments bool
	AIInsights      bool
	MaxComments     int
	BypassCache     bool
	ItemTimeout     time.Duration
	Workers         int
}

// DefaultOptions returns the options used by the batch command without flags.
func DefaultOptions() Options {
	return Options{
		AnalyzeComments: true,
		AIInsights:      true,
		MaxComments:     engine.DefaultMaxComments,
		ItemTimeout:     DefaultItemTimeout,
		Workers:         DefaultWorkers,
	}
}

func (o Options) workers() int {
	switch {
	case o.Workers < 1:
		return 1
	case o.Workers > MaxWorkers:
		return MaxWorkers
	default:
		return o.Workers
	}
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithResolver sets the input resolver.
func WithResolver(r Resolver) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.resolve = r
		}
	}
}

// WithAnalyzer replaces engine.DefaultAnalyzer.
func WithAnalyzer(a engine.Analyzer) Option {
	return func(o *Orchestrator) {
		if a != nil {
			o.analyzer = a
		}
	}
}

// WithRecommender replaces engine.BaselineRecommender.
func WithRecommender(r engine.Recommender) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recommender = r
		}
	}
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithProgressCallback registers a callback invoked after each item.
func WithProgressCallback(cb ProgressCallback) Option {
	return func(o *Orchestrator) {
		o.onProgress = cb
	}
}

// Orchestrator runs the per-item pipeline over a batch.
type Orchestrator struct {
	fetcher     BundleFetcher
	resolve     Resolver
	analyzer    engine.Analyzer
	recommender engine.Recommender
	logger      zerolog.Logger
	onProgress  ProgressCallback
	now         func() time.Time

	// progressMu serializes progress updates and onProgress calls.
	progressMu sync.Mutex
}

// NewOrchestrator builds an orchestrator over fetcher.
func NewOrchestrator(fetcher BundleFetcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher:     fetcher,
		resolve:     trimResolver,
		analyzer:    engine.DefaultAnalyzer{},
		recommender: engine.BaselineRecommender{},
		logger:      zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func trimResolver(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", fmt.Errorf("empty input: %w", engine.ErrMalformed)
	}
	return id, nil
}

// Result is the outcome of a run. Items[i] corresponds to the i-th input.
type Result struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Items      []Item    `json:"items"`
}

// Succeeded returns the number of succeeded items.
func (r *Result) Succeeded() int {
	n := 0
	for i := range r.Items {
		if r.Items[i].Status == StatusSucceeded {
			n++
		}
	}
	return n
}

// Failed returns the number of failed items.
func (r *Result) Failed() int {
	n := 0
	for i := range r.Items {
		if r.Items[i].Status == StatusFailed {
			n++
		}
	}
	return n
}

// HasFailures reports whether any item failed.
func (r *Result) HasFailures() bool {
	return r.Failed() > 0
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary aggregates the succeeded items.
func (r *Result) Summary() Summary {
	return Summarize(r.Items)
}

// Run processes every input and returns once all items are final.
//
// Up to opts.Workers items run at a time. Once ctx is canceled no further
// item starts; unstarted items fail with engine.KindCanceled. Items already
// running finish on a context detached from ctx and bounded by
// opts.ItemTimeout.
func (o *Orchestrator) Run(ctx context.Context, inputs []Input, opts Options) *Result {
	traceID := logging.GetOrGenerateTraceID(ctx)
	ctx = logging.ContextWithTraceID(ctx, traceID)
	runID := logging.GenerateTraceID()
	logger := o.logger.With().Str("trace_id", traceID).Str("run_id", runID).Logger()

	res := &Result{
		RunID:     runID,
		StartedAt: o.now(),
		Items:     make([]Item, len(inputs)),
	}
	for i, in := range inputs {
		res.Items[i] = Item{
			Index:    i,
			RawInput: in.Raw,
			Line:     in.Line,
			Status:   StatusPending,
			Stage:    StageResolving,
			inputErr: in.Err,
		}
	}

	workers := opts.workers()
	logger.Info().
		Int("items", len(inputs)).
		Int("workers", workers).
		Bool("bypass_cache", opts.BypassCache).
		Msg("batch started")

	progress := NewProgress(len(inputs))
	var g errgroup.Group
	g.SetLimit(workers)

	for i := range res.Items {
		item := &res.Items[i]
		if err := ctx.Err(); err != nil {
			o.cancelItem(item, err, progress)
			continue
		}
		g.Go(func() error {
			// The run may have been canceled while this goroutine waited
			// for a worker slot.
			if err := ctx.Err(); err != nil {
				o.cancelItem(item, err, progress)
				return nil
			}
			o.process(ctx, item, opts, logger)
			o.report(progress, item)
			return nil
		})
	}
	_ = g.Wait()

	res.FinishedAt = o.now()
	logger.Info().
		Int("succeeded", res.Succeeded()).
		Int("failed", res.Failed()).
		Dur("duration", res.Duration()).
		Msg("batch finished")
	return res
}

func (o *Orchestrator) cancelItem(item *Item, cause error, progress *Progress) {
	item.fail(fmt.Errorf("not started: %w", cause))
	o.report(progress, item)
}

// report records item and notifies the callback under one lock, so snapshots
// arrive in increasing ProcessedItems order.
func (o *Orchestrator) report(progress *Progress, item *Item) {
	o.progressMu.Lock()
	defer o.progressMu.Unlock()

	snapshot := progress.Record(item)
	if o.onProgress != nil {
		o.onProgress(snapshot)
	}
}

// process runs one item through every stage. It never returns an error: all
// failures, panics included, are recorded on the item.
func (o *Orchestrator) process(ctx context.Context, item *Item, opts Options, logger zerolog.Logger) {
	start := time.Now()
	itemLogger := logger.With().Int("item", item.Index).Str("input", item.RawInput).Logger()

	defer func() {
		if r := recover(); r != nil {
			item.fail(fmt.Errorf("panic in %s stage: %v", item.Stage, r))
		}
		item.Duration = time.Since(start)
		if item.Status == StatusFailed {
			itemLogger.Warn().
				Str("stage", string(item.Stage)).
				Str("error_kind", string(item.ErrorKind)).
				Err(item.err).
				Dur("duration", item.Duration).
				Msg("item failed")
			return
		}
		itemLogger.Debug().
			Str("video_id", item.EntityID).
			Dur("duration", item.Duration).
			Msg("item succeeded")
	}()

	itemCtx, cancel := itemContext(ctx, opts.ItemTimeout)
	defer cancel()
	itemCtx = itemLogger.WithContext(itemCtx)

	item.Stage = StageResolving
	if item.inputErr != nil {
		item.fail(item.inputErr)
		return
	}
	id, err := o.resolve(item.RawInput)
	if err != nil {
		if !errors.Is(err, engine.ErrMalformed) {
			err = fmt.Errorf("%w: %w", engine.ErrMalformed, err)
		}
		item.fail(err)
		return
	}
	item.EntityID = id

	item.Stage = StageFetching
	bundle, err := o.fetcher.FetchBundle(itemCtx, id, engine.FetchOptions{
		IncludeComments: opts.AnalyzeComments,
		MaxComments:     opts.MaxComments,
		BypassCache:     opts.BypassCache,
	})
	if err != nil {
		item.fail(err)
		return
	}

	item.Stage = StageAnalyzing
	analysis := o.analyzer.Analyze(bundle.Input())

	item.Stage = StageRecommending
	rec := o.recommender.Recommend(analysis, engine.RecommendOptions{AIInsights: opts.AIInsights})

	item.succeed(analysis, rec, o.now())
}

// itemContext drops the cancellation of ctx but keeps its values.
func itemContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if timeout <= 0 {
		return context.WithCancel(detached)
	}
	return context.WithTimeout(detached, timeout)
}
