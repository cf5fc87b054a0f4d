package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// KeyFunc derives the cache identifier of a request.
type KeyFunc[Req any] func(req Req) string

// RemoteFunc performs the remote operation a FetchCache decorates.
type RemoteFunc[Req, T any] func(ctx context.Context, req Req) (T, error)

type fetchSettings struct {
	metrics *Metrics
	logger  zerolog.Logger
}

// FetchOption customizes a FetchCache.
type FetchOption func(*fetchSettings)

// WithMetrics records hits, misses and remote calls on m.
func WithMetrics(m *Metrics) FetchOption {
	return func(s *fetchSettings) {
		s.metrics = m
	}
}

// WithFetchLogger sets the logger for decode and encode failures.
func WithFetchLogger(logger zerolog.Logger) FetchOption {
	return func(s *fetchSettings) {
		s.logger = logger
	}
}

// FetchCache puts a Store in front of one remote operation.
// Concurrent misses for the same identifier share a single remote call.
// Failed remote calls are never cached.
type FetchCache[Req, T any] struct {
	store    *Store
	category Category
	key      KeyFunc[Req]
	remote   RemoteFunc[Req, T]
	metrics  *Metrics
	logger   zerolog.Logger
	group    singleflight.Group
}

// NewFetchCache decorates remote with store under category.
func NewFetchCache[Req, T any](
	store *Store,
	category Category,
	key KeyFunc[Req],
	remote RemoteFunc[Req, T],
	opts ...FetchOption,
) *FetchCache[Req, T] {
	settings := fetchSettings{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&settings)
	}
	return &FetchCache[Req, T]{
		store:    store,
		category: category,
		key:      key,
		remote:   remote,
		metrics:  settings.metrics,
		logger:   settings.logger,
	}
}

// Category returns the category entries are written under.
func (c *FetchCache[Req, T]) Category() Category {
	return c.category
}

// Fetch returns the cached value for req when a valid entry exists, and calls
// the remote operation otherwise. With bypass, or when the store is disabled,
// the remote operation is called directly and the store is not touched.
func (c *FetchCache[Req, T]) Fetch(ctx context.Context, req Req, bypass bool) (T, error) {
	if bypass || !c.store.Enabled() {
		c.metrics.recordBypass(c.category)
		return c.callRemote(ctx, req)
	}

	id := c.key(req)
	if value, ok := c.lookup(id); ok {
		c.metrics.recordHit(c.category)
		return value, nil
	}
	c.metrics.recordMiss(c.category)

	leader := false
	ch := c.group.DoChan(id, func() (interface{}, error) {
		leader = true
		// A flight for the same key may have completed between lookup and
		// DoChan; its entry is authoritative.
		if value, ok := c.lookup(id); ok {
			return value, nil
		}

		flightCtx, cancel := flightContext(ctx)
		defer cancel()

		value, err := c.callRemote(flightCtx, req)
		if err != nil {
			return value, err
		}
		c.save(id, value)
		return value, nil
	})

	select {
	case res := <-ch:
		if !leader {
			c.metrics.recordCoalesced(c.category)
		}
		value, _ := res.Val.(T)
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (c *FetchCache[Req, T]) callRemote(ctx context.Context, req Req) (T, error) {
	value, err := c.remote(ctx, req)
	c.metrics.recordRemote(c.category, err)
	return value, err
}

func (c *FetchCache[Req, T]) lookup(id string) (T, bool) {
	var value T
	payload, ok := c.store.Get(c.category, id)
	if !ok {
		return value, false
	}
	if err := json.Unmarshal(payload, &value); err != nil {
		c.logger.Warn().
			Err(err).
			Str("category", string(c.category)).
			Str("identifier", id).
			Msg("discarding undecodable cache entry")
		var zero T
		return zero, false
	}
	return value, true
}

func (c *FetchCache[Req, T]) save(id string, value T) {
	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().
			Err(fmt.Errorf("encoding %s value: %w", c.category, err)).
			Str("identifier", id).
			Msg("cache write skipped")
		return
	}
	c.store.Put(c.category, id, payload, c.store.TTL().For(c.category))
}

// flightContext detaches the shared remote call from the cancellation of the
// caller that started it, keeping its deadline. Each caller still stops
// waiting when its own context ends.
func flightContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return context.WithCancel(detached)
}
