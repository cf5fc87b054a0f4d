package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/rshade/youseo/internal/engine"
)

// DefaultQuotaCooldown is how long the guard stays open after a quota error.
const DefaultQuotaCooldown = 15 * time.Minute

// QuotaGuard is an engine.EntityFetcher that fails fast with
// engine.ErrRateLimited once the wrapped fetcher has reported exhausted
// quota. After the cooldown one probe request is let through.
type QuotaGuard struct {
	next    engine.EntityFetcher
	breaker *gobreaker.CircuitBreaker
}

// NewQuotaGuard wraps next. A cooldown <= 0 uses DefaultQuotaCooldown.
func NewQuotaGuard(next engine.EntityFetcher, cooldown time.Duration, logger zerolog.Logger) *QuotaGuard {
	if cooldown <= 0 {
		cooldown = DefaultQuotaCooldown
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "youtube-quota",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("quota guard state changed")
		},
		// Only quota exhaustion counts against the breaker.
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, engine.ErrRateLimited)
		},
	})
	return &QuotaGuard{next: next, breaker: breaker}
}

// State returns the breaker state name (closed, open, half-open).
func (g *QuotaGuard) State() string {
	return g.breaker.State().String()
}

func guarded[T any](g *QuotaGuard, fn func() (T, error)) (T, error) {
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, fmt.Errorf("quota guard %s: %w", g.State(), engine.ErrRateLimited)
	}
	value, _ := out.(T)
	return value, err
}

// FetchMetadata implements engine.EntityFetcher.
func (g *QuotaGuard) FetchMetadata(ctx context.Context, videoID string) (engine.MetadataRecord, error) {
	return guarded(g, func() (engine.MetadataRecord, error) {
		return g.next.FetchMetadata(ctx, videoID)
	})
}

// FetchComments implements engine.EntityFetcher.
func (g *QuotaGuard) FetchComments(ctx context.Context, videoID string, limit int) ([]engine.CommentRecord, error) {
	return guarded(g, func() ([]engine.CommentRecord, error) {
		return g.next.FetchComments(ctx, videoID, limit)
	})
}

// FetchRelated implements engine.EntityFetcher.
func (g *QuotaGuard) FetchRelated(ctx context.Context, criteria engine.RelatedCriteria) ([]engine.MetadataRecord, error) {
	return guarded(g, func() ([]engine.MetadataRecord, error) {
		return g.next.FetchRelated(ctx, criteria)
	})
}
