package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/rshade/youseo/internal/engine/cache"
)

const (
	// DefaultMaxComments is the number of comments fetched per video.
	DefaultMaxComments = 100

	// DefaultRelatedResults is the number of top-ranking videos searched.
	DefaultRelatedResults = 5

	// relatedQueryRunes is the title prefix length used as the search query.
	relatedQueryRunes = 50
)

// EntityFetcher talks to the remote API. Errors wrap ErrNotFound,
// ErrRateLimited, ErrTransient or ErrCommentsDisabled.
type EntityFetcher interface {
	FetchMetadata(ctx context.Context, videoID string) (MetadataRecord, error)
	FetchComments(ctx context.Context, videoID string, limit int) ([]CommentRecord, error)
	FetchRelated(ctx context.Context, criteria RelatedCriteria) ([]MetadataRecord, error)
}

// Analyzer turns fetched data into an AnalysisRecord. It must be pure.
type Analyzer interface {
	Analyze(in AnalysisInput) AnalysisRecord
}

// Recommender scores an analysis. It must be pure and deterministic.
type Recommender interface {
	Recommend(analysis AnalysisRecord, opts RecommendOptions) RecommendationRecord
}

// FetchOptions controls FetchBundle.
type FetchOptions struct {
	IncludeComments bool
	MaxComments     int
	BypassCache     bool
}

// Bundle is everything fetched for one video.
type Bundle struct {
	Metadata         MetadataRecord
	Comments         []CommentRecord
	CommentsDisabled bool
	Related          []MetadataRecord
}

// Input converts the bundle into Analyzer input.
func (b Bundle) Input() AnalysisInput {
	return AnalysisInput{
		Metadata:         b.Metadata,
		Comments:         b.Comments,
		CommentsDisabled: b.CommentsDisabled,
		Related:          b.Related,
	}
}

// Option customizes an Engine.
type Option func(*engineSettings)

type engineSettings struct {
	logger         zerolog.Logger
	metrics        *cache.Metrics
	relatedResults int
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *engineSettings) {
		s.logger = logger
	}
}

// WithMetrics records fetch-cache counters on m.
func WithMetrics(m *cache.Metrics) Option {
	return func(s *engineSettings) {
		s.metrics = m
	}
}

// WithRelatedResults sets how many top-ranking videos are searched.
func WithRelatedResults(n int) Option {
	return func(s *engineSettings) {
		if n > 0 {
			s.relatedResults = n
		}
	}
}

// Engine fetches video data through the cache.
// It is safe for concurrent use.
type Engine struct {
	metadata       *cache.FetchCache[string, MetadataRecord]
	comments       *cache.FetchCache[CommentsRequest, CommentsPage]
	related        *cache.FetchCache[RelatedCriteria, []MetadataRecord]
	relatedResults int
	logger         zerolog.Logger
}

// New builds an Engine over fetcher and store. A nil store disables caching.
func New(fetcher EntityFetcher, store *cache.Store, opts ...Option) *Engine {
	settings := engineSettings{
		logger:         zerolog.Nop(),
		relatedResults: DefaultRelatedResults,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	if store == nil {
		store = cache.NewDisabledStore()
	}

	fetchOpts := []cache.FetchOption{
		cache.WithMetrics(settings.metrics),
		cache.WithFetchLogger(settings.logger),
	}

	fetchComments := func(ctx context.Context, req CommentsRequest) (CommentsPage, error) {
		comments, err := fetcher.FetchComments(ctx, req.VideoID, req.Limit)
		if errors.Is(err, ErrCommentsDisabled) {
			return CommentsPage{Comments: []CommentRecord{}, Disabled: true}, nil
		}
		if err != nil {
			return CommentsPage{}, err
		}
		return CommentsPage{Comments: comments}, nil
	}

	return &Engine{
		metadata: cache.NewFetchCache(store, cache.CategoryMetadata,
			func(id string) string { return id },
			fetcher.FetchMetadata, fetchOpts...),
		comments: cache.NewFetchCache(store, cache.CategoryComments,
			func(req CommentsRequest) string { return cache.IdentifierWithLimit(req.VideoID, req.Limit) },
			fetchComments, fetchOpts...),
		related: cache.NewFetchCache(store, cache.CategorySearch,
			func(c RelatedCriteria) string { return cache.JoinIdentifier(c.Query, strconv.Itoa(c.MaxResults)) },
			fetcher.FetchRelated, fetchOpts...),
		relatedResults: settings.relatedResults,
		logger:         settings.logger,
	}
}

// FetchMetadata returns the metadata of videoID.
func (e *Engine) FetchMetadata(ctx context.Context, videoID string, bypass bool) (MetadataRecord, error) {
	md, err := e.metadata.Fetch(ctx, videoID, bypass)
	if err != nil {
		return MetadataRecord{}, fmt.Errorf("fetching metadata for %s: %w", videoID, err)
	}
	return md, nil
}

// FetchComments returns up to limit comments of videoID.
func (e *Engine) FetchComments(ctx context.Context, videoID string, limit int, bypass bool) (CommentsPage, error) {
	if limit <= 0 {
		limit = DefaultMaxComments
	}
	page, err := e.comments.Fetch(ctx, CommentsRequest{VideoID: videoID, Limit: limit}, bypass)
	if err != nil {
		return CommentsPage{}, fmt.Errorf("fetching comments for %s: %w", videoID, err)
	}
	return page, nil
}

// FetchRelated returns the top-ranking videos for criteria.
func (e *Engine) FetchRelated(ctx context.Context, criteria RelatedCriteria, bypass bool) ([]MetadataRecord, error) {
	related, err := e.related.Fetch(ctx, criteria, bypass)
	if err != nil {
		return nil, fmt.Errorf("searching related videos: %w", err)
	}
	return related, nil
}

// FetchBundle fetches metadata, comments and related videos for videoID.
// Metadata and comment failures are returned. Disabled comments yield an
// empty comment set. Related-video failures are logged and yield no related
// videos.
func (e *Engine) FetchBundle(ctx context.Context, videoID string, opts FetchOptions) (Bundle, error) {
	md, err := e.FetchMetadata(ctx, videoID, opts.BypassCache)
	if err != nil {
		return Bundle{}, err
	}
	bundle := Bundle{Metadata: md, Comments: []CommentRecord{}}

	if opts.IncludeComments {
		page, commentsErr := e.FetchComments(ctx, videoID, opts.MaxComments, opts.BypassCache)
		if commentsErr != nil {
			return Bundle{}, commentsErr
		}
		bundle.Comments = page.Comments
		bundle.CommentsDisabled = page.Disabled
		if page.Disabled {
			e.logger.Debug().Str("video_id", videoID).Msg("comments disabled")
		}
	}

	criteria := RelatedCriteria{Query: RelatedQuery(md.Title), MaxResults: e.relatedResults}
	if criteria.Query != "" {
		related, relatedErr := e.FetchRelated(ctx, criteria, opts.BypassCache)
		if relatedErr != nil {
			e.logger.Warn().
				Err(relatedErr).
				Str("video_id", videoID).
				Msg("related video search failed, continuing without comparison")
		} else {
			bundle.Related = related
		}
	}
	return bundle, nil
}

// RelatedQuery returns the search query for a title: its first 50 characters.
func RelatedQuery(title string) string {
	if utf8.RuneCountInString(title) <= relatedQueryRunes {
		return title
	}
	runes := []rune(title)
	return string(runes[:relatedQueryRunes])
}
