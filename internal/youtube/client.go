package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/rshade/youseo/internal/engine"
)

const (
	// maxPageSize is the largest page the commentThreads endpoint accepts.
	maxPageSize = 100
)

// ErrMissingAPIKey is returned by NewClient without an API key.
var ErrMissingAPIKey = errors.New("YouTube API key is required (set YOUTUBE_API_KEY or youtube.api_key)")

// quotaReasons are the error reasons the API uses for exhausted quota.
//
//nolint:gochecknoglobals // Read-only lookup table.
var quotaReasons = map[string]bool{
	"quotaExceeded":         true,
	"rateLimitExceeded":     true,
	"userRateLimitExceeded": true,
	"dailyLimitExceeded":    true,
}

// Client fetches videos, comments and search results from the YouTube Data
// API. It implements engine.EntityFetcher.
type Client struct {
	service *yt.Service
	logger  zerolog.Logger
}

// NewClient builds a client authenticated with apiKey. Extra options are
// passed to the underlying service (endpoint, HTTP client).
func NewClient(ctx context.Context, apiKey string, logger zerolog.Logger, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	service, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating YouTube service: %w", err)
	}
	return &Client{service: service, logger: logger}, nil
}

// FetchMetadata returns the snippet, statistics and channel statistics of a
// video.
func (c *Client) FetchMetadata(ctx context.Context, videoID string) (engine.MetadataRecord, error) {
	resp, err := c.service.Videos.
		List([]string{"snippet", "statistics", "contentDetails"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return engine.MetadataRecord{}, classify("videos.list", err)
	}
	if len(resp.Items) == 0 {
		return engine.MetadataRecord{}, fmt.Errorf("video %s: %w", videoID, engine.ErrNotFound)
	}

	md := metadataFromVideo(resp.Items[0])
	if md.ChannelID != "" {
		stats, chErr := c.channelStatistics(ctx, md.ChannelID)
		if chErr != nil {
			return engine.MetadataRecord{}, chErr
		}
		md.ChannelStatistics = stats
	}
	return md, nil
}

func (c *Client) channelStatistics(ctx context.Context, channelID string) (engine.ChannelStatistics, error) {
	resp, err := c.service.Channels.
		List([]string{"statistics"}).
		Id(channelID).
		Context(ctx).
		Do()
	if err != nil {
		return engine.ChannelStatistics{}, classify("channels.list", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Statistics == nil {
		c.logger.Debug().Str("channel_id", channelID).Msg("channel statistics unavailable")
		return engine.ChannelStatistics{}, nil
	}
	s := resp.Items[0].Statistics
	return engine.ChannelStatistics{
		SubscriberCount: toInt64(s.SubscriberCount),
		VideoCount:      toInt64(s.VideoCount),
		ViewCount:       toInt64(s.ViewCount),
	}, nil
}

// FetchComments returns up to limit top-level comments ordered by relevance,
// following page tokens as needed.
func (c *Client) FetchComments(ctx context.Context, videoID string, limit int) ([]engine.CommentRecord, error) {
	comments := make([]engine.CommentRecord, 0, min(limit, maxPageSize))
	pageToken := ""
	for len(comments) < limit {
		call := c.service.CommentThreads.
			List([]string{"snippet"}).
			VideoId(videoID).
			MaxResults(int64(min(limit-len(comments), maxPageSize))).
			Order("relevance").
			TextFormat("plainText").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, classify("commentThreads.list", err)
		}
		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.TopLevelComment == nil || item.Snippet.TopLevelComment.Snippet == nil {
				continue
			}
			s := item.Snippet.TopLevelComment.Snippet
			comments = append(comments, engine.CommentRecord{
				ID:          item.Id,
				Author:      s.AuthorDisplayName,
				Text:        s.TextDisplay,
				LikeCount:   s.LikeCount,
				PublishedAt: s.PublishedAt,
			})
			if len(comments) == limit {
				break
			}
		}
		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}
	return comments, nil
}

// FetchRelated searches videos matching criteria.Query ordered by view count
// and returns their metadata in search order.
func (c *Client) FetchRelated(ctx context.Context, criteria engine.RelatedCriteria) ([]engine.MetadataRecord, error) {
	search, err := c.service.Search.
		List([]string{"id"}).
		Q(criteria.Query).
		Type("video").
		Order("viewCount").
		MaxResults(int64(criteria.MaxResults)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("search.list", err)
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return []engine.MetadataRecord{}, nil
	}

	resp, err := c.service.Videos.
		List([]string{"snippet", "statistics"}).
		Id(ids...).
		Context(ctx).
		Do()
	if err != nil {
		return nil, classify("videos.list", err)
	}

	byID := make(map[string]engine.MetadataRecord, len(resp.Items))
	for _, v := range resp.Items {
		byID[v.Id] = metadataFromVideo(v)
	}
	out := make([]engine.MetadataRecord, 0, len(ids))
	for _, id := range ids {
		if md, ok := byID[id]; ok {
			out = append(out, md)
		}
	}
	return out, nil
}

func metadataFromVideo(v *yt.Video) engine.MetadataRecord {
	md := engine.MetadataRecord{VideoID: v.Id, Tags: []string{}}
	if s := v.Snippet; s != nil {
		md.Title = s.Title
		md.Description = s.Description
		if s.Tags != nil {
			md.Tags = s.Tags
		}
		md.CategoryID = s.CategoryId
		md.PublishedAt = s.PublishedAt
		md.ChannelID = s.ChannelId
		md.ChannelTitle = s.ChannelTitle
		if s.Thumbnails != nil && s.Thumbnails.High != nil {
			md.ThumbnailURL = s.Thumbnails.High.Url
		}
	}
	if st := v.Statistics; st != nil {
		md.Statistics = engine.Statistics{
			ViewCount:     toInt64(st.ViewCount),
			LikeCount:     toInt64(st.LikeCount),
			CommentCount:  toInt64(st.CommentCount),
			FavoriteCount: toInt64(st.FavoriteCount),
		}
	}
	if cd := v.ContentDetails; cd != nil {
		md.Duration = cd.Duration
	}
	return md
}

func toInt64(v uint64) int64 {
	const maxInt64 = 1<<63 - 1
	if v > maxInt64 {
		return maxInt64
	}
	return int64(v)
}

// classify wraps err with the engine error class matching the API response.
func classify(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w: %w", op, engine.ErrTransient, err)
	}

	for _, item := range apiErr.Errors {
		switch {
		case item.Reason == "commentsDisabled":
			return fmt.Errorf("%s: %w", op, engine.ErrCommentsDisabled)
		case quotaReasons[item.Reason]:
			return fmt.Errorf("%s: %w: %s", op, engine.ErrRateLimited, item.Reason)
		case item.Reason == "videoNotFound" || item.Reason == "channelNotFound":
			return fmt.Errorf("%s: %w", op, engine.ErrNotFound)
		}
	}

	switch {
	case apiErr.Code == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, engine.ErrNotFound)
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w", op, engine.ErrRateLimited)
	case apiErr.Code >= http.StatusInternalServerError:
		return fmt.Errorf("%s: %w: %w", op, engine.ErrTransient, err)
	default:
		return fmt.Errorf("%s (HTTP %d): %w", op, apiErr.Code, err)
	}
}
