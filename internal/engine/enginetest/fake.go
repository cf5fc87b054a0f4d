// Package enginetest provides an in-memory engine.EntityFetcher for tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rshade/youseo/internal/engine"
)

// Fetcher serves canned videos and counts every remote call.
type Fetcher struct {
	mu       sync.Mutex
	videos   map[string]engine.MetadataRecord
	comments map[string][]engine.CommentRecord
	errs     map[string]error
	disabled map[string]bool
	related  []engine.MetadataRecord

	// RelatedErr, when set, fails every FetchRelated call.
	RelatedErr error

	// Delay is applied to every call.
	Delay time.Duration

	MetadataCalls atomic.Int32
	CommentCalls  atomic.Int32
	RelatedCalls  atomic.Int32
}

// NewFetcher returns an empty fetcher.
func NewFetcher() *Fetcher {
	return &Fetcher{
		videos:   make(map[string]engine.MetadataRecord),
		comments: make(map[string][]engine.CommentRecord),
		errs:     make(map[string]error),
		disabled: make(map[string]bool),
	}
}

// Video returns a plausible metadata record for id.
func Video(id string, views, likes, comments int64) engine.MetadataRecord {
	return engine.MetadataRecord{
		VideoID:     id,
		Title:       "How to build 5 things in Go: the complete guide " + id,
		Description: "Chapters 00:00 intro. Build things in Go. https://example.com",
		Tags:        []string{"go", "golang", "tutorial"},
		Statistics: engine.Statistics{
			ViewCount:    views,
			LikeCount:    likes,
			CommentCount: comments,
		},
		ChannelStatistics: engine.ChannelStatistics{SubscriberCount: 10000},
	}
}

// AddVideo registers md under md.VideoID.
func (f *Fetcher) AddVideo(md engine.MetadataRecord) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[md.VideoID] = md
	return f
}

// AddComments registers the comments of id.
func (f *Fetcher) AddComments(id string, comments ...engine.CommentRecord) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[id] = comments
	return f
}

// DisableComments makes FetchComments for id fail with ErrCommentsDisabled.
func (f *Fetcher) DisableComments(id string) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disabled[id] = true
	return f
}

// FailVideo makes FetchMetadata for id fail with err.
func (f *Fetcher) FailVideo(id string, err error) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[id] = err
	return f
}

// SetRelated sets the result of every FetchRelated call.
func (f *Fetcher) SetRelated(videos ...engine.MetadataRecord) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.related = videos
	return f
}

func (f *Fetcher) wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(f.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FetchMetadata implements engine.EntityFetcher.
func (f *Fetcher) FetchMetadata(ctx context.Context, videoID string) (engine.MetadataRecord, error) {
	f.MetadataCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return engine.MetadataRecord{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.errs[videoID]; err != nil {
		return engine.MetadataRecord{}, err
	}
	md, ok := f.videos[videoID]
	if !ok {
		return engine.MetadataRecord{}, fmt.Errorf("video %s: %w", videoID, engine.ErrNotFound)
	}
	return md, nil
}

// FetchComments implements engine.EntityFetcher.
func (f *Fetcher) FetchComments(ctx context.Context, videoID string, limit int) ([]engine.CommentRecord, error) {
	f.CommentCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.disabled[videoID] {
		return nil, fmt.Errorf("video %s: %w", videoID, engine.ErrCommentsDisabled)
	}
	comments := f.comments[videoID]
	if len(comments) > limit {
		comments = comments[:limit]
	}
	out := make([]engine.CommentRecord, len(comments))
	copy(out, comments)
	return out, nil
}

// FetchRelated implements engine.EntityFetcher.
func (f *Fetcher) FetchRelated(ctx context.Context, criteria engine.RelatedCriteria) ([]engine.MetadataRecord, error) {
	f.RelatedCalls.Add(1)
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	if f.RelatedErr != nil {
		return nil, f.RelatedErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.related
	if len(out) > criteria.MaxResults {
		out = out[:criteria.MaxResults]
	}
	return append([]engine.MetadataRecord{}, out...), nil
}
