package engine_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/youseo/internal/engine"
	"github.com/rshade/youseo/internal/engine/cache"
	"github.com/rshade/youseo/internal/engine/enginetest"
)

func newStore(t *testing.T) *cache.Store {
	t.Helper()
	store, err := cache.NewStore(cache.Config{Enabled: true, Directory: t.TempDir()})
	require.NoError(t, err)
	return store
}

func TestEngine_FetchBundle(t *testing.T) {
	fetcher := enginetest.NewFetcher().
		AddVideo(enginetest.Video("vid00000001", 1000, 50, 10)).
		AddComments("vid00000001",
			engine.CommentRecord{Text: "great"},
			engine.CommentRecord{Text: "thanks"},
			engine.CommentRecord{Text: "more please"}).
		SetRelated(enginetest.Video("rel00000001", 5000, 100, 20))

	eng := engine.New(fetcher, newStore(t))
	bundle, err := eng.FetchBundle(context.Background(), "vid00000001", engine.FetchOptions{
		IncludeComments: true,
		MaxComments:     2,
	})
	require.NoError(t, err)

	assert.Equal(t, "vid00000001", bundle.Metadata.VideoID)
	assert.Len(t, bundle.Comments, 2)
	assert.False(t, bundle.CommentsDisabled)
	require.Len(t, bundle.Related, 1)
	assert.Equal(t, "rel00000001", bundle.Related[0].VideoID)

	input := bundle.Input()
	assert.Equal(t, bundle.Metadata, input.Metadata)
}

func TestEngine_SecondFetchHitsCache(t *testing.T) {
	fetcher := enginetest.NewFetcher().AddVideo(enginetest.Video("vid00000001", 10, 1, 1))
	eng := engine.New(fetcher, newStore(t))
	opts := engine.FetchOptions{IncludeComments: true, MaxComments: 100}

	for range 2 {
		_, err := eng.FetchBundle(context.Background(), "vid00000001", opts)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fetcher.MetadataCalls.Load())
	assert.Equal(t, int32(1), fetcher.CommentCalls.Load())
	assert.Equal(t, int32(1), fetcher.RelatedCalls.Load())

	// A different comment limit is a different cache key.
	_, err := eng.FetchComments(context.Background(), "vid00000001", 20, false)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.CommentCalls.Load())
}

func TestEngine_BypassCache(t *testing.T) {
	fetcher := enginetest.NewFetcher().AddVideo(enginetest.Video("vid00000001", 10, 1, 1))
	eng := engine.New(fetcher, newStore(t))

	for range 2 {
		_, err := eng.FetchMetadata(context.Background(), "vid00000001", true)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), fetcher.MetadataCalls.Load())
}

func TestEngine_NilStoreDisablesCaching(t *testing.T) {
	fetcher := enginetest.NewFetcher().AddVideo(enginetest.Video("vid00000001", 10, 1, 1))
	eng := engine.New(fetcher, nil)

	for range 2 {
		_, err := eng.FetchMetadata(context.Background(), "vid00000001", false)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), fetcher.MetadataCalls.Load())
}

func TestEngine_CommentsDisabled(t *testing.T) {
	fetcher := enginetest.NewFetcher().
		AddVideo(enginetest.Video("vid00000001", 10, 1, 1)).
		DisableComments("vid00000001")
	eng := engine.New(fetcher, newStore(t))
	opts := engine.FetchOptions{IncludeComments: true, MaxComments: 50}

	bundle, err := eng.FetchBundle(context.Background(), "vid00000001", opts)
	require.NoError(t, err)
	assert.True(t, bundle.CommentsDisabled)
	assert.Empty(t, bundle.Comments)

	_, err = eng.FetchBundle(context.Background(), "vid00000001", opts)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.CommentCalls.Load(), "disabled state is cached")
}

func TestEngine_SkipComments(t *testing.T) {
	fetcher := enginetest.NewFetcher().AddVideo(enginetest.Video("vid00000001", 10, 1, 1))
	eng := engine.New(fetcher, newStore(t))

	bundle, err := eng.FetchBundle(context.Background(), "vid00000001", engine.FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, bundle.Comments)
	assert.Equal(t, int32(0), fetcher.CommentCalls.Load())
}

func TestEngine_MetadataFailure(t *testing.T) {
	fetcher := enginetest.NewFetcher().FailVideo("vid00000001", engine.ErrRateLimited)
	eng := engine.New(fetcher, newStore(t))

	_, err := eng.FetchBundle(context.Background(), "vid00000001", engine.FetchOptions{})
	require.ErrorIs(t, err, engine.ErrRateLimited)
	assert.Equal(t, engine.KindRateLimited, engine.KindOf(err))

	_, err = eng.FetchBundle(context.Background(), "missing0001", engine.FetchOptions{})
	assert.Equal(t, engine.KindNotFound, engine.KindOf(err))
}

func TestEngine_RelatedFailureIsNonFatal(t *testing.T) {
	fetcher := enginetest.NewFetcher().AddVideo(enginetest.Video("vid00000001", 10, 1, 1))
	fetcher.RelatedErr = engine.ErrTransient
	eng := engine.New(fetcher, newStore(t))

	bundle, err := eng.FetchBundle(context.Background(), "vid00000001", engine.FetchOptions{})
	require.NoError(t, err)
	assert.Empty(t, bundle.Related)
}

func TestRelatedQuery(t *testing.T) {
	assert.Equal(t, "short", engine.RelatedQuery("short"))
	long := strings.Repeat("é", 60)
	assert.Equal(t, strings.Repeat("é", 50), engine.RelatedQuery(long))
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want engine.Kind
	}{
		{nil, engine.KindNone},
		{engine.ErrNotFound, engine.KindNotFound},
		{engine.ErrCommentsDisabled, engine.KindNotFound},
		{engine.ErrRateLimited, engine.KindRateLimited},
		{engine.ErrTransient, engine.KindTransient},
		{engine.ErrMalformed, engine.KindMalformed},
		{context.Canceled, engine.KindCanceled},
		{context.DeadlineExceeded, engine.KindTransient},
		{errors.New("other"), engine.KindUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.KindOf(tt.err), "%v", tt.err)
	}
}
