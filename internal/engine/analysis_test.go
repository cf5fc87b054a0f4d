package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/youseo/internal/engine"
	"github.com/rshade/youseo/internal/engine/enginetest"
)

type fixedSentiment struct{ overall string }

func (f fixedSentiment) Classify(comments []engine.CommentRecord) *engine.SentimentSummary {
	return &engine.SentimentSummary{TotalComments: len(comments), Overall: f.overall}
}

func TestComputeEngagement(t *testing.T) {
	md := enginetest.Video("vid00000001", 3000, 100, 11)
	md.ChannelStatistics.SubscriberCount = 200

	m := engine.ComputeEngagement(md)
	assert.InDelta(t, 3.7, m.EngagementRate, 0.0001)
	assert.InDelta(t, 3.33, m.LikeRate, 0.0001)
	assert.InDelta(t, 0.37, m.CommentRate, 0.0001)
	assert.InDelta(t, 100.0, m.EstimatedCTR, 0.0001, "CTR is capped at 100")

	md.ChannelStatistics.SubscriberCount = 100000
	assert.InDelta(t, 3.0, engine.ComputeEngagement(md).EstimatedCTR, 0.0001)

	assert.Equal(t, engine.EngagementMetrics{}, engine.ComputeEngagement(enginetest.Video("zero", 0, 5, 5)))
}

func TestDefaultAnalyzer(t *testing.T) {
	in := engine.AnalysisInput{
		Metadata: enginetest.Video("vid00000001", 1000, 50, 5),
		Comments: []engine.CommentRecord{{Text: "a"}, {Text: "b"}},
	}

	rec := engine.DefaultAnalyzer{}.Analyze(in)
	assert.Nil(t, rec.Sentiment)
	assert.Equal(t, 2, rec.CommentCount)
	assert.NotNil(t, rec.Related)

	rec = engine.DefaultAnalyzer{Sentiment: fixedSentiment{engine.SentimentPositive}}.Analyze(in)
	require.NotNil(t, rec.Sentiment)
	assert.Equal(t, engine.SentimentPositive, rec.Sentiment.Overall)

	in.Comments = nil
	rec = engine.DefaultAnalyzer{Sentiment: fixedSentiment{engine.SentimentPositive}}.Analyze(in)
	assert.Nil(t, rec.Sentiment, "no comments, no sentiment")
}
