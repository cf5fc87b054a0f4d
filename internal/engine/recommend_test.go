package engine_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/youseo/internal/engine"
)

func analysisOf(md engine.MetadataRecord, related ...engine.MetadataRecord) engine.AnalysisRecord {
	return engine.DefaultAnalyzer{}.Analyze(engine.AnalysisInput{Metadata: md, Related: related})
}

func TestBaselineRecommender_Title(t *testing.T) {
	tests := []struct {
		title string
		want  int
	}{
		{"The ultimate guide to 10 Go patterns for services", 100},
		{"Short", 55},
		{"Go in 5 minutes: the best bits", 100},
		{strings.Repeat("x", 71) + " 1 best", 90},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			rec := engine.BaselineRecommender{}.Recommend(analysisOf(engine.MetadataRecord{Title: tt.title}), engine.RecommendOptions{})
			assert.Equal(t, tt.want, rec.Title.Score)
		})
	}
}

func TestBaselineRecommender_Tags(t *testing.T) {
	none := engine.BaselineRecommender{}.Recommend(analysisOf(engine.MetadataRecord{}), engine.RecommendOptions{})
	assert.Equal(t, 60, none.Tags.Score)

	many := make([]string, 16)
	for i := range many {
		many[i] = "t" + strings.Repeat("x", i)
	}
	rec := engine.BaselineRecommender{}.Recommend(analysisOf(engine.MetadataRecord{Tags: many}), engine.RecommendOptions{})
	assert.Equal(t, 90, rec.Tags.Score)

	related := engine.MetadataRecord{Title: "x", Tags: []string{"kubernetes", "go"}}
	rec = engine.BaselineRecommender{}.Recommend(
		analysisOf(engine.MetadataRecord{Tags: []string{"Go", "cli", "tools"}}, related),
		engine.RecommendOptions{})
	assert.Equal(t, 85, rec.Tags.Score)
	assert.Contains(t, rec.Tags.Suggestions[len(rec.Tags.Suggestions)-1], "kubernetes")
	assert.NotContains(t, rec.Tags.Suggestions[len(rec.Tags.Suggestions)-1], "go,")
}

func TestBaselineRecommender_ScoresStayInRange(t *testing.T) {
	worst := engine.AnalysisRecord{
		Metadata:  engine.MetadataRecord{Statistics: engine.Statistics{ViewCount: 1}},
		Sentiment: &engine.SentimentSummary{Overall: engine.SentimentNegative},
		Related:   []engine.MetadataRecord{{Title: strings.Repeat("y", 90), Statistics: engine.Statistics{ViewCount: 1000000}}},
	}
	rec := engine.BaselineRecommender{}.Recommend(worst, engine.RecommendOptions{AIInsights: true})

	for name, score := range map[string]int{
		"title":       rec.Title.Score,
		"description": rec.Description.Score,
		"tags":        rec.Tags.Score,
		"engagement":  rec.Engagement.Score,
		"seo":         rec.SEO.Score,
		"overall":     rec.Overall,
	} {
		assert.GreaterOrEqual(t, score, 0, name)
		assert.LessOrEqual(t, score, 100, name)
	}
	assert.Equal(t, 15, rec.Engagement.Score)
	assert.Equal(t, 80, rec.SEO.Score)
	assert.True(t, rec.AIInsightsRequested)
}

func TestBaselineRecommender_Deterministic(t *testing.T) {
	a := analysisOf(engine.MetadataRecord{Title: "Go tips", Description: "d"},
		engine.MetadataRecord{Tags: []string{"a", "b", "a"}})
	first := engine.BaselineRecommender{}.Recommend(a, engine.RecommendOptions{})
	second := engine.BaselineRecommender{}.Recommend(a, engine.RecommendOptions{})
	assert.Equal(t, first, second)
}
