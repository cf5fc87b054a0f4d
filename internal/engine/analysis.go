package engine

import "math"

// minChannelSubscribersForCTR floors the subscriber count in the CTR estimate.
const minChannelSubscribersForCTR = 1000

// SentimentClassifier summarizes the tone of a comment set. Implementations
// return nil when they cannot classify.
type SentimentClassifier interface {
	Classify(comments []CommentRecord) *SentimentSummary
}

// DefaultAnalyzer computes engagement metrics and, when Sentiment is set and
// comments are present, a sentiment summary.
type DefaultAnalyzer struct {
	Sentiment SentimentClassifier
}

// Analyze implements Analyzer.
func (a DefaultAnalyzer) Analyze(in AnalysisInput) AnalysisRecord {
	record := AnalysisRecord{
		Metadata:         in.Metadata,
		Engagement:       ComputeEngagement(in.Metadata),
		CommentCount:     len(in.Comments),
		CommentsDisabled: in.CommentsDisabled,
		Related:          in.Related,
	}
	if record.Related == nil {
		record.Related = []MetadataRecord{}
	}
	if a.Sentiment != nil && len(in.Comments) > 0 {
		record.Sentiment = a.Sentiment.Classify(in.Comments)
	}
	return record
}

// ComputeEngagement derives the engagement percentages of a video.
// A video with zero views has all-zero metrics.
func ComputeEngagement(md MetadataRecord) EngagementMetrics {
	views := float64(md.Statistics.ViewCount)
	if views <= 0 {
		return EngagementMetrics{}
	}
	likes := float64(md.Statistics.LikeCount)
	comments := float64(md.Statistics.CommentCount)

	subs := float64(md.ChannelStatistics.SubscriberCount)
	if subs < minChannelSubscribersForCTR {
		subs = minChannelSubscribersForCTR
	}

	return EngagementMetrics{
		EngagementRate: round2((likes + comments) / views * 100),
		LikeRate:       round2(likes / views * 100),
		CommentRate:    round2(comments / views * 100),
		EstimatedCTR:   round2(math.Min(views/subs*100, 100)),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
