package engine

import "time"

// Statistics holds the public counters of a video.
type Statistics struct {
	ViewCount     int64 `json:"view_count"`
	LikeCount     int64 `json:"like_count"`
	CommentCount  int64 `json:"comment_count"`
	FavoriteCount int64 `json:"favorite_count"`
}

// ChannelStatistics holds the public counters of the channel owning a video.
type ChannelStatistics struct {
	SubscriberCount int64 `json:"subscriber_count"`
	VideoCount      int64 `json:"video_count"`
	ViewCount       int64 `json:"view_count"`
}

// MetadataRecord describes one video as returned by the remote API.
type MetadataRecord struct {
	VideoID           string            `json:"video_id"`
	Title             string            `json:"title"`
	Description       string            `json:"description"`
	Tags              []string          `json:"tags"`
	CategoryID        string            `json:"category_id,omitempty"`
	PublishedAt       string            `json:"published_at,omitempty"`
	ChannelID         string            `json:"channel_id,omitempty"`
	ChannelTitle      string            `json:"channel_title,omitempty"`
	ThumbnailURL      string            `json:"thumbnail_url,omitempty"`
	Duration          string            `json:"duration,omitempty"`
	Statistics        Statistics        `json:"statistics"`
	ChannelStatistics ChannelStatistics `json:"channel_statistics"`
}

// URL returns the canonical watch URL of the video.
func (m MetadataRecord) URL() string {
	return "https://www.youtube.com/watch?v=" + m.VideoID
}

// CommentRecord is one top-level comment.
type CommentRecord struct {
	ID          string `json:"id,omitempty"`
	Author      string `json:"author,omitempty"`
	Text        string `json:"text"`
	LikeCount   int64  `json:"like_count"`
	PublishedAt string `json:"published_at,omitempty"`
}

// CommentsRequest selects the first Limit comments of a video.
type CommentsRequest struct {
	VideoID string
	Limit   int
}

// CommentsPage is the cached result of a comments fetch. Disabled is true
// when the video does not accept comments, which is cached like any page.
type CommentsPage struct {
	Comments []CommentRecord `json:"comments"`
	Disabled bool            `json:"disabled,omitempty"`
}

// RelatedCriteria selects the top-ranking videos for a search query.
type RelatedCriteria struct {
	Query      string
	MaxResults int
}

// EngagementMetrics are percentages derived from the video statistics,
// rounded to two decimals.
type EngagementMetrics struct {
	EngagementRate float64 `json:"engagement_rate"`
	LikeRate       float64 `json:"like_rate"`
	CommentRate    float64 `json:"comment_rate"`
	EstimatedCTR   float64 `json:"estimated_ctr"`
}

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// SentimentSummary aggregates the classification of a comment set.
type SentimentSummary struct {
	TotalComments   int     `json:"total_comments"`
	Positive        int     `json:"positive"`
	Neutral         int     `json:"neutral"`
	Negative        int     `json:"negative"`
	AveragePolarity float64 `json:"average_polarity"`
	Overall         string  `json:"overall_sentiment"`
}

// AnalysisInput is everything the Analyzer sees about one video.
type AnalysisInput struct {
	Metadata         MetadataRecord
	Comments         []CommentRecord
	CommentsDisabled bool
	Related          []MetadataRecord
}

// AnalysisRecord is the Analyzer output for one video.
type AnalysisRecord struct {
	Metadata         MetadataRecord    `json:"metadata"`
	Engagement       EngagementMetrics `json:"engagement"`
	CommentCount     int               `json:"comments_analyzed"`
	CommentsDisabled bool              `json:"comments_disabled,omitempty"`
	Sentiment        *SentimentSummary `json:"sentiment,omitempty"`
	Related          []MetadataRecord  `json:"top_videos"`
}

// Section is one scored area of a recommendation.
type Section struct {
	Score       int      `json:"score"`
	Suggestions []string `json:"suggestions"`
}

// RecommendationRecord holds the sub-scores, each in [0,100], and the
// suggestions produced for one analysis.
type RecommendationRecord struct {
	Title               Section  `json:"title_optimization"`
	Description         Section  `json:"description_optimization"`
	Tags                Section  `json:"tags_optimization"`
	Thumbnail           Section  `json:"thumbnail_optimization"`
	Engagement          Section  `json:"engagement_strategies"`
	SEO                 Section  `json:"seo_improvements"`
	Content             []string `json:"content_suggestions"`
	Overall             int      `json:"overall_score"`
	AIInsightsRequested bool     `json:"ai_insights_requested,omitempty"`
}

// RecommendOptions controls optional recommendation features.
type RecommendOptions struct {
	// AIInsights asks for generated insights. No generator ships with
	// youseo; the request is recorded on the result.
	AIInsights bool
}

// Report is the full outcome of analyzing one video.
type Report struct {
	Analysis       AnalysisRecord       `json:"analysis"`
	Recommendation RecommendationRecord `json:"recommendations"`
	AnalyzedAt     time.Time            `json:"analyzed_at"`
}
