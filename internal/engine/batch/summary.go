package batch

import (
	"strconv"

	"github.com/rshade/youseo/internal/engine"
)

// sentimentUnavailable is the table value for items without a sentiment.
const sentimentUnavailable = "N/A"

// Highlight points at one item of the batch.
type Highlight struct {
	Index          int     `json:"index"`
	VideoID        string  `json:"video_id"`
	Title          string  `json:"title"`
	URL            string  `json:"url"`
	Views          int64   `json:"views"`
	EngagementRate float64 `json:"engagement"`
}

// Summary holds comparative statistics over the succeeded items.
type Summary struct {
	TotalItems            int                 `json:"total_videos"`
	FailedItems           int                 `json:"failed_videos"`
	TotalViews            int64               `json:"total_views"`
	AverageViews          float64             `json:"average_views"`
	AverageEngagementRate float64             `json:"average_engagement_rate"`
	AverageLikeRate       float64             `json:"average_like_rate"`
	BestPerforming        *Highlight          `json:"best_performing"`
	WorstPerforming       *Highlight          `json:"worst_performing"`
	HighestEngagement     *Highlight          `json:"highest_engagement"`
	LowestEngagement      *Highlight          `json:"lowest_engagement"`
	FailuresByKind        map[engine.Kind]int `json:"failures_by_kind,omitempty"`
}

// Summarize aggregates items in one pass. Ranking uses strict comparisons, so
// the earliest item in input order wins ties. With no succeeded items every
// statistic is zero and every highlight is nil.
func Summarize(items []Item) Summary {
	var (
		s                      Summary
		sumEngagement, sumLike float64
		best, worst            *Item
		highest, lowest        *Item
	)

	for i := range items {
		item := &items[i]
		if item.Status == StatusFailed {
			s.FailedItems++
			if s.FailuresByKind == nil {
				s.FailuresByKind = make(map[engine.Kind]int)
			}
			s.FailuresByKind[item.ErrorKind]++
			continue
		}
		if item.Status != StatusSucceeded || item.Analysis == nil {
			continue
		}

		s.TotalItems++
		views := item.Analysis.Metadata.Statistics.ViewCount
		rate := item.Analysis.Engagement.EngagementRate
		s.TotalViews += views
		sumEngagement += rate
		sumLike += item.Analysis.Engagement.LikeRate

		if best == nil || views > views64(best) {
			best = item
		}
		if worst == nil || views < views64(worst) {
			worst = item
		}
		if highest == nil || rate > highest.Analysis.Engagement.EngagementRate {
			highest = item
		}
		if lowest == nil || rate < lowest.Analysis.Engagement.EngagementRate {
			lowest = item
		}
	}

	if s.TotalItems == 0 {
		return s
	}
	n := float64(s.TotalItems)
	s.AverageViews = float64(s.TotalViews) / n
	s.AverageEngagementRate = sumEngagement / n
	s.AverageLikeRate = sumLike / n
	s.BestPerforming = highlightOf(best)
	s.WorstPerforming = highlightOf(worst)
	s.HighestEngagement = highlightOf(highest)
	s.LowestEngagement = highlightOf(lowest)
	return s
}

func views64(item *Item) int64 {
	return item.Analysis.Metadata.Statistics.ViewCount
}

func highlightOf(item *Item) *Highlight {
	return &Highlight{
		Index:          item.Index,
		VideoID:        item.EntityID,
		Title:          item.Analysis.Metadata.Title,
		URL:            item.RawInput,
		Views:          views64(item),
		EngagementRate: item.Analysis.Engagement.EngagementRate,
	}
}

// TableColumns are the export columns, in order.
//
//nolint:gochecknoglobals // Read-only column list.
var TableColumns = []string{
	"title", "url", "video_id", "views", "likes", "comments",
	"engagement_rate", "like_rate", "overall_sentiment",
	"title_score", "description_score", "tags_score",
}

// Row is one export row, with fields in TableColumns order.
type Row struct {
	Title            string
	URL              string
	VideoID          string
	Views            int64
	Likes            int64
	Comments         int64
	EngagementRate   float64
	LikeRate         float64
	OverallSentiment string
	TitleScore       int
	DescriptionScore int
	TagsScore        int
}

// Strings formats the row for CSV output.
func (r Row) Strings() []string {
	return []string{
		r.Title,
		r.URL,
		r.VideoID,
		strconv.FormatInt(r.Views, 10),
		strconv.FormatInt(r.Likes, 10),
		strconv.FormatInt(r.Comments, 10),
		strconv.FormatFloat(r.EngagementRate, 'f', 2, 64),
		strconv.FormatFloat(r.LikeRate, 'f', 2, 64),
		r.OverallSentiment,
		strconv.Itoa(r.TitleScore),
		strconv.Itoa(r.DescriptionScore),
		strconv.Itoa(r.TagsScore),
	}
}

// ToTable returns one row per succeeded item, in input order, and the number
// of items skipped because they did not succeed.
func ToTable(items []Item) ([]Row, int) {
	rows := make([]Row, 0, len(items))
	skipped := 0
	for i := range items {
		item := &items[i]
		if item.Status != StatusSucceeded || item.Analysis == nil || item.Recommendation == nil {
			skipped++
			continue
		}
		md := item.Analysis.Metadata
		sentiment := sentimentUnavailable
		if item.Analysis.Sentiment != nil && item.Analysis.Sentiment.Overall != "" {
			sentiment = item.Analysis.Sentiment.Overall
		}
		rows = append(rows, Row{
			Title:            md.Title,
			URL:              item.RawInput,
			VideoID:          item.EntityID,
			Views:            md.Statistics.ViewCount,
			Likes:            md.Statistics.LikeCount,
			Comments:         md.Statistics.CommentCount,
			EngagementRate:   item.Analysis.Engagement.EngagementRate,
			LikeRate:         item.Analysis.Engagement.LikeRate,
			OverallSentiment: sentiment,
			TitleScore:       item.Recommendation.Title.Score,
			DescriptionScore: item.Recommendation.Description.Score,
			TagsScore:        item.Recommendation.Tags.Score,
		})
	}
	return rows, skipped
}
