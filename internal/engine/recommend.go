package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	maxScore = 100

	// thumbnailScore is fixed: images are not inspected.
	thumbnailScore = 75

	relatedTagsConsidered = 10
	missingTagsSuggested  = 5
	lowCTRThreshold       = 5.0
)

//nolint:gochecknoglobals // Read-only rule table.
var powerWords = []string{"best", "ultimate", "complete", "guide", "tutorial", "tips", "secrets", "how to"}

// BaselineRecommender scores an analysis against a fixed rule table.
type BaselineRecommender struct{}

// Recommend implements Recommender.
func (BaselineRecommender) Recommend(analysis AnalysisRecord, opts RecommendOptions) RecommendationRecord {
	md := analysis.Metadata
	rec := RecommendationRecord{
		Title:               scoreTitle(md, analysis.Related),
		Description:         scoreDescription(md),
		Tags:                scoreTags(md, analysis.Related),
		Thumbnail:           thumbnailSection(),
		Engagement:          scoreEngagement(analysis.Engagement, analysis.Sentiment),
		SEO:                 scoreSEO(md, analysis.Related),
		Content:             contentSuggestions(analysis),
		AIInsightsRequested: opts.AIInsights,
	}
	rec.Overall = int(math.Round(float64(
		rec.Title.Score+rec.Description.Score+rec.Tags.Score+rec.Engagement.Score+rec.SEO.Score,
	) / 5))
	return rec
}

// section accumulates penalties and keeps the score inside [0,100].
type section struct {
	score       int
	suggestions []string
}

func newSection() *section {
	return &section{score: maxScore}
}

func (s *section) penalize(points int, suggestion string) {
	s.score -= points
	s.suggestions = append(s.suggestions, suggestion)
}

func (s *section) note(suggestion string) {
	s.suggestions = append(s.suggestions, suggestion)
}

func (s *section) done() Section {
	score := s.score
	if score < 0 {
		score = 0
	}
	if score > maxScore {
		score = maxScore
	}
	suggestions := s.suggestions
	if suggestions == nil {
		suggestions = []string{}
	}
	return Section{Score: score, Suggestions: suggestions}
}

func scoreTitle(md MetadataRecord, related []MetadataRecord) Section {
	s := newSection()
	length := utf8.RuneCountInString(md.Title)

	switch {
	case length < 30:
		s.penalize(20, "Title is short; aim for 50-60 characters.")
	case length > 70:
		s.penalize(10, "Title may be truncated in search results; keep it under 70 characters.")
	default:
		s.note("Title length is good.")
	}

	if !strings.ContainsFunc(md.Title, unicode.IsDigit) {
		s.penalize(15, "Add a number (\"5 Tips\", \"2026 Guide\") to lift click-through.")
	}

	lower := strings.ToLower(md.Title)
	hasPowerWord := false
	for _, w := range powerWords {
		if strings.Contains(lower, w) {
			hasPowerWord = true
			break
		}
	}
	if !hasPowerWord {
		s.penalize(10, "Add a power word such as \"Ultimate\", \"Complete\" or \"Best\".")
	}

	if len(related) > 0 {
		total := 0
		for _, r := range related {
			total += utf8.RuneCountInString(r.Title)
		}
		avg := float64(total) / float64(len(related))
		if math.Abs(float64(length)-avg) > 20 {
			s.penalize(5, fmt.Sprintf("Top videos in this niche average %d characters per title.", int(avg)))
		}
	}
	return s.done()
}

func scoreDescription(md MetadataRecord) Section {
	s := newSection()
	desc := md.Description
	length := utf8.RuneCountInString(desc)

	switch {
	case length < 100:
		s.penalize(30, "Description is short; write at least 200 characters with relevant keywords.")
	case length < 200:
		s.penalize(15, "Description could be longer; add context and keywords.")
	default:
		s.note("Description length is good.")
	}

	if !strings.Contains(strings.ToLower(desc), "timestamp") && !strings.Contains(desc, ":") {
		s.penalize(10, "Add timestamps to help viewers navigate.")
	}

	if !strings.Contains(desc, "http") && !strings.Contains(desc, "www") {
		s.penalize(5, "Add links to related resources or social profiles.")
	}

	head := []rune(strings.ToLower(desc))
	if len(head) > 200 {
		head = head[:200]
	}
	headWords := make(map[string]struct{})
	for _, w := range strings.Fields(string(head)) {
		headWords[w] = struct{}{}
	}
	shared := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(md.Title)) {
		if _, ok := headWords[w]; ok {
			shared[w] = struct{}{}
		}
	}
	if len(shared) < 2 {
		s.penalize(10, "Repeat key terms from the title in the first 200 characters.")
	}
	return s.done()
}

func scoreTags(md MetadataRecord, related []MetadataRecord) Section {
	s := newSection()
	count := len(md.Tags)

	switch {
	case count == 0:
		s.penalize(40, "No tags found; add 5-8 relevant tags.")
	case count < 3:
		s.penalize(20, "Add more tags; 5-8 relevant tags work best.")
	case count > 15:
		s.penalize(10, "Too many tags dilute relevance; keep the 5-8 most relevant.")
	default:
		s.note("Tag count is good.")
	}

	if missing := missingRelatedTags(md.Tags, related); len(missing) > 0 {
		s.penalize(15, "Consider tags used by top videos: "+strings.Join(missing, ", "))
	}
	return s.done()
}

// missingRelatedTags returns the most frequent related-video tags absent from
// tags, most frequent first and first-seen on ties.
func missingRelatedTags(tags []string, related []MetadataRecord) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range related {
		for _, tag := range r.Tags {
			if _, seen := counts[tag]; !seen {
				order = append(order, tag)
			}
			counts[tag]++
		}
	}
	if len(order) == 0 {
		return nil
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > relatedTagsConsidered {
		order = order[:relatedTagsConsidered]
	}

	own := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		own[strings.ToLower(t)] = struct{}{}
	}
	var missing []string
	for _, tag := range order {
		if _, ok := own[strings.ToLower(tag)]; !ok {
			missing = append(missing, tag)
		}
		if len(missing) == missingTagsSuggested {
			break
		}
	}
	return missing
}

func thumbnailSection() Section {
	return Section{
		Score: thumbnailScore,
		Suggestions: []string{
			"Use high-contrast colors that stand out in search results.",
			"Show a face with a clear emotion.",
			"Keep overlay text to 3-5 bold words.",
			"Check that the thumbnail reads well at small sizes.",
		},
	}
}

func scoreEngagement(m EngagementMetrics, sentiment *SentimentSummary) Section {
	s := newSection()

	switch {
	case m.EngagementRate < 2:
		s.penalize(30, "Engagement is low; add clear calls to action and ask questions.")
	case m.EngagementRate < 4:
		s.penalize(15, "Engagement is moderate; ask viewers to like, comment and subscribe.")
	default:
		s.note("Engagement rate is excellent.")
	}

	if m.LikeRate < 1 {
		s.penalize(20, "Like rate is low; remind viewers to like the video.")
	}
	if m.CommentRate < 0.5 {
		s.penalize(15, "Comment rate is low; ask a question and reply to comments.")
	}

	if sentiment != nil {
		switch sentiment.Overall {
		case SentimentNegative:
			s.penalize(20, "Comment sentiment is negative; review the feedback.")
		case SentimentPositive:
			s.note("Comment sentiment is positive.")
		}
	}
	return s.done()
}

func scoreSEO(md MetadataRecord, related []MetadataRecord) Section {
	s := newSection()
	if len(related) > 0 {
		if float64(md.Statistics.ViewCount) < averageViews(related)*0.5 {
			s.penalize(20, "Views are below half the niche average; focus on search optimization and promotion.")
		}
	}
	s.note("Publish on a consistent schedule.")
	s.note("Hook viewers in the first 15 seconds to improve watch time.")
	s.note("Use cards, end screens and playlists to extend sessions.")
	s.note("Add 3-5 relevant hashtags to the description.")
	return s.done()
}

func contentSuggestions(analysis AnalysisRecord) []string {
	var out []string
	if analysis.Engagement.EstimatedCTR < lowCTRThreshold {
		out = append(out, "Improve the thumbnail and title to raise click-through.")
	}
	if len(analysis.Related) > 0 {
		out = append(out,
			fmt.Sprintf("Top videos in this niche average %d views.", int64(averageViews(analysis.Related))),
			"Study the structure and topics of the top performers.")
	}
	return append(out,
		"Solve one specific problem per video.",
		"State the value proposition in the first 30 seconds.",
		"End with a clear call to action.")
}

func averageViews(videos []MetadataRecord) float64 {
	if len(videos) == 0 {
		return 0
	}
	var total int64
	for _, v := range videos {
		total += v.Statistics.ViewCount
	}
	return float64(total) / float64(len(videos))
}
