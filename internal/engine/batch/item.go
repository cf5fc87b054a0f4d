package batch

import (
	"time"

	"github.com/rshade/youseo/internal/engine"
)

// Status is the lifecycle state of an item.
type Status string

// Item statuses.
const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Stage is the pipeline step an item reached.
type Stage string

// Pipeline stages, in order.
const (
	StageResolving    Stage = "resolving"
	StageFetching     Stage = "fetching"
	StageAnalyzing    Stage = "analyzing"
	StageRecommending Stage = "recommending"
)

// Input is one raw batch input with its 1-based source line (0 when it came
// from the command line).
type Input struct {
	Raw  string
	Line int

	// Err, when set, fails the item at the resolving stage.
	Err error
}

// Item is the outcome of one input.
// Analysis and Recommendation are set iff Status is StatusSucceeded; Error and
// ErrorKind are set iff Status is StatusFailed.
type Item struct {
	Index          int                          `json:"index"`
	RawInput       string                       `json:"input"`
	Line           int                          `json:"line,omitempty"`
	EntityID       string                       `json:"video_id,omitempty"`
	Status         Status                       `json:"status"`
	Stage          Stage                        `json:"stage"`
	Analysis       *engine.AnalysisRecord       `json:"analysis,omitempty"`
	Recommendation *engine.RecommendationRecord `json:"recommendations,omitempty"`
	Error          string                       `json:"error,omitempty"`
	ErrorKind      engine.Kind                  `json:"error_kind,omitempty"`
	Duration       time.Duration                `json:"duration_ns"`
	AnalyzedAt     time.Time                    `json:"analyzed_at,omitzero"`

	err      error
	inputErr error
}

// Err returns the failure of a failed item.
func (i *Item) Err() error {
	return i.err
}

// Succeeded reports whether the item completed every stage.
func (i *Item) Succeeded() bool {
	return i.Status == StatusSucceeded
}

// URL returns the canonical watch URL when the item was resolved, or the raw
// input otherwise.
func (i *Item) URL() string {
	if i.EntityID == "" {
		return i.RawInput
	}
	return "https://www.youtube.com/watch?v=" + i.EntityID
}

func (i *Item) succeed(analysis engine.AnalysisRecord, rec engine.RecommendationRecord, at time.Time) {
	if i.Status != StatusPending {
		return
	}
	i.Status = StatusSucceeded
	i.Analysis = &analysis
	i.Recommendation = &rec
	i.AnalyzedAt = at
}

func (i *Item) fail(err error) {
	if i.Status != StatusPending {
		return
	}
	i.Status = StatusFailed
	i.err = err
	i.Error = err.Error()
	i.ErrorKind = engine.KindOf(err)
}
