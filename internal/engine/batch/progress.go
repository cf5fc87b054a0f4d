package batch

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// ProgressCallback receives a snapshot after each finished item.
// Calls are serialized, so the callback does not need to be thread-safe.
type ProgressCallback func(snapshot ProgressSnapshot)

// Progress tracks how many items of a run have finished.
// It is safe for concurrent use.
type Progress struct {
	totalItems     int
	processedItems int
	succeeded      int
	failed         int
	startTime      time.Time
	lastUpdateTime time.Time
	lastItem       int

	// mu protects all fields above.
	mu sync.RWMutex
}

// NewProgress creates a tracker for totalItems items.
func NewProgress(totalItems int) *Progress {
	now := time.Now()
	return &Progress{
		totalItems:     totalItems,
		startTime:      now,
		lastUpdateTime: now,
		lastItem:       -1,
	}
}

// Record counts a finished item and returns the resulting snapshot.
func (p *Progress) Record(item *Item) ProgressSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processedItems++
	switch item.Status {
	case StatusSucceeded:
		p.succeeded++
	case StatusFailed:
		p.failed++
	case StatusPending:
	}
	p.lastUpdateTime = time.Now()
	p.lastItem = item.Index
	return p.snapshotUnsafe()
}

// PercentComplete returns the completion percentage (0-100).
func (p *Progress) PercentComplete() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.percentCompleteUnsafe()
}

// IsComplete returns true once every item has finished.
func (p *Progress) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.processedItems >= p.totalItems
}

// ElapsedTime returns the time elapsed since the run started.
func (p *Progress) ElapsedTime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return time.Since(p.startTime)
}

// EstimatedTimeRemaining extrapolates the remaining time from the average
// item duration so far. Returns 0 before the first item finishes.
func (p *Progress) EstimatedTimeRemaining() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.processedItems == 0 {
		return 0
	}
	avgTimePerItem := time.Since(p.startTime) / time.Duration(p.processedItems)
	return avgTimePerItem * time.Duration(p.totalItems-p.processedItems)
}

// ItemsPerSecond returns the processing rate.
func (p *Progress) ItemsPerSecond() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.itemsPerSecondUnsafe()
}

// Snapshot returns a copy of the current state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotUnsafe()
}

// ProgressSnapshot is an immutable copy of progress state.
type ProgressSnapshot struct {
	TotalItems      int
	ProcessedItems  int
	SucceededItems  int
	FailedItems     int
	LastItemIndex   int
	StartTime       time.Time
	LastUpdateTime  time.Time
	PercentComplete float64
	ElapsedTime     time.Duration
	ItemsPerSecond  float64
}

// snapshotUnsafe must be called with the lock held.
func (p *Progress) snapshotUnsafe() ProgressSnapshot {
	return ProgressSnapshot{
		TotalItems:      p.totalItems,
		ProcessedItems:  p.processedItems,
		SucceededItems:  p.succeeded,
		FailedItems:     p.failed,
		LastItemIndex:   p.lastItem,
		StartTime:       p.startTime,
		LastUpdateTime:  p.lastUpdateTime,
		PercentComplete: p.percentCompleteUnsafe(),
		ElapsedTime:     time.Since(p.startTime),
		ItemsPerSecond:  p.itemsPerSecondUnsafe(),
	}
}

// percentCompleteUnsafe must be called with the lock held.
func (p *Progress) percentCompleteUnsafe() float64 {
	if p.totalItems == 0 {
		return 0
	}
	return (float64(p.processedItems) / float64(p.totalItems)) * percentMultiplier
}

// itemsPerSecondUnsafe must be called with the lock held.
func (p *Progress) itemsPerSecondUnsafe() float64 {
	elapsed := time.Since(p.startTime).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(p.processedItems) / elapsed
}
