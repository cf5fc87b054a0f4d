package batch

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testTime = time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)

func TestProgress(t *testing.T) {
	p := NewProgress(4)
	assert.Zero(t, p.PercentComplete())
	assert.False(t, p.IsComplete())
	assert.Zero(t, p.EstimatedTimeRemaining())

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			status := StatusSucceeded
			if i%2 == 1 {
				status = StatusFailed
			}
			p.Record(&Item{Index: i, Status: status})
		}(i)
	}
	wg.Wait()

	snap := p.Snapshot()
	assert.Equal(t, 4, snap.ProcessedItems)
	assert.Equal(t, 2, snap.SucceededItems)
	assert.Equal(t, 2, snap.FailedItems)
	assert.InDelta(t, 100.0, p.PercentComplete(), 0.001)
	assert.True(t, p.IsComplete())
	assert.GreaterOrEqual(t, p.ElapsedTime(), time.Duration(0))
	assert.GreaterOrEqual(t, p.ItemsPerSecond(), 0.0)
}

func TestProgress_Empty(t *testing.T) {
	p := NewProgress(0)
	assert.Zero(t, p.PercentComplete())
	assert.True(t, p.IsComplete())
	assert.Equal(t, -1, p.Snapshot().LastItemIndex)
}
