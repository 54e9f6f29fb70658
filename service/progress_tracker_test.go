package service

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pdfchat/pdfchat-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestTracker(grace time.Duration) (*ProgressTracker, *fakeClock) {
	clock := newFakeClock()
	tracker := NewProgressTracker(grace)
	tracker.now = clock.Now
	return tracker, clock
}

func TestTrackerGetUnknownJob(t *testing.T) {
	tracker, _ := newTestTracker(5 * time.Minute)
	_, ok := tracker.Get("missing")
	assert.False(t, ok)
}

func TestTrackerUpdateCreatesRecord(t *testing.T) {
	tracker, _ := newTestTracker(5 * time.Minute)
	tracker.Update("job-1", 3, 10, "Uploading chunk 3/10")

	record, ok := tracker.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, "job-1", record.JobID)
	assert.Equal(t, 3, record.Current)
	assert.Equal(t, 10, record.Total)
	assert.InDelta(t, 30.0, record.Percent, 0.001)
	assert.Equal(t, types.ProgressStatusProcessing, record.Status)
}

func TestTrackerPercentZeroTotal(t *testing.T) {
	tracker, _ := newTestTracker(5 * time.Minute)
	tracker.Update("job-1", 0, 0, "starting")

	record, _ := tracker.Get("job-1")
	assert.Zero(t, record.Percent)
}

func TestTrackerComplete(t *testing.T) {
	tracker, _ := newTestTracker(5 * time.Minute)
	tracker.Update("job-1", 50, 100, "halfway")
	tracker.Complete("job-1", &types.IngestResult{
		DocumentID:    "doc-1",
		ChunksCreated: 3,
		TotalChunks:   3,
	})

	record, ok := tracker.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, types.ProgressStatusComplete, record.Status)
	assert.Equal(t, 3, record.Current)
	assert.Equal(t, 3, record.Total)
	assert.InDelta(t, 100.0, record.Percent, 0.001)
	require.NotNil(t, record.Result)
	assert.Equal(t, "doc-1", record.Result.DocumentID)
}

func TestTrackerError(t *testing.T) {
	tracker, _ := newTestTracker(5 * time.Minute)
	tracker.Update("job-1", 50, 100, "halfway")
	tracker.Error("job-1", "connection refused")

	record, ok := tracker.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, types.ProgressStatusError, record.Status)
	assert.Equal(t, "connection refused", record.Error)
	assert.Zero(t, record.Current)
	assert.Zero(t, record.Percent)
}

func TestTrackerRejectsUpdateAfterTerminal(t *testing.T) {
	tracker, _ := newTestTracker(5 * time.Minute)
	tracker.Update("done", 1, 2, "working")
	tracker.Complete("done", &types.IngestResult{ChunksCreated: 2, TotalChunks: 2})
	tracker.Update("done", 1, 2, "late update")

	record, ok := tracker.Get("done")
	require.True(t, ok)
	assert.Equal(t, types.ProgressStatusComplete, record.Status)
	assert.InDelta(t, 100.0, record.Percent, 0.001)

	tracker.Update("failed", 1, 2, "working")
	tracker.Error("failed", "boom")
	tracker.Update("failed", 2, 2, "late update")

	record, ok = tracker.Get("failed")
	require.True(t, ok)
	assert.Equal(t, types.ProgressStatusError, record.Status)
}

func TestTrackerStatusWalkMonotonic(t *testing.T) {
	tracker, _ := newTestTracker(5 * time.Minute)
	lastPercent := -1.0
	for i := 0; i <= 10; i++ {
		tracker.Update("job-1", i, 10, fmt.Sprintf("step %d", i))
		record, ok := tracker.Get("job-1")
		require.True(t, ok)
		assert.Equal(t, types.ProgressStatusProcessing, record.Status)
		assert.GreaterOrEqual(t, record.Percent, lastPercent)
		lastPercent = record.Percent
	}
	tracker.Complete("job-1", &types.IngestResult{ChunksCreated: 10, TotalChunks: 10})
	record, _ := tracker.Get("job-1")
	assert.Equal(t, types.ProgressStatusComplete, record.Status)
}

func TestTrackerGraceWindowEviction(t *testing.T) {
	grace := 5 * time.Minute
	tracker, clock := newTestTracker(grace)
	tracker.Update("job-1", 1, 1, "working")
	tracker.Complete("job-1", &types.IngestResult{ChunksCreated: 1, TotalChunks: 1})

	// still retrievable within the window
	clock.Advance(grace - time.Second)
	assert.Zero(t, tracker.Sweep())
	_, ok := tracker.Get("job-1")
	assert.True(t, ok)

	// gone strictly after the window
	clock.Advance(2 * time.Second)
	assert.Equal(t, 1, tracker.Sweep())
	_, ok = tracker.Get("job-1")
	assert.False(t, ok)
}

func TestTrackerSweepKeepsErrorAndProcessingRecords(t *testing.T) {
	tracker, clock := newTestTracker(time.Minute)
	tracker.Update("running", 1, 2, "working")
	tracker.Update("failed", 1, 2, "working")
	tracker.Error("failed", "boom")

	clock.Advance(time.Hour)
	assert.Zero(t, tracker.Sweep())
	_, ok := tracker.Get("running")
	assert.True(t, ok)
	_, ok = tracker.Get("failed")
	assert.True(t, ok)
}

func TestTrackerDeleteBeforeSweep(t *testing.T) {
	tracker, clock := newTestTracker(time.Minute)
	tracker.Update("job-1", 1, 1, "working")
	tracker.Complete("job-1", &types.IngestResult{ChunksCreated: 1, TotalChunks: 1})
	tracker.Delete("job-1")

	// sweeping after a manual delete must not panic or resurrect anything
	clock.Advance(time.Hour)
	assert.Zero(t, tracker.Sweep())
	_, ok := tracker.Get("job-1")
	assert.False(t, ok)

	// deleting an unknown id is a no-op
	tracker.Delete("job-1")
}

func TestTrackerConcurrentJobsNoCrossContamination(t *testing.T) {
	tracker, _ := newTestTracker(5 * time.Minute)
	var wg sync.WaitGroup
	jobs := 8
	steps := 50

	for j := 0; j < jobs; j++ {
		wg.Add(1)
		go func(j int) {
			defer wg.Done()
			jobID := fmt.Sprintf("job-%d", j)
			for i := 1; i <= steps; i++ {
				tracker.Update(jobID, i, steps, fmt.Sprintf("job %d step %d", j, i))
			}
			tracker.Complete(jobID, &types.IngestResult{
				DocumentID:    fmt.Sprintf("doc-%d", j),
				ChunksCreated: steps,
				TotalChunks:   steps,
			})
		}(j)
	}
	wg.Wait()

	for j := 0; j < jobs; j++ {
		record, ok := tracker.Get(fmt.Sprintf("job-%d", j))
		require.True(t, ok)
		assert.Equal(t, types.ProgressStatusComplete, record.Status)
		require.NotNil(t, record.Result)
		assert.Equal(t, fmt.Sprintf("doc-%d", j), record.Result.DocumentID)
	}
}
