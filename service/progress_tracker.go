package service

import (
	"sync"
	"time"

	"github.com/pdfchat/pdfchat-be/types"
	"github.com/sirupsen/logrus"
)

// ProgressTracker holds the live progress record of every in-flight and
// recently finished ingestion job, keyed by the caller-assigned upload id.
// It is process-local state: a restart loses all records, and a multi-instance
// deployment would need an external shared store instead.
//
// Writers are single-writer-per-job (the pipeline run owning the id); readers
// may run concurrently and always see a full record copy.
type ProgressTracker struct {
	mu      sync.RWMutex
	records map[string]*trackedJob
	grace   time.Duration
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

type trackedJob struct {
	progress    types.UploadProgress
	completedAt time.Time
}

func NewProgressTracker(grace time.Duration) *ProgressTracker {
	return &ProgressTracker{
		records: make(map[string]*trackedJob),
		grace:   grace,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

// Update records forward progress for a job, creating its record on first
// call. Percent is derived as 100*current/total (0 when total is 0). Updates
// arriving after a terminal state are rejected: a finished job never reverts
// to processing.
func (t *ProgressTracker) Update(jobID string, current, total int, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.records[jobID]
	if ok && job.progress.Status.Terminal() {
		logrus.WithField("job_id", jobID).Warn("progress update after terminal state ignored")
		return
	}
	if !ok {
		job = &trackedJob{}
		t.records[jobID] = job
	}
	percent := 0.0
	if total > 0 {
		percent = 100 * float64(current) / float64(total)
	}
	job.progress = types.UploadProgress{
		JobID:   jobID,
		Current: current,
		Total:   total,
		Percent: percent,
		Message: message,
		Status:  types.ProgressStatusProcessing,
	}
}

// Complete marks a job finished and schedules it for eviction once the grace
// window elapses.
func (t *ProgressTracker) Complete(jobID string, result *types.IngestResult) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.records[jobID]
	if ok && job.progress.Status.Terminal() {
		return
	}
	if !ok {
		job = &trackedJob{}
		t.records[jobID] = job
	}
	job.progress = types.UploadProgress{
		JobID:   jobID,
		Current: result.ChunksCreated,
		Total:   result.TotalChunks,
		Percent: 100,
		Message: "Processing complete",
		Status:  types.ProgressStatusComplete,
		Result:  result,
	}
	job.completedAt = t.now()
}

// Error marks a job failed. The message is the collaborator's error text,
// passed through verbatim. Error records are not swept; they stay until
// deleted or the process restarts.
func (t *ProgressTracker) Error(jobID string, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job, ok := t.records[jobID]
	if ok && job.progress.Status.Terminal() {
		return
	}
	if !ok {
		job = &trackedJob{}
		t.records[jobID] = job
	}
	job.progress = types.UploadProgress{
		JobID:   jobID,
		Current: 0,
		Total:   0,
		Percent: 0,
		Message: message,
		Status:  types.ProgressStatusError,
		Error:   message,
	}
}

// Get returns a copy of the job's current record.
func (t *ProgressTracker) Get(jobID string) (types.UploadProgress, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	job, ok := t.records[jobID]
	if !ok {
		return types.UploadProgress{}, false
	}
	return job.progress, true
}

// Delete removes a job's record immediately. Deleting an unknown id is a
// no-op.
func (t *ProgressTracker) Delete(jobID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, jobID)
}

// Sweep evicts completed records whose grace window has elapsed and returns
// how many were removed. Error records are kept.
func (t *ProgressTracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	evicted := 0
	for id, job := range t.records {
		if job.progress.Status != types.ProgressStatusComplete {
			continue
		}
		if now.Sub(job.completedAt) > t.grace {
			delete(t.records, id)
			evicted++
		}
	}
	return evicted
}

// StartSweeper runs Sweep on the given interval until Stop is called.
func (t *ProgressTracker) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := t.Sweep(); n > 0 {
					logrus.WithField("evicted", n).Debug("swept completed upload records")
				}
			case <-t.stop:
				return
			}
		}
	}()
}

// Stop terminates the sweeper goroutine.
func (t *ProgressTracker) Stop() {
	t.stopOnce.Do(func() { close(t.stop) })
}
