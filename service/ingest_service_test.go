package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdfchat/pdfchat-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) ExtractText(ctx context.Context, filePath string) (string, error) {
	return e.text, e.err
}

type stubEnricher struct {
	err   error
	calls int
}

func (e *stubEnricher) Annotate(ctx context.Context, chunk types.Chunk, filename string) (types.ChunkAnnotation, error) {
	e.calls++
	if e.err != nil {
		return types.ChunkAnnotation{}, e.err
	}
	return types.ChunkAnnotation{
		Title:    fmt.Sprintf("enriched %d", chunk.Index),
		Enhanced: true,
	}, nil
}

// fakeMemoryStore records added items and can fail on a chosen chunk index.
type fakeMemoryStore struct {
	mu         sync.Mutex
	items      []*types.MemoryItem
	failAtItem int // 1-based count of AddMemory calls, 0 = never fail
	failErr    error
}

func (s *fakeMemoryStore) AddMemory(ctx context.Context, item *types.MemoryItem) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAtItem > 0 && len(s.items)+1 == s.failAtItem {
		return "", s.failErr
	}
	s.items = append(s.items, item)
	return fmt.Sprintf("mem-%d", len(s.items)), nil
}

func (s *fakeMemoryStore) SearchMemories(ctx context.Context, query string, filter types.MemoryFilter, limit int) ([]types.Memory, error) {
	return nil, nil
}

func (s *fakeMemoryStore) DeleteMemory(ctx context.Context, id string) error { return nil }

func (s *fakeMemoryStore) Ready(ctx context.Context) error { return nil }

// threeChunkText produces text the chunker splits into exactly three pieces
// for the given bound.
func threeChunkText() string {
	p := strings.Repeat("w ", 30) // 60 bytes
	return p + "\n\n" + p + "\n\n" + p
}

func newTestIngest(extractor TextExtractor, enricher Enricher, store *fakeMemoryStore) (*IngestService, *ProgressTracker) {
	tracker := NewProgressTracker(5 * time.Minute)
	svc := NewIngestService(extractor, NewChunker(64), enricher, store, nil, tracker)
	return svc, tracker
}

func TestIngestThreeChunksSuccess(t *testing.T) {
	store := &fakeMemoryStore{}
	svc, tracker := newTestIngest(&stubExtractor{text: threeChunkText()}, nil, store)

	result, err := svc.Ingest(context.Background(), "job-1", &types.IngestRequest{
		FilePath:       "/tmp/report.pdf",
		Filename:       "report.pdf",
		ExternalUserID: types.DemoUserID,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksCreated)
	assert.Equal(t, 3, result.TotalChunks)
	assert.Len(t, result.MemoryIDs, 3)
	assert.NotEmpty(t, result.DocumentID)

	record, ok := tracker.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, types.ProgressStatusComplete, record.Status)
	assert.Equal(t, 3, record.Current)
	assert.Equal(t, 3, record.Total)
	assert.InDelta(t, 100.0, record.Percent, 0.001)
	require.NotNil(t, record.Result)
	assert.Equal(t, 3, record.Result.ChunksCreated)
}

func TestIngestPreservesChunkOrderAndGrouping(t *testing.T) {
	store := &fakeMemoryStore{}
	svc, _ := newTestIngest(&stubExtractor{text: threeChunkText()}, nil, store)

	result, err := svc.Ingest(context.Background(), "job-1", &types.IngestRequest{
		Filename: "report.pdf",
	})
	require.NoError(t, err)

	require.Len(t, store.items, 3)
	for i, item := range store.items {
		assert.Equal(t, i, item.ChunkIndex)
		assert.Equal(t, 3, item.TotalChunks)
		assert.Equal(t, result.DocumentID, item.DocumentID)
	}
}

// re-ingesting under the same job id overwrites the previous run's record
func TestIngestReusedJobIDOverwrites(t *testing.T) {
	tracker := NewProgressTracker(5 * time.Minute)
	store := &fakeMemoryStore{}

	first := NewIngestService(&stubExtractor{text: threeChunkText()}, NewChunker(64), nil, store, nil, tracker)
	firstResult, err := first.Ingest(context.Background(), "job-reuse", &types.IngestRequest{Filename: "report.pdf"})
	require.NoError(t, err)
	require.Equal(t, 3, firstResult.ChunksCreated)

	second := NewIngestService(&stubExtractor{text: "one short document"}, NewChunker(64), nil, store, nil, tracker)
	secondResult, err := second.Ingest(context.Background(), "job-reuse", &types.IngestRequest{Filename: "memo.pdf"})
	require.NoError(t, err)
	require.Equal(t, 1, secondResult.ChunksCreated)

	record, ok := tracker.Get("job-reuse")
	require.True(t, ok)
	assert.Equal(t, types.ProgressStatusComplete, record.Status)
	require.NotNil(t, record.Result)
	assert.Equal(t, secondResult.DocumentID, record.Result.DocumentID)
	assert.Equal(t, 1, record.Result.ChunksCreated)
	assert.Equal(t, 1, record.Current)
	assert.Equal(t, "memo.pdf", record.Result.Filename)
}

// a failed run's record is also replaced when the id is reused
func TestIngestReusedJobIDAfterError(t *testing.T) {
	tracker := NewProgressTracker(5 * time.Minute)
	store := &fakeMemoryStore{}

	failing := NewIngestService(&stubExtractor{err: errors.New("corrupt file")}, NewChunker(64), nil, store, nil, tracker)
	_, err := failing.Ingest(context.Background(), "job-reuse", &types.IngestRequest{Filename: "report.pdf"})
	require.Error(t, err)

	retry := NewIngestService(&stubExtractor{text: threeChunkText()}, NewChunker(64), nil, store, nil, tracker)
	_, err = retry.Ingest(context.Background(), "job-reuse", &types.IngestRequest{Filename: "report.pdf"})
	require.NoError(t, err)

	record, ok := tracker.Get("job-reuse")
	require.True(t, ok)
	assert.Equal(t, types.ProgressStatusComplete, record.Status)
	assert.Empty(t, record.Error)
}

func TestIngestExtractionFailureIsFatal(t *testing.T) {
	store := &fakeMemoryStore{}
	svc, tracker := newTestIngest(&stubExtractor{err: errors.New("no extractable text in report.pdf")}, nil, store)

	_, err := svc.Ingest(context.Background(), "job-1", &types.IngestRequest{Filename: "report.pdf"})
	require.Error(t, err)

	record, ok := tracker.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, types.ProgressStatusError, record.Status)
	assert.Equal(t, "no extractable text in report.pdf", record.Error)
	assert.Empty(t, store.items)
}

func TestIngestUploadFailureIsFatal(t *testing.T) {
	store := &fakeMemoryStore{failAtItem: 2, failErr: errors.New("memory store: 503 service unavailable")}
	svc, tracker := newTestIngest(&stubExtractor{text: threeChunkText()}, nil, store)

	_, err := svc.Ingest(context.Background(), "job-1", &types.IngestRequest{Filename: "report.pdf"})
	require.Error(t, err)

	record, ok := tracker.Get("job-1")
	require.True(t, ok)
	assert.Equal(t, types.ProgressStatusError, record.Status)
	// the triggering message is passed through verbatim
	assert.Contains(t, record.Error, "503 service unavailable")
	// chunk 1 made it, chunk 2 failed, chunk 3 never attempted
	assert.Len(t, store.items, 1)
}

func TestIngestEnrichmentFailureFallsBack(t *testing.T) {
	store := &fakeMemoryStore{}
	enricher := &stubEnricher{err: errors.New("llm timeout")}
	svc, tracker := newTestIngest(&stubExtractor{text: threeChunkText()}, enricher, store)

	result, err := svc.Ingest(context.Background(), "job-1", &types.IngestRequest{
		Filename: "report.pdf",
		Enhanced: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksCreated)
	assert.Equal(t, 3, enricher.calls)

	require.Len(t, store.items, 3)
	for i, item := range store.items {
		assert.False(t, item.Annotation.Enhanced)
		assert.Equal(t, fmt.Sprintf("report - Part %d", i+1), item.Annotation.Title)
	}

	record, _ := tracker.Get("job-1")
	assert.Equal(t, types.ProgressStatusComplete, record.Status)
}

func TestIngestEnrichmentSuccessAnnotates(t *testing.T) {
	store := &fakeMemoryStore{}
	svc, _ := newTestIngest(&stubExtractor{text: threeChunkText()}, &stubEnricher{}, store)

	_, err := svc.Ingest(context.Background(), "job-1", &types.IngestRequest{
		Filename: "report.pdf",
		Enhanced: true,
	})
	require.NoError(t, err)
	require.Len(t, store.items, 3)
	for i, item := range store.items {
		assert.True(t, item.Annotation.Enhanced)
		assert.Equal(t, fmt.Sprintf("enriched %d", i), item.Annotation.Title)
	}
}

// percent must never decrease while a job is processing, with or without
// enrichment
func TestIngestPercentMonotonic(t *testing.T) {
	for _, enhanced := range []bool{false, true} {
		store := &fakeMemoryStore{}
		tracker := NewProgressTracker(5 * time.Minute)

		var mu sync.Mutex
		var percents []float64
		observer := &observingStore{inner: store, observe: func() {
			if record, ok := tracker.Get("job-1"); ok {
				mu.Lock()
				percents = append(percents, record.Percent)
				mu.Unlock()
			}
		}}

		svc := NewIngestService(&stubExtractor{text: threeChunkText()}, NewChunker(64), &stubEnricher{}, observer, nil, tracker)
		_, err := svc.Ingest(context.Background(), "job-1", &types.IngestRequest{
			Filename: "report.pdf",
			Enhanced: enhanced,
		})
		require.NoError(t, err)

		for i := 1; i < len(percents); i++ {
			assert.GreaterOrEqual(t, percents[i], percents[i-1], "enhanced=%v", enhanced)
		}
	}
}

// observingStore snoops tracker state between uploads.
type observingStore struct {
	inner   *fakeMemoryStore
	observe func()
}

func (s *observingStore) AddMemory(ctx context.Context, item *types.MemoryItem) (string, error) {
	s.observe()
	return s.inner.AddMemory(ctx, item)
}

func (s *observingStore) SearchMemories(ctx context.Context, query string, filter types.MemoryFilter, limit int) ([]types.Memory, error) {
	return s.inner.SearchMemories(ctx, query, filter, limit)
}

func (s *observingStore) DeleteMemory(ctx context.Context, id string) error {
	return s.inner.DeleteMemory(ctx, id)
}

func (s *observingStore) Ready(ctx context.Context) error { return s.inner.Ready(ctx) }
