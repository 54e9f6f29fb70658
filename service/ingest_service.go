package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pdfchat/pdfchat-be/database"
	"github.com/pdfchat/pdfchat-be/repository"
	"github.com/pdfchat/pdfchat-be/types"
	"github.com/sirupsen/logrus"
)

// IngestService runs the multi-phase ingestion pipeline for one uploaded
// document: extract text, chunk it, optionally enrich each chunk, then
// upload every chunk to the memory store in index order. Progress is
// reported to the tracker at each phase boundary and per chunk.
//
// Extraction and upload failures are fatal to the job. Enrichment failures
// are absorbed with fallback metadata and never fail the job.
type IngestService struct {
	extractor TextExtractor
	chunker   *Chunker
	enricher  Enricher
	store     database.MemoryStore
	documents repository.DocumentRepo
	tracker   *ProgressTracker
	now       func() time.Time
}

func NewIngestService(
	extractor TextExtractor,
	chunker *Chunker,
	enricher Enricher,
	store database.MemoryStore,
	documents repository.DocumentRepo,
	tracker *ProgressTracker,
) *IngestService {
	return &IngestService{
		extractor: extractor,
		chunker:   chunker,
		enricher:  enricher,
		store:     store,
		documents: documents,
		tracker:   tracker,
		now:       time.Now,
	}
}

// Progress is reported on a single 0-100 scale. With enrichment disabled,
// extraction fills 0-10, chunking lands at 10 and uploads walk 30-100.
// With enrichment enabled, enrichment walks 20-80 and uploads 80-100.
// Percent never decreases within one run.

// Ingest runs the whole pipeline for jobID. Reusing a job id overwrites its
// previous progress record; idempotency is not guaranteed.
func (s *IngestService) Ingest(ctx context.Context, jobID string, req *types.IngestRequest) (*types.IngestResult, error) {
	log := logrus.WithFields(logrus.Fields{
		"job_id":   jobID,
		"filename": req.Filename,
	})

	// a reused job id starts over; the previous run's record is discarded
	s.tracker.Delete(jobID)
	s.tracker.Update(jobID, 0, 100, fmt.Sprintf("Extracting text from %s", req.Filename))
	text, err := s.extractor.ExtractText(ctx, req.FilePath)
	if err != nil {
		log.WithError(err).Error("text extraction failed")
		s.tracker.Error(jobID, err.Error())
		return nil, err
	}
	s.tracker.Update(jobID, 10, 100, fmt.Sprintf("Extracted %d characters", len(text)))

	chunks := s.chunker.Chunk(text)
	if len(chunks) == 0 {
		err := fmt.Errorf("no content chunks produced from %s", req.Filename)
		log.Error(err.Error())
		s.tracker.Error(jobID, err.Error())
		return nil, err
	}
	documentID := uuid.NewString()
	total := len(chunks)
	s.tracker.Update(jobID, 10, 100, fmt.Sprintf("Split into %d chunks", total))

	annotations := make([]types.ChunkAnnotation, total)
	if req.Enhanced && s.enricher != nil {
		s.tracker.Update(jobID, 20, 100, "Enriching chunk metadata")
		for i, content := range chunks {
			chunk := types.Chunk{Content: content, Index: i, Total: total, DocumentID: documentID}
			annotation, err := s.enricher.Annotate(ctx, chunk, req.Filename)
			if err != nil {
				log.WithError(err).WithField("chunk", i).Warn("enrichment failed, using fallback metadata")
				annotation = FallbackAnnotation(req.Filename, i, total, s.now())
			}
			annotations[i] = annotation
			s.tracker.Update(jobID, 20+60*(i+1)/total, 100,
				fmt.Sprintf("Enriched chunk %d/%d", i+1, total))
		}
	} else {
		for i := range chunks {
			annotations[i] = FallbackAnnotation(req.Filename, i, total, s.now())
		}
	}

	uploadBase, uploadSpan := 30, 70
	if req.Enhanced {
		uploadBase, uploadSpan = 80, 20
	}
	memoryIDs := make([]string, 0, total)
	for i, content := range chunks {
		item := &types.MemoryItem{
			Content:        content,
			ExternalUserID: req.ExternalUserID,
			Filename:       req.Filename,
			DocumentID:     documentID,
			ChunkIndex:     i,
			TotalChunks:    total,
			Annotation:     annotations[i],
		}
		id, err := s.store.AddMemory(ctx, item)
		if err != nil {
			log.WithError(err).WithField("chunk", i).Error("chunk upload failed")
			s.tracker.Error(jobID, err.Error())
			return nil, err
		}
		memoryIDs = append(memoryIDs, id)
		s.tracker.Update(jobID, uploadBase+uploadSpan*(i+1)/total, 100,
			fmt.Sprintf("Uploaded chunk %d/%d", i+1, total))
	}

	result := &types.IngestResult{
		DocumentID:    documentID,
		Filename:      req.Filename,
		ChunksCreated: len(memoryIDs),
		TotalChunks:   total,
		MemoryIDs:     memoryIDs,
		Enhanced:      req.Enhanced,
	}

	if s.documents != nil {
		record := &types.DocumentRecord{
			ID:             documentID,
			Filename:       req.Filename,
			ExternalUserID: req.ExternalUserID,
			ChunksCreated:  result.ChunksCreated,
			TotalChunks:    total,
			FileSize:       req.FileSize,
			FilePath:       req.FilePath,
			Enhanced:       req.Enhanced,
			UploadedAt:     s.now().Unix(),
		}
		if err := s.documents.SaveDocument(ctx, record); err != nil {
			// registry is best-effort, the job still completes
			log.WithError(err).Warn("failed to record document in registry")
		}
	}

	s.tracker.Complete(jobID, result)
	log.WithField("document_id", documentID).WithField("chunks", total).Info("document ingested")
	return result, nil
}
