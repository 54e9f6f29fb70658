package service

import (
	"context"
	"fmt"

	"github.com/pdfchat/pdfchat-be/database"
	"github.com/pdfchat/pdfchat-be/repository"
	"github.com/pdfchat/pdfchat-be/types"
	"github.com/sirupsen/logrus"
)

// documents never produce more chunks than this in practice; used as the
// search limit when collecting a document's chunks for deletion
const maxChunksPerDocument = 10000

// DocumentService manages the uploaded-document registry and the stored
// chunks behind it.
type DocumentService struct {
	store     database.MemoryStore
	documents repository.DocumentRepo
}

func NewDocumentService(store database.MemoryStore, documents repository.DocumentRepo) *DocumentService {
	return &DocumentService{
		store:     store,
		documents: documents,
	}
}

func (s *DocumentService) ListDocuments(ctx context.Context) ([]*types.DocumentRecord, error) {
	if s.documents == nil {
		return nil, fmt.Errorf("document registry is not configured")
	}
	return s.documents.ListDocuments(ctx, types.DemoUserID)
}

func (s *DocumentService) GetDocument(ctx context.Context, documentID string) (*types.DocumentRecord, error) {
	if s.documents == nil {
		return nil, fmt.Errorf("document registry is not configured")
	}
	return s.documents.GetDocument(ctx, documentID)
}

// DeleteDocument removes every stored chunk of the document, then its
// registry record. Returns the number of chunks deleted.
func (s *DocumentService) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	memories, err := s.store.SearchMemories(ctx, "document content", types.MemoryFilter{
		ExternalUserID: types.DemoUserID,
		DocumentID:     documentID,
	}, maxChunksPerDocument)
	if err != nil {
		return 0, fmt.Errorf("collect chunks for %s: %w", documentID, err)
	}

	deleted := 0
	for _, m := range memories {
		if err := s.store.DeleteMemory(ctx, m.ID); err != nil {
			return deleted, fmt.Errorf("delete chunk %s: %w", m.ID, err)
		}
		deleted++
	}

	if s.documents != nil {
		if err := s.documents.DeleteDocument(ctx, documentID); err != nil {
			logrus.WithError(err).WithField("document_id", documentID).Warn("failed to remove registry record")
		}
	}
	return deleted, nil
}
