package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pdfchat/pdfchat-be/service"
	"github.com/pdfchat/pdfchat-be/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedExtractor struct{ text string }

func (e *fixedExtractor) ExtractText(ctx context.Context, filePath string) (string, error) {
	return e.text, nil
}

type nullStore struct{}

func (s *nullStore) AddMemory(ctx context.Context, item *types.MemoryItem) (string, error) {
	return "mem-1", nil
}

func (s *nullStore) SearchMemories(ctx context.Context, query string, filter types.MemoryFilter, limit int) ([]types.Memory, error) {
	return nil, nil
}

func (s *nullStore) DeleteMemory(ctx context.Context, id string) error { return nil }

func (s *nullStore) Ready(ctx context.Context) error { return nil }

func newUploadRouter(t *testing.T, tracker *service.ProgressTracker) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pdfService := service.NewPDFService(1) // 1 MB limit
	ingest := service.NewIngestService(
		&fixedExtractor{text: "some extracted document text"},
		service.NewChunker(1000),
		nil,
		&nullStore{},
		nil,
		tracker,
	)
	h := NewUploadHandler(pdfService, ingest, t.TempDir(), false)
	router := gin.New()
	router.POST("/api/v1/documents/upload/:upload_id", h.UploadDocumentHandler)
	return router
}

func multipartFile(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadRejectsNonPDF(t *testing.T) {
	tracker := service.NewProgressTracker(5 * time.Minute)
	router := newUploadRouter(t, tracker)

	body, contentType := multipartFile(t, "notes.txt", []byte("plain text"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload/up-1", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	// validation failures never create a progress record
	_, ok := tracker.Get("up-1")
	assert.False(t, ok)
}

func TestUploadRejectsMissingFile(t *testing.T) {
	tracker := service.NewProgressTracker(5 * time.Minute)
	router := newUploadRouter(t, tracker)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload/up-1", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadAcceptedStartsJob(t *testing.T) {
	tracker := service.NewProgressTracker(5 * time.Minute)
	router := newUploadRouter(t, tracker)

	body, contentType := multipartFile(t, "report.pdf", []byte("%PDF-1.4 fake"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/upload/up-42", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Status bool                 `json:"status"`
		Data   types.UploadAccepted `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Status)
	assert.Equal(t, "accepted", resp.Data.Status)
	assert.Equal(t, "up-42", resp.Data.UploadID)
	assert.Equal(t, "report.pdf", resp.Data.Filename)

	// the job runs asynchronously and reaches a terminal state
	require.Eventually(t, func() bool {
		record, ok := tracker.Get("up-42")
		return ok && record.Status.Terminal()
	}, 2*time.Second, 20*time.Millisecond)

	record, _ := tracker.Get("up-42")
	assert.Equal(t, types.ProgressStatusComplete, record.Status)
}
