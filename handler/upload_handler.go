package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pdfchat/pdfchat-be/service"
	"github.com/pdfchat/pdfchat-be/types"
	"github.com/pdfchat/pdfchat-be/utils"
	"github.com/sirupsen/logrus"
)

type UploadHandler struct {
	pdfService *service.PDFService
	ingest     *service.IngestService
	uploadDir  string
	enhanced   bool
}

func NewUploadHandler(pdfService *service.PDFService, ingest *service.IngestService, uploadDir string, enhanced bool) *UploadHandler {
	return &UploadHandler{
		pdfService: pdfService,
		ingest:     ingest,
		uploadDir:  uploadDir,
		enhanced:   enhanced,
	}
}

// UploadDocumentHandler accepts a PDF and starts an ingestion job under the
// client-chosen upload id. Validation failures are returned synchronously;
// everything after that is reported through the progress endpoints. Reusing
// an upload id overwrites its previous progress record.
func (h *UploadHandler) UploadDocumentHandler(c *gin.Context) {
	uploadID := c.Param("upload_id")
	if uploadID == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "upload_id is required",
		})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid file",
		})
		return
	}

	if err := h.pdfService.ValidateUpload(file.Filename, file.Size); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}

	enhanced := h.enhanced
	if v := c.Request.FormValue("enhanced"); v != "" {
		enhanced = v == "true" || v == "1"
	}

	savedPath := utils.TimestampedPath(h.uploadDir, file.Filename)
	if err := c.SaveUploadedFile(file, savedPath); err != nil {
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: "Failed to store uploaded file",
		})
		return
	}

	req := &types.IngestRequest{
		FilePath:       savedPath,
		Filename:       file.Filename,
		FileSize:       file.Size,
		ExternalUserID: types.DemoUserID,
		Enhanced:       enhanced,
	}
	// the job outlives this request, so it gets its own context
	go func() {
		if _, err := h.ingest.Ingest(context.Background(), uploadID, req); err != nil {
			logrus.WithError(err).WithField("upload_id", uploadID).Error("ingestion failed")
		}
	}()

	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data: types.UploadAccepted{
			Status:   "accepted",
			UploadID: uploadID,
			Filename: file.Filename,
		},
	})
}
