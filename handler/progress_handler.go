package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pdfchat/pdfchat-be/service"
	"github.com/pdfchat/pdfchat-be/types"
)

const (
	streamPollInterval  = 250 * time.Millisecond
	streamNotFoundWait  = 5 * time.Second
	streamMaxLifetime   = 10 * time.Minute
	notFoundEventStatus = "not_found"
)

type ProgressHandler struct {
	tracker *service.ProgressTracker
}

func NewProgressHandler(tracker *service.ProgressTracker) *ProgressHandler {
	return &ProgressHandler{
		tracker: tracker,
	}
}

// GetProgress is the point-in-time query. Unknown and evicted upload ids get
// a 404, which is distinct from a job in the error state.
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	uploadID := c.Param("upload_id")
	record, ok := h.tracker.Get(uploadID)
	if !ok {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  false,
			Message: "upload not found",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   record,
	})
}

type notFoundEvent struct {
	Status   string `json:"status"`
	UploadID string `json:"upload_id"`
}

// StreamProgress pushes the job's record over SSE whenever it changes. It
// waits up to streamNotFoundWait for the record to appear, emitting a single
// not-found event and closing if it never does. The stream closes after a
// terminal record, on client disconnect, or at the maximum lifetime.
func (h *ProgressHandler) StreamProgress(c *gin.Context) {
	uploadID := c.Param("upload_id")

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	lifetime := time.NewTimer(streamMaxLifetime)
	defer lifetime.Stop()
	ticker := time.NewTicker(streamPollInterval)
	defer ticker.Stop()

	// wait for the record to exist
	if _, ok := h.tracker.Get(uploadID); !ok {
		appearDeadline := time.NewTimer(streamNotFoundWait)
		defer appearDeadline.Stop()
	waitLoop:
		for {
			select {
			case <-clientGone:
				return
			case <-appearDeadline.C:
				h.sendNotFound(c, uploadID)
				return
			case <-ticker.C:
				if _, ok := h.tracker.Get(uploadID); ok {
					break waitLoop
				}
			}
		}
	}

	var lastSent []byte
	for {
		select {
		case <-clientGone:
			return
		case <-lifetime.C:
			return
		case <-ticker.C:
			record, ok := h.tracker.Get(uploadID)
			if !ok {
				// evicted mid-stream
				h.sendNotFound(c, uploadID)
				return
			}
			body, err := json.Marshal(record)
			if err != nil {
				continue
			}
			if bytes.Equal(body, lastSent) {
				continue
			}
			c.SSEvent("message", string(body))
			c.Writer.Flush()
			lastSent = body
			if record.Status.Terminal() {
				return
			}
		}
	}
}

func (h *ProgressHandler) sendNotFound(c *gin.Context, uploadID string) {
	body, err := json.Marshal(notFoundEvent{
		Status:   notFoundEventStatus,
		UploadID: uploadID,
	})
	if err != nil {
		return
	}
	c.SSEvent("message", string(body))
	c.Writer.Flush()
}
