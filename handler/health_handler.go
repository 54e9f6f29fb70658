package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pdfchat/pdfchat-be/database"
	"github.com/pdfchat/pdfchat-be/types"
)

const serviceVersion = "1.0.0"

type HealthHandler struct {
	store database.MemoryStore
}

func NewHealthHandler(store database.MemoryStore) *HealthHandler {
	return &HealthHandler{
		store: store,
	}
}

func (h *HealthHandler) HandleHealth(c *gin.Context) {
	status := "ok"
	if err := h.store.Ready(c.Request.Context()); err != nil {
		status = "degraded"
	}
	c.JSON(http.StatusOK, types.HealthResponse{
		Status:    status,
		Timestamp: time.Now().Unix(),
		Version:   serviceVersion,
	})
}
