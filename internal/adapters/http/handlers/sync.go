package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quotesync/quotesync/internal/adapters/http/dto"
	"github.com/quotesync/quotesync/internal/syncer"
)

// SyncHandler exposes the sync scheduler over HTTP.
type SyncHandler struct {
	scheduler *syncer.Syncer
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(scheduler *syncer.Syncer) *SyncHandler {
	return &SyncHandler{
		scheduler: scheduler,
	}
}

// Trigger handles POST /api/v1/sync.
// Runs a cycle immediately and returns its outcome. A trigger while a cycle
// is in flight is coalesced into 409; a failed fetch surfaces as 502.
func (h *SyncHandler) Trigger(c *gin.Context) {
	outcome, err := h.scheduler.SyncNow(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Status handles GET /api/v1/sync/status.
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.scheduler.Status())
}

// RegisterSyncRoutes registers the sync routes on the given group.
func (h *SyncHandler) RegisterSyncRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.Trigger)
	rg.GET("/sync/status", h.Status)
}
