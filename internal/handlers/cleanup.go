package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"room-service/internal/cleanup"
)

// CleanupHandler exposes the inactive-room sweep to admins.
type CleanupHandler struct {
	sweeper *cleanup.Sweeper
}

// NewCleanupHandler builds a CleanupHandler.
func NewCleanupHandler(sweeper *cleanup.Sweeper) *CleanupHandler {
	return &CleanupHandler{sweeper: sweeper}
}

// TriggerSweep runs a sweep on demand and reports its counts. The sweep
// itself never fails; all errors are folded into the error count.
func (h *CleanupHandler) TriggerSweep(c *gin.Context) {
	result := h.sweeper.Sweep(c.Request.Context())
	c.JSON(http.StatusOK, result)
}
