package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"telework-planning-backend/internal/client"
)

// SyncTeletravail handles POST /api/planning/sync-teletravail.
func (h *Handler) SyncTeletravail(c *gin.Context) {
	var req client.TeleworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}

	changed, err := h.service.SyncOne(c.Request.Context(), req.ToSnapshot(c.Request.Context()))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// UpdateForUser handles POST /api/planning/update-for-user/:userId. The
// caller's Authorization header is forwarded to the intake service.
func (h *Handler) UpdateForUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	start, end, err := h.dateRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries, err := h.service.EnsurePlanningForUser(c.Request.Context(), userID, start, end, c.GetHeader("Authorization"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
