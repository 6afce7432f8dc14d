package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"telework-planning-backend/internal/model"
)

type generateRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Generate handles POST /api/planning/generate.
func (h *Handler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request")
		return
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries, err := h.service.GeneratePlanning(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if entries == nil {
		entries = []model.PlanningEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// GenerateAutomatic handles POST /api/planning/generate-automatic.
func (h *Handler) GenerateAutomatic(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("userId"), 10, 64)
	if err != nil || userID <= 0 {
		badRequest(c, "userId is required")
		return
	}
	start, end, err := parseRange(c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries, err := h.service.GenerateAutomaticPlanning(c.Request.Context(), userID, start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if entries == nil {
		entries = []model.PlanningEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// ListForUser handles GET /api/planning/user/:userId.
func (h *Handler) ListForUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	start, end, err := h.dateRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries, err := h.service.ListPlanningForUser(c.Request.Context(), userID, start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// ListInRange handles GET /api/planning.
func (h *Handler) ListInRange(c *gin.Context) {
	start, end, err := h.dateRange(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	entries, err := h.service.ListPlanningInRange(c.Request.Context(), start, end)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

// UpdateStatus handles PUT /api/planning/:id/status?status=.
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	status, err := model.ParseStatus(c.Query("status"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	entry, err := h.service.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// Delete handles DELETE /api/planning/:id.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeletePlanning(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
