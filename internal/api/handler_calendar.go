package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"telework-planning-backend/internal/model"
)

// TeamCalendar handles GET /api/calendar/team/:teamName. Each missing bound
// defaults to the current week's Monday or Friday.
func (h *Handler) TeamCalendar(c *gin.Context) {
	start, end := h.calendar.CurrentWeek()
	if raw := c.Query("startDate"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			badRequest(c, "invalid startDate")
			return
		}
		start = d
	}
	if raw := c.Query("endDate"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			badRequest(c, "invalid endDate")
			return
		}
		end = d
	}

	cal, err := h.calendar.TeamCalendar(c.Request.Context(), c.Param("teamName"), start, end, c.GetHeader("Authorization"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cal)
}
