package api

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"telework-planning-backend/internal/model"
)

// dateRange reads startDate and endDate from the query string. When both
// are absent the current month is used.
func (h *Handler) dateRange(c *gin.Context) (model.Date, model.Date, error) {
	rawStart, rawEnd := c.Query("startDate"), c.Query("endDate")
	if rawStart == "" && rawEnd == "" {
		start, end := h.service.CurrentMonth()
		return start, end, nil
	}
	return parseRange(rawStart, rawEnd)
}

func parseRange(rawStart, rawEnd string) (model.Date, model.Date, error) {
	if rawStart == "" || rawEnd == "" {
		return model.Date{}, model.Date{}, fmt.Errorf("%w: startDate and endDate must be given together", model.ErrInvalidRange)
	}
	start, err := model.ParseDate(rawStart)
	if err != nil {
		return model.Date{}, model.Date{}, fmt.Errorf("%w: invalid startDate %q", model.ErrInvalidRange, rawStart)
	}
	end, err := model.ParseDate(rawEnd)
	if err != nil {
		return model.Date{}, model.Date{}, fmt.Errorf("%w: invalid endDate %q", model.ErrInvalidRange, rawEnd)
	}
	if end.Before(start) {
		return model.Date{}, model.Date{}, fmt.Errorf("%w: %s > %s", model.ErrInvalidRange, start, end)
	}
	return start, end, nil
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return id, true
}
