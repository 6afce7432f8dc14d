package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"telework-planning-backend/internal/logging"
	"telework-planning-backend/internal/model"
)

// PlanningService is the set of planning operations exposed over HTTP.
type PlanningService interface {
	CurrentMonth() (model.Date, model.Date)
	SyncOne(ctx context.Context, snap model.TeleworkRequestSnapshot) (bool, error)
	EnsurePlanningForUser(ctx context.Context, userID int64, start, end model.Date, authorization string) ([]model.PlanningEntry, error)
	GeneratePlanning(ctx context.Context, start, end model.Date) ([]model.PlanningEntry, error)
	GenerateAutomaticPlanning(ctx context.Context, userID int64, start, end model.Date) ([]model.PlanningEntry, error)
	ListPlanningForUser(ctx context.Context, userID int64, start, end model.Date) ([]model.PlanningEntry, error)
	ListPlanningInRange(ctx context.Context, start, end model.Date) ([]model.PlanningEntry, error)
	UpdateStatus(ctx context.Context, id int64, status model.PlanningStatus) (model.PlanningEntry, error)
	DeletePlanning(ctx context.Context, id int64) error
}

// CalendarService builds team calendars.
type CalendarService interface {
	CurrentWeek() (model.Date, model.Date)
	TeamCalendar(ctx context.Context, team string, start, end model.Date, authorization string) (model.TeamCalendar, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	service  PlanningService
	calendar CalendarService
	logger   *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(service PlanningService, calendar CalendarService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:  service,
		calendar: calendar,
		logger:   logger,
	}
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidSyncPayload), errors.Is(err, model.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		logging.FromContext(c.Request.Context(), h.logger).ErrorContext(c.Request.Context(), "request failed",
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
