package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"telework-planning-backend/internal/health"
	"telework-planning-backend/internal/mw"
)

// RouterConfig holds the HTTP surface settings.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	JWTSecret       string
	ManagerRoles    []string
}

// NewRouter creates and configures a new Gin router.
func NewRouter(handler *Handler, checker *health.Checker, cfg RouterConfig, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(logger))

	r.GET("/healthz", checker.LiveHandler())
	r.GET("/readyz", checker.ReadyHandler())

	limiter := mw.NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, 10*time.Minute)
	authenticated := mw.Auth(cfg.JWTSecret)
	manager := mw.RequireRole(cfg.JWTSecret, cfg.ManagerRoles...)

	// API group
	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter))
	{
		planning := api.Group("/planning")

		// Service-to-service calls from the intake service.
		planning.POST("/sync-teletravail", handler.SyncTeletravail)
		planning.POST("/update-for-user/:userId", handler.UpdateForUser)

		planning.GET("", authenticated, handler.ListInRange)
		planning.GET("/user/:userId", authenticated, handler.ListForUser)

		planning.POST("/generate", authenticated, manager, handler.Generate)
		planning.POST("/generate-automatic", authenticated, manager, handler.GenerateAutomatic)
		planning.PUT("/:id/status", authenticated, manager, handler.UpdateStatus)
		planning.DELETE("/:id", authenticated, manager, handler.Delete)

		api.GET("/calendar/team/:teamName", authenticated, handler.TeamCalendar)
	}

	return r
}
