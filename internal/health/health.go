package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"telework-planning-backend/internal/breaker"
)

// Status represents the health status of a service or dependency.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the health check result for a single dependency.
type CheckResult struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthStatus represents the overall health status of the service.
type HealthStatus struct {
	Status   Status                 `json:"status"`
	Version  string                 `json:"version,omitempty"`
	Checks   map[string]CheckResult `json:"checks,omitempty"`
	Breakers map[string]string      `json:"breakers,omitempty"`
}

// Pinger is a dependency that can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker performs health checks on service dependencies. Open breakers are
// reported but do not make the service unready, since collaborator calls
// fail open.
type Checker struct {
	database    Pinger
	redisClient *redis.Client
	breakers    []*breaker.Breaker
	version     string
}

// NewChecker creates a new health checker. redisClient may be nil.
func NewChecker(database Pinger, redisClient *redis.Client, breakers []*breaker.Breaker, version string) *Checker {
	return &Checker{
		database:    database,
		redisClient: redisClient,
		breakers:    breakers,
		version:     version,
	}
}

// Check performs health checks on all dependencies and returns the overall status.
func (c *Checker) Check(ctx context.Context) *HealthStatus {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:  StatusHealthy,
		Version: c.version,
		Checks:  make(map[string]CheckResult),
	}

	probe := func(name string, ping func(context.Context) error) {
		start := time.Now()
		if err := ping(checkCtx); err != nil {
			status.Status = StatusUnhealthy
			status.Checks[name] = CheckResult{
				Status: StatusUnhealthy,
				Error:  err.Error(),
			}
			return
		}
		status.Checks[name] = CheckResult{
			Status:    StatusHealthy,
			LatencyMs: time.Since(start).Milliseconds(),
		}
	}

	if c.database != nil {
		probe("database", c.database.Ping)
	}
	if c.redisClient != nil {
		probe("redis", func(ctx context.Context) error {
			return c.redisClient.Ping(ctx).Err()
		})
	}

	if len(c.breakers) > 0 {
		status.Breakers = make(map[string]string, len(c.breakers))
		for _, b := range c.breakers {
			status.Breakers[b.Endpoint()] = string(b.State())
		}
	}

	return status
}

// LiveHandler returns a Gin handler for liveness probes.
func (c *Checker) LiveHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// ReadyHandler returns a Gin handler for readiness probes.
func (c *Checker) ReadyHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		status := c.Check(ctx.Request.Context())

		httpStatus := http.StatusOK
		if status.Status != StatusHealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		ctx.JSON(httpStatus, status)
	}
}
