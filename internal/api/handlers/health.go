package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthChecker verifies one dependency's connectivity.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	db    HealthChecker
	redis HealthChecker
}

// NewHealthHandler creates the handler. redis may be nil when the cache is
// not configured.
func NewHealthHandler(db, redis HealthChecker) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// HealthCheck reports the status of the service and its dependencies. A
// failing main store makes the whole check unhealthy; a failing or absent
// cache only degrades it.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := "healthy"
	code := http.StatusOK
	deps := make(map[string]string)

	if h.db != nil {
		if err := h.db.HealthCheck(ctx); err != nil {
			deps["database"] = "unhealthy"
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		} else {
			deps["database"] = "healthy"
		}
	} else {
		deps["database"] = "not_configured"
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	if h.redis != nil {
		if err := h.redis.HealthCheck(ctx); err != nil {
			deps["redis"] = "unhealthy"
			if status == "healthy" {
				status = "degraded"
			}
		} else {
			deps["redis"] = "healthy"
		}
	} else {
		deps["redis"] = "not_configured"
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"services":  deps,
	})
}
