package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// HealthHandler implements the service health check endpoint
type HealthHandler struct {
	pool      *pgxpool.Pool
	scheduler SchedulerStatus
	logger    *zap.Logger
}

// SchedulerStatus reports whether the notification loops are running
type SchedulerStatus interface {
	Running() bool
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(pool *pgxpool.Pool, scheduler SchedulerStatus, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		pool:      pool,
		scheduler: scheduler,
		logger:    logger,
	}
}

// Check reports database connectivity and scheduler state
func (h *HealthHandler) Check(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.pool.Ping(ctx); err != nil {
		h.logger.Error("health check failed: database unreachable", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	schedulerState := "stopped"
	if h.scheduler != nil && h.scheduler.Running() {
		schedulerState = "running"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"database":  "connected",
		"scheduler": schedulerState,
		"service":   "vitaltrack-backend",
	})
}
