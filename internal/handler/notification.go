package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/internal/audit"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// NotificationLog retrieves past send outcomes. Satisfied by audit.Trail.
type NotificationLog interface {
	RecentByPatient(ctx context.Context, patientID string, limit int) ([]audit.SendRecord, error)
}

// NotificationHandler exposes the notification send history so support
// staff can check what a patient was sent and when
type NotificationHandler struct {
	log    NotificationLog
	logger *zap.Logger
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(log NotificationLog, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		log:    log,
		logger: logger,
	}
}

// History lists the most recent notification sends for a patient
func (h *NotificationHandler) History(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "patient_id query parameter is required", nil))
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "limit must be between 1 and 200", nil))
			return
		}
		limit = parsed
	}

	records, err := h.log.RecentByPatient(c.Request.Context(), patientID, limit)
	if err != nil {
		h.logger.Error("failed to load notification history",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to load notification history", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id":    patientID,
		"count":         len(records),
		"notifications": records,
	})
}
