package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/internal/service"
	"github.com/vitaltrack/backend/pkg/model"
)

// ReadingHandler implements health reading API endpoints
type ReadingHandler struct {
	service *service.ReadingService
	logger  *zap.Logger
}

// NewReadingHandler creates a new ReadingHandler
func NewReadingHandler(service *service.ReadingService, logger *zap.Logger) *ReadingHandler {
	return &ReadingHandler{
		service: service,
		logger:  logger,
	}
}

// LogReadingRequest is the payload of POST /api/v1/readings. Value accepts a
// bare number, a {"systolic","diastolic"} object, or a "120/80" string.
type LogReadingRequest struct {
	PatientID  string             `json:"patient_id" binding:"required"`
	DataType   model.DataType     `json:"data_type" binding:"required"`
	Value      model.ReadingValue `json:"value"`
	Unit       string             `json:"unit"`
	RecordedAt *time.Time         `json:"recorded_at"`
}

// LogReadingResponse pairs the stored reading with its immediate analysis
type LogReadingResponse struct {
	Reading  model.Reading         `json:"reading"`
	Analysis *model.AnalysisResult `json:"analysis"`
}

// LogReading stores a reading and returns the immediate analysis
func (h *ReadingHandler) LogReading(c *gin.Context) {
	var req LogReadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	reading := &model.Reading{
		DataType: req.DataType,
		Value:    req.Value,
		Unit:     req.Unit,
	}
	if req.RecordedAt != nil {
		reading.RecordedAt = *req.RecordedAt
	}

	result, err := h.service.LogReading(c.Request.Context(), req.PatientID, reading)
	if err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", validationErr.Error(), nil))
			return
		}
		h.logger.Error("failed to log reading",
			zap.Error(err),
			zap.String("patient_id", req.PatientID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to log reading", err))
		return
	}

	h.logger.Info("reading logged",
		zap.String("reading_id", reading.ID),
		zap.String("patient_id", req.PatientID),
	)

	c.JSON(http.StatusOK, LogReadingResponse{Reading: *reading, Analysis: result})
}

// History retrieves a patient's reading history
func (h *ReadingHandler) History(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "patient_id query parameter is required", nil))
		return
	}

	dataType := model.DataType(c.Query("data_type"))
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	readings, err := h.service.History(c.Request.Context(), patientID, dataType, days)
	if err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", validationErr.Error(), nil))
			return
		}
		h.logger.Error("failed to get reading history",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to get reading history", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id": patientID,
		"count":      len(readings),
		"readings":   readings,
	})
}
