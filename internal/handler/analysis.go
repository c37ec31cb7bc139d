package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/internal/service"
	"github.com/vitaltrack/backend/pkg/model"
)

// AnalysisHandler implements the analysis API endpoints
type AnalysisHandler struct {
	service *service.AnalysisService
	logger  *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(service *service.AnalysisService, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		service: service,
		logger:  logger,
	}
}

// Comprehensive returns the full cross-type analysis of a patient
func (h *AnalysisHandler) Comprehensive(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "patient_id query parameter is required", nil))
		return
	}

	result, err := h.service.ComprehensiveAnalysis(c.Request.Context(), patientID)
	if err != nil {
		h.logger.Error("comprehensive analysis failed",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to run analysis", err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Trends returns the trend of one data type over a day window
func (h *AnalysisHandler) Trends(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "patient_id query parameter is required", nil))
		return
	}
	dataType := model.DataType(c.Query("data_type"))
	if !dataType.IsValid() {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "a valid data_type query parameter is required", nil))
		return
	}
	days, _ := strconv.Atoi(c.DefaultQuery("days", "30"))

	trend, err := h.service.GetTrend(c.Request.Context(), patientID, dataType, days)
	if err != nil {
		h.logger.Error("trend analysis failed",
			zap.Error(err),
			zap.String("patient_id", patientID),
			zap.String("data_type", string(dataType)),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to analyze trend", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id": patientID,
		"data_type":  dataType,
		"days":       days,
		"trend":      trend,
	})
}

// Predictions returns the value forecast of one data type
func (h *AnalysisHandler) Predictions(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "patient_id query parameter is required", nil))
		return
	}
	dataType := model.DataType(c.Query("data_type"))
	if !dataType.IsValid() {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "a valid data_type query parameter is required", nil))
		return
	}
	forecastDays, _ := strconv.Atoi(c.DefaultQuery("forecast_days", "7"))

	report, err := h.service.GetPredictions(c.Request.Context(), patientID, dataType, forecastDays)
	if err != nil {
		h.logger.Error("prediction failed",
			zap.Error(err),
			zap.String("patient_id", patientID),
			zap.String("data_type", string(dataType)),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to compute predictions", err))
		return
	}

	c.JSON(http.StatusOK, report)
}

// Adherence returns the patient's medication adherence score
func (h *AnalysisHandler) Adherence(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "patient_id query parameter is required", nil))
		return
	}

	score, err := h.service.GetAdherence(c.Request.Context(), patientID)
	if err != nil {
		h.logger.Error("adherence lookup failed",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to compute adherence", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id":       patientID,
		"adherence_score":  score,
		"motivation_level": model.MotivationFromAdherence(score),
	})
}
