package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/internal/service"
)

// ReportHandler implements the report API endpoints
type ReportHandler struct {
	service *service.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(service *service.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		service: service,
		logger:  logger,
	}
}

// GenerateReportRequest is the payload of POST /api/v1/reports/generate.
// Dates use the 2006-01-02 layout; the period defaults to the last 30 days.
type GenerateReportRequest struct {
	PatientID string `json:"patient_id" binding:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Generate builds and stores a PDF health report
func (h *ReportHandler) Generate(c *gin.Context) {
	var req GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	endDate := time.Now()
	startDate := endDate.AddDate(0, 0, -30)
	var err error
	if req.StartDate != "" {
		if startDate, err = time.Parse("2006-01-02", req.StartDate); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "start_date must use the 2006-01-02 layout", nil))
			return
		}
	}
	if req.EndDate != "" {
		if endDate, err = time.Parse("2006-01-02", req.EndDate); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "end_date must use the 2006-01-02 layout", nil))
			return
		}
	}

	blobPath, err := h.service.GenerateReport(c.Request.Context(), req.PatientID, startDate, endDate)
	if err != nil {
		h.logger.Error("failed to generate report",
			zap.Error(err),
			zap.String("patient_id", req.PatientID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to generate report", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id": req.PatientID,
		"report":     blobPath,
	})
}

// Download streams a stored report PDF
func (h *ReportHandler) Download(c *gin.Context) {
	blobPath := c.Query("report")
	if blobPath == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "report query parameter is required", nil))
		return
	}

	pdfBytes, err := h.service.GetReport(c.Request.Context(), blobPath)
	if err != nil {
		h.logger.Error("failed to download report",
			zap.Error(err),
			zap.String("report", blobPath),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to download report", err))
		return
	}

	c.Header("Content-Disposition", "attachment; filename=health-report.pdf")
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
