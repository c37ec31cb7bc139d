package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers bundles the endpoint handlers for route registration
type Handlers struct {
	Reading      *ReadingHandler
	Analysis     *AnalysisHandler
	Medication   *MedicationHandler
	Notification *NotificationHandler
	Report       *ReportHandler
	Health       *HealthHandler
}

// RegisterRoutes attaches all API routes to the router
func RegisterRoutes(r *gin.Engine, h Handlers) {
	r.GET("/health", h.Health.Check)

	v1 := r.Group("/api/v1")

	v1.POST("/readings", h.Reading.LogReading)
	v1.GET("/readings", h.Reading.History)

	v1.GET("/analysis/comprehensive", h.Analysis.Comprehensive)
	v1.GET("/analysis/trends", h.Analysis.Trends)
	v1.GET("/analysis/predictions", h.Analysis.Predictions)
	v1.GET("/analysis/adherence", h.Analysis.Adherence)

	v1.POST("/medications", h.Medication.Create)
	v1.GET("/medications", h.Medication.List)
	v1.PUT("/medications/:id", h.Medication.Update)
	v1.DELETE("/medications/:id", h.Medication.Deactivate)
	v1.POST("/medications/:id/taken", h.Medication.MarkTaken)

	v1.GET("/notifications", h.Notification.History)

	v1.POST("/reports/generate", h.Report.Generate)
	v1.GET("/reports/download", h.Report.Download)
}
