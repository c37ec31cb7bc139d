package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/internal/service"
	"github.com/vitaltrack/backend/pkg/model"
)

// MedicationHandler implements medication API endpoints
type MedicationHandler struct {
	service *service.MedicationService
	logger  *zap.Logger
}

// NewMedicationHandler creates a new MedicationHandler
func NewMedicationHandler(service *service.MedicationService, logger *zap.Logger) *MedicationHandler {
	return &MedicationHandler{
		service: service,
		logger:  logger,
	}
}

// CreateMedicationRequest is the payload of POST /api/v1/medications
type CreateMedicationRequest struct {
	PatientID string     `json:"patient_id" binding:"required"`
	Name      string     `json:"name" binding:"required"`
	Dosage    string     `json:"dosage" binding:"required"`
	DoseTimes []string   `json:"dose_times" binding:"required"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Notes     *string    `json:"notes"`
}

// UpdateMedicationRequest is the payload of PUT /api/v1/medications/:id
type UpdateMedicationRequest struct {
	PatientID string     `json:"patient_id" binding:"required"`
	Name      string     `json:"name" binding:"required"`
	Dosage    string     `json:"dosage" binding:"required"`
	DoseTimes []string   `json:"dose_times" binding:"required"`
	EndDate   *time.Time `json:"end_date"`
	Notes     *string    `json:"notes"`
}

// MarkTakenRequest is the payload of POST /api/v1/medications/:id/taken
type MarkTakenRequest struct {
	PatientID string     `json:"patient_id" binding:"required"`
	TakenAt   *time.Time `json:"taken_at"`
}

// Create adds a new medication
func (h *MedicationHandler) Create(c *gin.Context) {
	var req CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	medication := &model.Medication{
		Name:      req.Name,
		Dosage:    req.Dosage,
		DoseTimes: req.DoseTimes,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
	}
	if req.StartDate != nil {
		medication.StartDate = *req.StartDate
	}

	if err := h.service.AddMedication(c.Request.Context(), req.PatientID, medication); err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", validationErr.Error(), nil))
			return
		}
		h.logger.Error("failed to add medication",
			zap.Error(err),
			zap.String("patient_id", req.PatientID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to add medication", err))
		return
	}

	h.logger.Info("medication added",
		zap.String("medication_id", medication.ID),
		zap.String("patient_id", req.PatientID),
	)

	c.JSON(http.StatusOK, medication)
}

// List lists all medications for a patient
func (h *MedicationHandler) List(c *gin.Context) {
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "patient_id query parameter is required", nil))
		return
	}

	medications, err := h.service.ListMedications(c.Request.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to list medications",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to list medications", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"patient_id":  patientID,
		"count":       len(medications),
		"medications": medications,
	})
}

// Update updates a medication
func (h *MedicationHandler) Update(c *gin.Context) {
	var req UpdateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	medication := &model.Medication{
		ID:        c.Param("id"),
		Name:      req.Name,
		Dosage:    req.Dosage,
		DoseTimes: req.DoseTimes,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
	}

	if err := h.service.UpdateMedication(c.Request.Context(), req.PatientID, medication); err != nil {
		var validationErr *model.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", validationErr.Error(), nil))
			return
		}
		h.logger.Error("failed to update medication",
			zap.Error(err),
			zap.String("medication_id", medication.ID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to update medication", err))
		return
	}

	h.logger.Info("medication updated",
		zap.String("medication_id", medication.ID),
	)

	c.JSON(http.StatusOK, medication)
}

// Deactivate soft-deletes a medication so the scheduler stops reminding
func (h *MedicationHandler) Deactivate(c *gin.Context) {
	medicationID := c.Param("id")
	patientID := c.Query("patient_id")
	if patientID == "" {
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "patient_id query parameter is required", nil))
		return
	}

	if err := h.service.DeactivateMedication(c.Request.Context(), patientID, medicationID); err != nil {
		h.logger.Error("failed to deactivate medication",
			zap.Error(err),
			zap.String("medication_id", medicationID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to deactivate medication", err))
		return
	}

	h.logger.Info("medication deactivated",
		zap.String("medication_id", medicationID),
	)

	c.Status(http.StatusNoContent)
}

// MarkTaken records a completed dose for adherence tracking
func (h *MedicationHandler) MarkTaken(c *gin.Context) {
	medicationID := c.Param("id")

	var req MarkTakenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, errorResponse("VALIDATION_ERROR", "Invalid request body", err))
		return
	}

	takenAt := time.Now()
	if req.TakenAt != nil {
		takenAt = *req.TakenAt
	}

	if err := h.service.MarkDoseTaken(c.Request.Context(), req.PatientID, medicationID, takenAt); err != nil {
		h.logger.Error("failed to mark dose taken",
			zap.Error(err),
			zap.String("medication_id", medicationID),
			zap.String("patient_id", req.PatientID),
		)
		c.JSON(http.StatusInternalServerError, errorResponse("INTERNAL_ERROR", "Failed to mark dose taken", err))
		return
	}

	h.logger.Info("dose marked taken",
		zap.String("medication_id", medicationID),
		zap.String("patient_id", req.PatientID),
	)

	c.JSON(http.StatusOK, gin.H{
		"medication_id": medicationID,
		"taken_at":      takenAt,
	})
}
