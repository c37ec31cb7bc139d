package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vitaltrack/backend/internal/repository"
	"github.com/vitaltrack/backend/pkg/model"
	"go.uber.org/zap"
)

// ReadingService handles health reading ingestion and history lookups
type ReadingService struct {
	readings ReadingRepositoryInterface
	analysis *AnalysisService
	logger   *zap.Logger
}

// NewReadingService creates a new ReadingService
func NewReadingService(readings ReadingRepositoryInterface, analysis *AnalysisService, logger *zap.Logger) *ReadingService {
	return &ReadingService{
		readings: readings,
		analysis: analysis,
		logger:   logger,
	}
}

// LogReading validates and persists a new reading, then runs the analysis
// pass so the stored risk level and snapshot are populated immediately.
// The returned reading carries the fresh analysis result.
func (s *ReadingService) LogReading(ctx context.Context, patientID string, reading *model.Reading) (*model.AnalysisResult, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}
	if !reading.DataType.IsValid() {
		return nil, &model.ValidationError{Field: "data_type", Reason: fmt.Sprintf("unknown data type %q", reading.DataType)}
	}
	if reading.Value.Numeric == nil && reading.Value.BloodPressure == nil {
		return nil, &model.ValidationError{Field: "value", Reason: "reading value is required"}
	}
	if reading.DataType == model.DataTypeBloodPressure && !reading.Value.IsBloodPressure() {
		return nil, &model.ValidationError{Field: "value", Reason: "blood pressure requires a systolic/diastolic pair"}
	}

	if reading.ID == "" {
		reading.ID = uuid.New().String()
	}
	reading.PatientID = patientID
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now()
	}
	if reading.Unit == "" {
		reading.Unit = defaultUnit(reading.DataType)
	}
	// Risk level is recomputed right after creation; seed the row as low so
	// the column is never empty.
	reading.RiskLevel = model.RiskLow

	if err := s.readings.Create(ctx, reading); err != nil {
		s.logger.Error("failed to log reading",
			zap.Error(err),
			zap.String("patient_id", patientID),
			zap.String("data_type", string(reading.DataType)),
		)
		return nil, fmt.Errorf("failed to log reading: %w", err)
	}

	result, err := s.analysis.AnalyzeReading(ctx, patientID, reading)
	if err != nil {
		// The reading is stored; analysis can be recomputed on the next
		// request or scheduler tick.
		s.logger.Error("reading stored but analysis failed",
			zap.Error(err),
			zap.String("reading_id", reading.ID),
		)
		return nil, fmt.Errorf("reading stored but analysis failed: %w", err)
	}

	s.logger.Info("reading logged",
		zap.String("reading_id", reading.ID),
		zap.String("patient_id", patientID),
		zap.String("data_type", string(reading.DataType)),
		zap.String("risk_level", string(result.RiskLevel)),
	)

	return result, nil
}

// History retrieves a patient's readings, optionally filtered by type, over
// the trailing day window
func (s *ReadingService) History(ctx context.Context, patientID string, dataType model.DataType, days int) ([]model.Reading, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}
	if dataType != "" && !dataType.IsValid() {
		return nil, &model.ValidationError{Field: "data_type", Reason: fmt.Sprintf("unknown data type %q", dataType)}
	}
	if days <= 0 || days > 365 {
		days = analysisWindowDays
	}

	since := time.Now().AddDate(0, 0, -days)
	readings, err := s.readings.FindByPatient(ctx, patientID, repository.ReadingQuery{DataType: dataType, Since: &since})
	if err != nil {
		s.logger.Error("failed to get reading history",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return nil, fmt.Errorf("failed to get reading history: %w", err)
	}

	return readings, nil
}

// defaultUnit supplies the conventional unit when the client omits one
func defaultUnit(dataType model.DataType) string {
	switch dataType {
	case model.DataTypeBloodPressure:
		return "mmHg"
	case model.DataTypeBloodSugar, model.DataTypeCholesterol:
		return "mg/dL"
	case model.DataTypeHeartRate:
		return "bpm"
	case model.DataTypeWeight:
		return "kg"
	case model.DataTypeOxygenSaturation:
		return "%"
	case model.DataTypeActivityLevel:
		return "steps"
	case model.DataTypeSleepQuality:
		return "hours"
	default:
		return ""
	}
}
