package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vitaltrack/backend/internal/analysis"
	"github.com/vitaltrack/backend/internal/repository"
	"github.com/vitaltrack/backend/pkg/model"
	"go.uber.org/zap"
)

const (
	analysisWindowDays  = 30
	analysisHistoryMax  = 60
	defaultForecastDays = 7
	maxForecastDays     = 30
)

// AnalysisService orchestrates the analysis engine over stored readings:
// classification, trends, forecasts, adherence and recommendations.
// Downstream stages degrade on insufficient data or store trouble instead of
// suppressing the classifier output.
type AnalysisService struct {
	readings    ReadingRepositoryInterface
	medications MedicationRepositoryInterface
	reminders   ReminderRepositoryInterface
	patients    PatientRepositoryInterface
	logger      *zap.Logger
}

// NewAnalysisService creates a new AnalysisService
func NewAnalysisService(
	readings ReadingRepositoryInterface,
	medications MedicationRepositoryInterface,
	reminders ReminderRepositoryInterface,
	patients PatientRepositoryInterface,
	logger *zap.Logger,
) *AnalysisService {
	return &AnalysisService{
		readings:    readings,
		medications: medications,
		reminders:   reminders,
		patients:    patients,
		logger:      logger,
	}
}

// PredictionReport is the response of the prediction endpoint
type PredictionReport struct {
	DataType     model.DataType  `json:"data_type"`
	ForecastDays int             `json:"forecast_days"`
	Forecast     *model.Forecast `json:"forecast,omitempty"`
	Summary      string          `json:"summary"`
}

// AnalyzeReading runs the full analysis pass for one reading: classify,
// trend over recent same-type history, forecast, recommendations. The
// classifier result always survives; later stages degrade to insights when
// they cannot run. The reading's cached risk level and snapshot are
// refreshed as a side effect.
func (s *AnalysisService) AnalyzeReading(ctx context.Context, patientID string, reading *model.Reading) (*model.AnalysisResult, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}
	if reading == nil {
		return nil, fmt.Errorf("reading is required")
	}

	classification := analysis.Classify(reading.DataType, reading.Value)

	result := &model.AnalysisResult{
		RiskLevel:   classification.RiskLevel,
		Insights:    []string{classification.Insight},
		Trends:      make(map[model.DataType]model.Trend),
		GeneratedAt: time.Now(),
	}

	patient := s.loadPatient(ctx, patientID)

	series, history := s.loadSeries(ctx, patientID, reading)
	trend := analysis.AnalyzeTrend(series)
	result.Trends[reading.DataType] = trend

	s.addPrediction(result, reading.DataType, reading.Unit, series)

	adherence := s.adherenceOrDefault(ctx, patientID)
	result.AdherenceScore = &adherence

	result.Recommendations = analysis.Recommend(patient, history, adherence, result.Trends)

	// Refresh the cached classification on the stored reading. A failed
	// cache write must not discard the analysis the caller asked for.
	if reading.ID != "" {
		if err := s.readings.UpdateAnalysis(ctx, reading.ID, classification.RiskLevel, result); err != nil {
			s.logger.Error("failed to cache analysis on reading",
				zap.Error(err),
				zap.String("reading_id", reading.ID),
			)
		} else {
			reading.RiskLevel = classification.RiskLevel
			reading.AnalysisSnapshot = result
		}
	}

	s.logger.Info("reading analyzed",
		zap.String("patient_id", patientID),
		zap.String("data_type", string(reading.DataType)),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.String("trend", string(trend.Direction)),
	)

	return result, nil
}

// ComprehensiveAnalysis produces the full report across every metric type a
// patient has logged in the last 30 days: per-type risk and trend, overall
// risk, predictions, adherence and recommendations. Overall risk is the
// maximum severity across analyzed readings; on equal severity the more
// recent reading decides.
func (s *AnalysisService) ComprehensiveAnalysis(ctx context.Context, patientID string) (*model.AnalysisResult, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}

	since := time.Now().AddDate(0, 0, -analysisWindowDays)
	readings, err := s.readings.FindByPatient(ctx, patientID, repository.ReadingQuery{Since: &since, Limit: 500})
	if err != nil {
		s.logger.Error("failed to load readings for comprehensive analysis",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}

	result := &model.AnalysisResult{
		RiskLevel:   model.RiskLow,
		Trends:      make(map[model.DataType]model.Trend),
		GeneratedAt: time.Now(),
	}

	if len(readings) == 0 {
		result.Insights = append(result.Insights, "No readings recorded in the last 30 days. Log a measurement to get started.")
	}

	byType := make(map[model.DataType][]model.Reading)
	for _, r := range readings {
		byType[r.DataType] = append(byType[r.DataType], r)
	}

	var overallAt time.Time
	classified := make([]model.Reading, 0, len(readings))
	for _, dt := range model.AllDataTypes {
		typed := byType[dt]
		if len(typed) == 0 {
			continue
		}

		// Readings arrive oldest-first; the latest one carries the
		// current state of this metric.
		latest := typed[len(typed)-1]
		classification := analysis.Classify(dt, latest.Value)
		latest.RiskLevel = classification.RiskLevel
		classified = append(classified, latest)
		result.Insights = append(result.Insights, classification.Insight)

		severity := classification.RiskLevel.Severity()
		current := result.RiskLevel.Severity()
		if severity > current || (severity == current && latest.RecordedAt.After(overallAt)) {
			result.RiskLevel = classification.RiskLevel
			overallAt = latest.RecordedAt
		}

		series := make([]float64, len(typed))
		for i, r := range typed {
			series[i] = r.Value.Scalar()
		}
		result.Trends[dt] = analysis.AnalyzeTrend(series)

		s.addPrediction(result, dt, latest.Unit, series)
	}

	adherence := s.adherenceOrDefault(ctx, patientID)
	result.AdherenceScore = &adherence

	patient := s.loadPatient(ctx, patientID)
	result.Recommendations = analysis.Recommend(patient, classified, adherence, result.Trends)

	s.logger.Info("comprehensive analysis generated",
		zap.String("patient_id", patientID),
		zap.Int("reading_count", len(readings)),
		zap.String("overall_risk", string(result.RiskLevel)),
		zap.Int("adherence", adherence),
	)

	return result, nil
}

// GetTrend analyzes the trend of one data type over the given day window
func (s *AnalysisService) GetTrend(ctx context.Context, patientID string, dataType model.DataType, days int) (*model.Trend, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}
	if !dataType.IsValid() {
		return nil, &model.ValidationError{Field: "data_type", Reason: fmt.Sprintf("unknown data type %q", dataType)}
	}
	if days <= 0 || days > 90 {
		days = analysisWindowDays
	}

	since := time.Now().AddDate(0, 0, -days)
	readings, err := s.readings.FindByPatient(ctx, patientID, repository.ReadingQuery{DataType: dataType, Since: &since, Limit: analysisHistoryMax})
	if err != nil {
		return nil, fmt.Errorf("failed to load readings for trend: %w", err)
	}

	series := make([]float64, len(readings))
	for i, r := range readings {
		series[i] = r.Value.Scalar()
	}

	trend := analysis.AnalyzeTrend(series)
	return &trend, nil
}

// GetPredictions forecasts the given data type. Insufficient history is
// reported in-band as an insufficient_data summary, never as an error.
func (s *AnalysisService) GetPredictions(ctx context.Context, patientID string, dataType model.DataType, forecastDays int) (*PredictionReport, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient ID is required")
	}
	if !dataType.IsValid() {
		return nil, &model.ValidationError{Field: "data_type", Reason: fmt.Sprintf("unknown data type %q", dataType)}
	}
	if forecastDays <= 0 || forecastDays > maxForecastDays {
		forecastDays = defaultForecastDays
	}

	since := time.Now().AddDate(0, 0, -analysisWindowDays)
	readings, err := s.readings.FindByPatient(ctx, patientID, repository.ReadingQuery{DataType: dataType, Since: &since, Limit: analysisHistoryMax})
	if err != nil {
		return nil, fmt.Errorf("failed to load readings for prediction: %w", err)
	}

	series := make([]float64, len(readings))
	for i, r := range readings {
		series[i] = r.Value.Scalar()
	}

	report := &PredictionReport{DataType: dataType, ForecastDays: forecastDays}

	forecast, err := analysis.Forecast(series)
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientData) {
			report.Summary = fmt.Sprintf("Not enough %s readings yet to forecast a value. At least 5 are needed.", dataType)
			return report, nil
		}
		return nil, fmt.Errorf("forecast failed: %w", err)
	}

	unit := ""
	if len(readings) > 0 {
		unit = readings[len(readings)-1].Unit
	}
	report.Forecast = &forecast
	report.Summary = predictionSummary(dataType, unit, forecastDays, forecast)

	return report, nil
}

// GetAdherence computes the 7-day medication adherence score and refreshes
// the patient's derived motivation level
func (s *AnalysisService) GetAdherence(ctx context.Context, patientID string) (int, error) {
	if patientID == "" {
		return 0, fmt.Errorf("patient ID is required")
	}

	medications, err := s.medications.FindActive(ctx, patientID)
	if err != nil {
		return 0, fmt.Errorf("failed to load active medications: %w", err)
	}

	since := time.Now().AddDate(0, 0, -analysis.DefaultAdherenceWindowDays)
	completed, err := s.reminders.FindCompleted(ctx, patientID, model.ReminderMedication, since)
	if err != nil {
		return 0, fmt.Errorf("failed to load completed reminders: %w", err)
	}

	score := analysis.CalculateAdherence(medications, completed, analysis.DefaultAdherenceWindowDays)

	if err := s.patients.UpdateMotivationLevel(ctx, patientID, model.MotivationFromAdherence(score)); err != nil {
		s.logger.Warn("failed to update motivation level",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
	}

	return score, nil
}

// loadPatient fetches the profile, degrading to an empty profile when the
// store misbehaves so condition-gated recommendations simply don't fire
func (s *AnalysisService) loadPatient(ctx context.Context, patientID string) model.Patient {
	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		s.logger.Warn("failed to load patient profile, continuing without conditions",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return model.Patient{ID: patientID}
	}
	return *patient
}

// loadSeries returns the scalar series for the reading's data type plus the
// raw history, guaranteeing the reading itself is represented even when the
// history fetch fails or has not caught up
func (s *AnalysisService) loadSeries(ctx context.Context, patientID string, reading *model.Reading) ([]float64, []model.Reading) {
	since := time.Now().AddDate(0, 0, -analysisWindowDays)
	history, err := s.readings.FindByPatient(ctx, patientID, repository.ReadingQuery{DataType: reading.DataType, Since: &since, Limit: analysisHistoryMax})
	if err != nil {
		s.logger.Warn("failed to load reading history, analyzing single reading only",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return []float64{reading.Value.Scalar()}, []model.Reading{*reading}
	}

	found := false
	for _, r := range history {
		if r.ID == reading.ID {
			found = true
			break
		}
	}
	if !found {
		history = append(history, *reading)
	}

	series := make([]float64, len(history))
	for i, r := range history {
		series[i] = r.Value.Scalar()
	}
	return series, history
}

// addPrediction appends a forecast line or the insufficient-data insight
func (s *AnalysisService) addPrediction(result *model.AnalysisResult, dataType model.DataType, unit string, series []float64) {
	forecast, err := analysis.Forecast(series)
	if err != nil {
		if errors.Is(err, analysis.ErrInsufficientData) {
			result.Predictions = append(result.Predictions,
				fmt.Sprintf("Not enough %s readings yet to forecast a value. At least 5 are needed.", dataType))
			return
		}
		s.logger.Warn("forecast failed", zap.Error(err), zap.String("data_type", string(dataType)))
		return
	}
	result.Predictions = append(result.Predictions, predictionSummary(dataType, unit, defaultForecastDays, forecast))
}

// adherenceOrDefault computes adherence, falling back to a neutral 100 when
// the store is unavailable so analysis never aborts on a side metric
func (s *AnalysisService) adherenceOrDefault(ctx context.Context, patientID string) int {
	score, err := s.GetAdherence(ctx, patientID)
	if err != nil {
		s.logger.Warn("failed to compute adherence, assuming compliant",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return 100
	}
	return score
}

func predictionSummary(dataType model.DataType, unit string, days int, forecast model.Forecast) string {
	withUnit := fmt.Sprintf("%.2f", forecast.PredictedValue)
	if unit != "" {
		withUnit += " " + unit
	}
	return fmt.Sprintf("Based on recent readings, %s is projected to be around %s over the next %d days (trend: %s).",
		dataType, withUnit, days, forecast.TrendDirection)
}
