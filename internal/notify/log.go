package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/vitaltrack/backend/pkg/model"
)

// LogSink writes every notification to the application log instead of
// sending it. It is the default sink when no SMTP server is configured,
// which keeps local development and tests free of external dependencies.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) SendMedicationReminder(_ context.Context, patient model.Patient, medication model.Medication) (Status, error) {
	s.logger.Info("medication reminder (simulated)",
		zap.String("patient_id", patient.ID),
		zap.String("medication_id", medication.ID),
		zap.String("medication", medication.Name),
		zap.String("dosage", medication.Dosage))
	return StatusSimulated, nil
}

func (s *LogSink) SendMotivationalEmail(_ context.Context, patient model.Patient, update DailyUpdate) (Status, error) {
	s.logger.Info("daily update email (simulated)",
		zap.String("patient_id", patient.ID),
		zap.String("email", patient.Email),
		zap.Int("adherence_score", update.AdherenceScore),
		zap.String("motivation_level", string(update.MotivationLevel)),
		zap.String("subject", update.Subject))
	return StatusSimulated, nil
}

func (s *LogSink) SendHealthAlert(_ context.Context, patient model.Patient, reading model.Reading, result *model.AnalysisResult) (Status, error) {
	fields := []zap.Field{
		zap.String("patient_id", patient.ID),
		zap.String("reading_id", reading.ID),
		zap.String("data_type", string(reading.DataType)),
		zap.String("value", reading.Value.String()),
		zap.String("risk_level", string(reading.RiskLevel)),
	}
	if result != nil && len(result.Insights) > 0 {
		fields = append(fields, zap.String("insight", result.Insights[0]))
	}
	s.logger.Warn("health alert (simulated)", fields...)
	return StatusSimulated, nil
}

var _ Sink = (*LogSink)(nil)
