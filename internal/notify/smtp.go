package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/vitaltrack/backend/pkg/model"
)

// SMTPConfig holds the settings of the outbound mail server.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSink delivers notifications as plain-text email over SMTP.
type SMTPSink struct {
	cfg    SMTPConfig
	logger *zap.Logger
	// send is swapped in tests to avoid a live server
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSink(cfg SMTPConfig, logger *zap.Logger) *SMTPSink {
	return &SMTPSink{cfg: cfg, logger: logger, send: smtp.SendMail}
}

func (s *SMTPSink) SendMedicationReminder(ctx context.Context, patient model.Patient, medication model.Medication) (Status, error) {
	subject := fmt.Sprintf("Reminder: take your %s", medication.Name)
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\r\n\r\n", patient.Name)
	fmt.Fprintf(&body, "It is time to take %s (%s).\r\n", medication.Name, medication.Dosage)
	if medication.Notes != nil && *medication.Notes != "" {
		fmt.Fprintf(&body, "Note: %s\r\n", *medication.Notes)
	}
	body.WriteString("\r\nStay on track,\r\nVitalTrack\r\n")
	return s.deliver(ctx, patient, subject, body.String())
}

func (s *SMTPSink) SendMotivationalEmail(ctx context.Context, patient model.Patient, update DailyUpdate) (Status, error) {
	return s.deliver(ctx, patient, update.Subject, update.Body)
}

func (s *SMTPSink) SendHealthAlert(ctx context.Context, patient model.Patient, reading model.Reading, result *model.AnalysisResult) (Status, error) {
	subject := fmt.Sprintf("Health alert: %s reading needs attention", readableType(reading.DataType))
	var body strings.Builder
	fmt.Fprintf(&body, "Hi %s,\r\n\r\n", patient.Name)
	fmt.Fprintf(&body, "Your %s reading of %s %s was classified as %s risk.\r\n",
		readableType(reading.DataType), reading.Value.String(), reading.Unit, reading.RiskLevel)
	if result != nil {
		for _, insight := range result.Insights {
			fmt.Fprintf(&body, "- %s\r\n", insight)
		}
		for _, rec := range result.Recommendations {
			if rec.Priority == model.PriorityHigh {
				fmt.Fprintf(&body, "- %s\r\n", rec.Message)
			}
		}
	}
	body.WriteString("\r\nPlease consult your care team if symptoms persist.\r\nVitalTrack\r\n")
	return s.deliver(ctx, patient, subject, body.String())
}

func (s *SMTPSink) deliver(ctx context.Context, patient model.Patient, subject, body string) (Status, error) {
	if err := ctx.Err(); err != nil {
		return StatusFailed, err
	}
	if patient.Email == "" {
		return StatusFailed, fmt.Errorf("patient %s has no email address", patient.ID)
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
		s.cfg.From, patient.Email, subject, body)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	if err := s.send(addr, auth, s.cfg.From, []string{patient.Email}, []byte(msg)); err != nil {
		s.logger.Error("failed to send email",
			zap.String("patient_id", patient.ID),
			zap.String("subject", subject),
			zap.Error(err))
		return StatusFailed, fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("email sent",
		zap.String("patient_id", patient.ID),
		zap.String("subject", subject))
	return StatusDelivered, nil
}

func readableType(dt model.DataType) string {
	return strings.ReplaceAll(string(dt), "_", " ")
}

var _ Sink = (*SMTPSink)(nil)
