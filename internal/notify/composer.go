package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vitaltrack/backend/pkg/model"
)

// TextCompleter generates a short free-form text from a prompt pair.
// Satisfied by azure.OpenAIClient.
type TextCompleter interface {
	Complete(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

const composerSystemPrompt = "You are a supportive health coach writing a short daily check-in email " +
	"for a chronic care patient. Be warm and encouraging, never alarmist, and keep it under 120 words. " +
	"Do not give medical advice beyond encouraging adherence and healthy habits."

// Composer builds the daily motivational email. When an AI client is
// configured the body is generated from the patient's adherence and trend
// context; otherwise a deterministic template keyed on motivation level
// is used, so the daily update works without any external service.
type Composer struct {
	ai     TextCompleter
	logger *zap.Logger
}

func NewComposer(ai TextCompleter, logger *zap.Logger) *Composer {
	return &Composer{ai: ai, logger: logger}
}

// ComposeDailyUpdate returns the subject and body of the motivational email.
// AI failures fall back to the template, never an error.
func (c *Composer) ComposeDailyUpdate(ctx context.Context, patient model.Patient, adherence int, trends map[model.DataType]model.Trend) DailyUpdate {
	level := model.MotivationFromAdherence(adherence)
	update := DailyUpdate{
		AdherenceScore:  adherence,
		MotivationLevel: level,
		Subject:         fmt.Sprintf("Your daily health check-in, %s", patient.Name),
		Body:            templateBody(patient, adherence, level),
	}

	if c.ai == nil {
		return update
	}

	body, err := c.ai.Complete(ctx, composerSystemPrompt, c.userPrompt(patient, adherence, trends))
	if err != nil {
		c.logger.Warn("AI compose failed, using template",
			zap.String("patient_id", patient.ID),
			zap.Error(err))
		return update
	}
	if body = strings.TrimSpace(body); body != "" {
		update.Body = body
	}
	return update
}

func (c *Composer) userPrompt(patient model.Patient, adherence int, trends map[model.DataType]model.Trend) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient name: %s\n", patient.Name)
	if len(patient.ChronicConditions) > 0 {
		fmt.Fprintf(&b, "Chronic conditions: %s\n", strings.Join(patient.ChronicConditions, ", "))
	}
	fmt.Fprintf(&b, "Medication adherence over the last week: %d%%\n", adherence)
	for dataType, trend := range trends {
		if trend.Direction == model.TrendInsufficientData {
			continue
		}
		fmt.Fprintf(&b, "Recent %s trend: %s (%.1f%% change)\n",
			readableType(dataType), trend.Direction, trend.PercentageChange)
	}
	b.WriteString("Write today's check-in email body.")
	return b.String()
}

func templateBody(patient model.Patient, adherence int, level model.MotivationLevel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", patient.Name)
	switch level {
	case model.MotivationHigh:
		fmt.Fprintf(&b, "Great work! You took %d%% of your medications this week. Keeping this rhythm is one of the best things you can do for your health.\r\n", adherence)
	case model.MotivationMedium:
		fmt.Fprintf(&b, "You took %d%% of your medications this week. You're getting there - a small routine, like pairing doses with meals, can help you close the gap.\r\n", adherence)
	default:
		fmt.Fprintf(&b, "This week was tough: %d%% of your medications were taken. Every dose counts, and today is a fresh start. Your reminders are there to help.\r\n", adherence)
	}
	b.WriteString("\r\nWe're with you every step of the way,\r\nVitalTrack\r\n")
	return b.String()
}
