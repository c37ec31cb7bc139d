package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/pkg/model"
)

type stubCompleter struct {
	response string
	err      error
	prompt   string
}

func (s *stubCompleter) Complete(_ context.Context, _ string, userPrompt string) (string, error) {
	s.prompt = userPrompt
	return s.response, s.err
}

func TestComposeDailyUpdateTemplateWithoutAI(t *testing.T) {
	// Arrange
	composer := NewComposer(nil, zap.NewNop())
	patient := model.Patient{ID: "p1", Name: "Anna", Email: "anna@example.com"}

	// Act
	update := composer.ComposeDailyUpdate(context.Background(), patient, 85, nil)

	// Assert
	assert.Equal(t, 85, update.AdherenceScore)
	assert.Equal(t, model.MotivationHigh, update.MotivationLevel)
	assert.Contains(t, update.Subject, "Anna")
	assert.Contains(t, update.Body, "85%")
	assert.Contains(t, update.Body, "Great work")
}

func TestComposeDailyUpdateTemplateTiers(t *testing.T) {
	composer := NewComposer(nil, zap.NewNop())
	patient := model.Patient{ID: "p1", Name: "Anna"}

	tests := []struct {
		adherence int
		level     model.MotivationLevel
		phrase    string
	}{
		{adherence: 90, level: model.MotivationHigh, phrase: "Great work"},
		{adherence: 60, level: model.MotivationMedium, phrase: "getting there"},
		{adherence: 30, level: model.MotivationLow, phrase: "fresh start"},
	}

	for _, tt := range tests {
		update := composer.ComposeDailyUpdate(context.Background(), patient, tt.adherence, nil)
		assert.Equal(t, tt.level, update.MotivationLevel)
		assert.Contains(t, update.Body, tt.phrase)
	}
}

func TestComposeDailyUpdateUsesAIBody(t *testing.T) {
	// Arrange
	ai := &stubCompleter{response: "Keep it up, Anna! Your numbers are moving in the right direction."}
	composer := NewComposer(ai, zap.NewNop())
	patient := model.Patient{ID: "p1", Name: "Anna", ChronicConditions: []string{"diabetes"}}
	trends := map[model.DataType]model.Trend{
		model.DataTypeBloodSugar: {Direction: model.TrendDecreasing, Confidence: model.ConfidenceHigh, PercentageChange: -8.2},
	}

	// Act
	update := composer.ComposeDailyUpdate(context.Background(), patient, 72, trends)

	// Assert
	assert.Equal(t, ai.response, update.Body)
	assert.Contains(t, ai.prompt, "diabetes")
	assert.Contains(t, ai.prompt, "72%")
	assert.Contains(t, ai.prompt, "blood sugar")
	assert.Contains(t, ai.prompt, "decreasing")
}

func TestComposeDailyUpdateFallsBackOnAIError(t *testing.T) {
	// Arrange
	ai := &stubCompleter{err: errors.New("rate limit exceeded")}
	composer := NewComposer(ai, zap.NewNop())
	patient := model.Patient{ID: "p1", Name: "Anna"}

	// Act
	update := composer.ComposeDailyUpdate(context.Background(), patient, 40, nil)

	// Assert
	assert.Contains(t, update.Body, "40%")
	assert.Contains(t, update.Body, "fresh start")
}

func TestComposeDailyUpdateFallsBackOnEmptyAIResponse(t *testing.T) {
	ai := &stubCompleter{response: "   \n"}
	composer := NewComposer(ai, zap.NewNop())

	update := composer.ComposeDailyUpdate(context.Background(), model.Patient{Name: "Anna"}, 90, nil)

	assert.True(t, strings.Contains(update.Body, "Great work"))
}

func TestComposerPromptSkipsInsufficientTrends(t *testing.T) {
	ai := &stubCompleter{response: "ok"}
	composer := NewComposer(ai, zap.NewNop())
	trends := map[model.DataType]model.Trend{
		model.DataTypeWeight: {Direction: model.TrendInsufficientData},
	}

	composer.ComposeDailyUpdate(context.Background(), model.Patient{Name: "Anna"}, 50, trends)

	assert.NotContains(t, ai.prompt, "weight")
}
