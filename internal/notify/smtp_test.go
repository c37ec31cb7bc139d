package notify

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/pkg/model"
)

func newTestSMTPSink(send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error) *SMTPSink {
	sink := NewSMTPSink(SMTPConfig{
		Host: "smtp.example.com",
		Port: 587,
		From: "care@vitaltrack.example.com",
	}, zap.NewNop())
	sink.send = send
	return sink
}

func TestSMTPSinkSendMedicationReminder(t *testing.T) {
	// Arrange
	var gotTo []string
	var gotMsg string
	sink := newTestSMTPSink(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.example.com:587", addr)
		assert.Equal(t, "care@vitaltrack.example.com", from)
		gotTo = to
		gotMsg = string(msg)
		return nil
	})
	patient := model.Patient{ID: "p1", Name: "Anna", Email: "anna@example.com"}
	medication := model.Medication{ID: "m1", Name: "Metformin", Dosage: "500mg"}

	// Act
	status, err := sink.SendMedicationReminder(context.Background(), patient, medication)

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, StatusDelivered, status)
	assert.Equal(t, []string{"anna@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Reminder: take your Metformin")
	assert.Contains(t, gotMsg, "Metformin (500mg)")
}

func TestSMTPSinkSendFailure(t *testing.T) {
	sink := newTestSMTPSink(func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	})
	patient := model.Patient{ID: "p1", Name: "Anna", Email: "anna@example.com"}

	status, err := sink.SendMotivationalEmail(context.Background(), patient, DailyUpdate{Subject: "Hi", Body: "Body"})

	assert.Error(t, err)
	assert.Equal(t, StatusFailed, status)
}

func TestSMTPSinkRejectsMissingEmail(t *testing.T) {
	called := false
	sink := newTestSMTPSink(func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	})

	status, err := sink.SendMotivationalEmail(context.Background(), model.Patient{ID: "p1", Name: "Anna"}, DailyUpdate{Subject: "Hi"})

	assert.Error(t, err)
	assert.Equal(t, StatusFailed, status)
	assert.False(t, called)
}

func TestSMTPSinkHealthAlertIncludesInsights(t *testing.T) {
	var gotMsg string
	sink := newTestSMTPSink(func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	})
	patient := model.Patient{ID: "p1", Name: "Anna", Email: "anna@example.com"}
	reading := model.Reading{
		ID:        "r1",
		DataType:  model.DataTypeBloodSugar,
		Value:     model.NumericValue(260),
		Unit:      "mg/dL",
		RiskLevel: model.RiskCritical,
	}
	result := &model.AnalysisResult{
		RiskLevel: model.RiskCritical,
		Insights:  []string{"Blood sugar is critically high at 260 mg/dL."},
		Recommendations: []model.Recommendation{
			{Category: "urgent", Priority: model.PriorityHigh, Message: "Contact your care team today."},
			{Category: "wellness", Priority: model.PriorityLow, Message: "Stay hydrated."},
		},
	}

	status, err := sink.SendHealthAlert(context.Background(), patient, reading, result)

	assert.NoError(t, err)
	assert.Equal(t, StatusDelivered, status)
	assert.Contains(t, gotMsg, "blood sugar")
	assert.Contains(t, gotMsg, "critically high")
	assert.Contains(t, gotMsg, "Contact your care team today.")
	assert.NotContains(t, gotMsg, "Stay hydrated.")
}
