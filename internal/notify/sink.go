// Package notify delivers patient notifications: medication reminders,
// daily motivational updates and health alerts. The scheduler treats every
// send as fire-and-forget; sinks return a status for logging and auditing
// but their errors never propagate past the call site.
package notify

import (
	"context"

	"github.com/vitaltrack/backend/pkg/model"
)

// Status is the outcome of one delivery attempt
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusSimulated Status = "simulated"
	StatusFailed    Status = "failed"
)

// DailyUpdate is the content of the daily motivational email
type DailyUpdate struct {
	AdherenceScore  int
	MotivationLevel model.MotivationLevel
	Subject         string
	Body            string
}

// Sink is the delivery capability behind the scheduler
type Sink interface {
	SendMedicationReminder(ctx context.Context, patient model.Patient, medication model.Medication) (Status, error)
	SendMotivationalEmail(ctx context.Context, patient model.Patient, update DailyUpdate) (Status, error)
	SendHealthAlert(ctx context.Context, patient model.Patient, reading model.Reading, result *model.AnalysisResult) (Status, error)
}
