package analysis

import (
	"math"

	"github.com/vitaltrack/backend/pkg/model"
)

// DefaultAdherenceWindowDays is the trailing window adherence is scored over
const DefaultAdherenceWindowDays = 7

// CalculateAdherence scores medication adherence 0-100 from the reminder
// completion history inside the trailing window. A patient with no active
// medications scores 100 (vacuously compliant).
//
// Expected doses are counted as one per day per active medication,
// regardless of how many dose times a schedule carries; multi-dose
// schedules therefore score higher than their true completion rate. Kept as
// a documented limitation of the scoring model.
func CalculateAdherence(medications []model.Medication, completedReminders []model.ReminderEvent, windowDays int) int {
	if windowDays <= 0 {
		windowDays = DefaultAdherenceWindowDays
	}

	active := 0
	for _, med := range medications {
		if med.Active {
			active++
		}
	}
	if active == 0 {
		return 100
	}

	actual := 0
	for _, ev := range completedReminders {
		if ev.Completed && ev.Type == model.ReminderMedication {
			actual++
		}
	}

	expected := active * windowDays
	ratio := float64(actual) / float64(expected)
	if math.IsNaN(ratio) {
		return 0
	}

	score := int(math.Round(ratio * 100))
	if score > 100 {
		score = 100
	}
	return score
}
