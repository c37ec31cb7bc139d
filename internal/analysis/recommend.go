package analysis

import (
	"sort"

	"github.com/vitaltrack/backend/pkg/model"
)

// adherence tiers for recommendation urgency
const (
	adherenceHighConcern = 60
	adherenceLowConcern  = 80
)

// Recommend composes condition- and risk-specific guidance from the
// classifier and trend outputs plus the patient profile. The result is
// sorted high-before-medium-before-low with insertion order preserved on
// ties, and always ends with generic wellness guidance so it is never empty.
func Recommend(patient model.Patient, readings []model.Reading, adherence int, trends map[model.DataType]model.Trend) []model.Recommendation {
	var recs []model.Recommendation

	// Low adherence outranks everything else that is not an emergency.
	switch {
	case adherence < adherenceHighConcern:
		recs = append(recs, model.Recommendation{
			Category: "medication",
			Priority: model.PriorityHigh,
			Message:  "Your medication adherence has fallen well below target.",
			Action:   "Set dose reminders or use a pill organizer, and talk to your care team if doses are hard to keep up with.",
		})
	case adherence < adherenceLowConcern:
		recs = append(recs, model.Recommendation{
			Category: "medication",
			Priority: model.PriorityMedium,
			Message:  "A few medication doses were missed this week.",
			Action:   "Pair doses with a daily routine such as meals to make them easier to remember.",
		})
	}

	worstByType := worstReadings(readings)

	if bs, ok := worstByType[model.DataTypeBloodSugar]; ok && bs.RiskLevel.Severity() >= model.RiskModerate.Severity() {
		priority := model.PriorityMedium
		if bs.RiskLevel.Severity() >= model.RiskHigh.Severity() {
			priority = model.PriorityHigh
		}
		if patient.HasCondition("diabetes") {
			recs = append(recs, model.Recommendation{
				Category: "diet",
				Priority: priority,
				Message:  "Your blood sugar readings are elevated.",
				Action:   "Favor low-glycemic meals, check your glucose before and after eating, and review insulin timing with your care team.",
			})
		} else {
			recs = append(recs, model.Recommendation{
				Category: "monitoring",
				Priority: priority,
				Message:  "Your blood sugar readings are elevated.",
				Action:   "Log readings at consistent times for a few days and share the pattern with your doctor.",
			})
		}
	}

	if bp, ok := worstByType[model.DataTypeBloodPressure]; ok && bp.RiskLevel.Severity() >= model.RiskModerate.Severity() {
		priority := model.PriorityMedium
		if bp.RiskLevel.Severity() >= model.RiskHigh.Severity() {
			priority = model.PriorityHigh
		}
		if patient.HasCondition("hypertension") {
			recs = append(recs, model.Recommendation{
				Category: "lifestyle",
				Priority: priority,
				Message:  "Your blood pressure readings are elevated.",
				Action:   "Reduce sodium intake, practice stress management, and take readings at the same time each day.",
			})
		} else {
			recs = append(recs, model.Recommendation{
				Category: "monitoring",
				Priority: priority,
				Message:  "Your blood pressure readings are elevated.",
				Action:   "Re-measure after five minutes of rest and record both values for your next appointment.",
			})
		}
	}

	// Upward trends matter even when the latest reading is unremarkable.
	if t, ok := trends[model.DataTypeBloodSugar]; ok && t.Direction == model.TrendIncreasing {
		recs = append(recs, model.Recommendation{
			Category: "monitoring",
			Priority: model.PriorityMedium,
			Message:  "Your blood sugar has been trending upward.",
			Action:   "Keep logging readings daily so the trend is visible at your next review.",
		})
	}
	if t, ok := trends[model.DataTypeBloodPressure]; ok && t.Direction == model.TrendIncreasing {
		recs = append(recs, model.Recommendation{
			Category: "monitoring",
			Priority: model.PriorityMedium,
			Message:  "Your blood pressure has been trending upward.",
			Action:   "Keep logging readings daily so the trend is visible at your next review.",
		})
	}

	for _, r := range worstByType {
		if r.RiskLevel == model.RiskCritical {
			recs = append(recs, model.Recommendation{
				Category: "urgent",
				Priority: model.PriorityHigh,
				Message:  "A recent reading was in the critical range.",
				Action:   "Contact your healthcare provider today.",
			})
			break
		}
	}

	// Generic wellness guidance keeps the list non-empty and sorts last.
	recs = append(recs, model.Recommendation{
		Category: "wellness",
		Priority: model.PriorityLow,
		Message:  "Consistent tracking is the foundation of managing a chronic condition.",
		Action:   "Stay hydrated, aim for 30 minutes of light activity, and keep logging your readings.",
	})

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() > recs[j].Priority.Rank()
	})

	return recs
}

// worstReadings picks the highest-severity reading per data type, preferring
// the more recent one on equal severity
func worstReadings(readings []model.Reading) map[model.DataType]model.Reading {
	worst := make(map[model.DataType]model.Reading)
	for _, r := range readings {
		current, ok := worst[r.DataType]
		if !ok || r.RiskLevel.Severity() > current.RiskLevel.Severity() ||
			(r.RiskLevel.Severity() == current.RiskLevel.Severity() && r.RecordedAt.After(current.RecordedAt)) {
			worst[r.DataType] = r
		}
	}
	return worst
}
