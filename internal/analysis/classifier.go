package analysis

import (
	"fmt"

	"github.com/vitaltrack/backend/pkg/model"
)

// Classification is the output of classifying a single reading
type Classification struct {
	RiskLevel model.RiskLevel
	Insight   string
}

// Classify maps a single reading value to a risk level and a short
// human-readable insight. Pure and deterministic: the same (dataType, value)
// always yields the same output.
//
// Blood sugar uses the four-tier scale (low <140, moderate 140-180,
// high 180-240, critical >240) so it follows the same low/moderate/high/
// critical pattern as blood pressure and cholesterol. All threshold
// comparisons are strict.
func Classify(dataType model.DataType, value model.ReadingValue) Classification {
	switch dataType {
	case model.DataTypeBloodPressure:
		return classifyBloodPressure(value)
	case model.DataTypeBloodSugar:
		return classifyBloodSugar(value.Scalar())
	case model.DataTypeHeartRate:
		return classifyHeartRate(value.Scalar())
	case model.DataTypeCholesterol:
		return classifyCholesterol(value.Scalar())
	default:
		// Weight, oxygen saturation, activity and sleep are tracked for
		// trends only and never assigned a risk tier here.
		return Classification{
			RiskLevel: model.RiskLow,
			Insight:   fmt.Sprintf("Your %s reading has been recorded.", readable(dataType)),
		}
	}
}

func classifyBloodPressure(value model.ReadingValue) Classification {
	bp := value.BloodPressure
	if bp == nil {
		// A numeric value submitted under blood_pressure has no pair to
		// judge; record it as informational.
		return Classification{
			RiskLevel: model.RiskLow,
			Insight:   "Your blood pressure reading has been recorded.",
		}
	}

	switch {
	case bp.Systolic > 180 || bp.Diastolic > 120:
		return Classification{
			RiskLevel: model.RiskCritical,
			Insight:   fmt.Sprintf("Blood pressure %d/%d is critically high. Seek medical attention promptly.", bp.Systolic, bp.Diastolic),
		}
	case bp.Systolic > 140 || bp.Diastolic > 90:
		return Classification{
			RiskLevel: model.RiskHigh,
			Insight:   fmt.Sprintf("Blood pressure %d/%d is high. Consider discussing this with your care team.", bp.Systolic, bp.Diastolic),
		}
	case bp.Systolic > 130 || bp.Diastolic > 85:
		return Classification{
			RiskLevel: model.RiskModerate,
			Insight:   fmt.Sprintf("Blood pressure %d/%d is slightly elevated. Keep monitoring regularly.", bp.Systolic, bp.Diastolic),
		}
	default:
		return Classification{
			RiskLevel: model.RiskLow,
			Insight:   fmt.Sprintf("Blood pressure %d/%d is within the normal range. Keep it up.", bp.Systolic, bp.Diastolic),
		}
	}
}

func classifyBloodSugar(mgdl float64) Classification {
	switch {
	case mgdl > 240:
		return Classification{
			RiskLevel: model.RiskCritical,
			Insight:   fmt.Sprintf("Blood sugar %.0f mg/dL is critically high. Seek medical attention promptly.", mgdl),
		}
	case mgdl > 180:
		return Classification{
			RiskLevel: model.RiskHigh,
			Insight:   fmt.Sprintf("Blood sugar %.0f mg/dL is high. Review your meals and medication with your care team.", mgdl),
		}
	case mgdl > 140:
		return Classification{
			RiskLevel: model.RiskModerate,
			Insight:   fmt.Sprintf("Blood sugar %.0f mg/dL is elevated. Keep an eye on carbohydrate intake.", mgdl),
		}
	default:
		return Classification{
			RiskLevel: model.RiskLow,
			Insight:   fmt.Sprintf("Blood sugar %.0f mg/dL is within the normal range. Keep it up.", mgdl),
		}
	}
}

// Heart rate uses a two-tier classification for single readings: outside the
// 60-100 bpm resting range is moderate, otherwise low.
func classifyHeartRate(bpm float64) Classification {
	if bpm > 100 || bpm < 60 {
		return Classification{
			RiskLevel: model.RiskModerate,
			Insight:   fmt.Sprintf("Heart rate %.0f bpm is outside the typical resting range of 60-100 bpm.", bpm),
		}
	}
	return Classification{
		RiskLevel: model.RiskLow,
		Insight:   fmt.Sprintf("Heart rate %.0f bpm is within the typical resting range.", bpm),
	}
}

func classifyCholesterol(mgdl float64) Classification {
	switch {
	case mgdl > 240:
		return Classification{
			RiskLevel: model.RiskHigh,
			Insight:   fmt.Sprintf("Total cholesterol %.0f mg/dL is high. Consider discussing treatment options with your doctor.", mgdl),
		}
	case mgdl > 200:
		return Classification{
			RiskLevel: model.RiskModerate,
			Insight:   fmt.Sprintf("Total cholesterol %.0f mg/dL is borderline high. Diet and exercise can help.", mgdl),
		}
	default:
		return Classification{
			RiskLevel: model.RiskLow,
			Insight:   fmt.Sprintf("Total cholesterol %.0f mg/dL is within the desirable range.", mgdl),
		}
	}
}

// readable turns a data type tag into the words used in insights
func readable(dataType model.DataType) string {
	switch dataType {
	case model.DataTypeBloodPressure:
		return "blood pressure"
	case model.DataTypeBloodSugar:
		return "blood sugar"
	case model.DataTypeHeartRate:
		return "heart rate"
	case model.DataTypeOxygenSaturation:
		return "oxygen saturation"
	case model.DataTypeActivityLevel:
		return "activity level"
	case model.DataTypeSleepQuality:
		return "sleep quality"
	default:
		return string(dataType)
	}
}
