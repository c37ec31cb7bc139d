package model

import "time"

// DataType identifies the kind of health reading a patient logged
type DataType string

const (
	DataTypeBloodPressure    DataType = "blood_pressure"
	DataTypeBloodSugar       DataType = "blood_sugar"
	DataTypeHeartRate        DataType = "heart_rate"
	DataTypeWeight           DataType = "weight"
	DataTypeCholesterol      DataType = "cholesterol"
	DataTypeOxygenSaturation DataType = "oxygen_saturation"
	DataTypeActivityLevel    DataType = "activity_level"
	DataTypeSleepQuality     DataType = "sleep_quality"
)

// AllDataTypes lists every supported reading type
var AllDataTypes = []DataType{
	DataTypeBloodPressure,
	DataTypeBloodSugar,
	DataTypeHeartRate,
	DataTypeWeight,
	DataTypeCholesterol,
	DataTypeOxygenSaturation,
	DataTypeActivityLevel,
	DataTypeSleepQuality,
}

// IsValid reports whether dt is a known data type
func (dt DataType) IsValid() bool {
	for _, known := range AllDataTypes {
		if dt == known {
			return true
		}
	}
	return false
}

// RiskLevel is the ordinal risk classification of a reading
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Severity returns the ordinal rank of a risk level, low=1 .. critical=4.
// Unknown levels rank 0 so they never win a max-severity comparison.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 1
	case RiskModerate:
		return 2
	case RiskHigh:
		return 3
	case RiskCritical:
		return 4
	default:
		return 0
	}
}

// TrendDirection describes how a series of readings is changing over time
type TrendDirection string

const (
	TrendIncreasing       TrendDirection = "increasing"
	TrendDecreasing       TrendDirection = "decreasing"
	TrendStable           TrendDirection = "stable"
	TrendInsufficientData TrendDirection = "insufficient_data"
)

// Confidence is the sample-count based confidence tier of a trend or forecast
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Priority orders recommendations, high before medium before low
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank returns the numeric weight used for sorting recommendations
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// MotivationLevel is derived from a patient's recent adherence
type MotivationLevel string

const (
	MotivationLow    MotivationLevel = "low"
	MotivationMedium MotivationLevel = "medium"
	MotivationHigh   MotivationLevel = "high"
)

// Reading is a single logged health measurement.
// RiskLevel and AnalysisSnapshot are caches of the classifier output for
// (DataType, Value); the analysis engine is the source of truth and rewrites
// them whenever the reading is re-analyzed.
type Reading struct {
	ID               string          `json:"id"`
	PatientID        string          `json:"patient_id"`
	DataType         DataType        `json:"data_type"`
	Value            ReadingValue    `json:"value"`
	Unit             string          `json:"unit"`
	RecordedAt       time.Time       `json:"recorded_at"`
	RiskLevel        RiskLevel       `json:"risk_level"`
	AnalysisSnapshot *AnalysisResult `json:"analysis_snapshot,omitempty"`
	AlertSentAt      *time.Time      `json:"alert_sent_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Medication is a prescribed medication with its dose schedule.
// DoseTimes holds zero-padded "HH:MM" strings, unique within the slice and
// non-empty while the medication is active. Medications are deactivated
// rather than deleted so adherence history stays intact.
type Medication struct {
	ID        string     `json:"id"`
	PatientID string     `json:"patient_id"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	DoseTimes []string   `json:"dose_times"`
	Active    bool       `json:"active"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ReminderType distinguishes medication reminders from daily update emails
type ReminderType string

const (
	ReminderMedication  ReminderType = "medication"
	ReminderDailyUpdate ReminderType = "daily_update"
)

// ReminderEvent is both the plan (a scheduled obligation) and the record
// (a completed dose) of a reminder
type ReminderEvent struct {
	ID           string       `json:"id"`
	PatientID    string       `json:"patient_id"`
	MedicationID *string      `json:"medication_id,omitempty"`
	Type         ReminderType `json:"type"`
	ScheduledFor time.Time    `json:"scheduled_for"`
	Completed    bool         `json:"completed"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Patient is the profile subset the analysis engine and scheduler act on.
// PreferredEmailTime is a zero-padded "HH:MM:SS" string; other components
// depend on that exact format.
type Patient struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Email              string          `json:"email"`
	ChronicConditions  []string        `json:"chronic_conditions"`
	PreferredEmailTime string          `json:"preferred_email_time"`
	MotivationLevel    MotivationLevel `json:"motivation_level"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// HasCondition reports whether the patient's profile carries a condition tag
func (p Patient) HasCondition(tag string) bool {
	for _, c := range p.ChronicConditions {
		if c == tag {
			return true
		}
	}
	return false
}

// Trend is the analyzed direction of change over a series of readings
type Trend struct {
	Direction        TrendDirection `json:"direction"`
	Confidence       Confidence     `json:"confidence"`
	PercentageChange float64        `json:"percentage_change"`
}

// Forecast is a short-horizon prediction from recent readings
type Forecast struct {
	PredictedValue float64        `json:"predicted_value"`
	Confidence     Confidence     `json:"confidence"`
	TrendDirection TrendDirection `json:"trend_direction"`
}

// Recommendation is one item of condition- or risk-specific guidance
type Recommendation struct {
	Category string   `json:"category"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
	Action   string   `json:"action"`
}

// AnalysisResult is the assembled output of one analysis pass. It is owned
// by the request or scheduler tick that produced it and is embedded as JSON
// when cached on a reading.
type AnalysisResult struct {
	RiskLevel       RiskLevel          `json:"risk_level"`
	Insights        []string           `json:"insights"`
	Trends          map[DataType]Trend `json:"trends"`
	Predictions     []string           `json:"predictions"`
	Recommendations []Recommendation   `json:"recommendations"`
	AdherenceScore  *int               `json:"adherence_score,omitempty"`
	GeneratedAt     time.Time          `json:"generated_at"`
}

// MotivationFromAdherence maps an adherence score to a motivation tier
func MotivationFromAdherence(score int) MotivationLevel {
	switch {
	case score >= 80:
		return MotivationHigh
	case score >= 50:
		return MotivationMedium
	default:
		return MotivationLow
	}
}
