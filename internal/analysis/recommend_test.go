package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/vitaltrack/backend/pkg/model"
)

func TestRecommend_LowAdherenceWithRisingBloodSugar(t *testing.T) {
	// Arrange: 55% adherence with an increasing sugar trend
	patient := model.Patient{ID: "p1", ChronicConditions: []string{"diabetes"}}
	trends := map[model.DataType]model.Trend{
		model.DataTypeBloodSugar: {Direction: model.TrendIncreasing, Confidence: model.ConfidenceHigh},
	}

	// Act
	recs := Recommend(patient, nil, 55, trends)

	// Assert: at least one high-priority medication recommendation
	foundHighMedication := false
	for _, r := range recs {
		if r.Category == "medication" && r.Priority == model.PriorityHigh {
			foundHighMedication = true
		}
	}
	assert.True(t, foundHighMedication)

	// And the list is sorted high before medium before low
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Priority.Rank(), recs[i].Priority.Rank())
	}
}

func TestRecommend_NeverEmpty(t *testing.T) {
	recs := Recommend(model.Patient{}, nil, 100, nil)

	assert.NotEmpty(t, recs)
	last := recs[len(recs)-1]
	assert.Equal(t, "wellness", last.Category)
	assert.Equal(t, model.PriorityLow, last.Priority)
}

func TestRecommend_ConditionGating(t *testing.T) {
	reading := model.Reading{
		DataType:   model.DataTypeBloodSugar,
		Value:      model.NumericValue(200),
		RiskLevel:  model.RiskHigh,
		RecordedAt: time.Now(),
	}

	diabetic := Recommend(model.Patient{ChronicConditions: []string{"diabetes"}}, []model.Reading{reading}, 100, nil)
	other := Recommend(model.Patient{}, []model.Reading{reading}, 100, nil)

	assert.Equal(t, "diet", diabetic[0].Category)
	assert.Equal(t, model.PriorityHigh, diabetic[0].Priority)
	assert.Equal(t, "monitoring", other[0].Category)
}

func TestRecommend_CriticalReadingEscalates(t *testing.T) {
	reading := model.Reading{
		DataType:   model.DataTypeBloodPressure,
		Value:      model.BloodPressure(190, 125),
		RiskLevel:  model.RiskCritical,
		RecordedAt: time.Now(),
	}

	recs := Recommend(model.Patient{ChronicConditions: []string{"hypertension"}}, []model.Reading{reading}, 100, nil)

	foundUrgent := false
	for _, r := range recs {
		if r.Category == "urgent" && r.Priority == model.PriorityHigh {
			foundUrgent = true
		}
	}
	assert.True(t, foundUrgent)
}

func TestRecommend_StableSortPreservesInsertionOrder(t *testing.T) {
	// Two medium recommendations from distinct rules: elevated pressure
	// (no hypertension tag) inserts before the rising-sugar monitor entry
	reading := model.Reading{
		DataType:   model.DataTypeBloodPressure,
		Value:      model.BloodPressure(135, 86),
		RiskLevel:  model.RiskModerate,
		RecordedAt: time.Now(),
	}
	trends := map[model.DataType]model.Trend{
		model.DataTypeBloodSugar: {Direction: model.TrendIncreasing},
	}

	recs := Recommend(model.Patient{}, []model.Reading{reading}, 100, trends)

	var mediums []string
	for _, r := range recs {
		if r.Priority == model.PriorityMedium {
			mediums = append(mediums, r.Message)
		}
	}
	assert.Len(t, mediums, 2)
	assert.Contains(t, mediums[0], "blood pressure readings are elevated")
	assert.Contains(t, mediums[1], "blood sugar has been trending upward")
}
