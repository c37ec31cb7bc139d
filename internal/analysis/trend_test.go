package analysis

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/vitaltrack/backend/pkg/model"
)

func TestAnalyzeTrend_SevenPointBloodSugarScenario(t *testing.T) {
	// Arrange: a week of steadily climbing blood sugar readings
	values := []float64{130, 132, 135, 138, 142, 145, 150}

	// Act
	trend := AnalyzeTrend(values)

	// Assert
	assert.Equal(t, model.TrendIncreasing, trend.Direction)
	assert.Equal(t, model.ConfidenceHigh, trend.Confidence)
	assert.InDelta(t, 15.38, trend.PercentageChange, 0.01)
}

func TestAnalyzeTrend_Decreasing(t *testing.T) {
	trend := AnalyzeTrend([]float64{160, 155, 149, 146, 140})

	assert.Equal(t, model.TrendDecreasing, trend.Direction)
	assert.Equal(t, model.ConfidenceMedium, trend.Confidence)
	assert.Negative(t, trend.PercentageChange)
}

func TestAnalyzeTrend_Stable(t *testing.T) {
	trend := AnalyzeTrend([]float64{120, 120.1, 119.9, 120, 120.05})

	assert.Equal(t, model.TrendStable, trend.Direction)
}

func TestAnalyzeTrend_InsufficientData(t *testing.T) {
	for _, values := range [][]float64{nil, {}, {120}, {120, 500}} {
		trend := AnalyzeTrend(values)

		assert.Equal(t, model.TrendInsufficientData, trend.Direction)
		assert.Equal(t, model.ConfidenceLow, trend.Confidence)
	}
}

func TestMovingAverageDirection(t *testing.T) {
	assert.Equal(t, model.TrendIncreasing, MovingAverageDirection([]float64{100, 100, 100, 110, 112, 115}))
	assert.Equal(t, model.TrendDecreasing, MovingAverageDirection([]float64{115, 112, 110, 100, 100, 100}))
	assert.Equal(t, model.TrendStable, MovingAverageDirection([]float64{100, 101, 100, 102, 101, 100}))
	assert.Equal(t, model.TrendStable, MovingAverageDirection([]float64{100, 101}))
}

func TestAnalyzeTrend_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("short series always report insufficient data", prop.ForAll(
		func(values []float64) bool {
			if len(values) > 2 {
				values = values[:2]
			}
			return AnalyzeTrend(values).Direction == model.TrendInsufficientData
		},
		gen.SliceOf(gen.Float64Range(-1000, 1000)),
	))

	properties.Property("confidence is high only at seven or more points", prop.ForAll(
		func(n int) bool {
			values := make([]float64, n)
			for i := range values {
				values[i] = float64(i)
			}
			trend := AnalyzeTrend(values)
			if n >= 7 {
				return trend.Confidence == model.ConfidenceHigh
			}
			return trend.Confidence == model.ConfidenceMedium
		},
		gen.IntRange(3, 30),
	))

	properties.TestingRun(t)
}
