package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vitaltrack/backend/pkg/model"
)

func TestForecast_InsufficientData(t *testing.T) {
	_, err := Forecast([]float64{120, 125, 130, 128})

	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestForecast_StableSeriesUsesBaseline(t *testing.T) {
	// Flat series: baseline average, no adjustment
	f, err := Forecast([]float64{120, 120, 120, 120, 120})

	assert.NoError(t, err)
	assert.Equal(t, 120.0, f.PredictedValue)
	assert.Equal(t, model.TrendStable, f.TrendDirection)
	assert.Equal(t, model.ConfidenceMedium, f.Confidence)
}

func TestForecast_IncreasingSeriesAdjustsUp(t *testing.T) {
	values := []float64{100, 100, 100, 120, 120, 120}

	f, err := Forecast(values)

	assert.NoError(t, err)
	assert.Equal(t, model.TrendIncreasing, f.TrendDirection)
	// Baseline is the mean of the last six values (110), nudged up 5%
	assert.InDelta(t, 115.5, f.PredictedValue, 0.01)
}

func TestForecast_BaselineUsesAtMostSevenValues(t *testing.T) {
	// Ten flat values ending at 200: only the last seven should matter
	values := []float64{5, 5, 5, 200, 200, 200, 200, 200, 200, 200}

	f, err := Forecast(values)

	assert.NoError(t, err)
	assert.Equal(t, model.ConfidenceHigh, f.Confidence)
	// Moving-average direction sees first-3 vs last-3, so this reads as
	// increasing and the 200 baseline is adjusted up 5%
	assert.InDelta(t, 210.0, f.PredictedValue, 0.01)
}

func TestForecast_RoundsToTwoDecimals(t *testing.T) {
	f, err := Forecast([]float64{100.111, 100.111, 100.111, 100.111, 100.111})

	assert.NoError(t, err)
	assert.Equal(t, 100.11, f.PredictedValue)
}
