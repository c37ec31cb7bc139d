package analysis

import (
	"math"

	"github.com/vitaltrack/backend/pkg/model"
)

const (
	minForecastPoints  = 5
	forecastBaseline   = 7
	forecastAdjustment = 0.05
)

// Forecast predicts the next value of a series ordered oldest-first.
// Baseline is the average of the most recent seven values (or fewer for
// shorter series), nudged 5% up or down when the moving-average heuristic
// detects a trend. Returns ErrInsufficientData below five points; callers
// report that as an in-band insufficient_data result rather than failing.
func Forecast(values []float64) (model.Forecast, error) {
	if len(values) < minForecastPoints {
		return model.Forecast{}, ErrInsufficientData
	}

	window := values
	if len(window) > forecastBaseline {
		window = window[len(window)-forecastBaseline:]
	}
	predicted := mean(window)

	direction := MovingAverageDirection(values)
	switch direction {
	case model.TrendIncreasing:
		predicted *= 1 + forecastAdjustment
	case model.TrendDecreasing:
		predicted *= 1 - forecastAdjustment
	}

	confidence := model.ConfidenceMedium
	if len(values) >= highConfidenceCount {
		confidence = model.ConfidenceHigh
	}

	return model.Forecast{
		PredictedValue: math.Round(predicted*100) / 100,
		Confidence:     confidence,
		TrendDirection: direction,
	}, nil
}
