package analysis

import (
	"github.com/vitaltrack/backend/pkg/model"
)

// slope thresholds for calling a regression line a trend
const (
	slopeThreshold      = 0.1
	movingAvgThreshold  = 0.05
	highConfidenceCount = 7
	minTrendPoints      = 3
)

// AnalyzeTrend computes the direction and magnitude of change over a series
// of same-type values ordered oldest-first. Blood pressure callers reduce
// each pair to the systolic/diastolic mean before calling.
//
// The direction comes from an ordinary least-squares regression of value
// against sample index; series shorter than three points report
// insufficient_data. Confidence is high at seven or more points, medium
// otherwise.
func AnalyzeTrend(values []float64) model.Trend {
	if len(values) < minTrendPoints {
		return model.Trend{
			Direction:  model.TrendInsufficientData,
			Confidence: model.ConfidenceLow,
		}
	}

	slope := regressionSlope(values)

	direction := model.TrendStable
	if slope > slopeThreshold {
		direction = model.TrendIncreasing
	} else if slope < -slopeThreshold {
		direction = model.TrendDecreasing
	}

	confidence := model.ConfidenceMedium
	if len(values) >= highConfidenceCount {
		confidence = model.ConfidenceHigh
	}

	var pctChange float64
	if first := values[0]; first != 0 {
		pctChange = (values[len(values)-1] - first) / first * 100
	}

	return model.Trend{
		Direction:        direction,
		Confidence:       confidence,
		PercentageChange: pctChange,
	}
}

// regressionSlope fits value = slope*index + intercept over x = 0..n-1
func regressionSlope(values []float64) float64 {
	n := float64(len(values))

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// MovingAverageDirection is the simpler heuristic used only by the
// forecaster: compare the mean of the first three values against the mean of
// the last three, with a 5% threshold. It is deliberately independent of the
// regression-based AnalyzeTrend.
func MovingAverageDirection(values []float64) model.TrendDirection {
	if len(values) < minTrendPoints {
		return model.TrendStable
	}

	firstAvg := mean(values[:3])
	lastAvg := mean(values[len(values)-3:])

	if firstAvg == 0 {
		return model.TrendStable
	}

	change := (lastAvg - firstAvg) / firstAvg
	if change > movingAvgThreshold {
		return model.TrendIncreasing
	}
	if change < -movingAvgThreshold {
		return model.TrendDecreasing
	}
	return model.TrendStable
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
