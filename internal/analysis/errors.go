// Package analysis implements the pure health-risk analysis engine: risk
// classification, trend detection, forecasting, adherence scoring and
// recommendation rules. Nothing in this package performs I/O.
package analysis

import "errors"

// ErrInsufficientData is returned when a series has fewer points than an
// algorithm requires. Callers degrade to an informational result instead of
// propagating it as a hard failure.
var ErrInsufficientData = errors.New("insufficient data points for analysis")
