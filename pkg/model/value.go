package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BloodPressureValue is a systolic/diastolic pair in mmHg
type BloodPressureValue struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

// ReadingValue is the value of a reading: a plain number for most data
// types, or a systolic/diastolic pair for blood pressure. Exactly one of
// the two fields is set.
type ReadingValue struct {
	Numeric       *float64
	BloodPressure *BloodPressureValue
}

// NumericValue builds a plain numeric reading value
func NumericValue(v float64) ReadingValue {
	return ReadingValue{Numeric: &v}
}

// BloodPressure builds a blood pressure reading value
func BloodPressure(systolic, diastolic int) ReadingValue {
	return ReadingValue{BloodPressure: &BloodPressureValue{Systolic: systolic, Diastolic: diastolic}}
}

// IsBloodPressure reports whether the value is a systolic/diastolic pair
func (v ReadingValue) IsBloodPressure() bool {
	return v.BloodPressure != nil
}

// Scalar reduces the value to a single float: the numeric value itself, or
// the mean of systolic and diastolic for blood pressure. Trend analysis and
// forecasting operate on this reduction.
func (v ReadingValue) Scalar() float64 {
	if v.BloodPressure != nil {
		return (float64(v.BloodPressure.Systolic) + float64(v.BloodPressure.Diastolic)) / 2
	}
	if v.Numeric != nil {
		return *v.Numeric
	}
	return 0
}

// String renders the value the way patients write it: "120/80" for blood
// pressure, a plain decimal otherwise.
func (v ReadingValue) String() string {
	if v.BloodPressure != nil {
		return fmt.Sprintf("%d/%d", v.BloodPressure.Systolic, v.BloodPressure.Diastolic)
	}
	if v.Numeric != nil {
		return strconv.FormatFloat(*v.Numeric, 'f', -1, 64)
	}
	return ""
}

// MarshalJSON emits a bare number or a {"systolic":…,"diastolic":…} object
func (v ReadingValue) MarshalJSON() ([]byte, error) {
	if v.BloodPressure != nil {
		return json.Marshal(v.BloodPressure)
	}
	if v.Numeric != nil {
		return json.Marshal(*v.Numeric)
	}
	return nil, fmt.Errorf("reading value is empty")
}

// UnmarshalJSON accepts a number, a systolic/diastolic object, or the raw
// "120/80" text form patients submit
func (v *ReadingValue) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		v.Numeric = &num
		v.BloodPressure = nil
		return nil
	}

	var bp BloodPressureValue
	if err := json.Unmarshal(data, &bp); err == nil && bp.Systolic != 0 {
		v.BloodPressure = &bp
		v.Numeric = nil
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		parsed, err := ParseBloodPressure(raw)
		if err != nil {
			return err
		}
		v.BloodPressure = &parsed
		v.Numeric = nil
		return nil
	}

	return &ValidationError{Field: "value", Reason: "must be a number, a systolic/diastolic object, or a \"systolic/diastolic\" string"}
}

// ParseBloodPressure parses the raw "120/80" text form into a value pair
func ParseBloodPressure(raw string) (BloodPressureValue, error) {
	parts := strings.Split(strings.TrimSpace(raw), "/")
	if len(parts) != 2 {
		return BloodPressureValue{}, &ValidationError{Field: "value", Reason: fmt.Sprintf("blood pressure %q must be in systolic/diastolic form", raw)}
	}

	systolic, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return BloodPressureValue{}, &ValidationError{Field: "value", Reason: fmt.Sprintf("systolic %q is not a number", parts[0])}
	}

	diastolic, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return BloodPressureValue{}, &ValidationError{Field: "value", Reason: fmt.Sprintf("diastolic %q is not a number", parts[1])}
	}

	if systolic <= 0 || diastolic <= 0 {
		return BloodPressureValue{}, &ValidationError{Field: "value", Reason: "systolic and diastolic must be positive"}
	}

	return BloodPressureValue{Systolic: systolic, Diastolic: diastolic}, nil
}

// ValidationError reports malformed input. It is surfaced to the caller and
// never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
