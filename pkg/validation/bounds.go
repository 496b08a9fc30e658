package validation

import (
	"fmt"
	"math"
)

// stepTolerance absorbs float drift when dividing by fractional steps.
const stepTolerance = 1e-6

// BoundsError reports a value outside the limits configured for its input,
// or off the step grid that starts at Min.
type BoundsError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
	Step  float64
}

func (e *BoundsError) Error() string {
	return e.Field + " " + e.Reason()
}

// Reason describes the violated bound without naming the field.
func (e *BoundsError) Reason() string {
	switch {
	case e.Step > 0 && inRange(e.Value, e.Min, e.Max):
		return fmt.Sprintf("must be %g plus a multiple of %g, got %g", e.Min, e.Step, e.Value)
	case e.Max == 0:
		return fmt.Sprintf("must be at least %g, got %g", e.Min, e.Value)
	default:
		return fmt.Sprintf("must be between %g and %g, got %g", e.Min, e.Max, e.Value)
	}
}

func inRange(value, min, max float64) bool {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < min {
		return false
	}
	return max == 0 || value <= max
}

// ValidateBounds checks min <= value <= max. A zero max leaves the value
// unbounded above. NaN and infinities are always rejected.
func ValidateBounds(field string, value, min, max float64) error {
	if !inRange(value, min, max) {
		return &BoundsError{Field: field, Value: value, Min: min, Max: max}
	}
	return nil
}

// ValidateStep checks that value sits on the grid min, min+step, min+2*step...
// A non-positive step disables the check.
func ValidateStep(field string, value, min, step float64) error {
	if step <= 0 {
		return nil
	}
	n := (value - min) / step
	if math.Abs(n-math.Round(n)) > stepTolerance {
		return &BoundsError{Field: field, Value: value, Min: min, Step: step}
	}
	return nil
}

// CheckBounds runs ValidateBounds and ValidateStep for each check and returns
// the first failure.
func CheckBounds(checks ...Bound) error {
	for _, c := range checks {
		if err := ValidateBounds(c.Field, c.Value, c.Min, c.Max); err != nil {
			return err
		}
		if err := ValidateStep(c.Field, c.Value, c.Min, c.Step); err != nil {
			return err
		}
	}
	return nil
}

// Bound is one input to CheckBounds. A zero Step skips the step check.
type Bound struct {
	Field    string
	Value    float64
	Min, Max float64
	Step     float64
}
