package solar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrUndefinedResult    = errors.New("sun does not rise or set on this date")
)

// ValidationError reports a latitude or longitude outside its bounds.
type ValidationError struct {
	Field   string
	Value   float64
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s' (%g): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidCoordinates
}

// UndefinedError is returned when the local hour angle has no solution,
// i.e. the sun stays above (Ratio < -1) or below (Ratio > 1) the zenith
// for the whole day.
type UndefinedError struct {
	Event string
	Date  time.Time
	Ratio float64
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("no %s on %s: hour angle cosine %.4f outside [-1, 1]",
		e.Event, e.Date.Format("2006-01-02"), e.Ratio)
}

func (e *UndefinedError) Unwrap() error {
	return ErrUndefinedResult
}

// PolarDay reports whether the failure means the sun never sets.
func (e *UndefinedError) PolarDay() bool {
	return e.Ratio < -1
}
