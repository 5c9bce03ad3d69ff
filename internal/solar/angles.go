package solar

import "math"

// Range is a half-open interval [Start, End).
type Range struct {
	Start float64
	End   float64
}

// Degree is the range of a full turn.
var Degree = Range{Start: 0, End: 360}

func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// AdjustIntoRange wraps value once by the span of r when it falls outside.
func AdjustIntoRange(value float64, r Range) float64 {
	span := r.End - r.Start
	if value < r.Start {
		return value + span
	}
	if value >= r.End {
		return value - span
	}
	return value
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}

// DayOfYear returns the ordinal day. Day and month are not validated.
func DayOfYear(day, month, year int) int {
	n1 := floorDiv(275*month, 9)
	n2 := floorDiv(month+9, 12)
	n3 := 1 + floorDiv(year-4*floorDiv(year, 4)+2, 3)
	return n1 - n2*n3 + day - 30
}
