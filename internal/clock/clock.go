// Package clock supplies the current time and the host's UTC offset.
package clock

import "time"

// System reads the wall clock.
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time {
	return f.T
}

// LocalOffset returns the offset of the host's zone at t in hours, east
// of UTC positive, including daylight saving when it applies.
func LocalOffset(t time.Time) float64 {
	_, seconds := t.In(time.Local).Zone()
	return float64(seconds) / 3600
}

// OffsetIn returns the offset of loc at t in hours.
func OffsetIn(loc *time.Location, t time.Time) float64 {
	_, seconds := t.In(loc).Zone()
	return float64(seconds) / 3600
}
