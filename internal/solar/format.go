package solar

import (
	"fmt"
	"math"
	"time"
)

const minutesPerDay = 1440

// FormatMinutes renders a minute count as "HH:MM". Negative counts are
// shifted by one day first.
func FormatMinutes(minutes float64) string {
	if minutes < 0 {
		minutes += minutesPerDay
	}
	hours := int(minutes / 60)
	rest := math.Mod(minutes, 60)
	if rest < 0 {
		rest += 60
	}
	return fmt.Sprintf("%02d:%02d", hours, int(rest))
}

// FormatTime renders the wall clock of t as "HH:MM"; the zero time renders
// as an empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func minutesBetween(from, to time.Time) float64 {
	return math.Floor(to.Sub(from).Seconds() / 60)
}

// TimeToSunrise is the whole number of minutes from now until sunrise.
func TimeToSunrise(now, sunrise time.Time) string {
	return FormatMinutes(minutesBetween(now, sunrise))
}

// TimeToSunset is the whole number of minutes from now until sunset.
func TimeToSunset(now, sunset time.Time) string {
	return FormatMinutes(minutesBetween(now, sunset))
}
