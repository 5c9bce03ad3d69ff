// Package chart lays out the 24-hour day/night dial: midnight at the top,
// time running clockwise, one hour per 15 degrees.
package chart

import (
	"fmt"
	"math"
	"time"

	"sunclock/internal/solar"
)

const (
	InnerRadius = 0.7
	OuterRadius = 1.0

	nightColor = "#7D8491"
	dayColor   = "#DEB841"
)

// TimeToTheta converts "HH:MM" to degrees; a minute is a quarter degree.
func TimeToTheta(hhmm string) (float64, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", hhmm, err)
	}
	hours := float64(t.Hour()) + float64(t.Minute())/60
	return 360 * hours / 24, nil
}

// Values returns the share of the day before sunrise, between sunrise and
// sunset, and after sunset.
func Values(sunrise, sunset string) ([3]float64, error) {
	rise, err := TimeToTheta(sunrise)
	if err != nil {
		return [3]float64{}, err
	}
	set, err := TimeToTheta(sunset)
	if err != nil {
		return [3]float64{}, err
	}
	rise /= 360
	set /= 360
	return [3]float64{rise, math.Abs(rise - set), 1 - set}, nil
}

// Angles returns the dial boundaries 0, sunrise, sunset, 360 followed by
// the angle of the current time.
func Angles(sunrise, sunset, current string) ([5]float64, error) {
	rise, err := TimeToTheta(sunrise)
	if err != nil {
		return [5]float64{}, err
	}
	set, err := TimeToTheta(sunset)
	if err != nil {
		return [5]float64{}, err
	}
	now, err := TimeToTheta(current)
	if err != nil {
		return [5]float64{}, err
	}
	return [5]float64{0, rise, set, 360, now}, nil
}

type Segment struct {
	Label string  `json:"label"`
	Color string  `json:"color"`
	Theta float64 `json:"theta"`
	Width float64 `json:"width"`
	Value float64 `json:"value"`
	Path  string  `json:"path"`
}

type Marker struct {
	Name  string   `json:"name"`
	Time  string   `json:"time"`
	Theta float64  `json:"theta"`
	Text  string   `json:"text"`
	Line  [2]Point `json:"line"`
	Label Point    `json:"label"`
}

// Dial is everything needed to draw the chart for one report.
type Dial struct {
	Segments   []Segment `json:"segments"`
	Markers    []Marker  `json:"markers"`
	Ticks      []Point   `json:"ticks"`
	Annotation []string  `json:"annotation"`
	IsDay      bool      `json:"is_day"`
}

// Build lays out the dial for r. The displayed sunrise is tomorrow's when
// the report carries a lookahead.
func Build(r *solar.Report) (*Dial, error) {
	sunrise := solar.FormatTime(r.NextSunrise)
	sunset := solar.FormatTime(r.Sunset)
	current := solar.FormatTime(r.Now)

	values, err := Values(sunrise, sunset)
	if err != nil {
		return nil, err
	}
	angles, err := Angles(sunrise, sunset, current)
	if err != nil {
		return nil, err
	}

	labels := [3]string{"night-sunrise", "day", "night-sunset"}
	colors := [3]string{nightColor, dayColor, nightColor}

	d := &Dial{IsDay: r.IsDay}
	for i := 0; i < 3; i++ {
		from, to := angles[i], angles[i+1]
		d.Segments = append(d.Segments, Segment{
			Label: labels[i],
			Color: colors[i],
			Theta: (from + to) / 2,
			Width: math.Abs(to - from),
			Value: values[i],
			Path:  ArcPath(from, to, InnerRadius, OuterRadius),
		})
	}

	names := [3]string{r.SunriseLabel(), "sunset", "current"}
	times := [3]string{sunrise, sunset, current}
	thetas := [3]float64{angles[1], angles[2], angles[4]}
	for i := range names {
		d.Markers = append(d.Markers, Marker{
			Name:  names[i],
			Time:  times[i],
			Theta: thetas[i],
			Text:  fmt.Sprintf("%s: %s", names[i], times[i]),
			Line:  [2]Point{Polar(thetas[i], InnerRadius), Polar(thetas[i], OuterRadius)},
			Label: Polar(thetas[i], OuterRadius+0.12),
		})
	}

	for theta := 0; theta < 360; theta += 15 {
		d.Ticks = append(d.Ticks, Polar(float64(theta), 0.65))
	}

	d.Annotation = []string{
		"Now: " + current,
		"Day length: " + r.DayLength,
		r.TimeToChange,
	}
	return d, nil
}
