// Package reference cross-checks computed sun times against independent
// implementations.
package reference

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/nathan-osman/go-sunrise"
	"github.com/sixdouglas/suncalc"

	"sunclock/internal/solar"
)

// Times are one source's sunrise and sunset, expressed in the caller's zone.
type Times struct {
	Source  string    `json:"source"`
	Sunrise time.Time `json:"sunrise"`
	Sunset  time.Time `json:"sunset"`
}

type Source interface {
	Name() string
	Times(ctx context.Context, date time.Time, latitude, longitude float64, loc *time.Location) (*Times, error)
}

// GoSunrise uses github.com/nathan-osman/go-sunrise.
type GoSunrise struct{}

func (GoSunrise) Name() string { return "go-sunrise" }

func (GoSunrise) Times(_ context.Context, date time.Time, latitude, longitude float64, loc *time.Location) (*Times, error) {
	rise, set := sunrise.SunriseSunset(latitude, longitude, date.Year(), date.Month(), date.Day())
	if rise.IsZero() || set.IsZero() {
		return nil, fmt.Errorf("go-sunrise: no sunrise or sunset on %s", date.Format("2006-01-02"))
	}
	return &Times{Source: "go-sunrise", Sunrise: rise.In(loc), Sunset: set.In(loc)}, nil
}

// SunCalc uses github.com/sixdouglas/suncalc.
type SunCalc struct{}

func (SunCalc) Name() string { return "suncalc" }

func (SunCalc) Times(_ context.Context, date time.Time, latitude, longitude float64, loc *time.Location) (*Times, error) {
	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, loc)
	times := suncalc.GetTimes(noon, latitude, longitude)
	rise := times["sunrise"].Value
	set := times["sunset"].Value
	if rise.IsZero() || set.IsZero() {
		return nil, fmt.Errorf("suncalc: no sunrise or sunset on %s", date.Format("2006-01-02"))
	}
	return &Times{Source: "suncalc", Sunrise: rise.In(loc), Sunset: set.In(loc)}, nil
}

// Comparison is the difference between a reference and the report, in
// minutes, positive when the reference is later.
type Comparison struct {
	Source       string  `json:"source"`
	Sunrise      string  `json:"sunrise,omitempty"`
	Sunset       string  `json:"sunset,omitempty"`
	SunriseDelta float64 `json:"sunrise_delta_minutes"`
	SunsetDelta  float64 `json:"sunset_delta_minutes"`
	Error        string  `json:"error,omitempty"`
}

// Compare evaluates every source for the report's date and location.
func Compare(ctx context.Context, r *solar.Report, sources []Source) ([]Comparison, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return nil, fmt.Errorf("report date: %w", err)
	}
	loc := solar.Zone(r.UTCOffset)

	out := make([]Comparison, 0, len(sources))
	for _, src := range sources {
		cmp := Comparison{Source: src.Name()}
		times, err := src.Times(ctx, date, r.Latitude, r.Longitude, loc)
		if err != nil {
			cmp.Error = err.Error()
			out = append(out, cmp)
			continue
		}
		cmp.Sunrise = solar.FormatTime(times.Sunrise)
		cmp.Sunset = solar.FormatTime(times.Sunset)
		cmp.SunriseDelta = deltaMinutes(r.Sunrise, times.Sunrise)
		cmp.SunsetDelta = deltaMinutes(r.Sunset, times.Sunset)
		out = append(out, cmp)
	}
	return out, nil
}

func deltaMinutes(ours, theirs time.Time) float64 {
	return math.Round(theirs.Sub(ours).Minutes()*10) / 10
}

// Offline returns the sources that need no network access.
func Offline() []Source {
	return []Source{GoSunrise{}, SunCalc{}}
}

// Online returns the offline sources followed by the web APIs. OpenWeather
// is included only when an API key is set.
func Online(openMeteoEndpoint, openWeatherKey string) []Source {
	sources := append(Offline(), NewOpenMeteo(openMeteoEndpoint))
	if openWeatherKey != "" {
		sources = append(sources, NewOpenWeather(openWeatherKey, ""))
	}
	return sources
}
