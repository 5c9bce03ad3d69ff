package solar

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// Params describes the date, location and zenith of a calculation.
type Params struct {
	Day       int
	Month     int
	Year      int
	Latitude  float64
	Longitude float64
	// Offset from UTC in hours, possibly fractional.
	Offset float64
	// Date is the calendar date the resulting times are placed on.
	Date   time.Time
	Zenith Zenith
}

// ParamsFor fills the calendar fields of Params from date.
func ParamsFor(date time.Time, latitude, longitude, offset float64) Params {
	year, month, day := date.Date()
	return Params{
		Day:       day,
		Month:     int(month),
		Year:      year,
		Latitude:  latitude,
		Longitude: longitude,
		Offset:    offset,
		Date:      time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
	}
}

// Zone returns a fixed zone for an offset in hours.
func Zone(offset float64) *time.Location {
	seconds := int(math.Round(offset * 3600))
	sign := '+'
	abs := seconds
	if seconds < 0 {
		sign = '-'
		abs = -seconds
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, abs/3600, (abs%3600)/60)
	return time.FixedZone(name, seconds)
}

// Calculator derives sunrise and sunset for one set of Params and keeps
// the day/night state observed when it was built.
type Calculator struct {
	params   Params
	zenith   float64
	loc      *time.Location
	now      time.Time
	isDay    bool
	tomorrow *Calculator
}

// New validates p and evaluates the day state at the clock's current
// instant. When it is night after today's sunrise and lookahead is set,
// a calculator for the following day is built as well; that one never
// looks further ahead.
func New(p Params, clk Clock, lookahead bool) (*Calculator, error) {
	if p.Latitude < -90 || p.Latitude > 90 {
		return nil, &ValidationError{Field: "latitude", Value: p.Latitude, Message: "should be in [-90, 90]"}
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return nil, &ValidationError{Field: "longitude", Value: p.Longitude, Message: "should be in [-180, 180]"}
	}

	if p.Date.IsZero() {
		p.Date = time.Date(p.Year, time.Month(p.Month), p.Day, 0, 0, 0, 0, time.UTC)
	}

	loc := Zone(p.Offset)
	c := &Calculator{
		params: p,
		zenith: p.Zenith.Degrees(),
		loc:    loc,
		now:    clk.Now().In(loc),
	}

	sunrise, err := c.Sunrise()
	if err != nil {
		return nil, err
	}
	sunset, err := c.Sunset()
	if err != nil {
		return nil, err
	}
	c.isDay = sunrise.Before(c.now) && c.now.Before(sunset)

	midnight := time.Date(c.now.Year(), c.now.Month(), c.now.Day(), 0, 0, 0, 0, loc)
	beforeSunrise := midnight.Before(c.now) && c.now.Before(sunrise)
	if !c.isDay && lookahead && !beforeSunrise {
		next := p.Date.AddDate(0, 0, 1)
		tp := ParamsFor(next, p.Latitude, p.Longitude, p.Offset)
		tp.Zenith = Raw(c.zenith)
		c.tomorrow, err = New(tp, clk, false)
		if err != nil {
			return nil, fmt.Errorf("next day: %w", err)
		}
	}

	return c, nil
}

// CalculateTime returns the sunrise or sunset on the reference date.
func (c *Calculator) CalculateTime(isSunrise bool) (time.Time, error) {
	p := c.params
	dayOfYear := DayOfYear(p.Day, p.Month, p.Year)

	lngHour := p.Longitude / 15
	approx := 18.0
	if isSunrise {
		approx = 6
	}
	t := float64(dayOfYear) + (approx-lngHour)/24

	meanAnomaly := 0.9856*t - 3.289
	trueLongitude := meanAnomaly +
		1.916*math.Sin(Radians(meanAnomaly)) +
		0.020*math.Sin(Radians(2*meanAnomaly)) +
		282.634
	trueLongitude = AdjustIntoRange(trueLongitude, Degree)

	ra := Degrees(math.Atan(0.91764 * math.Tan(Radians(trueLongitude))))
	ra = AdjustIntoRange(ra, Degree)
	lQuadrant := math.Floor(trueLongitude/90) * 90
	raQuadrant := math.Floor(ra/90) * 90
	ra = (ra + lQuadrant - raQuadrant) / 15

	sinDec, cosDec := declination(trueLongitude)

	cosH := (math.Cos(Radians(c.zenith)) - sinDec*math.Sin(Radians(p.Latitude))) /
		(cosDec * math.Cos(Radians(p.Latitude)))
	if math.IsNaN(cosH) || cosH < -1 || cosH > 1 {
		event := "sunset"
		if isSunrise {
			event = "sunrise"
		}
		return time.Time{}, &UndefinedError{Event: event, Date: p.Date, Ratio: cosH}
	}

	hourAngle := Degrees(math.Acos(cosH))
	if isSunrise {
		hourAngle = 360 - hourAngle
	}
	hourAngle /= 15

	localMean := hourAngle + ra - 0.06571*t - 6.622
	return c.wallClock(localMean - lngHour), nil
}

// declination returns the sine and cosine of the sun's declination for a
// true longitude in degrees.
func declination(trueLongitude float64) (sinDec, cosDec float64) {
	sinDec = 0.39782 * math.Sin(Radians(trueLongitude))
	return sinDec, math.Cos(math.Asin(sinDec))
}

// wallClock places a UTC hour value, shifted by the offset, on the
// reference date.
func (c *Calculator) wallClock(utc float64) time.Time {
	if utc < 0 {
		utc += 24
	}
	hourPart, minutePart := math.Modf(utc)
	offsetHours, offsetMinutes := math.Modf(c.params.Offset)

	hours := int(hourPart + offsetHours)
	minutes := int(math.RoundToEven((minutePart + offsetMinutes) * 60))
	hours += floorDiv(minutes, 60)
	minutes = floorMod(minutes, 60)
	hours = floorMod(hours, 24)

	year, month, day := c.params.Date.Date()
	return time.Date(year, month, day, hours, minutes, 0, 0, c.loc)
}

func (c *Calculator) Sunrise() (time.Time, error) {
	return c.CalculateTime(true)
}

func (c *Calculator) Sunset() (time.Time, error) {
	return c.CalculateTime(false)
}

// DayLength is the time between sunrise and sunset as "HH:MM".
func (c *Calculator) DayLength() (string, error) {
	minutes, err := c.dayLengthMinutes()
	if err != nil {
		return "", err
	}
	return FormatMinutes(minutes), nil
}

func (c *Calculator) dayLengthMinutes() (float64, error) {
	sunrise, err := c.Sunrise()
	if err != nil {
		return 0, err
	}
	sunset, err := c.Sunset()
	if err != nil {
		return 0, err
	}
	return sunset.Sub(sunrise).Minutes(), nil
}

// NextSunrise is tomorrow's sunrise when a lookahead exists, otherwise
// today's.
func (c *Calculator) NextSunrise() (time.Time, error) {
	if c.tomorrow != nil {
		return c.tomorrow.Sunrise()
	}
	return c.Sunrise()
}

// NextChange returns the instant of the next transition and whether it is
// a sunset.
func (c *Calculator) NextChange() (time.Time, bool, error) {
	if c.isDay {
		sunset, err := c.Sunset()
		return sunset, true, err
	}
	sunrise, err := c.NextSunrise()
	return sunrise, false, err
}

// TimeToChange is the labelled countdown to the next sunset or sunrise.
func (c *Calculator) TimeToChange() (string, error) {
	at, isSunset, err := c.NextChange()
	if err != nil {
		return "", err
	}
	if isSunset {
		return "Sunset in: " + TimeToSunset(c.now, at), nil
	}
	return "Sunrise in: " + TimeToSunrise(c.now, at), nil
}

// SunTimes returns the displayed sunrise and today's sunset.
func (c *Calculator) SunTimes() (string, string, error) {
	sunrise, err := c.NextSunrise()
	if err != nil {
		return "", "", err
	}
	sunset, err := c.Sunset()
	if err != nil {
		return "", "", err
	}
	return FormatTime(sunrise), FormatTime(sunset), nil
}

// Summary lists the lines shown in the middle of the dial.
func (c *Calculator) Summary() ([]string, error) {
	length, err := c.DayLength()
	if err != nil {
		return nil, err
	}
	change, err := c.TimeToChange()
	if err != nil {
		return nil, err
	}
	return []string{
		"Now: " + FormatTime(c.now),
		"Day length: " + length,
		change,
	}, nil
}

func (c *Calculator) String() string {
	sunrise, sunset, err := c.SunTimes()
	if err != nil {
		return err.Error()
	}
	length, _ := c.DayLength()
	change, _ := c.TimeToChange()

	var b strings.Builder
	fmt.Fprintf(&b, "Sunrise at: %s\n", sunrise)
	fmt.Fprintf(&b, "Sunset at: %s\n", sunset)
	fmt.Fprintf(&b, "Day length: %s\n", length)
	b.WriteString(change)
	return b.String()
}

func (c *Calculator) Params() Params { return c.params }
func (c *Calculator) Zenith() float64 { return c.zenith }
func (c *Calculator) Now() time.Time { return c.now }
func (c *Calculator) IsDay() bool { return c.isDay }
func (c *Calculator) Location() *time.Location { return c.loc }

// Lookahead is the next day's calculator, or nil.
func (c *Calculator) Lookahead() *Calculator { return c.tomorrow }
