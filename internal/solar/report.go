package solar

import "time"

// Report is a snapshot of a calculator's results.
type Report struct {
	Date      string  `json:"date"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	UTCOffset float64 `json:"utc_offset"`
	Zenith    float64 `json:"zenith"`

	Now         time.Time `json:"now"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	NextSunrise time.Time `json:"next_sunrise"`

	IsDay            bool   `json:"is_day"`
	HasLookahead     bool   `json:"has_lookahead"`
	DayLength        string `json:"day_length"`
	DayLengthMinutes int    `json:"day_length_minutes"`

	NextChange     time.Time `json:"next_change"`
	NextChangeKind string    `json:"next_change_kind"`
	TimeToChange   string    `json:"time_to_change"`
}

// SunriseLabel names the displayed sunrise. Outside daylight the next
// sunrise is the one ahead, whether it falls today or tomorrow.
func (r *Report) SunriseLabel() string {
	if !r.IsDay {
		return "next sunrise"
	}
	return "sunrise"
}

func (c *Calculator) Report() (*Report, error) {
	sunrise, err := c.Sunrise()
	if err != nil {
		return nil, err
	}
	sunset, err := c.Sunset()
	if err != nil {
		return nil, err
	}
	next, err := c.NextSunrise()
	if err != nil {
		return nil, err
	}
	change, isSunset, err := c.NextChange()
	if err != nil {
		return nil, err
	}
	countdown, err := c.TimeToChange()
	if err != nil {
		return nil, err
	}

	minutes := sunset.Sub(sunrise).Minutes()
	kind := "sunrise"
	if isSunset {
		kind = "sunset"
	}

	return &Report{
		Date:             c.params.Date.Format("2006-01-02"),
		Latitude:         c.params.Latitude,
		Longitude:        c.params.Longitude,
		UTCOffset:        c.params.Offset,
		Zenith:           c.zenith,
		Now:              c.now,
		Sunrise:          sunrise,
		Sunset:           sunset,
		NextSunrise:      next,
		IsDay:            c.isDay,
		HasLookahead:     c.tomorrow != nil,
		DayLength:        FormatMinutes(minutes),
		DayLengthMinutes: int(minutes),
		NextChange:       change,
		NextChangeKind:   kind,
		TimeToChange:     countdown,
	}, nil
}
