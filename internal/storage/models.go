package storage

import (
	"time"

	"gorm.io/gorm"
)

// SunRecord is the computed sunrise and sunset for one day at one place.
type SunRecord struct {
	gorm.Model
	Date      string  `gorm:"uniqueIndex:idx_sun_day_place;size:10" json:"date"`
	Latitude  float64 `gorm:"uniqueIndex:idx_sun_day_place" json:"latitude"`
	Longitude float64 `gorm:"uniqueIndex:idx_sun_day_place" json:"longitude"`

	UTCOffset float64 `json:"utc_offset"`
	Zenith    float64 `json:"zenith"`

	Sunrise          time.Time `json:"sunrise"`
	Sunset           time.Time `json:"sunset"`
	DayLength        string    `json:"day_length"`
	DayLengthMinutes int       `json:"day_length_minutes"`

	ComputedAt time.Time `gorm:"index" json:"computed_at"`
}

type Summary struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	ShortestDay  int     `json:"shortest_day_minutes"`
	LongestDay   int     `json:"longest_day_minutes"`
	AvgDayLength float64 `json:"avg_day_length_minutes"`
	EarliestRise string  `json:"earliest_sunrise"`
	LatestSet    string  `json:"latest_sunset"`
	RecordsCount int64   `json:"records_count"`
}
