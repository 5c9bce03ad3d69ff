package storage

import (
	"fmt"
	"time"

	"sunclock/internal/solar"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&SunRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

// SaveReport upserts the record for the report's date and place.
func (d *Database) SaveReport(r *solar.Report) error {
	record := &SunRecord{
		Date:             r.Date,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		UTCOffset:        r.UTCOffset,
		Zenith:           r.Zenith,
		Sunrise:          r.Sunrise,
		Sunset:           r.Sunset,
		DayLength:        r.DayLength,
		DayLengthMinutes: r.DayLengthMinutes,
		ComputedAt:       r.Now,
	}

	return d.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "date"}, {Name: "latitude"}, {Name: "longitude"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"utc_offset", "zenith", "sunrise", "sunset",
			"day_length", "day_length_minutes", "computed_at", "updated_at",
		}),
	}).Create(record).Error
}

func (d *Database) GetRecord(date string, latitude, longitude float64) (*SunRecord, error) {
	var record SunRecord
	result := d.db.Where("date = ? AND latitude = ? AND longitude = ?", date, latitude, longitude).
		First(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

func (d *Database) GetLatestRecord() (*SunRecord, error) {
	var record SunRecord
	result := d.db.Order("date desc").Order("computed_at desc").First(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	return &record, nil
}

// GetRecordsByRange returns records with from <= date <= to, dates as
// YYYY-MM-DD.
func (d *Database) GetRecordsByRange(from, to string) ([]SunRecord, error) {
	var records []SunRecord
	result := d.db.Where("date BETWEEN ? AND ?", from, to).
		Order("date desc").
		Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (d *Database) GetRecordsWithLimit(limit int) ([]SunRecord, error) {
	var records []SunRecord
	result := d.db.Order("date desc").Limit(limit).Find(&records)
	if result.Error != nil {
		return nil, result.Error
	}
	return records, nil
}

func (d *Database) GetSummary(from, to string) (*Summary, error) {
	summary := Summary{From: from, To: to}
	scope := d.db.Model(&SunRecord{}).Where("date BETWEEN ? AND ?", from, to)

	if err := scope.Session(&gorm.Session{}).Count(&summary.RecordsCount).Error; err != nil {
		return nil, err
	}
	if summary.RecordsCount == 0 {
		return &summary, nil
	}

	var agg struct {
		Shortest int
		Longest  int
		Average  float64
	}
	err := scope.Session(&gorm.Session{}).
		Select("MIN(day_length_minutes) AS shortest, MAX(day_length_minutes) AS longest, AVG(day_length_minutes) AS average").
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	summary.ShortestDay = agg.Shortest
	summary.LongestDay = agg.Longest
	summary.AvgDayLength = agg.Average

	var records []SunRecord
	if err := scope.Session(&gorm.Session{}).Find(&records).Error; err != nil {
		return nil, err
	}
	earliest, latest := -1, -1
	for _, r := range records {
		loc := solar.Zone(r.UTCOffset)
		sunrise, sunset := r.Sunrise.In(loc), r.Sunset.In(loc)
		rise := sunrise.Hour()*60 + sunrise.Minute()
		set := sunset.Hour()*60 + sunset.Minute()
		if earliest < 0 || rise < earliest {
			earliest = rise
			summary.EarliestRise = solar.FormatTime(sunrise)
		}
		if latest < 0 || set > latest {
			latest = set
			summary.LatestSet = solar.FormatTime(sunset)
		}
	}

	return &summary, nil
}

func (d *Database) CleanOldRecords(olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan).Format("2006-01-02")
	return d.db.Where("date < ?", cutoff).Delete(&SunRecord{}).Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
