// Package tracker keeps the sun state of one site current.
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sunclock/internal/clock"
	"sunclock/internal/log"
	"sunclock/internal/solar"
)

type Store interface {
	SaveReport(r *solar.Report) error
	Close() error
}

type Publisher interface {
	Publish(r *solar.Report) error
	Close()
}

type Tracker struct {
	clock     solar.Clock
	store     Store
	publisher Publisher
	interval  time.Duration
	enabled   bool

	mu        sync.RWMutex
	site      Site
	latest    *solar.Report
	savedDate string
	isRunning bool
}

type TrackerConfig struct {
	Site      Site
	Clock     solar.Clock
	Store     Store
	Publisher Publisher
	Interval  time.Duration
	Enabled   bool
}

func NewTracker(cfg TrackerConfig) *Tracker {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.System{}
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return &Tracker{
		clock:     clk,
		store:     cfg.Store,
		publisher: cfg.Publisher,
		interval:  interval,
		enabled:   cfg.Enabled,
		site:      cfg.Site,
	}
}

func (t *Tracker) Start(ctx context.Context) error {
	if !t.enabled {
		log.Info("Tracker is disabled")
		return nil
	}

	t.mu.Lock()
	t.isRunning = true
	t.mu.Unlock()

	log.Infof("Starting tracker with interval %s", t.interval)

	t.refresh()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Tracker stopped")
			t.mu.Lock()
			t.isRunning = false
			t.mu.Unlock()
			return nil
		case <-ticker.C:
			t.refresh()
		}
	}
}

func (t *Tracker) refresh() {
	if _, err := t.RefreshOnce(); err != nil {
		log.Errorf("Error computing sun state: %v", err)
	}
}

// RefreshOnce recomputes today's report for the site, stores it as the
// latest, saves the first report of each date and publishes it.
func (t *Tracker) RefreshOnce() (*solar.Report, error) {
	t.mu.RLock()
	site := t.site
	t.mu.RUnlock()

	now := t.clock.Now()
	report, err := build(site, now, today(site, now))
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	t.latest = report
	save := report.Date != t.savedDate
	if save {
		t.savedDate = report.Date
	}
	t.mu.Unlock()

	if save && t.store != nil {
		if err := t.store.SaveReport(report); err != nil {
			log.Errorf("Error saving sun record: %v", err)
		}
	}

	if t.publisher != nil {
		if err := t.publisher.Publish(report); err != nil {
			log.Errorf("Error publishing to MQTT: %v", err)
		}
	}

	log.Debugw("Sun state refreshed",
		"date", report.Date,
		"sunrise", solar.FormatTime(report.Sunrise),
		"sunset", solar.FormatTime(report.Sunset),
		"is_day", report.IsDay)

	return report, nil
}

func today(site Site, now time.Time) time.Time {
	return now.In(solar.Zone(site.Offset(now)))
}

// build computes the report on date with the offset and current time both
// taken at now.
func build(site Site, now, date time.Time) (*solar.Report, error) {
	p := solar.ParamsFor(date, site.Latitude, site.Longitude, site.Offset(now))
	p.Zenith = site.Zenith
	calc, err := solar.New(p, clock.Fixed{T: now}, site.Lookahead)
	if err != nil {
		return nil, err
	}
	return calc.Report()
}

// Current computes the report for the clock's current instant without
// storing or publishing it.
func (t *Tracker) Current() (*solar.Report, error) {
	site := t.Site()
	now := t.clock.Now()
	return build(site, now, today(site, now))
}

// ReportFor computes the report of the current site on another date.
func (t *Tracker) ReportFor(date time.Time) (*solar.Report, error) {
	return build(t.Site(), t.clock.Now(), date)
}

func (t *Tracker) Latest() *solar.Report {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest
}

func (t *Tracker) Site() Site {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.site
}

func (t *Tracker) IsRunning() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.isRunning
}

// UpdateSite switches to a new site after checking that today's times
// can be computed there.
func (t *Tracker) UpdateSite(site Site) (*solar.Report, error) {
	log.Infof("Updating site: %.4f, %.4f", site.Latitude, site.Longitude)

	now := t.clock.Now()
	report, err := build(site, now, today(site, now))
	if err != nil {
		log.Warnf("Rejected site update: %v", err)
		return nil, fmt.Errorf("invalid site: %w", err)
	}

	t.mu.Lock()
	t.site = site
	t.latest = report
	t.savedDate = ""
	t.mu.Unlock()

	log.Info("Site updated successfully")
	return report, nil
}

func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.publisher != nil {
		t.publisher.Close()
	}
	if t.store != nil {
		if err := t.store.Close(); err != nil {
			log.Warnf("Error closing store: %v", err)
		}
	}
}
