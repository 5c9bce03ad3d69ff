package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"sunclock/internal/clock"
	"sunclock/internal/log"
	"sunclock/internal/solar"
)

func init() {
	log.SetLogger(zap.NewNop())
}

type fakeStore struct {
	mu     sync.Mutex
	saved  []string
	closed bool
}

func (s *fakeStore) SaveReport(r *solar.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = append(s.saved, r.Date)
	return nil
}

func (s *fakeStore) Close() error {
	s.closed = true
	return nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published int
	closed    bool
}

func (p *fakePublisher) Publish(*solar.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published++
	return nil
}

func (p *fakePublisher) Close() { p.closed = true }

var belgrade = Site{Name: "belgrade", Latitude: 44.8125, Longitude: 20.4612, UTCOffset: 2, Lookahead: true}

func newTracker(store *fakeStore, pub *fakePublisher, now time.Time) *Tracker {
	return NewTracker(TrackerConfig{
		Site:      belgrade,
		Clock:     clock.Fixed{T: now},
		Store:     store,
		Publisher: pub,
		Interval:  10 * time.Millisecond,
		Enabled:   true,
	})
}

func TestRefreshOnce_SavesOncePerDate(t *testing.T) {
	store, pub := &fakeStore{}, &fakePublisher{}
	tr := newTracker(store, pub, time.Date(2023, 6, 21, 10, 0, 0, 0, time.UTC))

	for i := 0; i < 3; i++ {
		if _, err := tr.RefreshOnce(); err != nil {
			t.Fatalf("RefreshOnce() error = %v", err)
		}
	}

	if len(store.saved) != 1 || store.saved[0] != "2023-06-21" {
		t.Errorf("saved = %v", store.saved)
	}
	if pub.published != 3 {
		t.Errorf("published = %d, want 3", pub.published)
	}
	latest := tr.Latest()
	if latest == nil || !latest.IsDay || latest.TimeToChange != "Sunset in: 08:28" {
		t.Errorf("latest = %+v", latest)
	}
}

func TestRefreshOnce_DateFollowsSiteOffset(t *testing.T) {
	// 23:30 UTC on the 20th is already the 21st in Belgrade.
	tr := newTracker(&fakeStore{}, &fakePublisher{}, time.Date(2023, 6, 20, 23, 30, 0, 0, time.UTC))
	r, err := tr.RefreshOnce()
	if err != nil {
		t.Fatal(err)
	}
	if r.Date != "2023-06-21" {
		t.Errorf("Date = %s", r.Date)
	}
	if r.IsDay || r.HasLookahead {
		t.Errorf("01:30 local: IsDay=%v HasLookahead=%v", r.IsDay, r.HasLookahead)
	}
}

// steppingClock moves an hour forward on every read.
type steppingClock struct {
	mu    sync.Mutex
	next  time.Time
	reads int
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Hour)
	c.reads++
	return now
}

func TestCurrent_ReadsClockOnce(t *testing.T) {
	start := time.Date(2023, 6, 21, 10, 0, 0, 0, time.UTC)
	clk := &steppingClock{next: start}
	tr := NewTracker(TrackerConfig{Site: belgrade, Clock: clk})

	report, err := tr.Current()
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if clk.reads != 1 {
		t.Errorf("clock read %d times, want 1", clk.reads)
	}
	if !report.Now.Equal(start) {
		t.Errorf("Now = %v, want %v", report.Now, start)
	}
	if got := solar.FormatTime(report.Now); got != "12:00" {
		t.Errorf("Now = %s, want 12:00", got)
	}

	if _, err := tr.RefreshOnce(); err != nil {
		t.Fatalf("RefreshOnce() error = %v", err)
	}
	if clk.reads != 2 {
		t.Errorf("clock read %d times after refresh, want 2", clk.reads)
	}
}

func TestReportFor(t *testing.T) {
	tr := newTracker(nil, nil, time.Date(2023, 6, 21, 10, 0, 0, 0, time.UTC))
	r, err := tr.ReportFor(time.Date(2023, 4, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if got := solar.FormatTime(r.Sunrise) + "/" + solar.FormatTime(r.Sunset); got != "06:18/19:06" {
		t.Errorf("times = %s", got)
	}
}

func TestUpdateSite(t *testing.T) {
	tr := newTracker(&fakeStore{}, &fakePublisher{}, time.Date(2023, 6, 21, 10, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		site Site
		want error
	}{
		{"latitude out of range", Site{Latitude: 95, Longitude: 20}, solar.ErrInvalidCoordinates},
		{"polar day", Site{Latitude: 78.22, Longitude: 15.65, UTCOffset: 2}, solar.ErrUndefinedResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.UpdateSite(tt.site)
			if !errors.Is(err, tt.want) {
				t.Fatalf("UpdateSite() error = %v, want %v", err, tt.want)
			}
			if tr.Site() != belgrade {
				t.Errorf("site changed to %+v", tr.Site())
			}
		})
	}

	mumbai := Site{Latitude: 19.076, Longitude: 72.8777, UTCOffset: 5.5}
	r, err := tr.UpdateSite(mumbai)
	if err != nil {
		t.Fatalf("UpdateSite() error = %v", err)
	}
	if tr.Site() != mumbai || tr.Latest() != r {
		t.Error("site not applied")
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	store, pub := &fakeStore{}, &fakePublisher{}
	tr := newTracker(store, pub, time.Date(2023, 6, 21, 10, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Start(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for tr.Latest() == nil && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !tr.IsRunning() {
		t.Error("IsRunning() = false while started")
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if tr.IsRunning() {
		t.Error("IsRunning() = true after cancel")
	}

	tr.Stop()
	if !store.closed || !pub.closed {
		t.Error("Stop() did not close store and publisher")
	}
}

func TestStart_Disabled(t *testing.T) {
	tr := NewTracker(TrackerConfig{Site: belgrade})
	if err := tr.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if tr.Latest() != nil {
		t.Error("disabled tracker computed a report")
	}
}
