package geolocation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"sunclock/internal/log"
)

func init() {
	log.SetLogger(zap.NewNop())
}

func TestLocate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","country":"Serbia","city":"Belgrade","lat":44.8125,"lon":20.4612,"timezone":"Europe/Belgrade"}`))
	}))
	defer srv.Close()

	l := NewLocator(LocatorConfig{Endpoint: srv.URL, Delay: time.Millisecond})
	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if loc.Latitude != 44.8125 || loc.Longitude != 20.4612 {
		t.Errorf("coordinates = %v, %v", loc.Latitude, loc.Longitude)
	}
	if loc.City != "Belgrade" || loc.Timezone != "Europe/Belgrade" {
		t.Errorf("location = %+v", loc)
	}
}

func TestLocate_RetriesTransientFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"status":"success","lat":50.1112,"lon":8.6831}`))
	}))
	defer srv.Close()

	l := NewLocator(LocatorConfig{Endpoint: srv.URL, Attempts: 5, Delay: time.Millisecond})
	loc, err := l.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
	if loc.Latitude != 50.1112 {
		t.Errorf("latitude = %v", loc.Latitude)
	}
}

func TestLocate_GivesUpAfterAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	l := NewLocator(LocatorConfig{Endpoint: srv.URL, Attempts: 4, Delay: time.Millisecond})
	_, err := l.Locate(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "after 4 attempts") {
		t.Errorf("error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 4 {
		t.Errorf("calls = %d, want 4", got)
	}
}

func TestLocate_RejectedIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"status":"fail","message":"reserved range"}`))
	}))
	defer srv.Close()

	l := NewLocator(LocatorConfig{Endpoint: srv.URL, Attempts: 5, Delay: time.Millisecond})
	_, err := l.Locate(context.Background())
	if err == nil || !strings.Contains(err.Error(), "reserved range") {
		t.Fatalf("error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestLocate_ContextCancelledDuringDelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	l := NewLocator(LocatorConfig{Endpoint: srv.URL, Attempts: 5, Delay: time.Hour})
	_, err := l.Locate(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestNewLocator_Defaults(t *testing.T) {
	l := NewLocator(LocatorConfig{Delay: -1})
	if l.endpoint != DefaultEndpoint || l.attempts != DefaultAttempts || l.delay != DefaultDelay {
		t.Errorf("locator = %+v", l)
	}
}
