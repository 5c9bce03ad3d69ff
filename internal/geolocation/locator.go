// Package geolocation resolves the host's approximate coordinates from its
// public IP address.
package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sunclock/internal/log"
)

const (
	DefaultEndpoint = "http://ip-api.com/json/?fields=status,message,country,city,lat,lon,timezone"
	DefaultAttempts = 5
	DefaultDelay    = time.Second

	userAgent = "sunclock/1.0"
)

// Location is the resolved position of the host.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// Locator looks up the current location, retrying transient failures a
// fixed number of times with a fixed delay.
type Locator struct {
	endpoint   string
	attempts   int
	delay      time.Duration
	httpClient *http.Client
}

type LocatorConfig struct {
	Endpoint string
	Attempts int
	Delay    time.Duration
	Timeout  time.Duration
}

func NewLocator(cfg LocatorConfig) *Locator {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = DefaultAttempts
	}
	if cfg.Delay < 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Locator{
		endpoint: cfg.Endpoint,
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Country  string  `json:"country"`
	City     string  `json:"city"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Timezone string  `json:"timezone"`
}

// transientError marks failures worth another attempt.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Locate returns the host location. Connection failures and 5xx responses
// are retried; a rejected lookup is returned immediately.
func (l *Locator) Locate(ctx context.Context) (*Location, error) {
	var lastErr error
	for attempt := 1; attempt <= l.attempts; attempt++ {
		loc, err := l.lookup(ctx)
		if err == nil {
			return loc, nil
		}
		lastErr = err

		var transient *transientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		if attempt == l.attempts {
			break
		}

		log.Warnw("geolocation lookup failed, retrying",
			"attempt", attempt, "attempts", l.attempts, "delay", l.delay, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.delay):
		}
	}
	return nil, fmt.Errorf("geolocation failed after %d attempts: %w", l.attempts, lastErr)
}

func (l *Locator) lookup(ctx context.Context) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("geolocation request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &transientError{err: fmt.Errorf("geolocation request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, &transientError{err: fmt.Errorf("geolocation bad status: %s", resp.Status)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geolocation bad status: %s", resp.Status)
	}

	var payload ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("geolocation decode: %w", err)
	}
	if payload.Status != "" && payload.Status != "success" {
		return nil, fmt.Errorf("geolocation rejected: %s", payload.Message)
	}

	return &Location{
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
		City:      payload.City,
		Country:   payload.Country,
		Timezone:  payload.Timezone,
	}, nil
}
