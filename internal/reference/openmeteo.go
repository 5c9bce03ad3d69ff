package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const openMeteoEndpoint = "https://api.open-meteo.com/v1/forecast"

// OpenMeteo reads the daily sunrise and sunset published by the Open-Meteo
// forecast API.
type OpenMeteo struct {
	endpoint string
	client   *http.Client
}

func NewOpenMeteo(endpoint string) *OpenMeteo {
	if endpoint == "" {
		endpoint = openMeteoEndpoint
	}
	return &OpenMeteo{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *OpenMeteo) Name() string { return "open-meteo" }

type openMeteoResponse struct {
	Daily struct {
		Time    []string `json:"time"`
		Sunrise []string `json:"sunrise"`
		Sunset  []string `json:"sunset"`
	} `json:"daily"`
}

func (c *OpenMeteo) Times(ctx context.Context, date time.Time, latitude, longitude float64, loc *time.Location) (*Times, error) {
	day := date.Format("2006-01-02")

	query := url.Values{}
	query.Set("latitude", fmt.Sprintf("%.6f", latitude))
	query.Set("longitude", fmt.Sprintf("%.6f", longitude))
	query.Set("daily", "sunrise,sunset")
	query.Set("timezone", "GMT")
	query.Set("start_date", day)
	query.Set("end_date", day)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("open-meteo request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("open-meteo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("open-meteo bad status: %s", resp.Status)
	}

	var payload openMeteoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("open-meteo decode: %w", err)
	}
	if len(payload.Daily.Sunrise) == 0 || len(payload.Daily.Sunset) == 0 {
		return nil, fmt.Errorf("open-meteo daily data missing")
	}

	rise, err := parseOpenMeteoTime(payload.Daily.Sunrise[0])
	if err != nil {
		return nil, err
	}
	set, err := parseOpenMeteoTime(payload.Daily.Sunset[0])
	if err != nil {
		return nil, err
	}

	return &Times{Source: c.Name(), Sunrise: rise.In(loc), Sunset: set.In(loc)}, nil
}

func parseOpenMeteoTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.ParseInLocation("2006-01-02T15:04", value, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("open-meteo time %q not understood", value)
}
