package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const openWeatherEndpoint = "https://api.openweathermap.org/data/2.5/weather"

// OpenWeather reads sunrise and sunset from the OpenWeather current
// weather API. It only knows the current day.
type OpenWeather struct {
	apiKey   string
	endpoint string
	client   *http.Client
	now      func() time.Time
}

func NewOpenWeather(apiKey, endpoint string) *OpenWeather {
	if endpoint == "" {
		endpoint = openWeatherEndpoint
	}
	return &OpenWeather{
		apiKey:   apiKey,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

func (c *OpenWeather) Name() string { return "openweather" }

type openWeatherResponse struct {
	Sys struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

func (c *OpenWeather) Times(ctx context.Context, date time.Time, latitude, longitude float64, loc *time.Location) (*Times, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is empty")
	}
	day := date.Format("2006-01-02")
	if today := c.now().In(loc).Format("2006-01-02"); day != today {
		return nil, fmt.Errorf("openweather only reports today (%s), not %s", today, day)
	}

	query := url.Values{}
	query.Set("appid", c.apiKey)
	query.Set("lat", fmt.Sprintf("%.6f", latitude))
	query.Set("lon", fmt.Sprintf("%.6f", longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("openweather request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openweather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("openweather bad status: %s", resp.Status)
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openweather decode: %w", err)
	}
	if payload.Sys.Sunrise == 0 || payload.Sys.Sunset == 0 {
		return nil, fmt.Errorf("openweather sunrise/sunset missing")
	}

	return &Times{
		Source:  c.Name(),
		Sunrise: time.Unix(payload.Sys.Sunrise, 0).In(loc),
		Sunset:  time.Unix(payload.Sys.Sunset, 0).In(loc),
	}, nil
}
