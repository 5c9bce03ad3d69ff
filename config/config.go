package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Location    LocationConfig    `mapstructure:"location"`
	Solar       SolarConfig       `mapstructure:"solar"`
	Tracker     TrackerConfig     `mapstructure:"tracker"`
	API         APIConfig         `mapstructure:"api"`
	MQTT        MQTTConfig        `mapstructure:"mqtt"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Geolocation GeolocationConfig `mapstructure:"geolocation"`
	Reference   ReferenceConfig   `mapstructure:"reference"`
	Log         LogConfig         `mapstructure:"log"`
}

type LocationConfig struct {
	Name      string  `mapstructure:"name"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	// UTCOffset is "auto" or a number of hours, e.g. "5.5".
	UTCOffset  string `mapstructure:"utc_offset"`
	AutoLocate bool   `mapstructure:"auto_locate"`
}

type SolarConfig struct {
	Zenith    string `mapstructure:"zenith"`
	Lookahead bool   `mapstructure:"lookahead"`
}

type TrackerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Enabled  bool          `mapstructure:"enabled"`
}

type APIConfig struct {
	Port           int  `mapstructure:"port"`
	Enabled        bool `mapstructure:"enabled"`
	RefreshSeconds int  `mapstructure:"refresh_seconds"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	Discovery   bool   `mapstructure:"discovery"`
}

type DatabaseConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Path      string        `mapstructure:"path"`
	Retention time.Duration `mapstructure:"retention"`
}

type GeolocationConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ReferenceConfig selects the web APIs used to cross-check results.
type ReferenceConfig struct {
	OpenMeteoEndpoint string `mapstructure:"openmeteo_endpoint"`
	OpenWeatherAPIKey string `mapstructure:"openweather_api_key"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

// AutoOffset reports whether the offset follows the host's zone.
func (l LocationConfig) AutoOffset() bool {
	v := strings.TrimSpace(strings.ToLower(l.UTCOffset))
	return v == "" || v == "auto"
}

// Offset parses a fixed UTC offset. It fails for "auto".
func (l LocationConfig) Offset() (float64, error) {
	if l.AutoOffset() {
		return 0, fmt.Errorf("utc_offset is auto")
	}
	hours, err := strconv.ParseFloat(strings.TrimSpace(l.UTCOffset), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid utc_offset %q: %w", l.UTCOffset, err)
	}
	if hours < -14 || hours > 14 {
		return 0, fmt.Errorf("utc_offset %v out of range [-14, 14]", hours)
	}
	return hours, nil
}

func Load(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("/etc/sunclock")
	}

	viper.SetDefault("location.name", "home")
	viper.SetDefault("location.latitude", 44.8125)
	viper.SetDefault("location.longitude", 20.4612)
	viper.SetDefault("location.utc_offset", "auto")
	viper.SetDefault("location.auto_locate", false)
	viper.SetDefault("solar.zenith", "official")
	viper.SetDefault("solar.lookahead", true)
	viper.SetDefault("tracker.interval", "1m")
	viper.SetDefault("tracker.enabled", true)
	viper.SetDefault("api.port", 8050)
	viper.SetDefault("api.enabled", true)
	viper.SetDefault("api.refresh_seconds", 1)
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.topic_prefix", "sunclock")
	viper.SetDefault("mqtt.client_id", "sunclock")
	viper.SetDefault("mqtt.discovery", true)
	viper.SetDefault("database.enabled", true)
	viper.SetDefault("database.path", "./sunclock.db")
	viper.SetDefault("database.retention", "8760h")
	viper.SetDefault("geolocation.endpoint", "http://ip-api.com/json/?fields=status,message,country,city,lat,lon,timezone")
	viper.SetDefault("geolocation.attempts", 5)
	viper.SetDefault("geolocation.delay", "1s")
	viper.SetDefault("geolocation.timeout", "10s")
	viper.SetDefault("reference.openmeteo_endpoint", "https://api.open-meteo.com/v1/forecast")
	viper.SetDefault("reference.openweather_api_key", "")
	viper.SetDefault("log.debug", false)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
