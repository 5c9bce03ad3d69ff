package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		// an explicit missing file is an error, not a ConfigFileNotFoundError
		t.Fatalf("Load() with missing explicit file returned %+v", cfg)
	}

	viper.Reset()
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(wd)

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Location.AutoOffset() {
		t.Errorf("utc_offset = %q, want auto", cfg.Location.UTCOffset)
	}
	if cfg.Solar.Zenith != "official" || !cfg.Solar.Lookahead {
		t.Errorf("solar = %+v", cfg.Solar)
	}
	if cfg.Tracker.Interval != time.Minute || cfg.API.RefreshSeconds != 1 {
		t.Errorf("tracker/api = %+v / %+v", cfg.Tracker, cfg.API)
	}
	if cfg.Geolocation.Attempts != 5 || cfg.Geolocation.Delay != time.Second {
		t.Errorf("geolocation = %+v", cfg.Geolocation)
	}
}

func TestLoad_File(t *testing.T) {
	viper.Reset()
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
location:
  latitude: 19.076
  longitude: 72.8777
  utc_offset: "5.5"
solar:
  zenith: civil
  lookahead: false
database:
  retention: 720h
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Location.Latitude != 19.076 || cfg.Location.Longitude != 72.8777 {
		t.Errorf("location = %+v", cfg.Location)
	}
	offset, err := cfg.Location.Offset()
	if err != nil || offset != 5.5 {
		t.Errorf("Offset() = %v, %v", offset, err)
	}
	if cfg.Solar.Zenith != "civil" || cfg.Solar.Lookahead {
		t.Errorf("solar = %+v", cfg.Solar)
	}
	if cfg.Database.Retention != 720*time.Hour {
		t.Errorf("retention = %v", cfg.Database.Retention)
	}
}

func TestLocationOffset(t *testing.T) {
	tests := []struct {
		in      string
		auto    bool
		want    float64
		wantErr bool
	}{
		{"auto", true, 0, true},
		{"", true, 0, true},
		{"2", false, 2, false},
		{"-3.5", false, -3.5, false},
		{"15", false, 0, true},
		{"east", false, 0, true},
	}
	for _, tt := range tests {
		l := LocationConfig{UTCOffset: tt.in}
		if l.AutoOffset() != tt.auto {
			t.Errorf("AutoOffset(%q) = %v", tt.in, !tt.auto)
		}
		got, err := l.Offset()
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Offset(%q) = %v, %v", tt.in, got, err)
		}
	}
}
