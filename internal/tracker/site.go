package tracker

import (
	"time"

	"sunclock/config"
	"sunclock/internal/clock"
	"sunclock/internal/solar"
)

// Site is the place the tracker follows.
type Site struct {
	Name      string
	Latitude  float64
	Longitude float64
	// UTCOffset is used unless AutoOffset is set, in which case the
	// host's current offset is taken on every refresh.
	UTCOffset  float64
	AutoOffset bool
	Zenith     solar.Zenith
	Lookahead  bool
}

// Offset returns the UTC offset in hours in effect at t.
func (s Site) Offset(t time.Time) float64 {
	if s.AutoOffset {
		return clock.LocalOffset(t)
	}
	return s.UTCOffset
}

// SiteFromConfig builds the tracked site from the location and solar
// sections.
func SiteFromConfig(location config.LocationConfig, solarCfg config.SolarConfig) (Site, error) {
	site := Site{
		Name:       location.Name,
		Latitude:   location.Latitude,
		Longitude:  location.Longitude,
		AutoOffset: location.AutoOffset(),
		Zenith:     solar.ParseZenith(solarCfg.Zenith),
		Lookahead:  solarCfg.Lookahead,
	}
	if !site.AutoOffset {
		offset, err := location.Offset()
		if err != nil {
			return Site{}, err
		}
		site.UTCOffset = offset
	}
	return site, nil
}
