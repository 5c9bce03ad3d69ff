package solar

import (
	"math"
	"strconv"
	"strings"
)

const (
	Official     = "official"
	Civil        = "civil"
	Nautical     = "nautical"
	Astronomical = "astronomical"
)

var zenithAngles = map[string]float64{
	Official:     90.833333,
	Civil:        96,
	Nautical:     102,
	Astronomical: 108,
}

type zenithKind uint8

const (
	zenithDefault zenithKind = iota
	zenithNamed
	zenithRaw
)

// Zenith selects the sun's distance from vertical that counts as sunrise
// and sunset, either by category name or as an explicit angle. The zero
// value is the official zenith.
type Zenith struct {
	kind    zenithKind
	name    string
	degrees float64
}

func Named(name string) Zenith {
	return Zenith{kind: zenithNamed, name: name}
}

func Raw(degrees float64) Zenith {
	return Zenith{kind: zenithRaw, degrees: degrees}
}

// ParseZenith accepts a category name or a number of degrees. Other text is
// kept as an unknown category, which resolves to NaN.
func ParseZenith(s string) Zenith {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zenith{}
	}
	if _, ok := zenithAngles[strings.ToLower(s)]; ok {
		return Named(strings.ToLower(s))
	}
	if deg, err := strconv.ParseFloat(s, 64); err == nil {
		return Raw(deg)
	}
	return Named(s)
}

// Degrees resolves the zenith to an angle.
func (z Zenith) Degrees() float64 {
	switch z.kind {
	case zenithRaw:
		return z.degrees
	case zenithNamed:
		if deg, ok := zenithAngles[z.name]; ok {
			return deg
		}
		return math.NaN()
	default:
		return zenithAngles[Official]
	}
}

func (z Zenith) IsRaw() bool {
	return z.kind == zenithRaw
}

func (z Zenith) String() string {
	switch z.kind {
	case zenithRaw:
		return strconv.FormatFloat(z.degrees, 'f', -1, 64)
	case zenithNamed:
		return z.name
	default:
		return Official
	}
}
