package chart

import (
	"fmt"
	"math"
	"strings"
)

// Point is a position in a unit box centred on the origin, y pointing down.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polar maps a dial angle (0 at the top, clockwise) and radius to a point.
func Polar(theta, r float64) Point {
	rad := theta * math.Pi / 180
	return Point{X: r * math.Sin(rad), Y: -r * math.Cos(rad)}
}

// ArcPath is an SVG path for the ring sector between two angles.
func ArcPath(from, to, inner, outer float64) string {
	if to < from {
		from, to = to, from
	}
	sweep := to - from
	if sweep >= 360 {
		// a full ring cannot be drawn as a single arc
		to = from + 359.999
		sweep = to - from
	}
	large := 0
	if sweep > 180 {
		large = 1
	}

	o1, o2 := Polar(from, outer), Polar(to, outer)
	i1, i2 := Polar(to, inner), Polar(from, inner)

	var b strings.Builder
	fmt.Fprintf(&b, "M %s ", coord(o1))
	fmt.Fprintf(&b, "A %g %g 0 %d 1 %s ", outer, outer, large, coord(o2))
	fmt.Fprintf(&b, "L %s ", coord(i1))
	fmt.Fprintf(&b, "A %g %g 0 %d 0 %s Z", inner, inner, large, coord(i2))
	return b.String()
}

func coord(p Point) string {
	return fmt.Sprintf("%.4f %.4f", p.X, p.Y)
}
