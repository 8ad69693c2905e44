// Package dimen defines device dimensions for a 360 DPI dot-matrix printer.
//
// All layout geometry is kept in (possibly fractional) dots and only rounded
// when a value is quantized into a device command unit.
package dimen

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dots is a length in printer dots (1/360 inch).
type Dots float64

// Device resolution and native command units.
const (
	DPI = 360

	// DotsPerHorizontalUnit: ESC $ addresses the line in 1/60" units.
	DotsPerHorizontalUnit Dots = DPI / 60
	// DotsPerVerticalUnit: ESC J advances the paper in 1/180" units.
	DotsPerVerticalUnit Dots = DPI / 180
	// DotsPerCharSpacingUnit: ESC SP sets extra character spacing in 1/120" units.
	DotsPerCharSpacingUnit Dots = DPI / 120

	// DefaultLineSpacing is the power-on line spacing of 1/6 inch.
	DefaultLineSpacing Dots = DPI / 6
)

// Common lengths.
const (
	Zero Dots = 0
	IN   Dots = DPI
	MM   Dots = DPI / 25.4
	CM   Dots = 10 * MM
	PT   Dots = DPI / 72.0
)

// String implements fmt.Stringer.
func (d Dots) String() string {
	return strconv.FormatFloat(float64(d), 'f', -1, 64) + "dt"
}

// Inches returns d in inches.
func (d Dots) Inches() float64 { return float64(d) / DPI }

// Millimeters returns d in millimeters.
func (d Dots) Millimeters() float64 { return float64(d) / float64(MM) }

// Round rounds d to the nearest whole dot, halves away from zero.
func (d Dots) Round() Dots { return Dots(math.Round(float64(d))) }

// NonNegative clamps negative values to zero.
func (d Dots) NonNegative() Dots {
	if d < 0 || math.IsNaN(float64(d)) {
		return 0
	}
	return d
}

// HorizontalUnits quantizes an absolute horizontal position into 1/60" units.
// This is the single rounding step applied to horizontal geometry.
func HorizontalUnits(d Dots) int {
	return int(math.Round(float64(d.NonNegative() / DotsPerHorizontalUnit)))
}

// FromHorizontalUnits converts 1/60" units back to dots.
func FromHorizontalUnits(n int) Dots { return Dots(n) * DotsPerHorizontalUnit }

// VerticalUnits quantizes a relative vertical advance into 1/180" units.
func VerticalUnits(d Dots) int {
	return int(math.Round(float64(d.NonNegative() / DotsPerVerticalUnit)))
}

// FromVerticalUnits converts 1/180" units back to dots.
func FromVerticalUnits(n int) Dots { return Dots(n) * DotsPerVerticalUnit }

// Min returns the smaller of two dimensions.
func Min(a, b Dots) Dots {
	if a < b {
		return a
	}
	return b
}

// Max returns the greater of two dimensions.
func Max(a, b Dots) Dots {
	if a > b {
		return a
	}
	return b
}

// Point is a position in dots.
type Point struct {
	X, Y Dots
}

// Origin is the top-left corner of a page.
var Origin = Point{0, 0}

// Add returns p shifted by q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Rect is an axis-aligned rectangle given by its top-left corner and size.
type Rect struct {
	X, Y          Dots
	Width, Height Dots
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() Dots { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() Dots { return r.Y + r.Height }

// Inset shrinks r by the given edges, never producing a negative size.
func (r Rect) Inset(top, right, bottom, left Dots) Rect {
	return Rect{
		X:      r.X + left,
		Y:      r.Y + top,
		Width:  (r.Width - left - right).NonNegative(),
		Height: (r.Height - top - bottom).NonNegative(),
	}
}

// ---------------------------------------------------------------------------

// Parse parses a length such as "30", "2.5mm", "1in", "12pt" or "0.5cm".
// Numbers without a unit are dots.
func Parse(value string) (Dots, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return 0, fmt.Errorf("dimen: empty length")
	}
	scale := Dots(1)
	for _, suf := range []struct {
		s     string
		scale Dots
	}{{"dots", 1}, {"dt", 1}, {"mm", MM}, {"cm", CM}, {"in", IN}, {"pt", PT}} {
		if strings.HasSuffix(v, suf.s) {
			scale = suf.scale
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("dimen: invalid length %q", value)
	}
	return Dots(f) * scale, nil
}
