package layout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ByLCY/dotpaper/dimen"
)

// This file defines size specifications: number | 'auto' | 'fill' | 'N%'.

// SizeKind tells how a Size is resolved.
type SizeKind int

const (
	SizeAuto    SizeKind = iota // natural size from content
	SizeFixed                   // Value in dots
	SizeFill                    // remaining space of the parent
	SizePercent                 // Value in percent of the nearest definite ancestor
)

// Size preserves the author's sizing intent until layout resolves it.
type Size struct {
	Kind  SizeKind `json:"kind"`
	Value float64  `json:"value,omitempty"`
}

// Auto, Fill, Fixed and Percent construct size specs.
var (
	Auto = Size{Kind: SizeAuto}
	Fill = Size{Kind: SizeFill}
)

func Fixed(d dimen.Dots) Size  { return Size{Kind: SizeFixed, Value: float64(d)} }
func Percent(p float64) Size   { return Size{Kind: SizePercent, Value: p} }
func (s Size) IsAuto() bool    { return s.Kind == SizeAuto }
func (s Size) IsFill() bool    { return s.Kind == SizeFill }
func (s Size) IsFixed() bool   { return s.Kind == SizeFixed }
func (s Size) IsPercent() bool { return s.Kind == SizePercent }

// Resolve returns the size in dots against a reference length.
// ok is false when the size cannot be resolved (auto, fill or a percentage without reference).
func (s Size) Resolve(reference dimen.Dots, definite bool) (dimen.Dots, bool) {
	switch s.Kind {
	case SizeFixed:
		return dimen.Dots(s.Value).NonNegative(), true
	case SizePercent:
		if !definite {
			return 0, false
		}
		return (reference * dimen.Dots(s.Value) / 100).NonNegative(), true
	case SizeFill:
		if !definite {
			return 0, false
		}
		return reference.NonNegative(), true
	}
	return 0, false
}

// String returns the DSL representation.
func (s Size) String() string {
	switch s.Kind {
	case SizeFixed:
		return strconv.FormatFloat(s.Value, 'f', -1, 64)
	case SizePercent:
		return strconv.FormatFloat(s.Value, 'f', -1, 64) + "%"
	case SizeFill:
		return "fill"
	default:
		return "auto"
	}
}

// ParseSize parses "auto", "fill", "50%" or a length such as "30", "12mm", "1in".
func ParseSize(value string) (Size, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "", "auto":
		return Auto, nil
	case "fill":
		return Fill, nil
	}
	if strings.HasSuffix(v, "%") {
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, "%")), 64)
		if err != nil {
			return Auto, fmt.Errorf("无效的百分比尺寸 %q", value)
		}
		return Percent(f), nil
	}
	d, err := dimen.Parse(v)
	if err != nil {
		return Auto, fmt.Errorf("无效的尺寸 %q", value)
	}
	return Fixed(d), nil
}

// clamp applies min/max specs to a resolved size.
func clamp(v dimen.Dots, min, max Size, reference dimen.Dots, definite bool) dimen.Dots {
	if m, ok := max.Resolve(reference, definite); ok && !max.IsFill() && v > m {
		v = m
	}
	if m, ok := min.Resolve(reference, definite); ok && !min.IsFill() && v < m {
		v = m
	}
	return v.NonNegative()
}
