package dimen

import (
	"math"
	"testing"
)

func TestHorizontalQuantizationDoesNotAccumulate(t *testing.T) {
	// 100-dot columns: 0, 100, 200 → 0, 17, 33 units → 0, 102, 198 dots
	want := []struct {
		units int
		dots  Dots
	}{{0, 0}, {17, 102}, {33, 198}}
	for i, w := range want {
		x := Dots(i * 100)
		u := HorizontalUnits(x)
		if u != w.units {
			t.Fatalf("column %d: units = %d, want %d", i, u, w.units)
		}
		if back := FromHorizontalUnits(u); back != w.dots {
			t.Fatalf("column %d: dots = %v, want %v", i, back, w.dots)
		}
		if drift := math.Abs(float64(FromHorizontalUnits(u) - x)); drift > float64(DotsPerHorizontalUnit)/2 {
			t.Fatalf("column %d: drift %g exceeds half a unit", i, drift)
		}
	}
}

func TestVerticalUnits(t *testing.T) {
	cases := []struct {
		in   Dots
		want int
	}{{0, 0}, {30, 15}, {31, 16}, {1, 1}, {0.9, 0}, {-10, 0}, {510, 255}}
	for _, c := range cases {
		if got := VerticalUnits(c.in); got != c.want {
			t.Errorf("VerticalUnits(%v) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Dots
	}{
		{"30", 30},
		{"1in", 360},
		{"25.4mm", 360},
		{"2.54cm", 360},
		{"72pt", 360},
		{" 12 dots ", 12},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", c.in, err)
		}
		if math.Abs(float64(got-c.want)) > 1e-9 {
			t.Errorf("Parse(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := Parse("wide"); err == nil {
		t.Fatalf("Parse(wide) should fail")
	}
}

func TestRectInsetClampsToZero(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 20, Height: 5}.Inset(4, 15, 4, 15)
	if r.Width != 0 || r.Height != 0 {
		t.Fatalf("inset should clamp negative sizes, got %+v", r)
	}
	if r.X != 25 || r.Y != 14 {
		t.Fatalf("inset origin = (%v,%v)", r.X, r.Y)
	}
}
