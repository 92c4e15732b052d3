package vmath

import (
	"math"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestV2Arithmetic(t *testing.T) {
	a := V2(3, 4)
	b := V2(1, -2)

	if got := V2Add(a, b); got != V2(4, 2) {
		t.Errorf("V2Add = %v, want {4 2}", got)
	}
	if got := V2Sub(a, b); got != V2(2, 6) {
		t.Errorf("V2Sub = %v, want {2 6}", got)
	}
	if got := V2Scale(a, 2); got != V2(6, 8) {
		t.Errorf("V2Scale = %v, want {6 8}", got)
	}
	if got := V2Mag(a); !near(got, 5) {
		t.Errorf("V2Mag = %f, want 5", got)
	}
	if got := V2DistSq(a, b); !near(got, 40) {
		t.Errorf("V2DistSq = %f, want 40", got)
	}
}

func TestV2NormalizeZeroSafe(t *testing.T) {
	if got := V2Normalize(Vec2{}); got != (Vec2{}) {
		t.Errorf("Expected zero vector, got %v", got)
	}
	n := V2Normalize(V2(0, -7))
	if !near(n.X, 0) || !near(n.Y, -1) {
		t.Errorf("Expected {0 -1}, got %v", n)
	}
}

func TestV2Rotate(t *testing.T) {
	r := V2Rotate(V2(1, 0), math.Pi/2)
	if !near(r.X, 0) || !near(r.Y, 1) {
		t.Errorf("Expected {0 1}, got %v", r)
	}
	f := V2FromAngle(math.Pi)
	if !near(f.X, -1) || !near(f.Y, 0) {
		t.Errorf("Expected {-1 0}, got %v", f)
	}
}

func TestV2Inside(t *testing.T) {
	cases := []struct {
		v    Vec2
		want bool
	}{
		{V2(0, 0), true},
		{V2(9.99, 4.99), true},
		{V2(10, 1), false},
		{V2(-0.1, 1), false},
		{V2(1, 5), false},
	}
	for _, c := range cases {
		if got := V2Inside(c.v, 10, 5); got != c.want {
			t.Errorf("V2Inside(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}
