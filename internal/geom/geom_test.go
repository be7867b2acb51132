package geom

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 3, Y: 4}

	dist := Distance(a, b)

	// Should be 5 (3-4-5 triangle)
	if math.Abs(dist-5.0) > 0.0001 {
		t.Errorf("expected distance 5, got %f", dist)
	}
}

func TestAngle(t *testing.T) {
	tests := []struct {
		name     string
		to       Point
		expected float64
	}{
		{"right", Point{X: 10, Y: 0}, 0},
		{"down", Point{X: 0, Y: 10}, 90},
		{"left", Point{X: -10, Y: 0}, 180},
		{"up", Point{X: 0, Y: -10}, -90},
		{"diagonal", Point{X: 10, Y: 10}, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(Point{}, tt.to)
			if math.Abs(got-tt.expected) > 0.0001 {
				t.Errorf("Angle() = %f, want %f", got, tt.expected)
			}
		})
	}
}

func TestCentroid(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 10, Y: 10},
		{X: 0, Y: 10},
	}

	c := Centroid(points)
	if c.X != 5 || c.Y != 5 {
		t.Errorf("expected centroid (5,5), got (%f,%f)", c.X, c.Y)
	}

	empty := Centroid(nil)
	if empty.X != 0 || empty.Y != 0 {
		t.Errorf("expected origin for empty input, got (%f,%f)", empty.X, empty.Y)
	}
}

func TestBounds(t *testing.T) {
	points := []Point{
		{X: 5, Y: 7},
		{X: -3, Y: 2},
		{X: 12, Y: 20},
	}

	b := Bounds(points)
	expected := Rect{Top: 2, Left: -3, Right: 12, Bottom: 20}
	if b != expected {
		t.Errorf("Bounds() = %+v, want %+v", b, expected)
	}

	if b.Width() != 15 || b.Height() != 18 {
		t.Errorf("unexpected size %fx%f", b.Width(), b.Height())
	}
}

func TestRect_Contains(t *testing.T) {
	r := Rect{Top: 0, Left: 0, Right: 100, Bottom: 100}

	if !r.Contains(Point{X: 50, Y: 50}) {
		t.Error("expected inner point to be contained")
	}
	if !r.Contains(Point{X: 100, Y: 0}) {
		t.Error("expected edge point to be contained")
	}
	if r.Contains(Point{X: 150, Y: 50}) {
		t.Error("expected outside point not to be contained")
	}

	inside := []Point{{X: 1, Y: 1}, {X: 99, Y: 99}}
	if !r.ContainsAll(inside) {
		t.Error("expected all points to be contained")
	}

	mixed := []Point{{X: 1, Y: 1}, {X: 150, Y: 50}}
	if r.ContainsAll(mixed) {
		t.Error("expected a single outside point to fail containment")
	}
}

func TestPathLength(t *testing.T) {
	points := []Point{
		{X: 0, Y: 0},
		{X: 3, Y: 4},
		{X: 3, Y: 10},
	}

	if got := PathLength(points); math.Abs(got-11) > 0.0001 {
		t.Errorf("PathLength() = %f, want 11", got)
	}

	if got := PathLength(points[:1]); got != 0 {
		t.Errorf("PathLength() of single point = %f, want 0", got)
	}
}

func TestDuration(t *testing.T) {
	points := []Point{
		{Timestamp: 1000},
		{Timestamp: 1100},
		{Timestamp: 1250},
	}

	if got := Duration(points); got != 250 {
		t.Errorf("Duration() = %d, want 250", got)
	}
	if got := Duration(points[:1]); got != 0 {
		t.Errorf("Duration() of single point = %d, want 0", got)
	}
}

func TestNormalize(t *testing.T) {
	path := []Point{
		{X: 10, Y: 20, Timestamp: 0},
		{X: 20, Y: 40, Timestamp: 100},
		{X: 30, Y: 60, Timestamp: 200},
	}

	normalized := Normalize(path)

	if len(normalized) != 3 {
		t.Fatalf("expected 3 points, got %d", len(normalized))
	}

	if normalized[0].X != 0 || normalized[0].Y != 0 {
		t.Errorf("first point should be (0,0), got (%f,%f)", normalized[0].X, normalized[0].Y)
	}
	if normalized[2].X != 1 || normalized[2].Y != 1 {
		t.Errorf("last point should be (1,1), got (%f,%f)", normalized[2].X, normalized[2].Y)
	}
	if normalized[1].Timestamp != 100 {
		t.Errorf("timestamps should be preserved, got %d", normalized[1].Timestamp)
	}

	if Normalize(nil) != nil {
		t.Error("expected nil for nil path")
	}

	single := Normalize([]Point{{X: 5, Y: 5, Timestamp: 7}})
	if len(single) != 1 || single[0].X != 0 || single[0].Timestamp != 7 {
		t.Errorf("unexpected single point normalization: %+v", single)
	}
}

func TestResample(t *testing.T) {
	path := []Point{
		{X: 0, Y: 0, Timestamp: 0},
		{X: 10, Y: 0, Timestamp: 100},
	}

	resampled := Resample(path, 5)
	if len(resampled) != 5 {
		t.Fatalf("expected 5 points, got %d", len(resampled))
	}

	expectedX := []float64{0, 2.5, 5, 7.5, 10}
	for i, x := range expectedX {
		if math.Abs(resampled[i].X-x) > 0.0001 {
			t.Errorf("point %d: expected X=%f, got %f", i, x, resampled[i].X)
		}
	}

	if resampled[2].Timestamp != 50 {
		t.Errorf("expected interpolated timestamp 50, got %d", resampled[2].Timestamp)
	}

	if Resample(nil, 5) != nil {
		t.Error("expected nil for empty path")
	}
	if got := Resample(path, 1); len(got) != 1 {
		t.Errorf("expected 1 point for target length 1, got %d", len(got))
	}
}
