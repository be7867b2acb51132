package pattern

import (
	"math"
	"testing"

	"github.com/ayusman/twingest/internal/geom"
)

func zigzagPoints(n int, amplitude float64) []geom.Point {
	points := make([]geom.Point, n)
	for i := 0; i < n; i++ {
		y := 0.0
		if i%2 == 1 {
			y = amplitude
		}
		points[i] = geom.Point{X: float64(i * 15), Y: y, Timestamp: int64(i * 20)}
	}
	return points
}

func TestDetectZigzag(t *testing.T) {
	t.Run("detects alternating stroke", func(t *testing.T) {
		result := DetectZigzag(zigzagPoints(8, 40), DefaultZigzagOptions())

		if !result.Detected {
			t.Fatal("expected zigzag to be detected")
		}
		// Every interior sample is a reversal
		if result.Changes != 6 {
			t.Errorf("expected 6 changes, got %d", result.Changes)
		}
		if math.Abs(result.Amplitude-40) > 0.001 {
			t.Errorf("expected amplitude 40, got %f", result.Amplitude)
		}
	})

	t.Run("counts plateau peaks once", func(t *testing.T) {
		ys := []float64{0, 40, 40, 0, 0, 40, 40, 0, 0, 40, 40, 0}
		points := make([]geom.Point, len(ys))
		for i, y := range ys {
			points[i] = geom.Point{X: float64(i * 10), Y: y, Timestamp: int64(i * 10)}
		}

		result := DetectZigzag(points, DefaultZigzagOptions())
		if !result.Detected {
			t.Fatal("expected zigzag with repeated samples at the peaks to be detected")
		}
		if result.Changes != 5 {
			t.Errorf("expected 5 changes, got %d", result.Changes)
		}
		if math.Abs(result.Amplitude-40) > 0.001 {
			t.Errorf("expected amplitude 40, got %f", result.Amplitude)
		}
	})

	t.Run("rejects shallow zigzag", func(t *testing.T) {
		if DetectZigzag(zigzagPoints(8, 5), DefaultZigzagOptions()).Detected {
			t.Error("expected amplitude below threshold to be rejected")
		}
	})

	t.Run("rejects straight line", func(t *testing.T) {
		if DetectZigzag(linePoints(0, 0, 200, 0, 10, 200), DefaultZigzagOptions()).Detected {
			t.Error("expected straight line to be rejected")
		}
	})

	t.Run("rejects too few samples", func(t *testing.T) {
		if DetectZigzag(zigzagPoints(5, 40), DefaultZigzagOptions()).Detected {
			t.Error("expected fewer than MinPoints samples to be rejected")
		}
	})

	t.Run("requires enough reversals", func(t *testing.T) {
		// One reversal in a long stroke: down then up
		points := append(linePoints(0, 0, 100, 100, 6, 100), linePoints(120, 80, 200, 0, 6, 100)...)
		if DetectZigzag(points, DefaultZigzagOptions()).Detected {
			t.Error("expected a single V shape to be rejected")
		}
	})
}

func TestDetectLine(t *testing.T) {
	opts := DefaultLineOptions()

	t.Run("horizontal", func(t *testing.T) {
		result := DetectLine(linePoints(0, 0, 100, 0, 5, 100), opts)
		if !result.Detected {
			t.Fatal("expected horizontal line to be detected")
		}
		if result.Angle != 0 {
			t.Errorf("expected snapped angle 0, got %f", result.Angle)
		}
		if math.Abs(result.Length-100) > 0.001 {
			t.Errorf("expected length 100, got %f", result.Length)
		}
	})

	t.Run("snaps near diagonal", func(t *testing.T) {
		// 40 degrees is within 15 of 45
		theta := 40 * math.Pi / 180
		result := DetectLine(linePoints(0, 0, 100*math.Cos(theta), 100*math.Sin(theta), 5, 100), opts)
		if !result.Detected {
			t.Fatal("expected near-diagonal line to be detected")
		}
		if result.Angle != 45 {
			t.Errorf("expected snapped angle 45, got %f", result.Angle)
		}
	})

	t.Run("left pointing wraps to 180", func(t *testing.T) {
		result := DetectLine(linePoints(100, 0, 0, 1, 5, 100), opts)
		if !result.Detected || result.Angle != 180 {
			t.Errorf("expected left line snapped to 180, got %+v", result)
		}
	})

	t.Run("rejects angle outside tolerance", func(t *testing.T) {
		custom := LineOptions{MinLength: 10, AllowedAngles: []float64{0}, AngleTolerance: 10}
		theta := 20 * math.Pi / 180
		if DetectLine(linePoints(0, 0, 100*math.Cos(theta), 100*math.Sin(theta), 5, 100), custom).Detected {
			t.Error("expected 20 degree line to be rejected")
		}
	})

	t.Run("length window", func(t *testing.T) {
		if DetectLine(linePoints(0, 0, 30, 0, 5, 100), opts).Detected {
			t.Error("expected short line to be rejected")
		}
		bounded := opts
		bounded.MaxLength = 80
		if DetectLine(linePoints(0, 0, 100, 0, 5, 100), bounded).Detected {
			t.Error("expected line above MaxLength to be rejected")
		}
	})
}

func TestDetectPinch(t *testing.T) {
	pair := func(initial, current float64) *TouchPair {
		return &TouchPair{
			Initial: [2]geom.Point{{X: 0, Y: 0}, {X: initial, Y: 0}},
			Current: [2]geom.Point{{X: 0, Y: 0}, {X: current, Y: 0}},
		}
	}

	t.Run("spread out", func(t *testing.T) {
		result := DetectPinch(pair(100, 150), DefaultPinchOptions())
		if !result.Detected {
			t.Fatal("expected pinch out to be detected")
		}
		if math.Abs(result.Scale-1.5) > 0.001 {
			t.Errorf("expected scale 1.5, got %f", result.Scale)
		}
		if result.Direction != DirectionOut {
			t.Errorf("expected direction out, got %q", result.Direction)
		}
	})

	t.Run("squeeze in", func(t *testing.T) {
		result := DetectPinch(pair(100, 50), DefaultPinchOptions())
		if !result.Detected || result.Direction != DirectionIn {
			t.Errorf("expected pinch in, got %+v", result)
		}
	})

	t.Run("below threshold", func(t *testing.T) {
		if DetectPinch(pair(100, 110), DefaultPinchOptions()).Detected {
			t.Error("expected 10% change to be rejected")
		}
	})

	t.Run("direction filter", func(t *testing.T) {
		opts := DefaultPinchOptions()
		opts.Direction = DirectionIn
		if DetectPinch(pair(100, 150), opts).Detected {
			t.Error("expected pinch out to be rejected by an in filter")
		}
	})

	t.Run("no touches", func(t *testing.T) {
		if DetectPinch(nil, DefaultPinchOptions()).Detected {
			t.Error("expected nil pair to be rejected")
		}
		if DetectPinch(pair(0, 50), DefaultPinchOptions()).Detected {
			t.Error("expected zero initial spread to be rejected")
		}
	})

	t.Run("detector reads input touches", func(t *testing.T) {
		result, err := Pinch(DefaultPinchOptions()).Detect(Input{Touches: pair(100, 200)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.Detected {
			t.Error("expected detector to use the input touch pair")
		}
	})
}

func TestDetectSpiral(t *testing.T) {
	t.Run("outward spiral", func(t *testing.T) {
		result := DetectSpiral(spiralPoints(200, 200, 2, 60), DefaultSpiralOptions())
		if !result.Detected {
			t.Fatal("expected spiral to be detected")
		}
		if result.Direction != DirectionOutward {
			t.Errorf("expected outward spiral, got %q", result.Direction)
		}
		if math.Abs(result.Turns) < 1.5 {
			t.Errorf("expected at least 1.5 turns, got %f", result.Turns)
		}
	})

	t.Run("inward spiral", func(t *testing.T) {
		points := spiralPoints(200, 200, 2, 60)
		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
		}
		result := DetectSpiral(points, DefaultSpiralOptions())
		if !result.Detected || result.Direction != DirectionInward {
			t.Errorf("expected inward spiral, got %+v", result)
		}
	})

	t.Run("circle is not a spiral", func(t *testing.T) {
		// Two full turns at constant radius
		points := make([]geom.Point, 60)
		for i := range points {
			theta := 4 * math.Pi * float64(i) / 59
			points[i] = geom.Point{X: 200 + 80*math.Cos(theta), Y: 200 + 80*math.Sin(theta)}
		}
		if DetectSpiral(points, DefaultSpiralOptions()).Detected {
			t.Error("expected constant radius loop to be rejected")
		}
	})

	t.Run("straight line", func(t *testing.T) {
		if DetectSpiral(linePoints(0, 0, 300, 0, 20, 200), DefaultSpiralOptions()).Detected {
			t.Error("expected line to be rejected")
		}
	})
}

func TestDetectLasso(t *testing.T) {
	t.Run("closed loop", func(t *testing.T) {
		result := DetectLasso(circlePoints(100, 100, 80, 20), DefaultLassoOptions())
		if !result.Detected {
			t.Fatal("expected closed loop to be detected")
		}
		if result.Bounds == nil {
			t.Fatal("expected bounds to be reported")
		}
		if result.Bounds.Left > 21 || result.Bounds.Right < 179 {
			t.Errorf("unexpected bounds %+v", *result.Bounds)
		}
	})

	t.Run("open arc", func(t *testing.T) {
		half := circlePoints(100, 100, 80, 40)[:20]
		if DetectLasso(half, DefaultLassoOptions()).Detected {
			t.Error("expected half circle to be rejected")
		}
	})

	t.Run("tiny loop", func(t *testing.T) {
		if DetectLasso(circlePoints(100, 100, 10, 20), DefaultLassoOptions()).Detected {
			t.Error("expected loop shorter than MinLength to be rejected")
		}
	})
}

func TestDetectCross(t *testing.T) {
	t.Run("plus shape", func(t *testing.T) {
		points := linePoints(0, 50, 100, 50, 6, 100)
		points = append(points, linePoints(50, 0, 50, 100, 6, 100)...)

		result := DetectCross(points, DefaultCrossOptions())
		if !result.Detected {
			t.Fatal("expected plus to be detected")
		}
		if result.Center == nil || math.Abs(result.Center.X-50) > 0.001 || math.Abs(result.Center.Y-50) > 0.001 {
			t.Errorf("expected center (50,50), got %+v", result.Center)
		}
	})

	t.Run("x shape", func(t *testing.T) {
		points := linePoints(0, 0, 100, 100, 6, 100)
		points = append(points, linePoints(100, 0, 0, 100, 6, 100)...)

		if !DetectCross(points, DefaultCrossOptions()).Detected {
			t.Error("expected x to be detected")
		}
	})

	t.Run("single bar", func(t *testing.T) {
		if DetectCross(linePoints(0, 0, 200, 0, 12, 100), DefaultCrossOptions()).Detected {
			t.Error("expected a single horizontal bar to be rejected")
		}
	})
}

func TestClassifySegment(t *testing.T) {
	tests := []struct {
		dx, dy   float64
		expected int
	}{
		{10, 1, segHorizontal},
		{-10, 2, segHorizontal},
		{1, 10, segVertical},
		{0, -10, segVertical},
		{10, 10, segDiagonalDown},
		{-10, -9, segDiagonalDown},
		{10, -10, segDiagonalUp},
		{-8, 10, segDiagonalUp},
	}

	for _, tt := range tests {
		if got := classifySegment(tt.dx, tt.dy); got != tt.expected {
			t.Errorf("classifySegment(%f,%f) = %d, want %d", tt.dx, tt.dy, got, tt.expected)
		}
	}
}
