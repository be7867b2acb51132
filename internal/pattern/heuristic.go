package pattern

import (
	"math"

	"github.com/ayusman/twingest/internal/geom"
)

// The detectors in this file are best-effort heuristics over consecutive
// deltas, not exact geometric tests.

// SpiralOptions configures DetectSpiral.
type SpiralOptions struct {
	MinPoints int     `mapstructure:"minPoints" json:"minPoints"`
	MinTurns  float64 `mapstructure:"minTurns" json:"minTurns"`
	MinGrowth float64 `mapstructure:"minGrowth" json:"minGrowth"` // Outer/inner radius ratio
}

// DefaultSpiralOptions returns the options used when none are given.
func DefaultSpiralOptions() SpiralOptions {
	return SpiralOptions{
		MinPoints: 10,
		MinTurns:  1.5,
		MinGrowth: 1.5,
	}
}

// DetectSpiral sums the signed angle swept around the centroid and compares
// the mean radius of the last quarter of the stroke with the first quarter.
func DetectSpiral(points []geom.Point, opts SpiralOptions) Result {
	if len(points) < opts.MinPoints || len(points) < 4 {
		return NoMatch
	}

	center := geom.Centroid(points)

	var swept float64
	prev := math.Atan2(points[0].Y-center.Y, points[0].X-center.X)
	for _, p := range points[1:] {
		a := math.Atan2(p.Y-center.Y, p.X-center.X)
		d := a - prev
		// Unwrap into (-pi, pi]
		for d > math.Pi {
			d -= 2 * math.Pi
		}
		for d <= -math.Pi {
			d += 2 * math.Pi
		}
		swept += d
		prev = a
	}
	turns := swept / (2 * math.Pi)

	quarter := len(points) / 4
	inner := meanRadius(points[:quarter], center)
	outer := meanRadius(points[len(points)-quarter:], center)
	if inner == 0 || outer == 0 {
		return NoMatch
	}

	growth := outer / inner
	direction := DirectionOutward
	ratio := growth
	if growth < 1 {
		direction = DirectionInward
		ratio = 1 / growth
	}

	if math.Abs(turns) < opts.MinTurns || ratio < opts.MinGrowth {
		return NoMatch
	}

	return Result{
		Detected:   true,
		Confidence: math.Min(1, math.Abs(turns)/(2*opts.MinTurns)+0.5),
		Center:     &geom.Point{X: center.X, Y: center.Y},
		Turns:      turns,
		Scale:      growth,
		Direction:  direction,
	}
}

func meanRadius(points []geom.Point, center geom.Point) float64 {
	if len(points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range points {
		sum += geom.Distance(p, center)
	}
	return sum / float64(len(points))
}

// Spiral returns a Detector running DetectSpiral with opts.
func Spiral(opts SpiralOptions) Detector {
	return pure(func(points []geom.Point) Result {
		return DetectSpiral(points, opts)
	})
}

// LassoOptions configures DetectLasso.
type LassoOptions struct {
	MinPoints     int     `mapstructure:"minPoints" json:"minPoints"`
	MinLength     float64 `mapstructure:"minLength" json:"minLength"`         // Minimum path length
	CloseDistance float64 `mapstructure:"closeDistance" json:"closeDistance"` // Maximum start/end gap
}

// DefaultLassoOptions returns the options used when none are given.
func DefaultLassoOptions() LassoOptions {
	return LassoOptions{
		MinPoints:     10,
		MinLength:     150,
		CloseDistance: 40,
	}
}

// DetectLasso recognises a long stroke that returns near its start and
// reports the enclosed bounding box.
func DetectLasso(points []geom.Point, opts LassoOptions) Result {
	if len(points) < opts.MinPoints || len(points) < 3 {
		return NoMatch
	}

	gap := geom.Distance(points[0], points[len(points)-1])
	if gap > opts.CloseDistance {
		return NoMatch
	}

	length := geom.PathLength(points)
	if length < opts.MinLength {
		return NoMatch
	}

	bounds := geom.Bounds(points)
	confidence := 1.0
	if opts.CloseDistance > 0 {
		confidence = 1 - 0.5*gap/opts.CloseDistance
	}

	return Result{
		Detected:   true,
		Confidence: confidence,
		Length:     length,
		Bounds:     &bounds,
		Area:       bounds.Width() * bounds.Height(),
	}
}

// Lasso returns a Detector running DetectLasso with opts.
func Lasso(opts LassoOptions) Detector {
	return pure(func(points []geom.Point) Result {
		return DetectLasso(points, opts)
	})
}

// CrossOptions configures DetectCross.
type CrossOptions struct {
	MinSegments      int     `mapstructure:"minSegments" json:"minSegments"`
	MinSegmentLength float64 `mapstructure:"minSegmentLength" json:"minSegmentLength"`
}

// DefaultCrossOptions returns the options used when none are given.
func DefaultCrossOptions() CrossOptions {
	return CrossOptions{
		MinSegments:      3,
		MinSegmentLength: 2,
	}
}

// segment buckets for DetectCross
const (
	segHorizontal = iota
	segVertical
	segDiagonalDown
	segDiagonalUp
	segCount
)

// classifySegment buckets a delta. A segment is horizontal when its vertical
// travel is under half the horizontal travel, and vice versa.
func classifySegment(dx, dy float64) int {
	ax, ay := math.Abs(dx), math.Abs(dy)
	switch {
	case ay < ax*0.5:
		return segHorizontal
	case ax < ay*0.5:
		return segVertical
	case dx*dy > 0:
		return segDiagonalDown
	default:
		return segDiagonalUp
	}
}

// DetectCross approximates a "+" or "x" drawn in one stroke by counting
// segments per orientation. Both arms of either shape must be present.
func DetectCross(points []geom.Point, opts CrossOptions) Result {
	if len(points) < 2*opts.MinSegments+1 {
		return NoMatch
	}

	var counts [segCount]int
	total := 0
	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		dy := points[i].Y - points[i-1].Y
		if math.Hypot(dx, dy) < opts.MinSegmentLength {
			continue
		}
		counts[classifySegment(dx, dy)]++
		total++
	}
	if total == 0 {
		return NoMatch
	}

	plus := counts[segHorizontal] >= opts.MinSegments && counts[segVertical] >= opts.MinSegments
	diagonal := counts[segDiagonalDown] >= opts.MinSegments && counts[segDiagonalUp] >= opts.MinSegments
	if !plus && !diagonal {
		return NoMatch
	}

	var arms int
	if plus {
		arms = counts[segHorizontal] + counts[segVertical]
	} else {
		arms = counts[segDiagonalDown] + counts[segDiagonalUp]
	}

	bounds := geom.Bounds(points)
	center := geom.Point{X: bounds.Left + bounds.Width()/2, Y: bounds.Top + bounds.Height()/2}

	return Result{
		Detected:   true,
		Confidence: float64(arms) / float64(total),
		Center:     &center,
		Bounds:     &bounds,
	}
}

// Cross returns a Detector running DetectCross with opts.
func Cross(opts CrossOptions) Detector {
	return pure(func(points []geom.Point) Result {
		return DetectCross(points, opts)
	})
}
