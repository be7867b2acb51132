package pattern

import (
	"math"

	"github.com/ayusman/twingest/internal/geom"
)

// minCirclePoints is the fewest samples a circle verdict is computed from.
const minCirclePoints = 8

// CircleOptions configures DetectCircle.
type CircleOptions struct {
	MinRadius float64 `mapstructure:"minRadius" json:"minRadius"`
	MaxRadius float64 `mapstructure:"maxRadius" json:"maxRadius"`
	Tolerance float64 `mapstructure:"tolerance" json:"tolerance"` // Allowed radius spread, 0-1
}

// DefaultCircleOptions returns the options used when none are given.
func DefaultCircleOptions() CircleOptions {
	return CircleOptions{
		MinRadius: 20,
		MaxRadius: 500,
		Tolerance: 0.3,
	}
}

// DetectCircle tests whether the stroke keeps a near-constant distance from
// its centroid.
//
// Algorithm:
// 1. Compute the centroid of all samples
// 2. Radius of each sample = distance to centroid
// 3. Average radius must lie in [MinRadius, MaxRadius]
// 4. consistency = 1 - stddev(radii)/avgRadius (population variance)
// 5. Detected iff consistency > 1 - Tolerance; confidence = consistency
//
// The test is invariant to rotation and to where the stroke starts.
func DetectCircle(points []geom.Point, opts CircleOptions) Result {
	if len(points) < minCirclePoints {
		return NoMatch
	}

	center := geom.Centroid(points)

	radii := make([]float64, len(points))
	var sum float64
	for i, p := range points {
		radii[i] = geom.Distance(p, center)
		sum += radii[i]
	}
	avgRadius := sum / float64(len(radii))

	if avgRadius < opts.MinRadius || avgRadius > opts.MaxRadius || avgRadius == 0 {
		return NoMatch
	}

	var variance float64
	for _, r := range radii {
		d := r - avgRadius
		variance += d * d
	}
	variance /= float64(len(radii))

	consistency := 1 - math.Sqrt(variance)/avgRadius
	if consistency <= 1-opts.Tolerance {
		return NoMatch
	}

	return Result{
		Detected:   true,
		Confidence: consistency,
		Center:     &geom.Point{X: center.X, Y: center.Y},
		Radius:     avgRadius,
		Area:       math.Pi * avgRadius * avgRadius,
	}
}

// Circle returns a Detector running DetectCircle with opts.
func Circle(opts CircleOptions) Detector {
	return pure(func(points []geom.Point) Result {
		return DetectCircle(points, opts)
	})
}
