package pattern

import (
	"math"

	"github.com/ayusman/twingest/internal/geom"
)

// ZigzagOptions configures DetectZigzag.
type ZigzagOptions struct {
	MinPoints int     `mapstructure:"minPoints" json:"minPoints"`
	Amplitude float64 `mapstructure:"amplitude" json:"amplitude"` // Minimum average swing in pixels
}

// DefaultZigzagOptions returns the options used when none are given.
func DefaultZigzagOptions() ZigzagOptions {
	return ZigzagOptions{
		MinPoints: 6,
		Amplitude: 20,
	}
}

// DetectZigzag counts vertical direction reversals along the stroke. Flat
// runs carry the previous direction, so a plateau peak reverses once.
// Each reversal contributes the vertical travel of the run leading into it.
// Detected iff changes >= MinPoints/2 and the average amplitude reaches Amplitude.
func DetectZigzag(points []geom.Point, opts ZigzagOptions) Result {
	if len(points) < opts.MinPoints || len(points) < 3 {
		return NoMatch
	}

	changes := 0
	var totalAmplitude, run float64
	dir := 0

	for i := 1; i < len(points); i++ {
		dy := points[i].Y - points[i-1].Y
		if dy == 0 {
			continue
		}
		d := 1
		if dy < 0 {
			d = -1
		}
		if dir != 0 && d != dir {
			changes++
			totalAmplitude += run
			run = 0
		}
		dir = d
		run += math.Abs(dy)
	}

	if changes == 0 {
		return NoMatch
	}

	avgAmplitude := totalAmplitude / float64(changes)
	if float64(changes) < float64(opts.MinPoints)/2 || avgAmplitude < opts.Amplitude {
		return NoMatch
	}

	return Result{
		Detected:   true,
		Confidence: math.Min(1, float64(changes)/float64(len(points)-2)+0.5),
		Changes:    changes,
		Amplitude:  avgAmplitude,
	}
}

// Zigzag returns a Detector running DetectZigzag with opts.
func Zigzag(opts ZigzagOptions) Detector {
	return pure(func(points []geom.Point) Result {
		return DetectZigzag(points, opts)
	})
}
