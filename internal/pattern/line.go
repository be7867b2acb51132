package pattern

import (
	"math"

	"github.com/ayusman/twingest/internal/geom"
)

// LineOptions configures DetectLine.
type LineOptions struct {
	MinLength      float64   `mapstructure:"minLength" json:"minLength"`
	MaxLength      float64   `mapstructure:"maxLength" json:"maxLength"` // 0 means unbounded
	AllowedAngles  []float64 `mapstructure:"allowedAngles" json:"allowedAngles"`
	AngleTolerance float64   `mapstructure:"angleTolerance" json:"angleTolerance"`
}

// DefaultLineOptions returns the options used when none are given.
func DefaultLineOptions() LineOptions {
	return LineOptions{
		MinLength:      50,
		AllowedAngles:  []float64{0, 45, 90, 135, 180, -45, -90, -135},
		AngleTolerance: 15,
	}
}

// angleDelta returns the absolute difference between two angles in degrees,
// folded into [0, 180].
func angleDelta(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// DetectLine checks the start-to-end vector against a length window and a
// set of allowed angles. The snapped angle is reported.
func DetectLine(points []geom.Point, opts LineOptions) Result {
	if len(points) < 2 {
		return NoMatch
	}

	start := points[0]
	end := points[len(points)-1]

	length := geom.Distance(start, end)
	if length < opts.MinLength {
		return NoMatch
	}
	if opts.MaxLength > 0 && length > opts.MaxLength {
		return NoMatch
	}

	angle := geom.Angle(start, end)

	best := math.Inf(1)
	var snapped float64
	for _, allowed := range opts.AllowedAngles {
		if d := angleDelta(angle, allowed); d < best {
			best = d
			snapped = allowed
		}
	}

	if best > opts.AngleTolerance {
		return NoMatch
	}

	confidence := 1.0
	if opts.AngleTolerance > 0 {
		confidence = 1 - best/(2*opts.AngleTolerance)
	}

	return Result{
		Detected:   true,
		Confidence: confidence,
		Length:     length,
		Angle:      snapped,
		Distance:   length,
	}
}

// Line returns a Detector running DetectLine with opts.
func Line(opts LineOptions) Detector {
	return pure(func(points []geom.Point) Result {
		return DetectLine(points, opts)
	})
}
