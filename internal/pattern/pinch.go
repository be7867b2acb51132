package pattern

import (
	"math"

	"github.com/ayusman/twingest/internal/geom"
)

// PinchOptions configures DetectPinch.
type PinchOptions struct {
	Threshold float64   `mapstructure:"threshold" json:"threshold"` // Minimum |1 - scale|
	Direction Direction `mapstructure:"direction" json:"direction"` // "in", "out" or empty for both
}

// DefaultPinchOptions returns the options used when none are given.
func DefaultPinchOptions() PinchOptions {
	return PinchOptions{Threshold: 0.2}
}

// DetectPinch compares the current finger spread with the initial one.
// scale = current distance / initial distance.
func DetectPinch(pair *TouchPair, opts PinchOptions) Result {
	if pair == nil {
		return NoMatch
	}

	initial := geom.Distance(pair.Initial[0], pair.Initial[1])
	current := geom.Distance(pair.Current[0], pair.Current[1])
	if initial == 0 {
		return NoMatch
	}

	scale := current / initial
	delta := math.Abs(1 - scale)
	if delta < opts.Threshold {
		return NoMatch
	}

	direction := DirectionOut
	if scale < 1 {
		direction = DirectionIn
	}
	if opts.Direction != DirectionNone && opts.Direction != direction {
		return NoMatch
	}

	center := geom.Centroid(pair.Current[:])

	return Result{
		Detected:   true,
		Confidence: math.Min(1, delta/(2*math.Max(opts.Threshold, 0.01))+0.5),
		Scale:      scale,
		Direction:  direction,
		Center:     &center,
		Distance:   current,
	}
}

// Pinch returns a Detector running DetectPinch on the input's touch pair.
func Pinch(opts PinchOptions) Detector {
	return DetectorFunc(func(in Input) (Result, error) {
		return DetectPinch(in.Touches, opts), nil
	})
}
