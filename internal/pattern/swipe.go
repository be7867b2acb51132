package pattern

import (
	"math"

	"github.com/ayusman/twingest/internal/geom"
)

const (
	// minSwipePoints is the sample floor of the stroke swipe detector.
	minSwipePoints = 3
	// minNativeSwipePoints is the sample floor of the frame-driven variant.
	minNativeSwipePoints = 2
)

// SwipeOptions configures DetectSwipe.
type SwipeOptions struct {
	MinDistance float64   `mapstructure:"minDistance" json:"minDistance"`
	MaxTime     int64     `mapstructure:"maxTime" json:"maxTime"`     // Milliseconds
	Direction   Direction `mapstructure:"direction" json:"direction"` // Required bucket, empty for any
	MinPoints   int       `mapstructure:"minPoints" json:"minPoints"`
}

// DefaultSwipeOptions returns the options used when none are given.
func DefaultSwipeOptions() SwipeOptions {
	return SwipeOptions{
		MinDistance: 50,
		MaxTime:     500,
		MinPoints:   minSwipePoints,
	}
}

// DefaultNativeSwipeOptions returns swipe defaults for continuous evaluation,
// where two samples are enough.
func DefaultNativeSwipeOptions() SwipeOptions {
	opts := DefaultSwipeOptions()
	opts.MinPoints = minNativeSwipePoints
	return opts
}

// SwipeDirection buckets an angle in degrees into one of four directions.
// Thresholds are hard: 44 degrees is right and 46 degrees is down.
func SwipeDirection(angle float64) Direction {
	switch {
	case angle > -45 && angle <= 45:
		return DirectionRight
	case angle > 45 && angle <= 135:
		return DirectionDown
	case angle > 135 || angle <= -135:
		return DirectionLeft
	default:
		return DirectionUp
	}
}

// DetectSwipe classifies a stroke as a fast straight flick.
// Only the first and last samples are considered.
func DetectSwipe(points []geom.Point, opts SwipeOptions) Result {
	minPoints := opts.MinPoints
	if minPoints < minNativeSwipePoints {
		minPoints = minNativeSwipePoints
	}
	if len(points) < minPoints {
		return NoMatch
	}

	start := points[0]
	end := points[len(points)-1]

	distance := geom.Distance(start, end)
	duration := end.Timestamp - start.Timestamp

	if distance < opts.MinDistance || duration > opts.MaxTime {
		return NoMatch
	}

	direction := SwipeDirection(geom.Angle(start, end))
	if opts.Direction != DirectionNone && opts.Direction != direction {
		return NoMatch
	}

	var velocity float64
	if duration > 0 {
		velocity = distance / float64(duration)
	}

	// Confidence saturates at twice the minimum distance
	confidence := 1.0
	if opts.MinDistance > 0 {
		confidence = math.Min(1, 0.5+0.5*(distance-opts.MinDistance)/opts.MinDistance)
	}

	return Result{
		Detected:   true,
		Confidence: confidence,
		Direction:  direction,
		Distance:   distance,
		Duration:   duration,
		Velocity:   velocity,
		Angle:      geom.Angle(start, end),
	}
}

// Swipe returns a Detector running DetectSwipe with opts.
func Swipe(opts SwipeOptions) Detector {
	return pure(func(points []geom.Point) Result {
		return DetectSwipe(points, opts)
	})
}
