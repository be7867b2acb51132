package pattern

import (
	"math"

	"github.com/ayusman/twingest/internal/geom"
)

// PathOptions configures a template path detector.
type PathOptions struct {
	Template  []geom.Point `mapstructure:"template" json:"template"`
	Tolerance float64      `mapstructure:"tolerance" json:"tolerance"` // Maximum normalized DTW distance
	MinPoints int          `mapstructure:"minPoints" json:"minPoints"`
}

// DefaultPathOptions returns the options used when none are given.
func DefaultPathOptions() PathOptions {
	return PathOptions{
		Tolerance: 0.15,
		MinPoints: 5,
	}
}

// DTWDistance calculates Dynamic Time Warping distance between two paths.
// Returns infinity if either path is empty.
// The distance is normalized by the longer path length.
func DTWDistance(path1, path2 []geom.Point) float64 {
	n := len(path1)
	m := len(path2)

	if n == 0 || m == 0 {
		return math.Inf(1)
	}

	// Two rolling rows of the (n+1) x (m+1) cost matrix
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := range prev {
		prev[j] = math.Inf(1)
	}
	prev[0] = 0

	for i := 1; i <= n; i++ {
		curr[0] = math.Inf(1)
		for j := 1; j <= m; j++ {
			cost := geom.Distance(path1[i-1], path2[j-1])
			curr[j] = cost + min(prev[j], curr[j-1], prev[j-1])
		}
		prev, curr = curr, prev
	}

	return prev[m] / float64(max(n, m))
}

// DetectPath compares the normalized stroke with the normalized template.
// Both are scaled into the unit square first, so the match is size invariant.
func DetectPath(points []geom.Point, opts PathOptions) Result {
	if len(points) < max(opts.MinPoints, 2) || len(opts.Template) == 0 {
		return NoMatch
	}

	distance := DTWDistance(geom.Normalize(points), geom.Normalize(opts.Template))
	if math.IsInf(distance, 1) || distance > opts.Tolerance {
		return NoMatch
	}

	bounds := geom.Bounds(points)

	return Result{
		Detected:   true,
		Confidence: 1.0 / (1.0 + distance),
		Distance:   distance,
		Length:     geom.PathLength(points),
		Bounds:     &bounds,
	}
}

// Path returns a Detector matching strokes against a template path.
func Path(opts PathOptions) Detector {
	return pure(func(points []geom.Point) Result {
		return DetectPath(points, opts)
	})
}
