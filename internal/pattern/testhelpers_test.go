package pattern

import (
	"math"

	"github.com/ayusman/twingest/internal/geom"
)

// circlePoints returns n samples evenly spaced around a circle, 10ms apart.
func circlePoints(cx, cy, r float64, n int) []geom.Point {
	points := make([]geom.Point, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * float64(i) / float64(n)
		points[i] = geom.Point{
			X:         cx + r*math.Cos(theta),
			Y:         cy + r*math.Sin(theta),
			Timestamp: int64(i * 10),
		}
	}
	return points
}

// linePoints returns n samples from (x0,y0) to (x1,y1) spread over durationMs.
func linePoints(x0, y0, x1, y1 float64, n int, durationMs int64) []geom.Point {
	points := make([]geom.Point, n)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1)
		points[i] = geom.Point{
			X:         x0 + t*(x1-x0),
			Y:         y0 + t*(y1-y0),
			Timestamp: int64(t * float64(durationMs)),
		}
	}
	return points
}

// spiralPoints returns an Archimedean spiral r = 10 + 10*theta over the given turns.
func spiralPoints(cx, cy float64, turns float64, n int) []geom.Point {
	points := make([]geom.Point, n)
	for i := 0; i < n; i++ {
		theta := 2 * math.Pi * turns * float64(i) / float64(n-1)
		r := 10 + 10*theta
		points[i] = geom.Point{
			X:         cx + r*math.Cos(theta),
			Y:         cy + r*math.Sin(theta),
			Timestamp: int64(i * 10),
		}
	}
	return points
}
