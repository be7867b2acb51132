// Package geom provides the point and rectangle math shared by the pattern detectors.
package geom

import "math"

// Point is a single pointer sample in element coordinates.
type Point struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"` // Timestamp in milliseconds
}

// Rect is an axis-aligned rectangle in element coordinates.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// ContainsAll reports whether every point lies inside r.
// An empty slice is trivially contained.
func (r Rect) ContainsAll(points []Point) bool {
	for _, p := range points {
		if !r.Contains(p) {
			return false
		}
	}
	return true
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent of r.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Angle returns the direction of the a->b vector in degrees, in (-180, 180].
// Screen coordinates are assumed, so positive angles point downward.
func Angle(a, b Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
}

// Centroid returns the arithmetic mean of the points.
// The timestamp of the result is zero. An empty slice yields the origin.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumX, sumY float64
	for _, p := range points {
		sumX += p.X
		sumY += p.Y
	}

	n := float64(len(points))
	return Point{X: sumX / n, Y: sumY / n}
}

// Bounds returns the smallest rectangle containing all points.
func Bounds(points []Point) Rect {
	if len(points) == 0 {
		return Rect{}
	}

	r := Rect{
		Top:    points[0].Y,
		Left:   points[0].X,
		Right:  points[0].X,
		Bottom: points[0].Y,
	}

	for _, p := range points[1:] {
		r.Left = math.Min(r.Left, p.X)
		r.Right = math.Max(r.Right, p.X)
		r.Top = math.Min(r.Top, p.Y)
		r.Bottom = math.Max(r.Bottom, p.Y)
	}

	return r
}

// PathLength returns the summed length of all consecutive segments.
func PathLength(points []Point) float64 {
	var length float64
	for i := 1; i < len(points); i++ {
		length += Distance(points[i-1], points[i])
	}
	return length
}

// Duration returns the elapsed milliseconds between the first and last point.
func Duration(points []Point) int64 {
	if len(points) < 2 {
		return 0
	}
	return points[len(points)-1].Timestamp - points[0].Timestamp
}

// Normalize scales the path coordinates to the 0-1 range.
// Timestamps are preserved.
func Normalize(path []Point) []Point {
	if path == nil {
		return nil
	}

	n := len(path)
	if n == 0 {
		return []Point{}
	}

	// Handle single point case
	if n == 1 {
		return []Point{
			{X: 0, Y: 0, Timestamp: path[0].Timestamp},
		}
	}

	b := Bounds(path)
	rangeX := b.Width()
	rangeY := b.Height()

	normalized := make([]Point, n)
	for i, p := range path {
		var normX, normY float64

		if rangeX > 0 {
			normX = (p.X - b.Left) / rangeX
		}
		if rangeY > 0 {
			normY = (p.Y - b.Top) / rangeY
		}

		normalized[i] = Point{
			X:         normX,
			Y:         normY,
			Timestamp: p.Timestamp,
		}
	}

	return normalized
}

// Resample resamples a path to have exactly targetLength points.
// Uses linear interpolation between neighbouring samples.
func Resample(path []Point, targetLength int) []Point {
	if len(path) == 0 {
		return nil
	}

	if len(path) == 1 || targetLength <= 1 {
		return []Point{path[0]}
	}

	result := make([]Point, targetLength)

	for i := 0; i < targetLength; i++ {
		// Map index i to a position in the original path
		t := float64(i) / float64(targetLength-1)
		pos := t * float64(len(path)-1)

		idx := int(pos)
		if idx >= len(path)-1 {
			idx = len(path) - 2
		}

		frac := pos - float64(idx)

		p1 := path[idx]
		p2 := path[idx+1]

		result[i] = Point{
			X:         p1.X + frac*(p2.X-p1.X),
			Y:         p1.Y + frac*(p2.Y-p1.Y),
			Timestamp: p1.Timestamp + int64(frac*float64(p2.Timestamp-p1.Timestamp)),
		}
	}

	return result
}
