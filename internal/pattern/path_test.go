package pattern

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/ayusman/twingest/internal/geom"
)

func TestDTW_IdenticalPaths(t *testing.T) {
	// Same path should have distance 0
	path := []geom.Point{
		{X: 0, Y: 0, Timestamp: 0},
		{X: 1, Y: 1, Timestamp: 100},
		{X: 2, Y: 2, Timestamp: 200},
	}

	if distance := DTWDistance(path, path); distance != 0 {
		t.Errorf("expected distance 0 for identical paths, got %f", distance)
	}
}

func TestDTW_SpeedInvariant(t *testing.T) {
	// Fast version - fewer points
	fastPath := []geom.Point{
		{X: 0, Y: 0, Timestamp: 0},
		{X: 1, Y: 0, Timestamp: 50},
		{X: 2, Y: 0, Timestamp: 100},
	}

	// Slow version - more points covering the same trajectory
	slowPath := linePoints(0, 0, 2, 0, 9, 400)

	if distance := DTWDistance(fastPath, slowPath); distance > 0.5 {
		t.Errorf("expected low distance for speed-invariant paths, got %f", distance)
	}
}

func TestDTW_EmptyPaths(t *testing.T) {
	path := []geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}}

	if !math.IsInf(DTWDistance(nil, nil), 1) {
		t.Error("expected infinity for empty paths")
	}
	if !math.IsInf(DTWDistance(nil, path), 1) {
		t.Error("expected infinity when first path is empty")
	}
	if !math.IsInf(DTWDistance(path, nil), 1) {
		t.Error("expected infinity when second path is empty")
	}
}

func lShape(scale float64, n int) []geom.Point {
	down := linePoints(0, 0, 0, 100*scale, n, 200)
	right := linePoints(0, 100*scale, 100*scale, 100*scale, n, 200)
	for i := range right {
		right[i].Timestamp += 200
	}
	return append(down, right[1:]...)
}

func TestDetectPath_MatchesScaledTemplate(t *testing.T) {
	opts := DefaultPathOptions()
	opts.Template = lShape(1, 8)

	// Twice the size, sampled more densely
	result := DetectPath(lShape(2, 15), opts)

	if !result.Detected {
		t.Fatalf("expected scaled L to match template, got distance %f", result.Distance)
	}
	if result.Confidence <= 0.8 {
		t.Errorf("expected high confidence, got %f", result.Confidence)
	}
}

func TestDetectPath_RejectsDifferentShape(t *testing.T) {
	opts := DefaultPathOptions()
	opts.Template = linePoints(0, 0, 100, 0, 10, 200)

	if DetectPath(linePoints(0, 0, 0, 100, 10, 200), opts).Detected {
		t.Error("expected vertical stroke not to match horizontal template")
	}
}

func TestDetectPath_RequiresTemplate(t *testing.T) {
	if DetectPath(lShape(1, 8), DefaultPathOptions()).Detected {
		t.Error("expected detection without template to fail")
	}
}

func TestTrainTemplate(t *testing.T) {
	strokes := [][]geom.Point{
		{{X: 0, Y: 0, Timestamp: 0}, {X: 10, Y: 0, Timestamp: 100}, {X: 20, Y: 0, Timestamp: 200}},
		{{X: 0, Y: 10, Timestamp: 0}, {X: 20, Y: 10, Timestamp: 300}},
	}

	template, err := TrainTemplate(strokes)
	if err != nil {
		t.Fatalf("TrainTemplate() error = %v", err)
	}

	if len(template) != 3 {
		t.Fatalf("expected template length of first stroke (3), got %d", len(template))
	}

	expected := []geom.Point{{X: 0, Y: 5}, {X: 10, Y: 5}, {X: 20, Y: 5}}
	for i, p := range expected {
		if math.Abs(template[i].X-p.X) > 0.001 || math.Abs(template[i].Y-p.Y) > 0.001 {
			t.Errorf("point %d: expected (%f,%f), got (%f,%f)", i, p.X, p.Y, template[i].X, template[i].Y)
		}
	}

	if template[1].Timestamp != 100 {
		t.Errorf("expected timestamps from first stroke, got %d", template[1].Timestamp)
	}
}

func TestTrainTemplate_Errors(t *testing.T) {
	if _, err := TrainTemplate(nil); err == nil {
		t.Error("expected error for no samples")
	}

	short := [][]geom.Point{{{X: 0, Y: 0}}}
	if _, err := TrainTemplate(short); err == nil {
		t.Error("expected error for single point stroke")
	}
}

func TestParseStrokes(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"points":[{"x":1,"y":2,"timestamp":3},{"x":4,"y":5,"timestamp":6}],"timestamp":10}`),
	}

	strokes, err := ParseStrokes(raw)
	if err != nil {
		t.Fatalf("ParseStrokes() error = %v", err)
	}
	if len(strokes) != 1 || len(strokes[0]) != 2 {
		t.Fatalf("unexpected strokes: %+v", strokes)
	}
	if strokes[0][1].X != 4 || strokes[0][1].Timestamp != 6 {
		t.Errorf("unexpected point: %+v", strokes[0][1])
	}

	if _, err := ParseStrokes([]json.RawMessage{json.RawMessage(`not json`)}); err == nil {
		t.Error("expected error for malformed sample")
	}
}
