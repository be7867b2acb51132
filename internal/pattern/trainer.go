package pattern

import (
	"encoding/json"
	"fmt"

	"github.com/ayusman/twingest/internal/geom"
)

// RecordedStroke is the JSON shape of a recorded training stroke.
type RecordedStroke struct {
	Points    []geom.Point `json:"points"`
	Timestamp int64        `json:"timestamp"`
}

// ParseStrokes decodes raw recorded strokes as stored alongside a gesture.
func ParseStrokes(samples []json.RawMessage) ([][]geom.Point, error) {
	strokes := make([][]geom.Point, 0, len(samples))
	for i, raw := range samples {
		var s RecordedStroke
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}
		strokes = append(strokes, s.Points)
	}
	return strokes, nil
}

// TrainTemplate averages several recordings of the same stroke into a single
// path template for the path detector. Every stroke is resampled to the
// length of the first one before averaging.
func TrainTemplate(strokes [][]geom.Point) ([]geom.Point, error) {
	if len(strokes) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	for i, s := range strokes {
		if len(s) < 2 {
			return nil, fmt.Errorf("sample %d has insufficient path points", i)
		}
	}

	// Use the first stroke as reference length
	targetLength := len(strokes[0])

	resampled := make([][]geom.Point, len(strokes))
	for i, s := range strokes {
		resampled[i] = geom.Resample(s, targetLength)
	}

	averaged := make([]geom.Point, targetLength)
	n := float64(len(strokes))

	for i := 0; i < targetLength; i++ {
		var sumX, sumY float64
		for _, s := range resampled {
			sumX += s[i].X
			sumY += s[i].Y
		}
		averaged[i] = geom.Point{
			X:         sumX / n,
			Y:         sumY / n,
			Timestamp: resampled[0][i].Timestamp,
		}
	}

	return averaged, nil
}
