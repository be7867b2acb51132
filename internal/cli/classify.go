package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/ayusman/twingest/internal/bindings"
	"github.com/ayusman/twingest/internal/geom"
	"github.com/ayusman/twingest/internal/gesture"
	"github.com/ayusman/twingest/internal/pattern"
)

// classifiable kinds run on a bare stroke with default options.
var classifiable = []pattern.Kind{
	pattern.KindCircle, pattern.KindSwipe, pattern.KindZigzag, pattern.KindLine,
	pattern.KindSpiral, pattern.KindLasso, pattern.KindCross,
}

type verdict struct {
	Stroke int            `json:"stroke"`
	Kind   pattern.Kind   `json:"kind"`
	Result pattern.Result `json:"result"`
}

type winner struct {
	Stroke  int     `json:"stroke"`
	Gesture string  `json:"gesture,omitempty"`
	Action  string  `json:"action,omitempty"`
	Score   float64 `json:"confidence,omitempty"`
}

func newClassifyCommand() *cobra.Command {
	var (
		asJSON       bool
		bindingsPath string
	)

	cmd := &cobra.Command{
		Use:   "classify <stroke-file>",
		Short: "Run the detectors over recorded strokes",
		Long: `Run every built-in detector with default options over one or more recorded
strokes and print each verdict.

The file holds a recorded stroke ({"points":[{"x":..,"y":..,"timestamp":..}]}),
a bare array of points, or an array of recorded strokes.

With --bindings the strokes are also dispatched through the bindings, in order,
and the winning gesture of each is printed.

Examples:
  twingest classify circle.json
  twingest classify strokes.json --bindings bindings.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read strokes: %w", err)
			}
			strokes, err := parseStrokeFile(data)
			if err != nil {
				return err
			}

			verdicts, err := classify(strokes)
			if err != nil {
				return err
			}

			var winners []winner
			if bindingsPath != "" {
				set, err := bindings.LoadFile(bindingsPath)
				if err != nil {
					return err
				}
				winners, err = dispatchAll(set, strokes)
				if err != nil {
					return err
				}
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"verdicts": verdicts, "winners": winners})
			}
			return printVerdicts(cmd.OutOrStdout(), verdicts, winners)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().StringVar(&bindingsPath, "bindings", "", "dispatch the strokes through a bindings file")
	return cmd
}

// parseStrokeFile accepts a single recorded stroke, a bare point array or a
// list of recorded strokes.
func parseStrokeFile(data []byte) ([][]geom.Point, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("stroke file is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	switch {
	case root.IsObject() && root.Get("points").Exists():
		return pattern.ParseStrokes([]json.RawMessage{data})
	case root.IsArray() && root.Get("0.x").Exists():
		var points []geom.Point
		if err := json.Unmarshal(data, &points); err != nil {
			return nil, fmt.Errorf("parse points: %w", err)
		}
		return [][]geom.Point{points}, nil
	case root.IsArray():
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse strokes: %w", err)
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("stroke file holds no strokes")
		}
		return pattern.ParseStrokes(raw)
	default:
		return nil, fmt.Errorf("unrecognized stroke file layout")
	}
}

func classify(strokes [][]geom.Point) ([]verdict, error) {
	detectors := make([]pattern.Detector, len(classifiable))
	for i, kind := range classifiable {
		d, err := pattern.New(kind, nil)
		if err != nil {
			return nil, err
		}
		detectors[i] = d
	}

	var out []verdict
	for si, points := range strokes {
		for i, d := range detectors {
			res, err := d.Detect(pattern.Input{Points: points, Now: lastTimestamp(points)})
			if err != nil {
				return nil, fmt.Errorf("stroke %d: %s: %w", si, classifiable[i], err)
			}
			out = append(out, verdict{Stroke: si, Kind: classifiable[i], Result: res})
		}
	}
	return out, nil
}

// dispatchAll feeds the strokes in order through one registry, so cooldowns
// and sequences behave as in a live session.
func dispatchAll(set *bindings.Set, strokes [][]geom.Point) ([]winner, error) {
	reg := gesture.NewRegistry(0, nil)
	for _, g := range set.Gestures {
		if err := bindings.ApplyGesture(reg, g); err != nil {
			return nil, err
		}
	}
	d := gesture.NewDispatcher(reg)

	out := make([]winner, 0, len(strokes))
	for si, points := range strokes {
		w := winner{Stroke: si}
		det, ok := d.Dispatch(gesture.TriggerStroke, gesture.Context{
			Now:        lastTimestamp(points),
			Points:     points,
			TouchCount: si,
		})
		if ok {
			w.Gesture = det.Name
			w.Action = det.Action
			w.Score = det.Result.Confidence
		}
		out = append(out, w)
	}
	return out, nil
}

func lastTimestamp(points []geom.Point) int64 {
	if len(points) == 0 {
		return 0
	}
	return points[len(points)-1].Timestamp
}

func printVerdicts(w io.Writer, verdicts []verdict, winners []winner) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STROKE\tKIND\tDETECTED\tCONFIDENCE\tDETAIL")
	for _, v := range verdicts {
		fmt.Fprintf(tw, "%d\t%s\t%t\t%.2f\t%s\n", v.Stroke, v.Kind, v.Result.Detected, v.Result.Confidence, detail(v.Result))
	}
	if len(winners) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "STROKE\tGESTURE\tACTION\tCONFIDENCE")
		for _, win := range winners {
			name := win.Gesture
			if name == "" {
				name = "-"
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\n", win.Stroke, name, win.Action, win.Score)
		}
	}
	return tw.Flush()
}

func detail(r pattern.Result) string {
	switch {
	case !r.Detected:
		return ""
	case r.Direction != pattern.DirectionNone:
		return string(r.Direction)
	case r.Radius > 0:
		return fmt.Sprintf("r=%.1f", r.Radius)
	case r.Length > 0:
		return fmt.Sprintf("len=%.1f", r.Length)
	default:
		return ""
	}
}
