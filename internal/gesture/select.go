package gesture

import (
	"fmt"

	"github.com/ayusman/twingest/internal/geom"
	"github.com/ayusman/twingest/internal/pattern"
)

// Failure stages.
const (
	StageDetector  = "detector"
	StageCondition = "condition"
)

// Failure records a detector or condition that errored or panicked during
// selection.
type Failure struct {
	Name  string
	Stage string
	Err   error
}

// Selection is the outcome of one arbitration pass.
type Selection struct {
	Winner   *Definition // nil when nothing matched
	Result   pattern.Result
	Failures []Failure
}

// Select runs first-match-wins arbitration over candidates, which must
// already be filtered to one trigger and sorted into dispatch order. It
// mutates nothing except the progress of stateful detectors.
func Select(candidates []Definition, ctx Context) Selection {
	var sel Selection
	in := pattern.Input{Points: ctx.Points, Touches: ctx.Touches, Now: ctx.Now}
	gated := gatedPoints(ctx)

	for i := range candidates {
		def := &candidates[i]

		if def.Area != nil && !def.Area.ContainsAll(gated) {
			continue
		}
		if def.RequiredTouches > 1 && ctx.TouchCount < def.RequiredTouches {
			continue
		}
		if def.LastTriggered > 0 && ctx.Now-def.LastTriggered < def.Cooldown {
			continue
		}
		if def.Condition != nil {
			ok, err := safeCondition(def.Condition, ctx)
			if err != nil {
				sel.Failures = append(sel.Failures, Failure{Name: def.Name, Stage: StageCondition, Err: err})
			}
			if !ok {
				continue
			}
		}
		if def.Detector == nil {
			continue
		}

		result, err := safeDetect(def.Detector, in)
		if err != nil {
			sel.Failures = append(sel.Failures, Failure{Name: def.Name, Stage: StageDetector, Err: err})
			continue
		}
		if result.Detected {
			sel.Winner = def
			sel.Result = result
			return sel
		}
	}
	return sel
}

// gatedPoints returns the samples checked against an area: the stroke, or
// the initial and current touch pairs during a pinch.
func gatedPoints(ctx Context) []geom.Point {
	if len(ctx.Points) == 0 && ctx.Touches != nil {
		gated := make([]geom.Point, 0, 4)
		gated = append(gated, ctx.Touches.Initial[:]...)
		return append(gated, ctx.Touches.Current[:]...)
	}
	return ctx.Points
}

func safeDetect(det pattern.Detector, in pattern.Input) (result pattern.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = pattern.NoMatch
			err = fmt.Errorf("detector panic: %v", r)
		}
	}()
	return det.Detect(in)
}

func safeCondition(cond Condition, ctx Context) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("condition panic: %v", r)
		}
	}()
	return cond(ctx), nil
}
