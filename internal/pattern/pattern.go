// Package pattern provides the stroke classifiers used by gesture dispatch.
//
// Every detector is a total function over a point sequence: a stroke that does
// not match yields a Result with Detected set to false, never an error. Only
// caller supplied custom detectors may fail.
package pattern

import (
	"errors"

	"github.com/ayusman/twingest/internal/geom"
)

// ErrUnknownKind is returned by New for a kind without a built-in detector.
var ErrUnknownKind = errors.New("unknown pattern kind")

// Kind identifies a detector type.
type Kind string

const (
	KindCircle   Kind = "circle"
	KindSwipe    Kind = "swipe"
	KindZigzag   Kind = "zigzag"
	KindLine     Kind = "line"
	KindPinch    Kind = "pinch"
	KindSpiral   Kind = "spiral"
	KindPath     Kind = "path"
	KindLasso    Kind = "lasso"
	KindCross    Kind = "cross"
	KindSequence Kind = "sequence"
	KindCustom   Kind = "custom"
)

// Kinds lists every kind known to the factory, in a stable order.
var Kinds = []Kind{
	KindCircle, KindSwipe, KindZigzag, KindLine, KindPinch, KindSpiral,
	KindPath, KindLasso, KindCross, KindSequence, KindCustom,
}

// Direction is the bucketed direction of a swipe, pinch or spiral.
type Direction string

const (
	DirectionNone  Direction = ""
	DirectionRight Direction = "right"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionUp    Direction = "up"

	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"

	DirectionInward  Direction = "inward"
	DirectionOutward Direction = "outward"
)

// TouchPair holds the initial and current positions of a two-finger touch.
type TouchPair struct {
	Initial [2]geom.Point `json:"initial"`
	Current [2]geom.Point `json:"current"`
}

// Input is the read-only snapshot handed to a detector.
type Input struct {
	Points  []geom.Point // Samples of the current stroke
	Touches *TouchPair   // Two-finger state, nil outside a pinch
	Now     int64        // Evaluation time in milliseconds
}

// Result is the verdict of a detector. Geometry fields are only set by the
// detectors that produce them.
type Result struct {
	Detected   bool    `json:"detected"`
	Confidence float64 `json:"confidence,omitempty"`

	Center *geom.Point `json:"center,omitempty"`
	Radius float64     `json:"radius,omitempty"`
	Area   float64     `json:"area,omitempty"`

	Direction Direction `json:"direction,omitempty"`
	Distance  float64   `json:"distance,omitempty"`
	Duration  int64     `json:"duration,omitempty"`
	Velocity  float64   `json:"velocity,omitempty"`

	Changes   int     `json:"changes,omitempty"`
	Amplitude float64 `json:"amplitude,omitempty"`

	Length float64 `json:"length,omitempty"`
	Angle  float64 `json:"angle,omitempty"`

	Scale float64 `json:"scale,omitempty"`
	Turns float64 `json:"turns,omitempty"`

	Bounds *geom.Rect `json:"bounds,omitempty"`

	Step  int `json:"step,omitempty"`  // Sequence progress after this evaluation
	Steps int `json:"steps,omitempty"` // Total sequence steps
}

// NoMatch is the zero verdict.
var NoMatch = Result{}

// Detector classifies a stroke snapshot.
type Detector interface {
	Detect(in Input) (Result, error)
}

// DetectorFunc adapts an ordinary function to the Detector interface.
type DetectorFunc func(in Input) (Result, error)

// Detect calls f(in).
func (f DetectorFunc) Detect(in Input) (Result, error) {
	return f(in)
}

// pure wraps an infallible classifier over points.
type pure func(points []geom.Point) Result

func (p pure) Detect(in Input) (Result, error) {
	return p(in.Points), nil
}
