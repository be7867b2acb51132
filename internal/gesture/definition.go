// Package gesture holds gesture definitions, the fluent registration API and
// the first-match-wins dispatch over them.
package gesture

import (
	"errors"

	"github.com/ayusman/twingest/internal/capture"
	"github.com/ayusman/twingest/internal/geom"
	"github.com/ayusman/twingest/internal/pattern"
)

// ErrInvalidName is returned when registering a gesture without a name.
var ErrInvalidName = errors.New("gesture name must not be empty")

// Trigger selects which dispatch pass evaluates a definition.
type Trigger string

const (
	// TriggerStroke evaluates once when a stroke completes.
	TriggerStroke Trigger = "stroke"
	// TriggerFrame evaluates on every frame tick while a stroke is live.
	TriggerFrame Trigger = "frame"
	// TriggerPinch evaluates on every two-finger update.
	TriggerPinch Trigger = "pinch"
)

// Context is the read-only view of input state handed to conditions.
type Context struct {
	Now            int64
	Points         []geom.Point
	Touches        *pattern.TouchPair
	TouchCount     int // Archived strokes in touch history
	Keys           map[string]capture.KeyState
	Modifiers      capture.Modifiers
	SelectionCount int
}

// Condition gates a definition on input state.
type Condition func(ctx Context) bool

// Callback runs when its definition wins a dispatch pass.
type Callback func(d Detection) error

// Definition is one registered gesture. Definitions are owned by a Registry
// and only mutated through its Builder.
type Definition struct {
	Name            string
	Kind            pattern.Kind
	Options         map[string]any
	Detector        pattern.Detector
	Enabled         bool
	Priority        int
	Cooldown        int64 // ms
	LastTriggered   int64 // ms, zero when never triggered
	Area            *geom.Rect
	RequiredTouches int
	Condition       Condition
	ConditionExpr   string
	Callback        Callback
	Trigger         Trigger
	Action          string

	order int
}

// Info is the introspection view of a Definition.
type Info struct {
	Name            string         `json:"name"`
	Type            pattern.Kind   `json:"type"`
	Options         map[string]any `json:"options,omitempty"`
	Enabled         bool           `json:"enabled"`
	Priority        int            `json:"priority"`
	Cooldown        int64          `json:"cooldown"`
	LastTriggered   int64          `json:"lastTriggered"`
	Area            *geom.Rect     `json:"area,omitempty"`
	RequiredTouches int            `json:"requiredTouches"`
	Condition       string         `json:"condition,omitempty"`
	HasCallback     bool           `json:"hasCallback"`
	Trigger         Trigger        `json:"trigger"`
	Action          string         `json:"action,omitempty"`
}

func (d *Definition) info() Info {
	cond := d.ConditionExpr
	if cond == "" && d.Condition != nil {
		cond = "func"
	}
	return Info{
		Name:            d.Name,
		Type:            d.Kind,
		Options:         d.Options,
		Enabled:         d.Enabled,
		Priority:        d.Priority,
		Cooldown:        d.Cooldown,
		LastTriggered:   d.LastTriggered,
		Area:            d.Area,
		RequiredTouches: d.RequiredTouches,
		Condition:       cond,
		HasCallback:     d.Callback != nil,
		Trigger:         d.Trigger,
		Action:          d.Action,
	}
}

// Detection is the notification emitted for a winning definition.
type Detection struct {
	Name      string             `json:"name"`
	Type      pattern.Kind       `json:"type"`
	Action    string             `json:"action,omitempty"`
	Trigger   Trigger            `json:"trigger"`
	Result    pattern.Result     `json:"result"`
	Points    []geom.Point       `json:"points,omitempty"`
	Touches   *pattern.TouchPair `json:"touches,omitempty"`
	Timestamp int64              `json:"timestamp"`
}
