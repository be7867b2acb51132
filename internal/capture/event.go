// Package capture turns raw browser input events into strokes, touch state
// and key state for gesture dispatch.
package capture

import "github.com/ayusman/twingest/internal/geom"

// EventType names an inbound input event.
type EventType string

const (
	EventPointerDown  EventType = "pointerdown"
	EventPointerMove  EventType = "pointermove"
	EventPointerUp    EventType = "pointerup"
	EventPointerLeave EventType = "pointerleave"
	EventMouseDown    EventType = "mousedown"
	EventMouseMove    EventType = "mousemove"
	EventMouseUp      EventType = "mouseup"
	EventMouseLeave   EventType = "mouseleave"
	EventTouchStart   EventType = "touchstart"
	EventTouchMove    EventType = "touchmove"
	EventTouchEnd     EventType = "touchend"
	EventTouchCancel  EventType = "touchcancel"
	EventKeyDown      EventType = "keydown"
	EventKeyUp        EventType = "keyup"

	// Session level events, not consumed by the Tracker.
	EventSelection EventType = "selection"
	EventVoice     EventType = "voice"
	EventControl   EventType = "control"
)

var knownEvents = map[EventType]struct{}{
	EventPointerDown: {}, EventPointerMove: {}, EventPointerUp: {}, EventPointerLeave: {},
	EventMouseDown: {}, EventMouseMove: {}, EventMouseUp: {}, EventMouseLeave: {},
	EventTouchStart: {}, EventTouchMove: {}, EventTouchEnd: {}, EventTouchCancel: {},
	EventKeyDown: {}, EventKeyUp: {},
	EventSelection: {}, EventVoice: {}, EventControl: {},
}

// Known reports whether t is an event type the engine understands.
func (t EventType) Known() bool {
	_, ok := knownEvents[t]
	return ok
}

// Modifiers is the modifier key state carried by every DOM event.
type Modifiers struct {
	Shift bool `json:"shiftKey,omitempty"`
	Ctrl  bool `json:"ctrlKey,omitempty"`
	Alt   bool `json:"altKey,omitempty"`
	Meta  bool `json:"metaKey,omitempty"`
}

// Touch is one active finger of a touch event.
type Touch struct {
	ID int      `json:"id"`
	X  *float64 `json:"x"`
	Y  *float64 `json:"y"`
}

// Event is a single inbound input event. Coordinates are pointers so a
// missing value can be told apart from zero.
type Event struct {
	Type      EventType `json:"type"`
	X         *float64  `json:"x,omitempty"`
	Y         *float64  `json:"y,omitempty"`
	Touches   []Touch   `json:"touches,omitempty"`
	Key       string    `json:"key,omitempty"`
	Code      string    `json:"code,omitempty"`
	Repeat    bool      `json:"repeat,omitempty"`
	Timestamp int64     `json:"timestamp,omitempty"`

	Count      int    `json:"count,omitempty"`      // selection
	Transcript string `json:"transcript,omitempty"` // voice
	Command    string `json:"command,omitempty"`    // control

	Modifiers
}

// Point returns the sample carried by a pointer event. ok is false when
// either coordinate is missing.
func (e Event) Point() (geom.Point, bool) {
	if e.X == nil || e.Y == nil {
		return geom.Point{}, false
	}
	return geom.Point{X: *e.X, Y: *e.Y, Timestamp: e.Timestamp}, true
}

// TouchPoint returns the sample for the i-th touch.
func (e Event) TouchPoint(i int) (geom.Point, bool) {
	if i < 0 || i >= len(e.Touches) {
		return geom.Point{}, false
	}
	t := e.Touches[i]
	if t.X == nil || t.Y == nil {
		return geom.Point{}, false
	}
	return geom.Point{X: *t.X, Y: *t.Y, Timestamp: e.Timestamp}, true
}

// KeyState is the live state of a pressed key.
type KeyState struct {
	Key       string    `json:"key"`
	Pressed   bool      `json:"pressed"`
	Repeat    bool      `json:"repeat"`
	Timestamp int64     `json:"timestamp"`
	Modifiers Modifiers `json:"modifiers"`
}

// Float returns a pointer to v, for building events in code and tests.
func Float(v float64) *float64 {
	return &v
}
