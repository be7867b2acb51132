package engine

import (
	"encoding/json"

	"github.com/ayusman/twingest/internal/gesture"
	"github.com/ayusman/twingest/internal/voice"
)

// Outbound event names.
const (
	EventGestureDetected = "gesturedetected"
	EventVoiceCommand    = "voicecommand"
)

// Notification is an outbound message for the browser. Exactly one of
// Gesture and Voice is set.
type Notification struct {
	Event   string
	Gesture *gesture.Detection
	Voice   *voice.Match
}

// MarshalJSON flattens the payload next to the event name.
func (n Notification) MarshalJSON() ([]byte, error) {
	switch {
	case n.Gesture != nil:
		return json.Marshal(struct {
			Event string `json:"event"`
			*gesture.Detection
		}{n.Event, n.Gesture})
	case n.Voice != nil:
		return json.Marshal(struct {
			Event string `json:"event"`
			*voice.Match
		}{n.Event, n.Voice})
	default:
		return json.Marshal(struct {
			Event string `json:"event"`
		}{n.Event})
	}
}
