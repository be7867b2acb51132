package engine

import (
	"time"

	"github.com/ayusman/twingest/internal/capture"
	"github.com/ayusman/twingest/internal/gesture"
	"github.com/ayusman/twingest/internal/voice"
)

// DebugInfo is a point-in-time view of a session for introspection.
type DebugInfo struct {
	ID            string                      `json:"id"`
	Running       bool                        `json:"running"`
	Paused        bool                        `json:"paused"`
	State         string                      `json:"state"`
	LivePoints    int                         `json:"livePoints"`
	TouchHistory  int                         `json:"touchHistory"`
	Keys          map[string]capture.KeyState `json:"keys"`
	Selection     int                         `json:"selection"`
	Gestures      []gesture.Info              `json:"gestures"`
	Commands      []voice.Info                `json:"commands"`
	LastDetection *gesture.Detection          `json:"lastDetection,omitempty"`
	LastCommand   *voice.Match                `json:"lastCommand,omitempty"`
	CreatedAt     time.Time                   `json:"createdAt"`
}

// Debug returns the current session state. It is safe to call from any
// goroutine.
func (s *Session) Debug() DebugInfo {
	s.mu.RLock()
	info := DebugInfo{
		ID:            s.id,
		Running:       s.running,
		Selection:     s.selection,
		LastDetection: s.lastDetection,
		LastCommand:   s.lastCommand,
		CreatedAt:     s.createdAt,
	}
	s.mu.RUnlock()

	info.Paused = s.tracker.Paused()
	info.State = s.tracker.State().String()
	info.LivePoints = len(s.tracker.Points())
	info.TouchHistory = s.tracker.TouchCount()
	info.Keys = s.tracker.Keys()
	info.Gestures = s.gestures.List()
	info.Commands = s.commands.List()
	return info
}
