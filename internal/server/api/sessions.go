package api

import (
	"net/http"

	"github.com/ayusman/twingest/internal/engine"
)

// SessionLister exposes the live sessions.
type SessionLister interface {
	Debug() []engine.DebugInfo
}

// SessionsHandler serves session introspection.
type SessionsHandler struct {
	sessions SessionLister
}

// NewSessionsHandler creates a new SessionsHandler.
func NewSessionsHandler(l SessionLister) *SessionsHandler {
	return &SessionsHandler{sessions: l}
}

type listSessionsResponse struct {
	Sessions []engine.DebugInfo `json:"sessions"`
}

// ServeHTTP handles GET /api/sessions
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions := h.sessions.Debug()
	if sessions == nil {
		sessions = []engine.DebugInfo{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}
