package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/twingest/internal/store"
)

// TriggersHandler serves the trigger log.
type TriggersHandler struct {
	store *store.Store
}

// NewTriggersHandler creates a new TriggersHandler with the given store.
func NewTriggersHandler(s *store.Store) *TriggersHandler {
	return &TriggersHandler{store: s}
}

type listTriggersResponse struct {
	Triggers []store.Trigger `json:"triggers"`
}

// ServeHTTP handles GET /api/triggers?name=&limit=
func (h *TriggersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filter := store.TriggerFilter{Name: r.URL.Query().Get("name")}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}

	triggers, err := h.store.Triggers().List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list triggers")
		return
	}

	writeJSON(w, http.StatusOK, listTriggersResponse{Triggers: triggers})
}
