// Package api provides HTTP API handlers for gesture bindings, training
// samples, the trigger log and session introspection.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/twingest/internal/bindings"
	"github.com/ayusman/twingest/internal/store"
)

// Binder pushes binding changes into the live sessions.
type Binder interface {
	BindGesture(g bindings.Gesture) error
	UnbindGesture(name string)
}

type nopBinder struct{}

func (nopBinder) BindGesture(bindings.Gesture) error { return nil }
func (nopBinder) UnbindGesture(string)               {}

// GestureHandler handles HTTP requests for gesture resources.
type GestureHandler struct {
	store  *store.Store
	binder Binder
}

// NewGestureHandler creates a new GestureHandler with the given store. A nil
// binder only persists changes.
func NewGestureHandler(s *store.Store, b Binder) *GestureHandler {
	if b == nil {
		b = nopBinder{}
	}
	return &GestureHandler{store: s, binder: b}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/gestures or /api/gestures/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type gestureResponse struct {
	ID string `json:"id"`
	bindings.Gesture
	Samples   int    `json:"samples"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(g *store.Gesture) gestureResponse {
	return gestureResponse{
		ID:        g.ID,
		Gesture:   g.Binding,
		Samples:   g.Samples,
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
		UpdatedAt: g.UpdatedAt.Format(time.RFC3339),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/gestures.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	gestures, err := h.store.Gestures().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list gestures")
		return
	}

	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(gestures)),
	}
	for _, g := range gestures {
		response.Gestures = append(response.Gestures, toResponse(g))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/gestures/{id}.
func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	gesture, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(gesture))
}

// create handles POST /api/gestures. The binding is validated, persisted and
// registered in every live session.
func (h *GestureHandler) create(w http.ResponseWriter, r *http.Request) {
	var req bindings.Gesture
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if err := bindings.ValidateGesture(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.store.Gestures().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Gesture name already exists")
		return
	}

	gesture := &store.Gesture{Binding: req}
	if err := h.store.Gestures().Create(gesture); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create gesture")
		return
	}

	if err := h.binder.BindGesture(gesture.Binding); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to bind gesture")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(gesture))
}

// update handles PUT /api/gestures/{id}. Fields present in the body replace
// the stored ones.
func (h *GestureHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	gesture, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	previous := gesture.Binding.Name
	next := gesture.Binding
	next.Options = nil
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if next.Options == nil {
		next.Options = gesture.Binding.Options
	}

	if err := bindings.ValidateGesture(next); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	gesture.Binding = next
	if err := h.store.Gestures().Update(gesture); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update gesture")
		return
	}

	if previous != next.Name {
		h.binder.UnbindGesture(previous)
	}
	if err := h.binder.BindGesture(next); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to bind gesture")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(gesture))
}

// delete handles DELETE /api/gestures/{id}.
func (h *GestureHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	gesture, err := h.store.Gestures().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	if err := h.store.Gestures().Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete gesture")
		return
	}
	h.binder.UnbindGesture(gesture.Binding.Name)

	w.WriteHeader(http.StatusNoContent)
}
