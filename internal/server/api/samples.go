package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/twingest/internal/bindings"
	"github.com/ayusman/twingest/internal/pattern"
	"github.com/ayusman/twingest/internal/store"
)

// SamplesHandler handles recorded training strokes and template training.
type SamplesHandler struct {
	store  *store.Store
	binder Binder
}

// NewSamplesHandler creates a new SamplesHandler with the given store.
func NewSamplesHandler(s *store.Store, b Binder) *SamplesHandler {
	if b == nil {
		b = nopBinder{}
	}
	return &SamplesHandler{store: s, binder: b}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/gestures/{id}/samples and /api/gestures/{id}/train
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	gestureID := parts[0]

	switch {
	case parts[1] == "samples" && r.Method == http.MethodGet:
		h.list(w, r, gestureID)
	case parts[1] == "samples" && r.Method == http.MethodPost:
		h.create(w, r, gestureID)
	case parts[1] == "samples" && r.Method == http.MethodDelete:
		h.clear(w, r, gestureID)
	case parts[1] == "train" && r.Method == http.MethodPost:
		h.train(w, r, gestureID)
	case parts[1] == "samples" || parts[1] == "train":
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	GestureID   string          `json:"gesture_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

type trainRequest struct {
	Tolerance float64 `json:"tolerance,omitempty"`
}

// list handles GET /api/gestures/{id}/samples
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, gestureID string) {
	samples, err := h.store.Samples().GetByGestureID(gestureID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{
		Samples: make([]sampleResponse, 0, len(samples)),
	}

	for _, s := range samples {
		response.Samples = append(response.Samples, sampleResponse{
			ID:          s.ID,
			GestureID:   s.GestureID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/gestures/{id}/samples
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, gestureID string) {
	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if len(req.Samples) == 0 {
		writeError(w, http.StatusBadRequest, "At least one sample is required")
		return
	}
	if _, err := pattern.ParseStrokes(req.Samples); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	total, err := h.store.Samples().Add(gestureID, req.Samples)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"status": "ok", "samples": total})
}

// clear handles DELETE /api/gestures/{id}/samples
func (h *SamplesHandler) clear(w http.ResponseWriter, r *http.Request, gestureID string) {
	if err := h.store.Samples().DeleteByGestureID(gestureID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete samples")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// train handles POST /api/gestures/{id}/train. The recorded strokes are
// averaged into a path template and the gesture becomes a path gesture.
func (h *SamplesHandler) train(w http.ResponseWriter, r *http.Request, gestureID string) {
	gesture, err := h.store.Gestures().GetByID(gestureID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Gesture not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return
	}

	var req trainRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
	}

	samples, err := h.store.Samples().GetByGestureID(gestureID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}
	raw := make([]json.RawMessage, 0, len(samples))
	for _, s := range samples {
		raw = append(raw, s.Data)
	}

	strokes, err := pattern.ParseStrokes(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	template, err := pattern.TrainTemplate(strokes)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	options := map[string]any{"template": template}
	if req.Tolerance > 0 {
		options["tolerance"] = req.Tolerance
	}
	next := gesture.Binding
	next.Type = pattern.KindPath
	next.Options = options
	if err := bindings.ValidateGesture(next); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	gesture.Binding = next
	if err := h.store.Gestures().Update(gesture); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update gesture")
		return
	}
	if err := h.binder.BindGesture(next); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to bind gesture")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(gesture))
}
