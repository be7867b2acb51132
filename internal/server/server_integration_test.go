package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/twingest/internal/engine"
	"github.com/ayusman/twingest/internal/store"
)

func TestAPI_GestureWorkflow(t *testing.T) {
	// Setup
	tmpDir := t.TempDir()
	s, _ := store.New(filepath.Join(tmpDir, "test.db"))
	defer s.Close()

	srv := New(Config{Store: s})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	// 1. Create a gesture
	createBody := `{"name": "test-gesture", "type": "circle", "action": "clearSelection"}`
	resp, err := client.Post(ts.URL+"/api/gestures", "application/json", bytes.NewBufferString(createBody))
	if err != nil {
		t.Fatalf("POST /api/gestures error = %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	if created.Name != "test-gesture" {
		t.Errorf("created name = %s, want test-gesture", created.Name)
	}

	// 2. List gestures
	resp, _ = client.Get(ts.URL + "/api/gestures")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/gestures status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var listed struct {
		Gestures []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"gestures"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()

	if len(listed.Gestures) != 1 {
		t.Fatalf("len(gestures) = %d, want 1", len(listed.Gestures))
	}

	// 3. Get single gesture
	resp, _ = client.Get(ts.URL + "/api/gestures/" + created.ID)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/gestures/%s status = %d, want %d", created.ID, resp.StatusCode, http.StatusOK)
	}
	resp.Body.Close()

	// 4. Delete gesture
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/gestures/"+created.ID, nil)
	resp, _ = client.Do(req)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("DELETE status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
	resp.Body.Close()

	// 5. Verify deleted
	resp, _ = client.Get(ts.URL + "/api/gestures/" + created.ID)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("GET after delete status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp.Body.Close()
}

func TestAPI_HealthCheck(t *testing.T) {
	srv := New(Config{})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/health")
	if err != nil {
		t.Fatalf("GET /api/health error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var health struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}
	json.NewDecoder(resp.Body).Decode(&health)

	if health.Status != "ok" {
		t.Errorf("status = %s, want ok", health.Status)
	}
}

func newTestHub(t *testing.T) *engine.Hub {
	t.Helper()
	hub := engine.NewHub(func(id string, opts ...engine.Option) (*engine.Session, error) {
		s := engine.NewSession(id, engine.DefaultOptions(), opts...)
		s.Gestures().MustGesture("clear").Circle().Action("clearSelection")
		return s, nil
	}, nil, nil)
	t.Cleanup(hub.Shutdown)
	return hub
}

func TestWebSocket_CircleRoundTrip(t *testing.T) {
	hub := newTestHub(t)
	ts := httptest.NewServer(New(Config{Sessions: hub}))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/input"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ready struct {
		Event   string `json:"event"`
		Session string `json:"session"`
	}
	if err := conn.ReadJSON(&ready); err != nil {
		t.Fatalf("read ready error = %v", err)
	}
	if ready.Event != "ready" || ready.Session == "" {
		t.Fatalf("unexpected ready message: %+v", ready)
	}
	if _, ok := hub.Get(ready.Session); !ok {
		t.Fatal("session should be registered in the hub")
	}

	// Noise the engine must ignore
	conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"wheel","x":1,"y":1}`))

	for i := 0; i < 16; i++ {
		theta := 2 * math.Pi * float64(i) / 16
		typ := "pointermove"
		if i == 0 {
			typ = "pointerdown"
		}
		msg := map[string]any{
			"type":      typ,
			"x":         200 + 80*math.Cos(theta),
			"y":         200 + 80*math.Sin(theta),
			"timestamp": 1000 + i*10,
		}
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write error = %v", err)
		}
	}
	if err := conn.WriteJSON(map[string]any{"type": "pointerup", "timestamp": 1200}); err != nil {
		t.Fatalf("write error = %v", err)
	}

	var detection struct {
		Event  string `json:"event"`
		Name   string `json:"name"`
		Type   string `json:"type"`
		Action string `json:"action"`
	}
	if err := conn.ReadJSON(&detection); err != nil {
		t.Fatalf("read detection error = %v", err)
	}
	if detection.Event != "gesturedetected" || detection.Name != "clear" || detection.Action != "clearSelection" {
		t.Errorf("unexpected detection: %+v", detection)
	}

	// Introspection sees the live session
	resp, err := ts.Client().Get(ts.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("GET /api/sessions error = %v", err)
	}
	var listed struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	json.NewDecoder(resp.Body).Decode(&listed)
	resp.Body.Close()
	if len(listed.Sessions) != 1 || listed.Sessions[0].ID != ready.Session {
		t.Errorf("unexpected sessions: %+v", listed.Sessions)
	}

	// Closing the socket destroys the session
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Len() != 0 {
		t.Errorf("session should be closed with its connection, %d left", hub.Len())
	}
}
