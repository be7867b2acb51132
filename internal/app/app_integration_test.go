package app

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/twingest/internal/config"
	"github.com/ayusman/twingest/internal/engine"
	"github.com/ayusman/twingest/internal/store"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) (*App, *httptest.Server) {
	t.Helper()

	cfg := config.New()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.StaticDir = ""
	if mutate != nil {
		mutate(cfg)
	}

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.Start(ctx)
	ts := httptest.NewServer(a.Handler())
	t.Cleanup(func() {
		ts.Close()
		cancel()
		if err := a.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}
	})
	return a, ts
}

func dial(t *testing.T, ts *httptest.Server) (*websocket.Conn, string) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws/input", nil)
	if err != nil {
		t.Fatalf("dial error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ready struct {
		Event   string `json:"event"`
		Session string `json:"session"`
	}
	if err := conn.ReadJSON(&ready); err != nil {
		t.Fatalf("read ready error = %v", err)
	}
	return conn, ready.Session
}

func sendCircle(t *testing.T, conn *websocket.Conn, t0 int) {
	t.Helper()
	for i := 0; i < 16; i++ {
		theta := 2 * math.Pi * float64(i) / 16
		typ := "pointermove"
		if i == 0 {
			typ = "pointerdown"
		}
		if err := conn.WriteJSON(map[string]any{
			"type": typ, "x": 200 + 80*math.Cos(theta), "y": 200 + 80*math.Sin(theta), "timestamp": t0 + i*10,
		}); err != nil {
			t.Fatalf("write error = %v", err)
		}
	}
	if err := conn.WriteJSON(map[string]any{"type": "pointerup", "timestamp": t0 + 200}); err != nil {
		t.Fatalf("write error = %v", err)
	}
}

type detection struct {
	Event  string `json:"event"`
	Name   string `json:"name"`
	Action string `json:"action"`
}

func TestApp_DefaultBindings(t *testing.T) {
	a, ts := newTestApp(t, nil)
	conn, id := dial(t, ts)

	s, ok := a.Hub().Get(id)
	if !ok {
		t.Fatal("session should be live")
	}
	if _, ok := s.Gestures().Get("clear-selection"); !ok {
		t.Error("default bindings should be applied")
	}
	if s.Commands().Len() == 0 {
		t.Error("default voice commands should be applied")
	}

	// Nothing selected, so the circle selects all
	sendCircle(t, conn, 1000)
	var got detection
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if got.Name != "select-all" || got.Action != "selectAll" {
		t.Errorf("unexpected detection: %+v", got)
	}

	// With a selection the same circle clears it
	conn.WriteJSON(map[string]any{"type": "selection", "count": 3})
	sendCircle(t, conn, 5000)
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if got.Name != "clear-selection" {
		t.Errorf("unexpected detection: %+v", got)
	}

	// Voice
	conn.WriteJSON(map[string]any{"type": "voice", "transcript": "zoom in", "timestamp": 9000})
	var voice struct {
		Event string            `json:"event"`
		Name  string            `json:"name"`
		Args  map[string]string `json:"args"`
	}
	if err := conn.ReadJSON(&voice); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if voice.Event != engine.EventVoiceCommand || voice.Args["direction"] != "in" {
		t.Errorf("unexpected voice match: %+v", voice)
	}

	// Every match lands in the trigger log
	deadline := time.Now().Add(2 * time.Second)
	var n int
	for time.Now().Before(deadline) {
		entries, err := a.Store().Triggers().List(store.TriggerFilter{})
		if err != nil {
			t.Fatalf("list triggers error = %v", err)
		}
		if n = len(entries); n == 3 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if n != 3 {
		t.Errorf("trigger log has %d entries, want 3", n)
	}
}

func TestApp_LiveBinding(t *testing.T) {
	a, ts := newTestApp(t, func(cfg *config.Config) {
		path := filepath.Join(filepath.Dir(cfg.DBPath), "bindings.yaml")
		if err := os.WriteFile(path, []byte("gestures:\n  - name: cancel\n    type: cross\n"), 0o644); err != nil {
			t.Fatalf("write bindings: %v", err)
		}
		cfg.BindingsFile = path
	})
	conn, id := dial(t, ts)

	s, _ := a.Hub().Get(id)
	if s.Gestures().Len() != 1 {
		t.Fatalf("expected only the file binding, got %d gestures", s.Gestures().Len())
	}

	// A gesture created over HTTP reaches the open session
	body := `{"name":"ring","type":"circle","action":"ring","priority":5}`
	resp, err := ts.Client().Post(ts.URL+"/api/gestures", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("POST /api/gestures error = %v", err)
	}
	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	sendCircle(t, conn, 1000)
	var got detection
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read error = %v", err)
	}
	if got.Name != "ring" {
		t.Errorf("unexpected detection: %+v", got)
	}

	// New sessions pick the stored row up from the database
	_, id2 := dial(t, ts)
	s2, _ := a.Hub().Get(id2)
	if _, ok := s2.Gestures().Get("ring"); !ok {
		t.Error("stored gesture should be applied to new sessions")
	}

	// Deleting unbinds it everywhere
	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/gestures/"+created.ID, nil)
	resp, err = ts.Client().Do(req)
	if err != nil {
		t.Fatalf("DELETE error = %v", err)
	}
	resp.Body.Close()
	for _, sess := range []*engine.Session{s, s2} {
		if _, ok := sess.Gestures().Get("ring"); ok {
			t.Errorf("session %s still has the deleted gesture", sess.ID())
		}
	}
}

func TestApp_InvalidBindingsFile(t *testing.T) {
	cfg := config.New()
	dir := t.TempDir()
	cfg.DBPath = filepath.Join(dir, "test.db")
	cfg.BindingsFile = filepath.Join(dir, "bindings.yaml")
	if err := os.WriteFile(cfg.BindingsFile, []byte("gestures:\n  - name: a\n    type: hexagon\n"), 0o644); err != nil {
		t.Fatalf("write bindings: %v", err)
	}

	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for invalid bindings file")
	}
}

func TestToTrigger(t *testing.T) {
	if _, ok := toTrigger("s", engine.Notification{Event: "other"}); ok {
		t.Error("empty notification should not produce a trigger")
	}
}
