package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"

	"github.com/ayusman/twingest/internal/capture"
	"github.com/ayusman/twingest/internal/engine"
	"github.com/ayusman/twingest/pkg/logger"
)

const (
	writeWait      = 5 * time.Second
	outboundBuffer = 64
	maxMessageSize = 64 << 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Sessions opens and closes engine sessions for input connections.
type Sessions interface {
	Open(ctx context.Context, opts ...engine.Option) (*engine.Session, error)
	Close(id string) error
}

// InputHandler streams browser input into a dedicated session and writes
// detections back over the same connection.
type InputHandler struct {
	sessions Sessions
	log      logger.Logger
}

// NewInputHandler creates a new InputHandler.
func NewInputHandler(sessions Sessions, log logger.Logger) *InputHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &InputHandler{sessions: sessions, log: log.Named("ws")}
}

type readyMessage struct {
	Event   string `json:"event"`
	Session string `json:"session"`
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *InputHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan engine.Notification, outboundBuffer)
	notify := func(n engine.Notification) {
		select {
		case out <- n:
		case <-ctx.Done():
		default:
			h.log.Warn(ctx, "outbound queue full, dropping notification", logger.String("event", n.Event))
		}
	}

	session, err := h.sessions.Open(ctx, engine.WithNotifier(notify))
	if err != nil {
		h.log.Error(ctx, "failed to open session", logger.Error(err))
		conn.WriteJSON(map[string]string{"event": "error", "error": "failed to open session"})
		return
	}
	defer h.sessions.Close(session.ID())

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(readyMessage{Event: "ready", Session: session.ID()}); err != nil {
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.write(ctx, conn, out)
	}()

	h.read(ctx, conn, session)
	cancel()
	<-writerDone
}

// read forwards inbound messages to the session until the connection fails.
func (h *InputHandler) read(ctx context.Context, conn *websocket.Conn, session *engine.Session) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Warn(ctx, "websocket read failed", logger.String("session", session.ID()), logger.Error(err))
			}
			return
		}

		ev, ok := h.decode(ctx, msg)
		if !ok {
			continue
		}
		if err := session.Submit(ctx, ev); err != nil {
			return
		}
	}
}

// decode peeks at the type and drops messages the engine cannot use.
func (h *InputHandler) decode(ctx context.Context, msg []byte) (capture.Event, bool) {
	var ev capture.Event
	if !gjson.ValidBytes(msg) {
		h.log.Debug(ctx, "dropping malformed message")
		return ev, false
	}
	typ := gjson.GetBytes(msg, "type")
	if !typ.Exists() || !capture.EventType(typ.String()).Known() {
		h.log.Debug(ctx, "dropping unknown message", logger.String("type", typ.String()))
		return ev, false
	}
	if err := json.Unmarshal(msg, &ev); err != nil {
		h.log.Debug(ctx, "dropping undecodable message", logger.String("type", typ.String()), logger.Error(err))
		return ev, false
	}
	return ev, true
}

func (h *InputHandler) write(ctx context.Context, conn *websocket.Conn, out <-chan engine.Notification) {
	for {
		select {
		case <-ctx.Done():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case n := <-out:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(n); err != nil {
				h.log.Warn(ctx, "websocket write failed", logger.Error(err))
				return
			}
		}
	}
}
