package engine

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ayusman/twingest/pkg/logger"
)

// ErrSessionNotFound is returned for an unknown session ID.
var ErrSessionNotFound = errors.New("session not found")

// Factory builds a configured, stopped session. opts carry per-connection
// dependencies such as the outbound notifier.
type Factory func(id string, opts ...Option) (*Session, error)

// HubMetrics tracks the live session count.
type HubMetrics interface {
	SessionOpened()
	SessionClosed()
}

type nopHubMetrics struct{}

func (nopHubMetrics) SessionOpened() {}
func (nopHubMetrics) SessionClosed() {}

// Hub owns the live sessions, one per connected canvas.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*hubEntry
	factory  Factory
	metrics  HubMetrics
	log      logger.Logger
	wg       sync.WaitGroup
}

type hubEntry struct {
	session *Session
	cancel  context.CancelFunc
}

// NewHub creates a hub building sessions with factory. metrics and log may
// be nil.
func NewHub(factory Factory, metrics HubMetrics, log logger.Logger) *Hub {
	if metrics == nil {
		metrics = nopHubMetrics{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		sessions: make(map[string]*hubEntry),
		factory:  factory,
		metrics:  metrics,
		log:      log,
	}
}

// Open builds, starts and runs a new session until Close or ctx ends.
func (h *Hub) Open(ctx context.Context, opts ...Option) (*Session, error) {
	id := uuid.NewString()
	s, err := h.factory(id, opts...)
	if err != nil {
		return nil, err
	}
	s.Start()

	runCtx, cancel := context.WithCancel(ctx)
	h.mu.Lock()
	h.sessions[id] = &hubEntry{session: s, cancel: cancel}
	h.mu.Unlock()
	h.metrics.SessionOpened()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		s.Run(runCtx)
	}()

	h.log.Debug(ctx, "session opened", logger.String("session", id))
	return s, nil
}

// Close destroys a session and removes it from the hub.
func (h *Hub) Close(id string) error {
	h.mu.Lock()
	entry, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	entry.cancel()
	entry.session.Destroy()
	h.metrics.SessionClosed()
	h.log.Debug(context.Background(), "session closed", logger.String("session", id))
	return nil
}

// Get returns a live session.
func (h *Hub) Get(id string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	return entry.session, true
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Each calls fn for every live session. fn must not call Open or Close.
func (h *Hub) Each(fn func(*Session)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, entry := range h.sessions {
		fn(entry.session)
	}
}

// Debug returns the state of every live session, oldest first.
func (h *Hub) Debug() []DebugInfo {
	var infos []DebugInfo
	h.Each(func(s *Session) {
		infos = append(infos, s.Debug())
	})
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Shutdown closes every session and waits for their run loops.
func (h *Hub) Shutdown() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		_ = h.Close(id)
	}
	h.wg.Wait()
}
