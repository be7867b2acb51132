// Package app wires configuration, storage, metrics, bindings and the HTTP
// server around the gesture engine.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/ayusman/twingest/internal/bindings"
	"github.com/ayusman/twingest/internal/capture"
	"github.com/ayusman/twingest/internal/config"
	"github.com/ayusman/twingest/internal/engine"
	"github.com/ayusman/twingest/internal/server"
	"github.com/ayusman/twingest/internal/store"
	"github.com/ayusman/twingest/pkg/logger"
	"github.com/ayusman/twingest/pkg/metrics"
)

// Option configures an App.
type Option func(*App)

// WithLogger sets the application logger.
func WithLogger(log logger.Logger) Option {
	return func(a *App) { a.log = log }
}

// WithMetrics sets the metrics manager.
func WithMetrics(m *metrics.Manager) Option {
	return func(a *App) { a.metrics = m }
}

// App is the running gesture service.
type App struct {
	cfg     *config.Config
	log     logger.Logger
	metrics *metrics.Manager
	store   *store.Store
	hub     *engine.Hub
	server  *server.Server
	trigs   *triggerLog

	defaults  *bindings.Set
	closeOnce sync.Once
}

// New opens the store, loads the bindings and builds the server.
func New(cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{cfg: cfg}
	for _, o := range opts {
		o(a)
	}
	if a.log == nil {
		a.log = logger.Nop()
	}
	if a.metrics == nil {
		a.metrics = metrics.NewManager(metrics.WithMetricsEnabled(cfg.MetricsEnabled))
	}

	defaults, err := loadBindings(cfg.BindingsFile)
	if err != nil {
		return nil, err
	}
	a.defaults = defaults

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a.store = st

	// Stored rows are applied after the file bindings; check them once up
	// front so a broken row is reported at startup
	stored, err := st.Gestures().Bindings()
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load stored bindings: %w", err)
	}
	for _, g := range stored.Gestures {
		if err := bindings.ValidateGesture(g); err != nil {
			a.log.Warn(context.Background(), "stored gesture is invalid and will be skipped",
				logger.String("name", g.Name), logger.Error(err))
		}
	}

	a.trigs = newTriggerLog(st.Triggers(), a.log.Named("triggers"))
	a.hub = engine.NewHub(a.newSession, a.metrics, a.log.Named("hub"))
	a.server = server.New(server.Config{
		StaticDir: cfg.StaticDir,
		Store:     st,
		Sessions:  a.hub,
		Binder:    a,
		Metrics:   a.metrics,
		Logger:    a.log,
	})

	a.log.Info(context.Background(), "app initialized",
		logger.String("db", cfg.DBPath),
		logger.Int("gestures", len(defaults.Gestures)+len(stored.Gestures)),
		logger.Int("commands", len(defaults.Voice)))
	return a, nil
}

func loadBindings(path string) (*bindings.Set, error) {
	if path == "" {
		return bindings.Default(), nil
	}
	set, err := bindings.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load bindings: %w", err)
	}
	return set, nil
}

// newSession builds a session with the file bindings followed by the stored
// gestures, so stored rows override same-named file entries.
func (a *App) newSession(id string, extra ...engine.Option) (*engine.Session, error) {
	sessionOpts := engine.Options{
		Capture: capture.Options{
			HistorySize:      a.cfg.HistorySize,
			TouchHistorySize: a.cfg.TouchHistorySize,
		},
		FrameInterval:   a.cfg.FrameInterval(),
		DefaultCooldown: int64(a.cfg.DefaultCooldownMS),
	}

	opts := []engine.Option{
		engine.WithLogger(a.log.Named("session")),
		engine.WithMetrics(a.metrics),
		engine.WithNotifier(a.trigs.notifier(id)),
	}
	opts = append(opts, extra...)
	s := engine.NewSession(id, sessionOpts, opts...)

	if err := a.defaults.Apply(s.Gestures(), s.Commands()); err != nil {
		return nil, err
	}

	stored, err := a.store.Gestures().Bindings()
	if err != nil {
		return nil, fmt.Errorf("load stored bindings: %w", err)
	}
	for _, g := range stored.Gestures {
		if err := bindings.ApplyGesture(s.Gestures(), g); err != nil {
			a.log.Warn(context.Background(), "skipping stored gesture",
				logger.String("session", id), logger.String("name", g.Name), logger.Error(err))
		}
	}
	return s, nil
}

// BindGesture registers g in every live session.
func (a *App) BindGesture(g bindings.Gesture) error {
	if err := bindings.ValidateGesture(g); err != nil {
		return err
	}
	var firstErr error
	a.hub.Each(func(s *engine.Session) {
		if err := bindings.ApplyGesture(s.Gestures(), g); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	return firstErr
}

// UnbindGesture removes name from every live session. A file binding with
// the same name comes back for sessions opened later.
func (a *App) UnbindGesture(name string) {
	a.hub.Each(func(s *engine.Session) {
		s.Gestures().Remove(name)
	})
}

// Hub returns the session hub.
func (a *App) Hub() *engine.Hub { return a.hub }

// Store returns the database.
func (a *App) Store() *store.Store { return a.store }

// Handler returns the HTTP handler.
func (a *App) Handler() http.Handler { return a.server }

// Run serves HTTP until ctx is cancelled, then closes every session and the
// store.
func (a *App) Run(ctx context.Context) error {
	trigCtx, cancel := context.WithCancel(context.Background())
	a.trigs.start(trigCtx)

	err := a.server.ListenAndServe(ctx, a.cfg.Addr)

	a.hub.Shutdown()
	cancel()
	a.trigs.wait()
	if cerr := a.Close(); err == nil {
		err = cerr
	}
	return err
}

// Start runs the trigger log writer without the HTTP listener, for embedding
// the handler in another server. Call Stop to release resources.
func (a *App) Start(ctx context.Context) {
	a.trigs.start(ctx)
}

// Stop closes every session, flushes the trigger log once ctx passed to
// Start is done, and closes the store.
func (a *App) Stop() error {
	a.hub.Shutdown()
	a.trigs.wait()
	return a.Close()
}

// Close closes the store. It is safe to call more than once.
func (a *App) Close() error {
	var err error
	a.closeOnce.Do(func() {
		err = a.store.Close()
	})
	return err
}
