// Package engine binds input capture, gesture dispatch and voice commands
// into one session per target element.
package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/ayusman/twingest/internal/capture"
	"github.com/ayusman/twingest/internal/geom"
	"github.com/ayusman/twingest/internal/gesture"
	"github.com/ayusman/twingest/internal/pattern"
	"github.com/ayusman/twingest/internal/voice"
	"github.com/ayusman/twingest/pkg/logger"
)

// ErrSessionClosed is returned when submitting to a destroyed session.
var ErrSessionClosed = errors.New("session closed")

// Control commands accepted in control events.
const (
	CommandStart  = "start"
	CommandStop   = "stop"
	CommandPause  = "pause"
	CommandResume = "resume"
)

// Metrics is the recorder a session reports to.
type Metrics interface {
	gesture.Recorder
	voice.Recorder
	EventReceived(eventType string)
}

type nopMetrics struct{}

func (nopMetrics) GestureDetected(string, string)        {}
func (nopMetrics) DetectorError(string)                  {}
func (nopMetrics) CallbackError(string)                  {}
func (nopMetrics) ObserveDispatch(string, time.Duration) {}
func (nopMetrics) VoiceCommand(string)                   {}
func (nopMetrics) EventReceived(string)                  {}

// Options configures a Session.
type Options struct {
	Capture         capture.Options
	FrameInterval   time.Duration // Default 16ms
	DefaultCooldown int64         // ms
	EventBuffer     int           // Inbound queue length, default 256
}

// DefaultOptions returns the default session options.
func DefaultOptions() Options {
	return Options{
		Capture:       capture.DefaultOptions(),
		FrameInterval: 16 * time.Millisecond,
		EventBuffer:   256,
	}
}

// Option configures session dependencies.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithNotifier adds an outbound notification sink. Sinks run in the order
// they were added.
func WithNotifier(fn func(Notification)) Option {
	return func(s *Session) {
		if fn != nil {
			s.notify = append(s.notify, fn)
		}
	}
}

// WithClock sets the millisecond clock used when events carry no timestamp
// and for frame ticks.
func WithClock(clock func() int64) Option {
	return func(s *Session) { s.clock = clock }
}

// Session is the gesture engine of one target element. Events are applied
// serially: either by Run, which owns the session, or by direct HandleEvent
// and Tick calls from a single goroutine.
type Session struct {
	id   string
	opts Options

	log     logger.Logger
	metrics Metrics
	notify  []func(Notification)
	clock   func() int64

	tracker    *capture.Tracker
	gestures   *gesture.Registry
	dispatcher *gesture.Dispatcher
	commands   *voice.Registry

	events    chan capture.Event
	closed    chan struct{}
	closeOnce sync.Once

	mu            sync.RWMutex
	running       bool
	selection     int
	lastDetection *gesture.Detection
	lastCommand   *voice.Match
	createdAt     time.Time
}

// NewSession creates a stopped session. Call Start before feeding events.
func NewSession(id string, opts Options, options ...Option) *Session {
	def := DefaultOptions()
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = def.FrameInterval
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = def.EventBuffer
	}

	s := &Session{
		id:        id,
		opts:      opts,
		log:       logger.Nop(),
		metrics:   nopMetrics{},
		clock:     func() int64 { return time.Now().UnixMilli() },
		events:    make(chan capture.Event, opts.EventBuffer),
		closed:    make(chan struct{}),
		createdAt: time.Now(),
	}
	for _, o := range options {
		o(s)
	}

	s.gestures = gesture.NewRegistry(opts.DefaultCooldown, s.log.Named("gestures"))
	s.dispatcher = gesture.NewDispatcher(s.gestures,
		gesture.WithLogger(s.log),
		gesture.WithRecorder(s.metrics),
		gesture.WithSink(s.onDetection),
	)
	s.commands = voice.NewRegistry(
		voice.WithLogger(s.log),
		voice.WithRecorder(s.metrics),
		voice.WithSink(s.onCommand),
	)
	s.tracker = capture.NewTracker(opts.Capture, capture.Hooks{
		StrokeEnd: s.onStrokeEnd,
		Frame:     s.onFrame,
		Pinch:     s.onPinch,
	})
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Gestures returns the gesture registry.
func (s *Session) Gestures() *gesture.Registry { return s.gestures }

// Commands returns the voice command registry.
func (s *Session) Commands() *voice.Registry { return s.commands }

// Tracker returns the input tracker.
func (s *Session) Tracker() *capture.Tracker { return s.tracker }

// Start begins consuming input events.
func (s *Session) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	s.log.Info(context.Background(), "session started", logger.String("session", s.id))
}

// Stop stops consuming input, drops the live stroke and cancels the pending
// frame. Definitions are kept.
func (s *Session) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.tracker.Reset()
	s.log.Info(context.Background(), "session stopped", logger.String("session", s.id))
}

// Pause drops the live stroke and ignores input until Resume.
func (s *Session) Pause() {
	s.tracker.Pause()
}

// Resume accepts input again after Pause.
func (s *Session) Resume() {
	s.tracker.Resume()
}

// Running reports whether the session consumes input.
func (s *Session) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Destroy stops the session, clears every registry and ends Run.
func (s *Session) Destroy() {
	s.Stop()
	s.gestures.Clear()
	s.commands.Clear()
	s.closeOnce.Do(func() { close(s.closed) })
}

// Submit queues an event for Run. It blocks while the queue is full.
func (s *Session) Submit(ctx context.Context, ev capture.Event) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}
	select {
	case s.events <- ev:
		return nil
	case <-s.closed:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run applies queued events and drives frame ticks until ctx is done or the
// session is destroyed.
func (s *Session) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closed:
			return
		case ev := <-s.events:
			s.HandleEvent(ev)
		case <-ticker.C:
			s.Tick(s.clock())
		}
	}
}

// HandleEvent applies one inbound event.
func (s *Session) HandleEvent(ev capture.Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = s.clock()
	}
	s.metrics.EventReceived(string(ev.Type))

	if ev.Type == capture.EventControl {
		s.control(ev.Command)
		return
	}
	if !s.Running() {
		return
	}

	switch ev.Type {
	case capture.EventSelection:
		s.mu.Lock()
		s.selection = max(ev.Count, 0)
		s.mu.Unlock()
	case capture.EventVoice:
		if !s.tracker.Paused() {
			s.commands.Handle(ev.Transcript, ev.Timestamp)
		}
	default:
		s.tracker.Handle(ev)
	}
}

// Tick runs the pending frame callback, if any.
func (s *Session) Tick(now int64) {
	s.tracker.Frames().Tick(now)
}

func (s *Session) control(command string) {
	switch strings.ToLower(command) {
	case CommandStart:
		s.Start()
	case CommandStop:
		s.Stop()
	case CommandPause:
		s.Pause()
	case CommandResume:
		s.Resume()
	default:
		s.log.Warn(context.Background(), "unknown control command",
			logger.String("session", s.id), logger.String("command", command))
	}
}

// SetSelection records how many components are selected in the canvas.
func (s *Session) SetSelection(count int) {
	s.mu.Lock()
	s.selection = max(count, 0)
	s.mu.Unlock()
}

func (s *Session) context(now int64) gesture.Context {
	s.mu.RLock()
	selection := s.selection
	s.mu.RUnlock()
	return gesture.Context{
		Now:            now,
		TouchCount:     s.tracker.TouchCount(),
		Keys:           s.tracker.Keys(),
		Modifiers:      s.tracker.Modifiers(),
		SelectionCount: selection,
	}
}

func (s *Session) onStrokeEnd(points []geom.Point, now int64) {
	ctx := s.context(now)
	ctx.Points = points
	s.dispatcher.Dispatch(gesture.TriggerStroke, ctx)
}

func (s *Session) onFrame(now int64) {
	points := s.tracker.Points()
	if len(points) <= 2 {
		return
	}
	ctx := s.context(now)
	ctx.Points = points
	if _, ok := s.dispatcher.Dispatch(gesture.TriggerFrame, ctx); ok {
		s.tracker.ClearPoints()
	}
}

func (s *Session) onPinch(pair pattern.TouchPair, now int64) {
	ctx := s.context(now)
	ctx.Touches = &pair
	s.dispatcher.Dispatch(gesture.TriggerPinch, ctx)
}

func (s *Session) onDetection(d gesture.Detection) {
	s.mu.Lock()
	s.lastDetection = &d
	s.mu.Unlock()
	s.publish(Notification{Event: EventGestureDetected, Gesture: &d})
}

func (s *Session) onCommand(m voice.Match) {
	s.mu.Lock()
	s.lastCommand = &m
	s.mu.Unlock()
	s.publish(Notification{Event: EventVoiceCommand, Voice: &m})
}

func (s *Session) publish(n Notification) {
	for _, fn := range s.notify {
		fn(n)
	}
}
