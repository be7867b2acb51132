package capture

import (
	"sync"

	"github.com/ayusman/twingest/internal/geom"
	"github.com/ayusman/twingest/internal/pattern"
)

// Default buffer sizes.
const (
	DefaultHistorySize      = 100
	DefaultTouchHistorySize = 10
)

// State is the stroke tracking state.
type State int

const (
	StateIdle State = iota
	StateTracking
)

func (s State) String() string {
	if s == StateTracking {
		return "tracking"
	}
	return "idle"
}

// Options configures a Tracker.
type Options struct {
	HistorySize      int // Live stroke cap, oldest samples evicted
	TouchHistorySize int // Completed strokes kept
}

// DefaultOptions returns the default buffer sizes.
func DefaultOptions() Options {
	return Options{
		HistorySize:      DefaultHistorySize,
		TouchHistorySize: DefaultTouchHistorySize,
	}
}

// Hooks receive tracker output. Any hook may be nil. Hooks run after the
// tracker has released its lock, so they may read tracker state.
type Hooks struct {
	// StrokeEnd receives a completed stroke of more than two samples.
	StrokeEnd func(points []geom.Point, now int64)
	// Frame runs on the frame tick following a move while tracking.
	Frame func(now int64)
	// Pinch runs on every two-finger move.
	Pinch func(pair pattern.TouchPair, now int64)
}

// Tracker is the per-element input state machine: Idle until a single
// pointer goes down, Tracking until it lifts or leaves.
type Tracker struct {
	mu sync.RWMutex

	hooks  Hooks
	state  State
	paused bool

	history *Buffer[geom.Point]
	strokes *Buffer[[]geom.Point]

	keys      map[string]KeyState
	modifiers Modifiers

	pinch *pattern.TouchPair

	frames *FrameScheduler
}

// NewTracker creates an idle tracker. Zero option values select defaults.
func NewTracker(opts Options, hooks Hooks) *Tracker {
	if opts.HistorySize <= 0 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.TouchHistorySize <= 0 {
		opts.TouchHistorySize = DefaultTouchHistorySize
	}
	return &Tracker{
		hooks:   hooks,
		history: NewBuffer[geom.Point](opts.HistorySize),
		strokes: NewBuffer[[]geom.Point](opts.TouchHistorySize),
		keys:    make(map[string]KeyState),
		frames:  &FrameScheduler{},
	}
}

// Frames returns the scheduler holding the pending frame callback.
func (t *Tracker) Frames() *FrameScheduler {
	return t.frames
}

// Handle applies one input event. Malformed events are ignored. Session
// level events (selection, voice, control) are not handled here.
func (t *Tracker) Handle(ev Event) {
	t.mu.Lock()
	if t.paused {
		t.mu.Unlock()
		return
	}

	if ev.Type != EventKeyDown && ev.Type != EventKeyUp {
		t.modifiers = ev.Modifiers
	}

	var after func()
	switch ev.Type {
	case EventPointerDown, EventMouseDown:
		if p, ok := ev.Point(); ok {
			t.begin(p)
		}
	case EventPointerMove, EventMouseMove:
		if p, ok := ev.Point(); ok {
			t.extend(p)
		}
	case EventPointerUp, EventMouseUp, EventPointerLeave, EventMouseLeave:
		after = t.end(ev.Timestamp)
	case EventTouchStart:
		t.touchStart(ev)
	case EventTouchMove:
		after = t.touchMove(ev)
	case EventTouchEnd, EventTouchCancel:
		t.pinch = nil
		after = t.end(ev.Timestamp)
	case EventKeyDown:
		t.modifiers = ev.Modifiers
		if ev.Code != "" {
			t.keys[ev.Code] = KeyState{
				Key:       ev.Key,
				Pressed:   true,
				Repeat:    ev.Repeat,
				Timestamp: ev.Timestamp,
				Modifiers: ev.Modifiers,
			}
		}
	case EventKeyUp:
		t.modifiers = ev.Modifiers
		delete(t.keys, ev.Code)
	}
	t.mu.Unlock()

	if after != nil {
		after()
	}
}

func (t *Tracker) begin(p geom.Point) {
	t.history.Clear()
	t.history.Push(p)
	t.state = StateTracking
}

func (t *Tracker) extend(p geom.Point) {
	if t.state != StateTracking {
		return
	}
	t.history.Push(p)
	if t.hooks.Frame != nil {
		t.frames.Request(t.hooks.Frame)
	}
}

// end leaves Tracking. The returned func runs the stroke hook outside the lock
// and archives the stroke afterwards, so the analysis only sees earlier
// strokes in touch history.
func (t *Tracker) end(now int64) func() {
	if t.state != StateTracking {
		return nil
	}
	t.state = StateIdle
	t.frames.Cancel()

	points := t.history.Items()
	t.history.Clear()

	if len(points) <= 2 || t.hooks.StrokeEnd == nil {
		t.strokes.Push(points)
		return nil
	}
	if now == 0 {
		now = points[len(points)-1].Timestamp
	}
	hook := t.hooks.StrokeEnd
	return func() {
		hook(points, now)
		t.mu.Lock()
		t.strokes.Push(points)
		t.mu.Unlock()
	}
}

func (t *Tracker) touchStart(ev Event) {
	switch len(ev.Touches) {
	case 1:
		if p, ok := ev.TouchPoint(0); ok {
			t.begin(p)
		}
	case 2:
		// A second finger abandons the single-finger stroke
		t.abandon()
		a, okA := ev.TouchPoint(0)
		b, okB := ev.TouchPoint(1)
		if okA && okB {
			t.pinch = &pattern.TouchPair{
				Initial: [2]geom.Point{a, b},
				Current: [2]geom.Point{a, b},
			}
		}
	default:
		t.abandon()
	}
}

func (t *Tracker) touchMove(ev Event) func() {
	switch len(ev.Touches) {
	case 1:
		if p, ok := ev.TouchPoint(0); ok {
			t.extend(p)
		}
	case 2:
		if t.pinch == nil {
			return nil
		}
		a, okA := ev.TouchPoint(0)
		b, okB := ev.TouchPoint(1)
		if !okA || !okB {
			return nil
		}
		t.pinch.Current = [2]geom.Point{a, b}
		if t.hooks.Pinch == nil {
			return nil
		}
		pair, hook, now := *t.pinch, t.hooks.Pinch, ev.Timestamp
		return func() { hook(pair, now) }
	}
	return nil
}

func (t *Tracker) abandon() {
	t.state = StateIdle
	t.history.Clear()
	t.frames.Cancel()
}

// State returns the tracking state.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// Points returns a copy of the live stroke.
func (t *Tracker) Points() []geom.Point {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.history.Items()
}

// ClearPoints empties the live stroke without leaving Tracking.
func (t *Tracker) ClearPoints() {
	t.mu.Lock()
	t.history.Clear()
	t.mu.Unlock()
}

// Strokes returns copies of the archived strokes, oldest first.
func (t *Tracker) Strokes() [][]geom.Point {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.strokes.Items()
}

// TouchCount returns the number of archived strokes.
func (t *Tracker) TouchCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.strokes.Len()
}

// Keys returns a copy of the pressed keys by code.
func (t *Tracker) Keys() map[string]KeyState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]KeyState, len(t.keys))
	for k, v := range t.keys {
		out[k] = v
	}
	return out
}

// KeyPressed reports whether the key with the given code is down.
func (t *Tracker) KeyPressed(code string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.keys[code].Pressed
}

// Modifiers returns the modifier state of the latest event.
func (t *Tracker) Modifiers() Modifiers {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modifiers
}

// Pinch returns the active two-finger state, or nil.
func (t *Tracker) Pinch() *pattern.TouchPair {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.pinch == nil {
		return nil
	}
	pair := *t.pinch
	return &pair
}

// Pause drops the live stroke and ignores events until Resume.
func (t *Tracker) Pause() {
	t.mu.Lock()
	t.paused = true
	t.pinch = nil
	t.abandon()
	t.mu.Unlock()
}

// Resume accepts events again.
func (t *Tracker) Resume() {
	t.mu.Lock()
	t.paused = false
	t.mu.Unlock()
}

// Paused reports whether the tracker is paused.
func (t *Tracker) Paused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// Reset returns the tracker to its initial state. Pause state is kept.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.abandon()
	t.strokes.Clear()
	t.keys = make(map[string]KeyState)
	t.modifiers = Modifiers{}
	t.pinch = nil
	t.mu.Unlock()
}
