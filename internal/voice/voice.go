// Package voice matches speech transcripts against registered commands with
// the same first-match-wins contract as gesture dispatch.
package voice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ayusman/twingest/pkg/logger"
)

// ErrInvalidCommand is returned for a command without a name or pattern.
var ErrInvalidCommand = errors.New("voice command needs a name and a pattern")

// Match is the notification emitted for a recognized command.
type Match struct {
	Name       string            `json:"name"`
	Action     string            `json:"action,omitempty"`
	Transcript string            `json:"transcript"`
	Args       map[string]string `json:"args,omitempty"` // Named capture groups
	Timestamp  int64             `json:"timestamp"`
}

// Callback runs when its command wins.
type Callback func(m Match) error

// Recorder receives voice metrics.
type Recorder interface {
	VoiceCommand(name string)
	CallbackError(name string)
}

type nopRecorder struct{}

func (nopRecorder) VoiceCommand(string)  {}
func (nopRecorder) CallbackError(string) {}

type command struct {
	name          string
	pattern       *regexp.Regexp
	callback      Callback
	cooldown      int64
	lastTriggered int64
	enabled       bool
	priority      int
	action        string
	order         int
}

// Info is the introspection view of a command.
type Info struct {
	Name          string `json:"name"`
	Pattern       string `json:"pattern"`
	Enabled       bool   `json:"enabled"`
	Priority      int    `json:"priority"`
	Cooldown      int64  `json:"cooldown"`
	LastTriggered int64  `json:"lastTriggered"`
	Action        string `json:"action,omitempty"`
}

// Registry holds voice commands by name.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]*command
	next     int
	log      logger.Logger
	recorder Recorder
	sink     func(Match)
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(log logger.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(r *Registry) { r.recorder = rec }
}

// WithSink sets the match sink.
func WithSink(sink func(Match)) Option {
	return func(r *Registry) { r.sink = sink }
}

// NewRegistry creates an empty command registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		commands: make(map[string]*command),
		log:      logger.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Command registers a command matching transcripts against pattern, case
// insensitive. A same-named command is replaced.
func (r *Registry) Command(name, pattern string) (*Builder, error) {
	if name == "" || pattern == "" {
		return nil, ErrInvalidCommand
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("voice command %q: %w", name, err)
	}

	r.mu.Lock()
	r.commands[name] = &command{
		name:    name,
		pattern: re,
		enabled: true,
		order:   r.next,
	}
	r.next++
	r.mu.Unlock()

	return &Builder{registry: r, name: name}, nil
}

// List returns every command in match order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sorted := r.sortedLocked()
	out := make([]Info, len(sorted))
	for i, c := range sorted {
		out[i] = Info{
			Name:          c.name,
			Pattern:       strings.TrimPrefix(c.pattern.String(), "(?i)"),
			Enabled:       c.enabled,
			Priority:      c.priority,
			Cooldown:      c.cooldown,
			LastTriggered: c.lastTriggered,
			Action:        c.action,
		}
	}
	return out
}

// Len returns the number of commands.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Reset clears cooldown timestamps.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.commands {
		c.lastTriggered = 0
	}
}

// Clear removes every command.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.commands = make(map[string]*command)
	r.mu.Unlock()
}

// Handle matches a transcript. The first enabled command, by priority then
// registration order, that is out of cooldown and whose pattern matches wins.
func (r *Registry) Handle(transcript string, now int64) (Match, bool) {
	text := strings.TrimSpace(transcript)
	if text == "" {
		return Match{}, false
	}

	r.mu.Lock()
	var win *command
	var groups []string
	for _, c := range r.sortedLocked() {
		if !c.enabled {
			continue
		}
		if c.lastTriggered > 0 && now-c.lastTriggered < c.cooldown {
			continue
		}
		if groups = c.pattern.FindStringSubmatch(text); groups != nil {
			win = c
			break
		}
	}
	if win == nil {
		r.mu.Unlock()
		return Match{}, false
	}
	win.lastTriggered = now
	cb := win.callback
	m := Match{
		Name:       win.name,
		Action:     win.action,
		Transcript: text,
		Args:       namedGroups(win.pattern, groups),
		Timestamp:  now,
	}
	r.mu.Unlock()

	r.recorder.VoiceCommand(m.Name)
	r.log.Debug(context.Background(), "voice command matched",
		logger.String("command", m.Name), logger.String("transcript", text))

	if cb != nil {
		if err := safeCallback(cb, m); err != nil {
			r.recorder.CallbackError(m.Name)
			r.log.Error(context.Background(), "voice callback failed",
				logger.String("command", m.Name), logger.Error(err))
		}
	}
	if r.sink != nil {
		r.sink(m)
	}
	return m, true
}

func namedGroups(re *regexp.Regexp, groups []string) map[string]string {
	var args map[string]string
	for i, name := range re.SubexpNames() {
		if name == "" || i >= len(groups) {
			continue
		}
		if args == nil {
			args = make(map[string]string)
		}
		args[name] = groups[i]
	}
	return args
}

func safeCallback(cb Callback, m Match) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("callback panic: %v", rec)
		}
	}()
	return cb(m)
}

func (r *Registry) sortedLocked() []*command {
	out := make([]*command, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].priority != out[j].priority {
			return out[i].priority > out[j].priority
		}
		return out[i].order < out[j].order
	})
	return out
}

// Builder configures one registered command.
type Builder struct {
	registry *Registry
	name     string
}

func (b *Builder) set(fn func(c *command)) *Builder {
	b.registry.mu.Lock()
	if c, ok := b.registry.commands[b.name]; ok {
		fn(c)
	}
	b.registry.mu.Unlock()
	return b
}

// On sets the callback.
func (b *Builder) On(cb Callback) *Builder {
	return b.set(func(c *command) { c.callback = cb })
}

// Cooldown sets the minimum time between matches, in ms.
func (b *Builder) Cooldown(ms int64) *Builder {
	return b.set(func(c *command) { c.cooldown = max(ms, 0) })
}

// Priority sets the match priority. Higher values are tried first.
func (b *Builder) Priority(p int) *Builder {
	return b.set(func(c *command) { c.priority = p })
}

// Enable marks the command enabled.
func (b *Builder) Enable() *Builder {
	return b.set(func(c *command) { c.enabled = true })
}

// Disable marks the command disabled.
func (b *Builder) Disable() *Builder {
	return b.set(func(c *command) { c.enabled = false })
}

// Action names the IDE action carried by the match.
func (b *Builder) Action(name string) *Builder {
	return b.set(func(c *command) { c.action = name })
}
