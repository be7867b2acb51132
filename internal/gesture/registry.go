package gesture

import (
	"context"
	"sort"
	"sync"

	"github.com/ayusman/twingest/internal/pattern"
	"github.com/ayusman/twingest/pkg/logger"
)

// Registry holds gesture definitions keyed by name. Reads and writes are
// guarded so HTTP introspection may run alongside dispatch.
type Registry struct {
	mu              sync.RWMutex
	defs            map[string]*Definition
	next            int
	defaultCooldown int64
	log             logger.Logger
}

// NewRegistry creates an empty registry. defaultCooldown applies to
// definitions that never call Cooldown.
func NewRegistry(defaultCooldown int64, log logger.Logger) *Registry {
	if log == nil {
		log = logger.Nop()
	}
	return &Registry{
		defs:            make(map[string]*Definition),
		defaultCooldown: defaultCooldown,
		log:             log,
	}
}

// Gesture starts a fresh definition named name, replacing any existing one
// wholesale, and returns a builder to configure it.
func (r *Registry) Gesture(name string) (*Builder, error) {
	if name == "" {
		return nil, ErrInvalidName
	}

	r.mu.Lock()
	_, replaced := r.defs[name]
	r.defs[name] = &Definition{
		Name:            name,
		Kind:            pattern.KindCustom,
		Enabled:         true,
		Cooldown:        r.defaultCooldown,
		RequiredTouches: 1,
		Trigger:         TriggerStroke,
		order:           r.next,
	}
	r.next++
	r.mu.Unlock()

	if replaced {
		r.log.Debug(context.Background(), "gesture replaced", logger.String("name", name))
	}
	return &Builder{registry: r, name: name}, nil
}

// MustGesture is like Gesture but panics on an invalid name.
func (r *Registry) MustGesture(name string) *Builder {
	b, err := r.Gesture(name)
	if err != nil {
		panic(err)
	}
	return b
}

// update applies fn to the named definition under the write lock.
func (r *Registry) update(name string, fn func(d *Definition)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.defs[name]
	if !ok {
		return false
	}
	fn(d)
	return true
}

// Get returns the introspection view of a definition.
func (r *Registry) Get(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.defs[name]
	if !ok {
		return Info{}, false
	}
	return d.info(), true
}

// List returns every definition in dispatch order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sorted := r.sortedLocked()
	out := make([]Info, len(sorted))
	for i, d := range sorted {
		out[i] = d.info()
	}
	return out
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Remove deletes a definition. It reports whether one existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[name]; !ok {
		return false
	}
	delete(r.defs, name)
	return true
}

// SetEnabled toggles a definition. It reports whether one existed.
func (r *Registry) SetEnabled(name string, enabled bool) bool {
	return r.update(name, func(d *Definition) { d.Enabled = enabled })
}

// Reset clears cooldown timestamps and sequence progress.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.defs {
		d.LastTriggered = 0
		if rs, ok := d.Detector.(pattern.Resetter); ok {
			rs.Reset()
		}
	}
}

// Clear removes every definition.
func (r *Registry) Clear() {
	r.mu.Lock()
	r.defs = make(map[string]*Definition)
	r.mu.Unlock()
}

// candidates returns value copies of the enabled definitions for trigger in
// dispatch order: priority descending, then registration order.
func (r *Registry) candidates(trigger Trigger) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Definition
	for _, d := range r.sortedLocked() {
		if d.Enabled && d.Trigger == trigger {
			out = append(out, *d)
		}
	}
	return out
}

// markTriggered records a win, unless the definition was replaced meanwhile.
func (r *Registry) markTriggered(name string, order int, now int64) {
	r.update(name, func(d *Definition) {
		if d.order == order {
			d.LastTriggered = now
		}
	})
}

func (r *Registry) sortedLocked() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].order < out[j].order
	})
	return out
}
