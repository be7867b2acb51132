// Package bindings maps declarative gesture and voice definitions, loaded from
// YAML files, the store or HTTP payloads, onto live registries.
package bindings

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/twingest/internal/geom"
	"github.com/ayusman/twingest/internal/gesture"
	"github.com/ayusman/twingest/internal/pattern"
	"github.com/ayusman/twingest/internal/voice"
)

//go:embed schema.json
var schemaJSON []byte

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalidBinding is returned when a binding fails validation.
var ErrInvalidBinding = errors.New("invalid binding")

// Gesture is the declarative form of a gesture definition.
type Gesture struct {
	Name      string         `yaml:"name" json:"name"`
	Type      pattern.Kind   `yaml:"type" json:"type"`
	Options   map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
	Priority  int            `yaml:"priority,omitempty" json:"priority,omitempty"`
	Cooldown  *int64         `yaml:"cooldown,omitempty" json:"cooldown,omitempty"` // nil keeps the registry default
	Enabled   *bool          `yaml:"enabled,omitempty" json:"enabled,omitempty"`   // nil means enabled
	Area      *geom.Rect     `yaml:"area,omitempty" json:"area,omitempty"`
	Touches   int            `yaml:"touches,omitempty" json:"touches,omitempty"`
	Condition string         `yaml:"condition,omitempty" json:"condition,omitempty"`
	Trigger   string         `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	Action    string         `yaml:"action,omitempty" json:"action,omitempty"`
}

// Command is the declarative form of a voice command.
type Command struct {
	Name     string `yaml:"name" json:"name"`
	Pattern  string `yaml:"pattern" json:"pattern"`
	Priority int    `yaml:"priority,omitempty" json:"priority,omitempty"`
	Cooldown int64  `yaml:"cooldown,omitempty" json:"cooldown,omitempty"`
	Enabled  *bool  `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Action   string `yaml:"action,omitempty" json:"action,omitempty"`
}

// Set is a bindings document.
type Set struct {
	Gestures []Gesture `yaml:"gestures,omitempty" json:"gestures,omitempty"`
	Voice    []Command `yaml:"voice,omitempty" json:"voice,omitempty"`
}

// Default returns the built-in IDE bindings.
func Default() *Set {
	set, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("default bindings: %v", err))
	}
	return set
}

// LoadFile reads and validates a YAML bindings file.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bindings: %w", err)
	}
	set, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

// Parse decodes and validates a YAML (or JSON) bindings document.
func Parse(data []byte) (*Set, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidBinding)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bindings: %w", err)
	}
	if err := validateSchema(gojsonschema.NewGoLoader(doc)); err != nil {
		return nil, err
	}

	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse bindings: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

// Validate checks every binding: schema, detector options, conditions and
// voice patterns.
func (s *Set) Validate() error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode bindings: %w", err)
	}
	if err := validateSchema(gojsonschema.NewBytesLoader(raw)); err != nil {
		return err
	}

	// Dry run against scratch registries
	if err := s.Apply(gesture.NewRegistry(0, nil), voice.NewRegistry()); err != nil {
		return err
	}
	return nil
}

// ValidateGesture checks a single gesture binding.
func ValidateGesture(g Gesture) error {
	return (&Set{Gestures: []Gesture{g}}).Validate()
}

// Apply registers every binding. Gestures and commands with an existing name
// are replaced. The first failure stops the apply.
func (s *Set) Apply(gestures *gesture.Registry, commands *voice.Registry) error {
	for _, g := range s.Gestures {
		if err := ApplyGesture(gestures, g); err != nil {
			return err
		}
	}
	for _, c := range s.Voice {
		if err := ApplyCommand(commands, c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyGesture registers one gesture binding.
func ApplyGesture(reg *gesture.Registry, g Gesture) error {
	b, err := reg.Gesture(g.Name)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}

	b.Detect(g.Type, g.Options).Priority(g.Priority).Action(g.Action)
	if g.Cooldown != nil {
		b.Cooldown(*g.Cooldown)
	}
	if g.Enabled != nil && !*g.Enabled {
		b.Disable()
	}
	if g.Area != nil {
		b.InArea(*g.Area)
	}
	if g.Touches > 0 {
		b.WithTouches(g.Touches)
	}
	if strings.TrimSpace(g.Condition) != "" {
		b.WhenExpr(g.Condition)
	}
	switch gesture.Trigger(g.Trigger) {
	case gesture.TriggerFrame:
		b.Continuous()
	case "", gesture.TriggerStroke, gesture.TriggerPinch:
	default:
		reg.Remove(g.Name)
		return fmt.Errorf("%w: gesture %q: unknown trigger %q", ErrInvalidBinding, g.Name, g.Trigger)
	}

	if err := b.Err(); err != nil {
		reg.Remove(g.Name)
		return fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}
	return nil
}

// ApplyCommand registers one voice command binding.
func ApplyCommand(reg *voice.Registry, c Command) error {
	b, err := reg.Command(c.Name, c.Pattern)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBinding, err)
	}
	b.Priority(c.Priority).Cooldown(c.Cooldown).Action(c.Action)
	if c.Enabled != nil && !*c.Enabled {
		b.Disable()
	}
	return nil
}

func validateSchema(doc gojsonschema.JSONLoader) error {
	result, err := gojsonschema.Validate(gojsonschema.NewBytesLoader(schemaJSON), doc)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidBinding, strings.Join(msgs, "; "))
}
