package voice

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	matched  []string
	cbErrors []string
}

func (r *recorder) VoiceCommand(name string)  { r.matched = append(r.matched, name) }
func (r *recorder) CallbackError(name string) { r.cbErrors = append(r.cbErrors, name) }

func TestCommand_Validation(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Command("", "undo")
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = reg.Command("undo", "")
	assert.ErrorIs(t, err, ErrInvalidCommand)

	_, err = reg.Command("broken", "(unclosed")
	assert.Error(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestHandle_FirstMatchWins(t *testing.T) {
	reg := NewRegistry()

	var calls []string
	cb := func(name string) Callback {
		return func(Match) error {
			calls = append(calls, name)
			return nil
		}
	}

	b, err := reg.Command("select-all", `\bselect all\b`)
	require.NoError(t, err)
	b.Priority(10).Action("selectAll").On(cb("select-all"))

	b, err = reg.Command("select", `\bselect\b`)
	require.NoError(t, err)
	b.On(cb("select"))

	m, ok := reg.Handle("  Please SELECT ALL components ", 1000)
	require.True(t, ok)
	assert.Equal(t, "select-all", m.Name)
	assert.Equal(t, "selectAll", m.Action)
	assert.Equal(t, "Please SELECT ALL components", m.Transcript)
	assert.Equal(t, []string{"select-all"}, calls)
}

func TestHandle_NamedGroups(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Command("zoom", `zoom (?P<direction>in|out)`)
	require.NoError(t, err)

	m, ok := reg.Handle("zoom out", 1000)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"direction": "out"}, m.Args)
}

func TestHandle_CooldownAndDisable(t *testing.T) {
	reg := NewRegistry()
	b, err := reg.Command("undo", `undo`)
	require.NoError(t, err)
	b.Cooldown(500)

	_, ok := reg.Handle("undo", 1000)
	assert.True(t, ok)
	_, ok = reg.Handle("undo", 1200)
	assert.False(t, ok)
	_, ok = reg.Handle("undo", 1500)
	assert.True(t, ok)

	b.Disable()
	_, ok = reg.Handle("undo", 5000)
	assert.False(t, ok)

	b.Enable()
	reg.Reset()
	_, ok = reg.Handle("undo", 5100)
	assert.True(t, ok)
}

func TestHandle_CallbackFailure(t *testing.T) {
	rec := &recorder{}
	var sunk []Match
	reg := NewRegistry(WithRecorder(rec), WithSink(func(m Match) { sunk = append(sunk, m) }))

	b, _ := reg.Command("fail", "fail")
	b.On(func(Match) error { return errors.New("nope") })
	b, _ = reg.Command("panic", "panic")
	b.On(func(Match) error { panic("boom") })

	_, ok := reg.Handle("fail", 1000)
	assert.True(t, ok)
	assert.NotPanics(t, func() { reg.Handle("panic", 1000) })

	assert.Equal(t, []string{"fail", "panic"}, rec.matched)
	assert.Equal(t, []string{"fail", "panic"}, rec.cbErrors)
	assert.Len(t, sunk, 2)
}

func TestHandle_NoMatch(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.Command("undo", "undo")

	_, ok := reg.Handle("redo", 1000)
	assert.False(t, ok)
	_, ok = reg.Handle("   ", 1000)
	assert.False(t, ok)
}

func TestList(t *testing.T) {
	reg := NewRegistry()
	_, _ = reg.Command("a", "alpha")
	b, _ := reg.Command("b", "beta")
	b.Priority(5)

	list := reg.List()
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].Name)
	assert.Equal(t, "alpha", list[1].Pattern)

	reg.Clear()
	assert.Equal(t, 0, reg.Len())
}
