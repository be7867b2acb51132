package gesture

import (
	"context"
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ayusman/twingest/pkg/logger"
)

var (
	programMu    sync.Mutex
	programCache = make(map[string]*vm.Program)
)

// conditionEnv is the variable set available to condition expressions.
func conditionEnv(ctx Context) map[string]any {
	keys := make(map[string]bool, len(ctx.Keys))
	for code, state := range ctx.Keys {
		keys[code] = state.Pressed
	}
	return map[string]any{
		"now":       ctx.Now,
		"points":    len(ctx.Points),
		"touches":   ctx.TouchCount,
		"pinching":  ctx.Touches != nil,
		"selection": ctx.SelectionCount,
		"shift":     ctx.Modifiers.Shift,
		"ctrl":      ctx.Modifiers.Ctrl,
		"alt":       ctx.Modifiers.Alt,
		"meta":      ctx.Modifiers.Meta,
		"keys":      keys,
	}
}

// compileProgram returns the cached program for src, compiling on first use.
func compileProgram(src string) (*vm.Program, error) {
	programMu.Lock()
	defer programMu.Unlock()

	if program, ok := programCache[src]; ok {
		return program, nil
	}

	program, err := expr.Compile(src, expr.Env(conditionEnv(Context{})), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", src, err)
	}
	programCache[src] = program
	return program, nil
}

// CompileCondition turns an expression over the condition variables into a
// Condition. Variables: now, points, touches, pinching, selection, shift,
// ctrl, alt, meta and keys (pressed state by key code). An evaluation
// failure is logged and reads as false.
func CompileCondition(src string, log logger.Logger) (Condition, error) {
	program, err := compileProgram(src)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}

	return func(ctx Context) bool {
		out, err := vm.Run(program, conditionEnv(ctx))
		if err != nil {
			log.Warn(context.Background(), "condition evaluation failed",
				logger.String("condition", src), logger.Error(err))
			return false
		}
		ok, _ := out.(bool)
		return ok
	}, nil
}
