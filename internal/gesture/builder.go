package gesture

import (
	"fmt"

	"github.com/ayusman/twingest/internal/geom"
	"github.com/ayusman/twingest/internal/pattern"
)

// Builder configures one registered definition. Every method mutates the
// stored definition and returns the builder for chaining. The first failing
// call is kept and reported by Err; later calls still apply.
type Builder struct {
	registry *Registry
	name     string
	err      error
}

// Name returns the name of the definition being built.
func (b *Builder) Name() string {
	return b.name
}

// Err returns the first error raised while building.
func (b *Builder) Err() error {
	return b.err
}

func (b *Builder) set(fn func(d *Definition)) *Builder {
	if !b.registry.update(b.name, fn) && b.err == nil {
		b.err = fmt.Errorf("gesture %q is no longer registered", b.name)
	}
	return b
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) detector(kind pattern.Kind, det pattern.Detector, opts any) *Builder {
	options := pattern.OptionsMap(opts)
	return b.set(func(d *Definition) {
		d.Kind = kind
		d.Detector = det
		d.Options = options
		if kind == pattern.KindPinch {
			d.Trigger = TriggerPinch
		}
	})
}

func first[T any](opts []T, def T) T {
	if len(opts) > 0 {
		return opts[0]
	}
	return def
}

// Circle selects the circle detector.
func (b *Builder) Circle(opts ...pattern.CircleOptions) *Builder {
	o := first(opts, pattern.DefaultCircleOptions())
	return b.detector(pattern.KindCircle, pattern.Circle(o), o)
}

// Swipe selects the stroke swipe detector.
func (b *Builder) Swipe(opts ...pattern.SwipeOptions) *Builder {
	o := first(opts, pattern.DefaultSwipeOptions())
	return b.detector(pattern.KindSwipe, pattern.Swipe(o), o)
}

// NativeSwipe selects the swipe detector that accepts two-sample strokes.
func (b *Builder) NativeSwipe(opts ...pattern.SwipeOptions) *Builder {
	o := first(opts, pattern.DefaultNativeSwipeOptions())
	return b.detector(pattern.KindSwipe, pattern.Swipe(o), o)
}

// Zigzag selects the zigzag detector.
func (b *Builder) Zigzag(opts ...pattern.ZigzagOptions) *Builder {
	o := first(opts, pattern.DefaultZigzagOptions())
	return b.detector(pattern.KindZigzag, pattern.Zigzag(o), o)
}

// Line selects the line detector.
func (b *Builder) Line(opts ...pattern.LineOptions) *Builder {
	o := first(opts, pattern.DefaultLineOptions())
	return b.detector(pattern.KindLine, pattern.Line(o), o)
}

// Pinch selects the pinch detector and moves the definition to the pinch pass.
func (b *Builder) Pinch(opts ...pattern.PinchOptions) *Builder {
	o := first(opts, pattern.DefaultPinchOptions())
	return b.detector(pattern.KindPinch, pattern.Pinch(o), o)
}

// Spiral selects the spiral detector.
func (b *Builder) Spiral(opts ...pattern.SpiralOptions) *Builder {
	o := first(opts, pattern.DefaultSpiralOptions())
	return b.detector(pattern.KindSpiral, pattern.Spiral(o), o)
}

// Lasso selects the lasso detector.
func (b *Builder) Lasso(opts ...pattern.LassoOptions) *Builder {
	o := first(opts, pattern.DefaultLassoOptions())
	return b.detector(pattern.KindLasso, pattern.Lasso(o), o)
}

// Cross selects the cross detector.
func (b *Builder) Cross(opts ...pattern.CrossOptions) *Builder {
	o := first(opts, pattern.DefaultCrossOptions())
	return b.detector(pattern.KindCross, pattern.Cross(o), o)
}

// Path selects template matching against the given stroke.
func (b *Builder) Path(template []geom.Point, opts ...pattern.PathOptions) *Builder {
	o := first(opts, pattern.DefaultPathOptions())
	o.Template = template
	return b.detector(pattern.KindPath, pattern.Path(o), o)
}

// Sequence selects a multi-stroke sequence of the given steps.
func (b *Builder) Sequence(maxTimeBetween int64, steps ...pattern.Step) *Builder {
	seq := pattern.NewSequence(maxTimeBetween, steps...)
	return b.set(func(d *Definition) {
		d.Kind = pattern.KindSequence
		d.Detector = seq
		d.Options = map[string]any{"maxTimeBetween": maxTimeBetween, "steps": seq.Steps()}
	})
}

// Custom selects a caller supplied detector.
func (b *Builder) Custom(fn pattern.DetectorFunc) *Builder {
	return b.set(func(d *Definition) {
		d.Kind = pattern.KindCustom
		d.Detector = fn
		d.Options = nil
	})
}

// Detect selects a built-in detector by kind with decoded options.
func (b *Builder) Detect(kind pattern.Kind, options map[string]any) *Builder {
	det, err := pattern.New(kind, options)
	if err != nil {
		return b.fail(fmt.Errorf("gesture %q: %w", b.name, err))
	}
	return b.set(func(d *Definition) {
		d.Kind = kind
		d.Detector = det
		d.Options = options
		if kind == pattern.KindPinch {
			d.Trigger = TriggerPinch
		}
	})
}

// WithTouches requires at least n archived strokes. Values below one become one.
func (b *Builder) WithTouches(n int) *Builder {
	if n < 1 {
		n = 1
	}
	return b.set(func(d *Definition) { d.RequiredTouches = n })
}

// InArea restricts the gesture to strokes lying entirely inside area.
func (b *Builder) InArea(area geom.Rect) *Builder {
	return b.set(func(d *Definition) { d.Area = &area })
}

// When gates the gesture on a predicate.
func (b *Builder) When(cond Condition) *Builder {
	return b.set(func(d *Definition) {
		d.Condition = cond
		d.ConditionExpr = ""
	})
}

// WhenExpr gates the gesture on an expression such as
// "selection > 0 && !shift". A compile error is reported by Err.
func (b *Builder) WhenExpr(src string) *Builder {
	cond, err := CompileCondition(src, b.registry.log)
	if err != nil {
		return b.fail(fmt.Errorf("gesture %q: %w", b.name, err))
	}
	return b.set(func(d *Definition) {
		d.Condition = cond
		d.ConditionExpr = src
	})
}

// On sets the callback run when the gesture wins.
func (b *Builder) On(cb Callback) *Builder {
	return b.set(func(d *Definition) { d.Callback = cb })
}

// Cooldown sets the minimum time between triggers, in ms.
func (b *Builder) Cooldown(ms int64) *Builder {
	if ms < 0 {
		ms = 0
	}
	return b.set(func(d *Definition) { d.Cooldown = ms })
}

// Priority sets the evaluation priority. Higher values are tried first.
func (b *Builder) Priority(p int) *Builder {
	return b.set(func(d *Definition) { d.Priority = p })
}

// Enable marks the gesture enabled.
func (b *Builder) Enable() *Builder {
	return b.set(func(d *Definition) { d.Enabled = true })
}

// Disable marks the gesture disabled.
func (b *Builder) Disable() *Builder {
	return b.set(func(d *Definition) { d.Enabled = false })
}

// Continuous evaluates the gesture on every frame while a stroke is live
// instead of once at stroke end.
func (b *Builder) Continuous() *Builder {
	return b.set(func(d *Definition) { d.Trigger = TriggerFrame })
}

// Action names the IDE action carried by the detection notification.
func (b *Builder) Action(name string) *Builder {
	return b.set(func(d *Definition) { d.Action = name })
}
