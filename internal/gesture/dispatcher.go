package gesture

import (
	"context"
	"fmt"
	"time"

	"github.com/ayusman/twingest/pkg/logger"
)

// Recorder receives dispatch metrics.
type Recorder interface {
	GestureDetected(name, kind string)
	DetectorError(name string)
	CallbackError(name string)
	ObserveDispatch(trigger string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) GestureDetected(string, string)        {}
func (nopRecorder) DetectorError(string)                  {}
func (nopRecorder) CallbackError(string)                  {}
func (nopRecorder) ObserveDispatch(string, time.Duration) {}

// Sink receives every detection after its callback has run.
type Sink func(d Detection)

// Dispatcher applies Select to a registry and carries out the side effects
// of a win: the cooldown timestamp, the callback and the notification.
type Dispatcher struct {
	registry *Registry
	log      logger.Logger
	recorder Recorder
	sink     Sink
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(log logger.Logger) Option {
	return func(d *Dispatcher) { d.log = log }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec Recorder) Option {
	return func(d *Dispatcher) { d.recorder = rec }
}

// WithSink sets the detection sink.
func WithSink(sink Sink) Option {
	return func(d *Dispatcher) { d.sink = sink }
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		log:      logger.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the dispatched registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch runs one arbitration pass for trigger. At most one callback runs.
// It returns the detection of the winner, if any.
func (d *Dispatcher) Dispatch(trigger Trigger, ctx Context) (Detection, bool) {
	start := time.Now()
	defer func() { d.recorder.ObserveDispatch(string(trigger), time.Since(start)) }()

	sel := Select(d.registry.candidates(trigger), ctx)

	for _, f := range sel.Failures {
		if f.Stage == StageCondition {
			d.log.Warn(context.Background(), "condition failed",
				logger.String("gesture", f.Name), logger.Error(f.Err))
			continue
		}
		d.recorder.DetectorError(f.Name)
		d.log.Warn(context.Background(), "detector failed",
			logger.String("gesture", f.Name), logger.Error(f.Err))
	}

	if sel.Winner == nil {
		return Detection{}, false
	}
	win := sel.Winner

	d.registry.markTriggered(win.Name, win.order, ctx.Now)

	det := Detection{
		Name:      win.Name,
		Type:      win.Kind,
		Action:    win.Action,
		Trigger:   trigger,
		Result:    sel.Result,
		Points:    ctx.Points,
		Touches:   ctx.Touches,
		Timestamp: ctx.Now,
	}

	d.recorder.GestureDetected(win.Name, string(win.Kind))
	d.log.Debug(context.Background(), "gesture detected",
		logger.String("gesture", win.Name),
		logger.String("type", string(win.Kind)),
		logger.Float64("confidence", sel.Result.Confidence))

	if win.Callback != nil {
		if err := safeCallback(win.Callback, det); err != nil {
			d.recorder.CallbackError(win.Name)
			d.log.Error(context.Background(), "gesture callback failed",
				logger.String("gesture", win.Name), logger.Error(err))
		}
	}

	if d.sink != nil {
		d.sink(det)
	}
	return det, true
}

func safeCallback(cb Callback, det Detection) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback panic: %v", r)
		}
	}()
	return cb(det)
}
