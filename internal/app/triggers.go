package app

import (
	"context"
	"sync"

	"github.com/ayusman/twingest/internal/engine"
	"github.com/ayusman/twingest/internal/store"
	"github.com/ayusman/twingest/pkg/logger"
)

const triggerQueueSize = 256

// triggerLog persists detections off the session goroutines. Entries are
// dropped with a warning when the queue is full.
type triggerLog struct {
	repo  *store.TriggerRepository
	log   logger.Logger
	queue chan store.Trigger
	wg    sync.WaitGroup
}

func newTriggerLog(repo *store.TriggerRepository, log logger.Logger) *triggerLog {
	return &triggerLog{
		repo:  repo,
		log:   log,
		queue: make(chan store.Trigger, triggerQueueSize),
	}
}

// notifier returns a session notifier tagging entries with sessionID.
func (l *triggerLog) notifier(sessionID string) func(engine.Notification) {
	return func(n engine.Notification) {
		t, ok := toTrigger(sessionID, n)
		if !ok {
			return
		}
		select {
		case l.queue <- t:
		default:
			l.log.Warn(context.Background(), "trigger log queue full, dropping entry",
				logger.String("session", sessionID), logger.String("name", t.Name))
		}
	}
}

// start drains the queue in the background until ctx is done.
func (l *triggerLog) start(ctx context.Context) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run(ctx)
	}()
}

// run drains the queue until ctx is done, then flushes what is left.
func (l *triggerLog) run(ctx context.Context) {
	for {
		select {
		case t := <-l.queue:
			l.write(ctx, t)
		case <-ctx.Done():
			for {
				select {
				case t := <-l.queue:
					l.write(ctx, t)
				default:
					return
				}
			}
		}
	}
}

func (l *triggerLog) wait() {
	l.wg.Wait()
}

func (l *triggerLog) write(ctx context.Context, t store.Trigger) {
	if err := l.repo.Record(&t); err != nil {
		l.log.Error(ctx, "failed to record trigger", logger.String("name", t.Name), logger.Error(err))
	}
}

func toTrigger(sessionID string, n engine.Notification) (store.Trigger, bool) {
	switch {
	case n.Gesture != nil:
		return store.Trigger{
			SessionID:  sessionID,
			Kind:       store.TriggerKindGesture,
			Name:       n.Gesture.Name,
			Type:       string(n.Gesture.Type),
			Action:     n.Gesture.Action,
			Confidence: n.Gesture.Result.Confidence,
			Timestamp:  n.Gesture.Timestamp,
		}, true
	case n.Voice != nil:
		return store.Trigger{
			SessionID: sessionID,
			Kind:      store.TriggerKindVoice,
			Name:      n.Voice.Name,
			Action:    n.Voice.Action,
			Timestamp: n.Voice.Timestamp,
		}, true
	default:
		return store.Trigger{}, false
	}
}
