package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Handler func(ctx context.Context, ev *Event) error

// Bus fans each event out to every subscribed handler in subscription order. A failing handler
// is logged and does not stop delivery to the others: the state change has already committed.
type Bus struct {
	logger   *zap.Logger
	mu       sync.RWMutex
	handlers []Handler
}

var _ IEventEmitter = (*Bus)(nil)

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *Bus) Emit(ctx context.Context, ev *Event) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, ev); err != nil {
			b.logger.Sugar().Warnw("Event handler failed",
				"event_id", ev.ID,
				"event_type", ev.Type,
				"error", err,
			)
		}
	}
	return nil
}

// Recorder keeps every event in memory, in publication order, for callers that inspect what a
// run emitted. Subscribe its Handle method to a Bus.
type Recorder struct {
	mu     sync.Mutex
	events []*Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Handle(_ context.Context, ev *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Events() []*Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
