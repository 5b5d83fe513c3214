package event

import (
	"context"
	"log/slog"
)

const listenerBuffer = 256

type Handler func(ctx context.Context, e Event) error

// Listener fans events out to every registered handler from a single goroutine.
type Listener struct {
	handlers []Handler
	logger   *slog.Logger
	events   chan Event
}

func NewListener(logger *slog.Logger) *Listener {
	return &Listener{
		logger: logger,
		events: make(chan Event, listenerBuffer),
	}
}

// Register adds a handler. It must be called before Listen.
func (l *Listener) Register(h Handler) {
	l.handlers = append(l.handlers, h)
}

// Send queues an event without blocking the caller. Events are dropped when handlers fall behind.
func (l *Listener) Send(e Event) {
	select {
	case l.events <- e:
	default:
		l.logger.Warn("Event listener is full, dropping event", slog.String("message", e.Message()))
	}
}

func (l *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case e := <-l.events:
			for _, h := range l.handlers {
				if err := h(ctx, e); err != nil {
					l.logger.Error("error running event handler", slog.Any("error", err))
				}
			}
		}
	}
}
