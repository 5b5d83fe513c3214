package game

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/frikadellen/baf/internal/baferr"
	"github.com/frikadellen/baf/internal/ui"
)

const defaultStreamBuffer = 64

// EventStream is the bounded, ordered channel executors wait on. The window tracker is
// updated before an event is queued, so a matched event always has its session state applied.
type EventStream struct {
	logger  *slog.Logger
	tracker *WindowTracker
	ch      chan Event
}

func NewEventStream(logger *slog.Logger, tracker *WindowTracker, size int) *EventStream {
	if size <= 0 {
		size = defaultStreamBuffer
	}
	return &EventStream{
		logger:  logger,
		tracker: tracker,
		ch:      make(chan Event, size),
	}
}

func (s *EventStream) Tracker() *WindowTracker {
	return s.tracker
}

// Publish applies the event to the tracker and queues it. When the buffer is full the oldest
// event is dropped, since it can no longer be the one an executor is waiting for.
func (s *EventStream) Publish(e Event) {
	s.tracker.Apply(e)

	for {
		select {
		case s.ch <- e:
			return
		default:
		}

		select {
		case old := <-s.ch:
			s.logger.Debug("Event stream full, dropping oldest event", slog.String("event", Name(old)))
		default:
		}
	}
}

// Drain discards queued events. Executors call it before sending their first action.
func (s *EventStream) Drain() {
	for {
		select {
		case <-s.ch:
		default:
			return
		}
	}
}

// Await consumes events until one satisfies match, the timeout elapses or ctx is done.
// A disconnect aborts the wait with a transport failure.
func (s *EventStream) Await(ctx context.Context, timeout time.Duration, what string, match func(Event) bool) (Event, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
			return nil, fmt.Errorf("%w: %s not received within %s", baferr.ErrWindowTimeout, what, timeout)
		case e := <-s.ch:
			if d, isDisconnect := e.(Disconnected); isDisconnect {
				return nil, fmt.Errorf("%w: disconnected while waiting for %s: %s", baferr.ErrTransport, what, d.Reason)
			}
			if match(e) {
				return e, nil
			}
		}
	}
}

// AwaitWindow waits for a window of one of the given kinds to open and returns its session.
func (s *EventStream) AwaitWindow(ctx context.Context, timeout time.Duration, kinds ...ui.WindowKind) (*WindowSession, error) {
	e, err := s.Await(ctx, timeout, kindNames(kinds), func(e Event) bool {
		opened, isOpen := e.(WindowOpened)
		return isOpen && slices.Contains(kinds, opened.Kind())
	})
	if err != nil {
		return nil, err
	}

	return s.tracker.Lookup(e.(WindowOpened).ID), nil
}

// AwaitSlot waits until the slot of the session holds an item accepted by ready.
func (s *EventStream) AwaitSlot(ctx context.Context, timeout time.Duration, session *WindowSession, slot int, ready func(ui.Item) bool) (ui.Item, error) {
	if it, found := session.Item(slot); found && ready(it) {
		return it, nil
	}

	var item ui.Item
	_, err := s.Await(ctx, timeout, fmt.Sprintf("slot %d of window %d", slot, session.ID), func(e Event) bool {
		switch evt := e.(type) {
		case WindowItems:
			if evt.ID != session.ID {
				return false
			}
		case SlotUpdate:
			if evt.ID != session.ID || evt.Item.Slot != slot {
				return false
			}
		default:
			return false
		}
		it, found := session.Item(slot)
		if found && ready(it) {
			item = it
			return true
		}
		return false
	})

	return item, err
}

// AwaitClose waits for the session's window to close.
func (s *EventStream) AwaitClose(ctx context.Context, timeout time.Duration, session *WindowSession) error {
	if !session.IsOpen() {
		return nil
	}
	_, err := s.Await(ctx, timeout, fmt.Sprintf("close of window %d", session.ID), func(e Event) bool {
		closed, isClose := e.(WindowClosed)
		if isClose && closed.ID == session.ID {
			return true
		}
		// A different window replacing this one closes it as well.
		opened, isOpen := e.(WindowOpened)
		return isOpen && opened.ID != session.ID
	})
	return err
}

// AwaitSign waits for the server to open a sign editor.
func (s *EventStream) AwaitSign(ctx context.Context, timeout time.Duration) (SignOpened, error) {
	e, err := s.Await(ctx, timeout, "sign editor", func(e Event) bool {
		_, isSign := e.(SignOpened)
		return isSign
	})
	if err != nil {
		return SignOpened{}, err
	}
	return e.(SignOpened), nil
}

// AwaitChat waits for a chat line accepted by match.
func (s *EventStream) AwaitChat(ctx context.Context, timeout time.Duration, what string, match func(string) bool) (string, error) {
	e, err := s.Await(ctx, timeout, what, func(e Event) bool {
		chat, isChat := e.(ChatReceived)
		return isChat && match(chat.Text)
	})
	if err != nil {
		return "", err
	}
	return e.(ChatReceived).Text, nil
}

func kindNames(kinds []ui.WindowKind) string {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.String())
	}
	return strings.Join(names, "/") + " window"
}
