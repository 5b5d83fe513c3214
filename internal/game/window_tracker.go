package game

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/frikadellen/baf/internal/ui"
)

// WindowSession is the bot's view of one open window. Its action counter starts at zero
// and is only advanced through NextAction.
type WindowSession struct {
	ID       int
	Kind     ui.WindowKind
	Title    string
	OpenedAt time.Time

	action atomic.Int32

	mu    sync.RWMutex
	items []ui.Item
	open  bool
}

func newSession(id int) *WindowSession {
	return &WindowSession{ID: id}
}

// NextAction returns the counter value for the next click and advances it.
func (s *WindowSession) NextAction() int {
	return int(s.action.Add(1) - 1)
}

// Actions is the number of clicks sent to this window so far.
func (s *WindowSession) Actions() int {
	return int(s.action.Load())
}

func (s *WindowSession) Items() []ui.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ui.Item(nil), s.items...)
}

func (s *WindowSession) Item(slot int) (ui.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ui.ItemAt(s.items, slot)
}

func (s *WindowSession) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

func (s *WindowSession) setItems(items []ui.Item) {
	s.mu.Lock()
	s.items = append(s.items[:0], items...)
	s.mu.Unlock()
}

func (s *WindowSession) setItem(item ui.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].Slot == item.Slot {
			s.items[i] = item
			return
		}
	}
	s.items = append(s.items, item)
}

const sessionHistory = 8

// WindowTracker keeps the current window session in sync with inbound events.
type WindowTracker struct {
	mu       sync.Mutex
	current  *WindowSession
	reserved *WindowSession
	recent   []*WindowSession
}

func NewWindowTracker() *WindowTracker {
	return &WindowTracker{}
}

// Current returns the open window session, or nil.
func (t *WindowTracker) Current() *WindowSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Session returns the open session with the given id, or the reserved one.
func (t *WindowTracker) Session(id int) *WindowSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil && t.current.ID == id {
		return t.current
	}
	if t.reserved != nil && t.reserved.ID == id {
		return t.reserved
	}
	return nil
}

// Lookup returns the most recent session opened with the given id, even if it already closed.
func (t *WindowTracker) Lookup(id int) *WindowSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := len(t.recent) - 1; i >= 0; i-- {
		if t.recent[i].ID == id {
			return t.recent[i]
		}
	}
	return nil
}

// Reserve creates the session for a window that has not opened yet, so a click can be sent
// ahead of its open event. The session is adopted when the window with that id opens. A window
// that already opened keeps its own session and counter.
func (t *WindowTracker) Reserve(id int) *WindowSession {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil && t.current.ID == id {
		return t.current
	}
	if t.reserved == nil || t.reserved.ID != id {
		t.reserved = newSession(id)
	}
	return t.reserved
}

// Discard drops the session with the given id, used when a wait on it times out.
func (t *WindowTracker) Discard(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil && t.current.ID == id {
		t.close(t.current)
		t.current = nil
	}
	if t.reserved != nil && t.reserved.ID == id {
		t.reserved = nil
	}
}

// Reset forgets every session, used on disconnect.
func (t *WindowTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current != nil {
		t.close(t.current)
	}
	t.current = nil
	t.reserved = nil
	t.recent = nil
}

// Apply updates sessions from an inbound event.
func (t *WindowTracker) Apply(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch evt := e.(type) {
	case WindowOpened:
		s := newSession(evt.ID)
		if t.reserved != nil && t.reserved.ID == evt.ID {
			s = t.reserved
		}
		t.reserved = nil
		s.Kind = evt.Kind()
		s.Title = ui.ParseTitle(evt.Title)
		s.OpenedAt = time.Now()
		s.mu.Lock()
		s.open = true
		s.mu.Unlock()
		if t.current != nil {
			t.close(t.current)
		}
		t.current = s
		t.recent = append(t.recent, s)
		if len(t.recent) > sessionHistory {
			t.recent = t.recent[len(t.recent)-sessionHistory:]
		}
	case WindowItems:
		if t.current != nil && t.current.ID == evt.ID {
			t.current.setItems(evt.Items)
		}
	case SlotUpdate:
		if t.current != nil && t.current.ID == evt.ID {
			t.current.setItem(evt.Item)
		}
	case WindowClosed:
		if t.current != nil && t.current.ID == evt.ID {
			t.close(t.current)
			t.current = nil
		}
	case Disconnected:
		if t.current != nil {
			t.close(t.current)
		}
		t.current = nil
		t.reserved = nil
	}
}

func (t *WindowTracker) close(s *WindowSession) {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}
