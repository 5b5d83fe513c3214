package game

import (
	"testing"

	"github.com/frikadellen/baf/internal/ui"
)

func TestActionCounterStartsAtZeroPerSession(t *testing.T) {
	tracker := NewWindowTracker()
	tracker.Apply(WindowOpened{ID: 3, Title: "BIN Auction View"})

	s := tracker.Current()
	for want := 0; want < 4; want++ {
		if got := s.NextAction(); got != want {
			t.Fatalf("click %d carried action %d", want, got)
		}
	}

	tracker.Apply(WindowOpened{ID: 4, Title: "Confirm Purchase"})
	next := tracker.Current()
	if next == s {
		t.Fatalf("expected a new session")
	}
	if got := next.NextAction(); got != 0 {
		t.Fatalf("new session must restart at 0, got %d", got)
	}
	if s.IsOpen() {
		t.Fatalf("previous session should be closed")
	}
}

func TestReservedSessionIsAdopted(t *testing.T) {
	tracker := NewWindowTracker()
	tracker.Apply(WindowOpened{ID: 99, Title: "BIN Auction View"})

	reserved := tracker.Reserve(NextWindowID(99))
	if reserved.ID != 100 {
		t.Fatalf("unexpected reserved id %d", reserved.ID)
	}
	if got := reserved.NextAction(); got != 0 {
		t.Fatalf("pre-click should carry 0, got %d", got)
	}

	tracker.Apply(WindowOpened{ID: 100, Title: "Confirm Purchase"})
	current := tracker.Current()
	if current != reserved {
		t.Fatalf("reserved session was not adopted")
	}
	if current.Kind != ui.KindConfirmPurchase {
		t.Fatalf("unexpected kind %s", current.Kind)
	}
	if got := current.NextAction(); got != 1 {
		t.Fatalf("counter should continue after the pre-click, got %d", got)
	}
}

func TestReserveReturnsAlreadyOpenWindow(t *testing.T) {
	tracker := NewWindowTracker()
	tracker.Apply(WindowOpened{ID: 1, Title: "BIN Auction View"})
	tracker.Apply(WindowOpened{ID: 2, Title: "Confirm Purchase"})
	current := tracker.Current()

	reserved := tracker.Reserve(2)
	if reserved != current {
		t.Fatalf("reserve must reuse the open session")
	}
	if got := reserved.NextAction(); got != 0 {
		t.Fatalf("first click should carry 0, got %d", got)
	}
	if got := tracker.Current().NextAction(); got != 1 {
		t.Fatalf("counter must continue on the open session, got %d", got)
	}
}

func TestReservationDroppedForOtherWindow(t *testing.T) {
	tracker := NewWindowTracker()
	tracker.Reserve(5).NextAction()
	tracker.Apply(WindowOpened{ID: 6, Title: "Chest"})
	if got := tracker.Current().NextAction(); got != 0 {
		t.Fatalf("unrelated window must start at 0, got %d", got)
	}
	if tracker.Session(5) != nil {
		t.Fatalf("reservation should be dropped")
	}
}

func TestItemsAndClose(t *testing.T) {
	tracker := NewWindowTracker()
	tracker.Apply(WindowOpened{ID: 1, Title: "BIN Auction View"})
	tracker.Apply(WindowItems{ID: 1, Items: []ui.Item{{Slot: 31, Name: "bed"}}})
	tracker.Apply(SlotUpdate{ID: 1, Item: ui.Item{Slot: 31, Name: "gold_nugget"}})
	tracker.Apply(WindowItems{ID: 2, Items: []ui.Item{{Slot: 31, Name: "potato"}}})

	s := tracker.Current()
	it, found := s.Item(31)
	if !found || it.Name != "gold_nugget" {
		t.Fatalf("unexpected slot 31 %+v", it)
	}

	tracker.Apply(WindowClosed{ID: 1})
	if tracker.Current() != nil || s.IsOpen() {
		t.Fatalf("window should be closed")
	}
	if tracker.Lookup(1) != s {
		t.Fatalf("closed session should still be found by Lookup")
	}
}

func TestNextWindowID(t *testing.T) {
	tests := map[int]int{1: 2, 42: 43, 99: 100, 100: 1}
	for in, want := range tests {
		if got := NextWindowID(in); got != want {
			t.Errorf("NextWindowID(%d) = %d, want %d", in, got, want)
		}
	}
}
