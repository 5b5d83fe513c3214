package state

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
)

func newTestManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestInitialState(t *testing.T) {
	m := newTestManager()
	if m.Get() != Startup {
		t.Fatalf("expected Startup, got %s", m.Get())
	}
}

func TestTransitionsGoThroughIdle(t *testing.T) {
	m := newTestManager()

	if err := m.Transition(Purchasing, "test"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Startup -> Purchasing should be rejected, got %v", err)
	}

	steps := []BotState{Idle, Purchasing, Idle, Bazaar, Idle, GracePeriod, Idle}
	for _, s := range steps {
		if err := m.Transition(s, "test"); err != nil {
			t.Fatalf("transition to %s failed: %v", s, err)
		}
	}

	if err := m.Transition(Bazaar, "test"); err != nil {
		t.Fatalf("Idle -> Bazaar failed: %v", err)
	}
	if err := m.Transition(GracePeriod, "test"); err == nil {
		t.Fatalf("Bazaar -> GracePeriod must go through Idle")
	}
}

func TestForceIdleFromAnyState(t *testing.T) {
	for _, s := range []BotState{Startup, Purchasing, Bazaar, GracePeriod, Claiming} {
		m := newTestManager()
		m.current = s
		m.ForceIdle("disconnect")
		if m.Get() != Idle {
			t.Errorf("ForceIdle from %s left state %s", s, m.Get())
		}
	}
}

func TestCompareAndTransition(t *testing.T) {
	m := newTestManager()
	_ = m.Transition(Idle, "login")
	_ = m.Transition(GracePeriod, "cooldown")

	if m.CompareAndTransition(Bazaar, Idle, "late timer") {
		t.Fatalf("CAS should fail when state differs")
	}
	if !m.CompareAndTransition(GracePeriod, Idle, "cooldown elapsed") {
		t.Fatalf("CAS should succeed")
	}
	if m.Get() != Idle {
		t.Fatalf("expected Idle, got %s", m.Get())
	}
}

func TestObserversAndWake(t *testing.T) {
	m := newTestManager()
	var changes []Change
	m.OnChange(func(c Change) { changes = append(changes, c) })

	_ = m.Transition(Idle, "login")

	select {
	case <-m.Wake():
	default:
		t.Fatalf("expected a wake signal")
	}
	if len(changes) != 1 || changes[0].From != Startup || changes[0].To != Idle {
		t.Fatalf("unexpected changes %+v", changes)
	}
}

func TestBlocking(t *testing.T) {
	blocking := map[BotState]bool{
		Startup: true, Idle: false, Purchasing: true, Bazaar: false,
		Selling: false, Claiming: false, GracePeriod: true,
	}
	for s, want := range blocking {
		if s.Blocking() != want {
			t.Errorf("%s.Blocking() = %v, want %v", s, s.Blocking(), want)
		}
	}
}

func TestConcurrentReadsNeverTorn(t *testing.T) {
	m := newTestManager()
	_ = m.Transition(Idle, "login")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				s := m.Get()
				if s < Startup || s > GracePeriod {
					t.Errorf("observed invalid state %d", int(s))
					return
				}
			}
		}()
	}
	for j := 0; j < 200; j++ {
		if m.CompareAndTransition(Idle, Bazaar, "test") {
			m.CompareAndTransition(Bazaar, Idle, "test")
		}
	}
	wg.Wait()
}
