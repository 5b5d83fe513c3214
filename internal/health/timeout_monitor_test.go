package health

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/frikadellen/baf/internal/baferr"
)

func TestTimeoutMonitorTriggersAfterStreak(t *testing.T) {
	m := NewTimeoutMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)), 3)
	triggered := 0
	m.SetCallback(func(failures int) {
		triggered = failures
	})

	timeout := fmt.Errorf("window never opened: %w", baferr.ErrWindowTimeout)
	if m.Record(timeout) || m.Record(timeout) {
		t.Fatalf("threshold reached too early")
	}
	if !m.Record(timeout) {
		t.Fatalf("expected the third timeout to trigger")
	}
	if triggered != 3 {
		t.Fatalf("expected callback with 3 failures, got %d", triggered)
	}
	if m.Failures() != 0 {
		t.Fatalf("streak must reset after triggering")
	}
}

func TestTimeoutMonitorResetsOnOtherOutcomes(t *testing.T) {
	m := NewTimeoutMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)), 2)
	m.SetCallback(func(int) {
		t.Fatalf("callback must not run")
	})

	m.Record(baferr.ErrWindowTimeout)
	m.Record(nil)
	m.Record(baferr.ErrWindowTimeout)
	m.Record(errors.New("something else"))
	m.Record(baferr.ErrWindowTimeout)

	if got := m.Failures(); got != 1 {
		t.Fatalf("expected a streak of 1, got %d", got)
	}
}

func TestTimeoutMonitorDisabled(t *testing.T) {
	m := NewTimeoutMonitor(slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	if m.Record(baferr.ErrWindowTimeout) {
		t.Fatalf("disabled monitor must never trigger")
	}
}
