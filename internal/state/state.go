package state

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

type BotState int

const (
	Startup BotState = iota
	Idle
	Purchasing
	Bazaar
	Selling
	Claiming
	GracePeriod
)

var ErrInvalidTransition = errors.New("invalid state transition")

func (s BotState) String() string {
	switch s {
	case Startup:
		return "Startup"
	case Idle:
		return "Idle"
	case Purchasing:
		return "Purchasing"
	case Bazaar:
		return "Bazaar"
	case Selling:
		return "Selling"
	case Claiming:
		return "Claiming"
	case GracePeriod:
		return "GracePeriod"
	}
	return fmt.Sprintf("BotState(%d)", int(s))
}

// Blocking reports whether new work must wait while the bot is in this state.
func (s BotState) Blocking() bool {
	return s == Startup || s == Purchasing || s == GracePeriod
}

// Every non-forced path goes through Idle.
var allowed = map[BotState][]BotState{
	Startup:     {Idle},
	Idle:        {Purchasing, Bazaar, Selling, Claiming, GracePeriod},
	Purchasing:  {Idle},
	Bazaar:      {Idle},
	Selling:     {Idle},
	Claiming:    {Idle},
	GracePeriod: {Idle},
}

// Change is a single recorded transition.
type Change struct {
	From   BotState
	To     BotState
	Reason string
	At     time.Time
}

// Manager owns the bot state value. It is passed explicitly to every component that reads or writes it.
type Manager struct {
	logger *slog.Logger

	mu        sync.RWMutex
	current   BotState
	changedAt time.Time
	wake      chan struct{}
	observers []func(Change)
}

func NewManager(logger *slog.Logger) *Manager {
	return &Manager{
		logger:    logger,
		current:   Startup,
		changedAt: time.Now(),
		wake:      make(chan struct{}, 1),
	}
}

func (m *Manager) Get() BotState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Since returns the current state and when it was entered.
func (m *Manager) Since() (BotState, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.changedAt
}

// Wake is signalled after every transition.
func (m *Manager) Wake() <-chan struct{} {
	return m.wake
}

// OnChange registers an observer called synchronously after each transition.
func (m *Manager) OnChange(fn func(Change)) {
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

// Transition moves to the given state if the edge from the current state is allowed.
func (m *Manager) Transition(to BotState, reason string) error {
	m.mu.Lock()
	from := m.current
	if !canTransition(from, to) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	change := m.apply(to, reason)
	m.mu.Unlock()

	m.notify(change)
	return nil
}

// CompareAndTransition transitions only if the current state equals from.
func (m *Manager) CompareAndTransition(from, to BotState, reason string) bool {
	m.mu.Lock()
	if m.current != from || !canTransition(from, to) {
		m.mu.Unlock()
		return false
	}
	change := m.apply(to, reason)
	m.mu.Unlock()

	m.notify(change)
	return true
}

// ForceIdle resets to Idle from any state. Used on disconnect and transport failures.
func (m *Manager) ForceIdle(reason string) {
	m.mu.Lock()
	change := m.apply(Idle, reason)
	m.mu.Unlock()

	m.logger.Warn("Bot state forced to Idle", slog.String("from", change.From.String()), slog.String("reason", reason))
	m.notify(change)
}

func (m *Manager) apply(to BotState, reason string) Change {
	change := Change{From: m.current, To: to, Reason: reason, At: time.Now()}
	m.current = to
	m.changedAt = change.At
	m.logger.Info("Bot state changed",
		slog.String("from", change.From.String()),
		slog.String("to", to.String()),
		slog.String("reason", reason),
	)
	return change
}

func (m *Manager) notify(change Change) {
	select {
	case m.wake <- struct{}{}:
	default:
	}

	m.mu.RLock()
	observers := append([]func(Change){}, m.observers...)
	m.mu.RUnlock()
	for _, fn := range observers {
		fn(change)
	}
}

func canTransition(from, to BotState) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}
