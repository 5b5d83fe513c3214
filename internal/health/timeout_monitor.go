package health

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/frikadellen/baf/internal/baferr"
)

// TimeoutMonitor tracks consecutive window timeouts.
// A streak usually means the game connection is stuck in a menu or lagging badly,
// so once it reaches the threshold the callback resets the bot.
type TimeoutMonitor struct {
	MaxConsecutive int
	Enabled        bool
	Logger         *slog.Logger
	OnThreshold    func(failures int)

	mu          sync.Mutex
	failures    int
	streakStart time.Time
}

func NewTimeoutMonitor(logger *slog.Logger, maxConsecutive int) *TimeoutMonitor {
	return &TimeoutMonitor{
		MaxConsecutive: maxConsecutive,
		Enabled:        maxConsecutive > 0,
		Logger:         logger,
	}
}

// Record registers the outcome of an executed command.
// Returns true if the threshold was reached and the callback ran.
func (m *TimeoutMonitor) Record(err error) bool {
	if !m.Enabled {
		return false
	}

	m.mu.Lock()
	if err == nil || !errors.Is(err, baferr.ErrWindowTimeout) {
		if m.failures > 0 {
			m.Logger.Info("Window timeouts recovered",
				slog.Int("failures", m.failures),
				slog.Duration("streak", time.Since(m.streakStart)))
		}
		m.failures = 0
		m.streakStart = time.Time{}
		m.mu.Unlock()
		return false
	}

	if m.failures == 0 {
		m.streakStart = time.Now()
	}
	m.failures++
	failures := m.failures
	if failures < m.MaxConsecutive {
		m.Logger.Debug("Window timeout streak", slog.Int("failures", failures), slog.Int("max", m.MaxConsecutive))
		m.mu.Unlock()
		return false
	}

	m.Logger.Error("Too many consecutive window timeouts, triggering reset",
		slog.Int("failures", failures),
		slog.Duration("streak", time.Since(m.streakStart)))
	m.failures = 0
	m.streakStart = time.Time{}
	callback := m.OnThreshold
	m.mu.Unlock()

	if callback != nil {
		callback(failures)
	}
	return true
}

func (m *TimeoutMonitor) Failures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

// Reset clears the streak.
func (m *TimeoutMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = 0
	m.streakStart = time.Time{}
}

func (m *TimeoutMonitor) SetCallback(callback func(failures int)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OnThreshold = callback
}
