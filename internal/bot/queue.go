package bot

import (
	"container/heap"
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/frikadellen/baf/internal/state"
)

// commandHeap orders commands by priority, then enqueue time, then arrival order.
type commandHeap []*Command

func (h commandHeap) Len() int { return len(h) }

func (h commandHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority > h[j].Priority
	}
	if !h[i].EnqueuedAt.Equal(h[j].EnqueuedAt) {
		return h[i].EnqueuedAt.Before(h[j].EnqueuedAt)
	}
	return h[i].seq < h[j].seq
}

func (h commandHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *commandHeap) Push(x any) {
	c := x.(*Command)
	c.index = len(*h)
	*h = append(*h, c)
}

func (h *commandHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	c.index = -1
	*h = old[:n-1]
	return c
}

// Queue holds pending commands and the command currently executing.
type Queue struct {
	logger         *slog.Logger
	staleThreshold time.Duration
	now            func() time.Time

	mu      sync.Mutex
	items   commandHeap
	seq     uint64
	current *Command
	cancel  context.CancelFunc
	wake    chan struct{}
}

func NewQueue(logger *slog.Logger, staleThreshold time.Duration) *Queue {
	return &Queue{
		logger:         logger,
		staleThreshold: staleThreshold,
		now:            time.Now,
		wake:           make(chan struct{}, 1),
	}
}

// Enqueue inserts a command. A Critical command cancels the executing one if it is interruptible.
func (q *Queue) Enqueue(cmd *Command) {
	q.mu.Lock()
	if cmd.EnqueuedAt.IsZero() {
		cmd.EnqueuedAt = q.now()
	}
	q.seq++
	cmd.seq = q.seq
	heap.Push(&q.items, cmd)

	if cmd.Priority == PriorityCritical && q.current != nil && q.current.Interruptible && q.cancel != nil {
		q.logger.Info("Interrupting current command",
			slog.String("current", q.current.String()),
			slog.String("by", cmd.String()),
		)
		q.cancel()
	}
	size := len(q.items)
	q.mu.Unlock()

	q.logger.Debug("Command queued",
		slog.String("id", cmd.ID),
		slog.String("kind", string(cmd.Kind)),
		slog.String("priority", cmd.Priority.String()),
		slog.Int("queued", size),
	)
	q.notify()
}

// EvictStale removes every queued command older than the staleness threshold and returns them.
func (q *Queue) EvictStale(now time.Time) []*Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	var evicted []*Command
	kept := q.items[:0]
	for _, c := range q.items {
		if c.Age(now) > q.staleThreshold {
			c.index = -1
			evicted = append(evicted, c)
			continue
		}
		kept = append(kept, c)
	}
	if len(evicted) == 0 {
		return nil
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	for i, c := range q.items {
		c.index = i
	}
	heap.Init(&q.items)

	return evicted
}

// DequeueNext pops the highest priority, oldest command. Nothing is returned while the bot
// is in a blocking state.
func (q *Queue) DequeueNext(s state.BotState) *Command {
	if s.Blocking() {
		return nil
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(&q.items).(*Command)
}

// Start marks cmd as executing. cancel interrupts it.
func (q *Queue) Start(cmd *Command, cancel context.CancelFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.current = cmd
	q.cancel = cancel
}

func (q *Queue) Complete(cmd *Command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == cmd {
		q.current = nil
		q.cancel = nil
	}
}

func (q *Queue) Current() *Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Snapshot returns copies of the queued commands in dequeue order.
func (q *Queue) Snapshot() []Command {
	q.mu.Lock()
	out := make([]Command, 0, len(q.items))
	for _, c := range q.items {
		out = append(out, *c)
	}
	q.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return commandHeap{&out[i], &out[j]}.Less(0, 1)
	})
	return out
}

// Remove drops queued commands matching fn and returns how many were removed.
func (q *Queue) Remove(fn func(*Command) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	removed := 0
	for _, c := range q.items {
		if fn(c) {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = nil
	}
	q.items = kept
	for i, c := range q.items {
		c.index = i
	}
	heap.Init(&q.items)
	return removed
}

// ClearBazaarOrders drops every queued bazaar order, used when a new batch replaces the old one.
func (q *Queue) ClearBazaarOrders() int {
	return q.Remove(func(c *Command) bool { return c.Kind == KindBazaarOrder })
}

// Wake fires after a command was queued.
func (q *Queue) Wake() <-chan struct{} {
	return q.wake
}

func (q *Queue) notify() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
