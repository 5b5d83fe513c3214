package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	botCtx "github.com/frikadellen/baf/internal/context"
	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/game"
	"github.com/frikadellen/baf/internal/health"
	"github.com/frikadellen/baf/internal/state"
)

// Bot supervises one game connection: it feeds game events to the executors, keeps the state
// in sync with the connection and runs the dispatch loop.
type Bot struct {
	ctx        *botCtx.Context
	transport  game.Transport
	queue      *Queue
	dispatcher *Dispatcher
	monitor    *health.TimeoutMonitor
	startedAt  time.Time

	mu           sync.RWMutex
	player       string
	startupTimer *time.Timer
}

func NewBot(ctx *botCtx.Context, transport game.Transport, exec Executor) *Bot {
	queue := NewQueue(ctx.Logger, ctx.Cfg.Queue.StaleThreshold())
	b := &Bot{
		ctx:        ctx,
		transport:  transport,
		queue:      queue,
		dispatcher: NewDispatcher(ctx, queue, exec),
		monitor:    health.NewTimeoutMonitor(ctx.Logger, ctx.Cfg.Health.MaxConsecutiveTimeouts),
		startedAt:  time.Now(),
	}

	b.monitor.SetCallback(func(failures int) {
		b.ctx.Emit(event.HealthWarning(b.ctx.Text("Too many window timeouts, resetting"), failures))
		if current := b.ctx.Tracker().Current(); current != nil {
			_ = b.ctx.PacketSender.CloseWindow(current.ID)
		}
		b.ctx.Reset("window timeout streak")
	})
	b.dispatcher.OnResult(func(_ *Command, err error) {
		b.monitor.Record(err)
	})
	ctx.State.OnChange(func(c state.Change) {
		ctx.Emit(event.StateChanged(ctx.Text("State "+c.From.String()+" -> "+c.To.String()), c.From.String(), c.To.String(), c.Reason))
	})

	return b
}

func (b *Bot) Context() *botCtx.Context { return b.ctx }
func (b *Bot) Queue() *Queue            { return b.queue }
func (b *Bot) Dispatcher() *Dispatcher  { return b.dispatcher }

// SetPaused stops or resumes dispatching. Queued commands keep aging while paused.
func (b *Bot) SetPaused(paused bool) {
	b.dispatcher.SetPaused(paused)
}

func (b *Bot) Player() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.player
}

// Run blocks until ctx is done or the game connection goes away for good.
func (b *Bot) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.pumpEvents(ctx)
	})
	g.Go(func() error {
		return b.dispatcher.Run(ctx)
	})

	return g.Wait()
}

func (b *Bot) pumpEvents(ctx context.Context) error {
	events := b.transport.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-events:
			if !ok {
				b.ctx.Logger.Info("Game event stream closed")
				return nil
			}
			b.HandleGameEvent(e)
		}
	}
}

// HandleGameEvent applies connection level events to the bot state and forwards every event
// to the executors.
func (b *Bot) HandleGameEvent(e game.Event) {
	switch evt := e.(type) {
	case game.Login:
		b.mu.Lock()
		b.player = evt.Username
		b.mu.Unlock()
		b.ctx.Logger.Info("Logged in", slog.String("player", evt.Username))
	case game.Spawn:
		if b.ctx.State.Get() == state.Startup {
			b.scheduleStartup()
		}
	case game.Disconnected:
		b.ctx.Logger.Warn("Disconnected from game", slog.String("reason", evt.Reason))
		// Executors waiting on an event see the disconnect before the reset.
		b.ctx.Stream.Publish(e)
		b.ctx.Reset("disconnected: " + evt.Reason)
		b.ctx.Emit(event.Disconnected(b.ctx.Text("Disconnected: "+evt.Reason), evt.Reason))
		return
	case game.ChatReceived:
		b.ctx.Logger.Debug("Chat", slog.String("text", evt.Text))
	}

	b.ctx.Stream.Publish(e)
}

// scheduleStartup leaves Startup once the world had time to settle after the first spawn.
func (b *Bot) scheduleStartup() {
	delay := time.Duration(b.ctx.Cfg.Bridge.StartupDelayMs) * time.Millisecond
	if delay <= 0 {
		b.finishStartup()
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.startupTimer != nil {
		return
	}
	b.ctx.Logger.Info("Joined world, waiting before taking commands", slog.Duration("delay", delay))
	b.startupTimer = time.AfterFunc(delay, func() {
		b.mu.Lock()
		b.startupTimer = nil
		b.mu.Unlock()
		b.finishStartup()
	})
}

func (b *Bot) finishStartup() {
	if b.ctx.State.CompareAndTransition(state.Startup, state.Idle, "joined world") {
		b.ctx.Emit(event.BotStarted(b.ctx.Text("Bot started as "+b.Player()), b.Player()))
	}
}

type QueuedCommand struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	Priority   string    `json:"priority"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
	Summary    string    `json:"summary"`
}

type Status struct {
	Name       string          `json:"name"`
	Player     string          `json:"player"`
	State      string          `json:"state"`
	StateSince time.Time       `json:"stateSince"`
	Paused     bool            `json:"paused"`
	Current    string          `json:"current,omitempty"`
	Queue      []QueuedCommand `json:"queue"`
	Debug      botCtx.Debug    `json:"debug"`
	StartedAt  time.Time       `json:"startedAt"`
}

func (b *Bot) Status() Status {
	st, since := b.ctx.State.Since()
	s := Status{
		Name:       b.ctx.Name,
		Player:     b.Player(),
		State:      st.String(),
		StateSince: since,
		Paused:     b.dispatcher.Paused(),
		Queue:      []QueuedCommand{},
		Debug:      b.ctx.Debug(),
		StartedAt:  b.startedAt,
	}
	if cur := b.queue.Current(); cur != nil {
		s.Current = cur.String()
	}
	for _, c := range b.queue.Snapshot() {
		s.Queue = append(s.Queue, QueuedCommand{
			ID:         c.ID,
			Kind:       string(c.Kind),
			Priority:   c.Priority.String(),
			EnqueuedAt: c.EnqueuedAt,
			Summary:    c.String(),
		})
	}
	return s
}
