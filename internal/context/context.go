package context

import (
	"log/slog"
	"sync"
	"time"

	"github.com/frikadellen/baf/internal/config"
	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/game"
	"github.com/frikadellen/baf/internal/state"
)

// Context is the explicitly owned handle passed to every executor and to the dispatch loop.
type Context struct {
	Name          string
	Logger        *slog.Logger
	Cfg           *config.BafCfg
	State         *state.Manager
	Stream        *game.EventStream
	PacketSender  *game.PacketSender
	EventListener *event.Listener

	mu    sync.Mutex
	debug Debug
}

type Debug struct {
	LastAction string    `json:"lastAction"`
	LastStep   string    `json:"lastStep"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// NewContext wires the per-bot state, window tracking and packet sending around a game connection.
func NewContext(name string, cfg *config.BafCfg, logger *slog.Logger, process game.ProcessSender, listener *event.Listener) *Context {
	tracker := game.NewWindowTracker()
	return &Context{
		Name:          name,
		Logger:        logger,
		Cfg:           cfg,
		State:         state.NewManager(logger),
		Stream:        game.NewEventStream(logger, tracker, 0),
		PacketSender:  game.NewPacketSender(process, logger),
		EventListener: listener,
	}
}

func (ctx *Context) Tracker() *game.WindowTracker {
	return ctx.Stream.Tracker()
}

func (ctx *Context) SetLastAction(actionName string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.debug.LastAction = actionName
	ctx.debug.LastStep = ""
	ctx.debug.UpdatedAt = time.Now()
}

func (ctx *Context) SetLastStep(stepName string) {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	ctx.debug.LastStep = stepName
	ctx.debug.UpdatedAt = time.Now()
}

func (ctx *Context) Debug() Debug {
	ctx.mu.Lock()
	defer ctx.mu.Unlock()
	return ctx.debug
}

// Text builds the base of an event attributed to this bot.
func (ctx *Context) Text(message string) event.BaseEvent {
	return event.Text(ctx.Name, message)
}

// Emit forwards an event to the listener, if one is attached.
func (ctx *Context) Emit(e event.Event) {
	if ctx.EventListener == nil {
		return
	}
	ctx.EventListener.Send(e)
}

// Reset forgets every window session and forces the bot back to Idle.
// It is the only way to leave a state without passing through its normal exit.
func (ctx *Context) Reset(reason string) {
	ctx.Tracker().Reset()
	ctx.State.ForceIdle(reason)
	ctx.SetLastAction("")
}
