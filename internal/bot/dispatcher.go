package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/frikadellen/baf/internal/baferr"
	botCtx "github.com/frikadellen/baf/internal/context"
	"github.com/frikadellen/baf/internal/event"
	"github.com/frikadellen/baf/internal/model"
	"github.com/frikadellen/baf/internal/state"
)

const maxRequeues = 1

// Executor runs the protocol for each command kind.
type Executor interface {
	ExecuteFlip(ctx context.Context, flip model.AuctionFlip) error
	ExecuteBazaar(ctx context.Context, order model.BazaarOrder) error
	ExecuteCommand(ctx context.Context, text string) error
}

// Dispatcher is the loop that evicts stale work, pulls the next command and runs it.
type Dispatcher struct {
	ctx   *botCtx.Context
	queue *Queue
	exec  Executor

	pollInterval time.Duration
	gracePeriod  time.Duration
	onResult     func(cmd *Command, err error)

	paused     atomic.Bool
	graceMu    sync.Mutex
	graceTimer *time.Timer
}

func NewDispatcher(ctx *botCtx.Context, queue *Queue, exec Executor) *Dispatcher {
	return &Dispatcher{
		ctx:          ctx,
		queue:        queue,
		exec:         exec,
		pollInterval: ctx.Cfg.Queue.PollInterval(),
		gracePeriod:  ctx.Cfg.Bazaar.GracePeriod(),
	}
}

// OnResult registers a hook called after every executed command.
func (d *Dispatcher) OnResult(fn func(cmd *Command, err error)) {
	d.onResult = fn
}

func (d *Dispatcher) SetPaused(paused bool) {
	d.paused.Store(paused)
	d.ctx.Logger.Info("Dispatcher pause changed", slog.Bool("paused", paused))
}

func (d *Dispatcher) Paused() bool {
	return d.paused.Load()
}

// Run loops until ctx is done. Failures of individual commands never stop it.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.ctx.Logger.Info("Dispatcher started")
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.stopGracePeriod()
			d.ctx.Logger.Info("Dispatcher stopped")
			return nil
		case <-ticker.C:
		case <-d.queue.Wake():
		case <-d.ctx.State.Wake():
		}
		d.tick(ctx)
	}
}

// tick runs queued commands until the queue is empty or the bot is blocked.
func (d *Dispatcher) tick(ctx context.Context) {
	for ctx.Err() == nil {
		d.evictStale()
		if d.paused.Load() {
			return
		}

		cmd := d.queue.DequeueNext(d.ctx.State.Get())
		if cmd == nil {
			return
		}
		d.execute(ctx, cmd)
	}
}

func (d *Dispatcher) evictStale() {
	for _, cmd := range d.queue.EvictStale(time.Now()) {
		d.ctx.Logger.Info("Dropping stale command",
			slog.String("id", cmd.ID),
			slog.String("command", cmd.String()),
			slog.Duration("age", cmd.Age(time.Now()).Round(time.Millisecond)),
		)
		d.ctx.Emit(event.CommandDropped(d.ctx.Text("Dropped stale "+string(cmd.Kind)), cmd.ID, string(cmd.Kind), baferr.Kind(baferr.ErrStaleRecommendation)))
	}
}

func (d *Dispatcher) execute(parent context.Context, cmd *Command) {
	// Commands that cannot be interrupted also outlive shutdown, they are bounded by their own timeouts.
	base := parent
	if !cmd.Interruptible {
		base = context.WithoutCancel(parent)
	}
	runCtx, cancel := context.WithCancel(base)
	defer cancel()

	d.queue.Start(cmd, cancel)
	defer d.queue.Complete(cmd)

	d.ctx.Logger.Debug("Executing command", slog.String("id", cmd.ID), slog.String("command", cmd.String()))
	err := d.run(runCtx, cmd)
	d.afterExecute(cmd, err)
}

// run calls the executor, turning a panic into a failure so the loop keeps going.
func (d *Dispatcher) run(ctx context.Context, cmd *Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.ctx.Logger.Error("Command panicked",
				slog.String("command", cmd.String()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("%w: command panicked: %v", baferr.ErrTransport, r)
		}
	}()

	switch cmd.Kind {
	case KindAuctionFlip:
		return d.exec.ExecuteFlip(ctx, cmd.Flip)
	case KindBazaarOrder:
		return d.exec.ExecuteBazaar(ctx, cmd.Order)
	case KindExecute:
		return d.exec.ExecuteCommand(ctx, cmd.Text)
	}
	return fmt.Errorf("unknown command kind %q", cmd.Kind)
}

func (d *Dispatcher) afterExecute(cmd *Command, err error) {
	if err != nil {
		d.ctx.Logger.Warn("Command failed",
			slog.String("id", cmd.ID),
			slog.String("command", cmd.String()),
			slog.String("kind", baferr.Kind(err)),
			slog.Any("error", err),
		)
	}

	interrupted := errors.Is(err, baferr.ErrInterrupted)
	switch {
	case errors.Is(err, baferr.ErrTransport):
		d.ctx.Reset("transport failure")
	case interrupted && cmd.requeued < maxRequeues:
		cmd.requeued++
		d.ctx.Logger.Info("Requeueing interrupted command", slog.String("id", cmd.ID))
		d.queue.Enqueue(cmd)
	}

	if cmd.Kind == KindBazaarOrder && !interrupted {
		d.startGracePeriod()
	}

	if d.onResult != nil {
		d.onResult(cmd, err)
	}
}

// startGracePeriod blocks new work for the cooldown that follows every bazaar order.
func (d *Dispatcher) startGracePeriod() {
	if d.gracePeriod <= 0 {
		return
	}
	if err := d.ctx.State.Transition(state.GracePeriod, "bazaar order cooldown"); err != nil {
		d.ctx.Logger.Debug("Skipping grace period", slog.Any("error", err))
		return
	}

	d.graceMu.Lock()
	defer d.graceMu.Unlock()
	if d.graceTimer != nil {
		d.graceTimer.Stop()
	}
	d.graceTimer = time.AfterFunc(d.gracePeriod, func() {
		d.ctx.State.CompareAndTransition(state.GracePeriod, state.Idle, "grace period elapsed")
	})
}

func (d *Dispatcher) stopGracePeriod() {
	d.graceMu.Lock()
	defer d.graceMu.Unlock()
	if d.graceTimer != nil {
		d.graceTimer.Stop()
		d.graceTimer = nil
	}
}
