package bot

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/frikadellen/baf/internal/model"
)

type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityNormal:
		return "Normal"
	case PriorityHigh:
		return "High"
	case PriorityCritical:
		return "Critical"
	}
	return fmt.Sprintf("Priority(%d)", int(p))
}

type Kind string

const (
	KindAuctionFlip Kind = "AuctionFlip"
	KindBazaarOrder Kind = "BazaarOrder"
	KindExecute     Kind = "Execute"
)

// Command is one unit of queued work.
type Command struct {
	ID            string
	Kind          Kind
	Priority      Priority
	Interruptible bool
	EnqueuedAt    time.Time
	// CreatedAt is when the recommendation was produced, zero when unknown.
	CreatedAt time.Time

	Flip  model.AuctionFlip
	Order model.BazaarOrder
	Text  string

	requeued int
	seq      uint64
	index    int
}

// NewFlipCommand wraps an auction flip. Flips preempt everything and cannot be interrupted.
func NewFlipCommand(flip model.AuctionFlip) *Command {
	return &Command{
		ID:        uuid.NewString(),
		Kind:      KindAuctionFlip,
		Priority:  PriorityCritical,
		CreatedAt: flip.CreatedAt,
		Flip:      flip,
	}
}

// NewBazaarCommand wraps a bazaar order. Orders that arrived as part of a batch rank below
// single recommendations.
func NewBazaarCommand(order model.BazaarOrder, batch bool) *Command {
	priority := PriorityNormal
	if batch {
		priority = PriorityLow
	}
	return &Command{
		ID:            uuid.NewString(),
		Kind:          KindBazaarOrder,
		Priority:      priority,
		Interruptible: true,
		CreatedAt:     order.CreatedAt,
		Order:         order,
	}
}

func NewExecuteCommand(text string) *Command {
	return &Command{
		ID:       uuid.NewString(),
		Kind:     KindExecute,
		Priority: PriorityHigh,
		Text:     text,
	}
}

// Age is measured from the recommendation's creation when known, otherwise from enqueue time.
func (c *Command) Age(now time.Time) time.Duration {
	if !c.CreatedAt.IsZero() {
		return now.Sub(c.CreatedAt)
	}
	return now.Sub(c.EnqueuedAt)
}

func (c *Command) String() string {
	switch c.Kind {
	case KindAuctionFlip:
		return fmt.Sprintf("%s %s", c.Kind, c.Flip)
	case KindBazaarOrder:
		return fmt.Sprintf("%s %s", c.Kind, c.Order)
	}
	return fmt.Sprintf("%s %q", c.Kind, c.Text)
}
