package event

import (
	"github.com/frikadellen/baf/internal/model"
)

type BazaarOrderPlacedEvent struct {
	BaseEvent
	Order    model.BazaarOrder
	Attempts int
}

func BazaarOrderPlaced(be BaseEvent, order model.BazaarOrder, attempts int) BazaarOrderPlacedEvent {
	return BazaarOrderPlacedEvent{BaseEvent: be, Order: order, Attempts: attempts}
}

type BazaarOrderFailedEvent struct {
	BaseEvent
	Order    model.BazaarOrder
	Reason   string
	Attempts int
	Err      error
}

func BazaarOrderFailed(be BaseEvent, order model.BazaarOrder, reason string, attempts int, err error) BazaarOrderFailedEvent {
	return BazaarOrderFailedEvent{
		BaseEvent: be,
		Order:     order,
		Reason:    reason,
		Attempts:  attempts,
		Err:       err,
	}
}
