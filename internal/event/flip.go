package event

import (
	"time"

	"github.com/frikadellen/baf/internal/model"
)

type FlipPurchasedEvent struct {
	BaseEvent
	Flip       model.AuctionFlip
	BuySpeed   time.Duration
	SkipReason string
}

func FlipPurchased(be BaseEvent, flip model.AuctionFlip, buySpeed time.Duration, skipReason string) FlipPurchasedEvent {
	return FlipPurchasedEvent{
		BaseEvent:  be,
		Flip:       flip,
		BuySpeed:   buySpeed,
		SkipReason: skipReason,
	}
}

type FlipFailedEvent struct {
	BaseEvent
	Flip   model.AuctionFlip
	Reason string
	Err    error
}

func FlipFailed(be BaseEvent, flip model.AuctionFlip, reason string, err error) FlipFailedEvent {
	return FlipFailedEvent{
		BaseEvent: be,
		Flip:      flip,
		Reason:    reason,
		Err:       err,
	}
}

// AuctionClaimedEvent is sent when the purchase view turned out to be one of our own sold auctions.
type AuctionClaimedEvent struct {
	BaseEvent
	Flip model.AuctionFlip
}

func AuctionClaimed(be BaseEvent, flip model.AuctionFlip) AuctionClaimedEvent {
	return AuctionClaimedEvent{BaseEvent: be, Flip: flip}
}
