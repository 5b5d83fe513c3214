package event

import (
	"time"
)

// Event is a notification about something the bot did. Handlers registered on the
// Listener forward events to logs, Discord, Telegram and the status server.
type Event interface {
	Message() string
	OccurredAt() time.Time
	Bot() string
}

type BaseEvent struct {
	message    string
	occurredAt time.Time
	bot        string
}

func (b BaseEvent) Message() string {
	return b.message
}

func (b BaseEvent) OccurredAt() time.Time {
	return b.occurredAt
}

func (b BaseEvent) Bot() string {
	return b.bot
}

func Text(bot string, message string) BaseEvent {
	return BaseEvent{
		message:    message,
		occurredAt: time.Now(),
		bot:        bot,
	}
}
