package event

type BotStartedEvent struct {
	BaseEvent
	Player string
}

func BotStarted(be BaseEvent, player string) BotStartedEvent {
	return BotStartedEvent{BaseEvent: be, Player: player}
}

type DisconnectedEvent struct {
	BaseEvent
	Reason string
}

func Disconnected(be BaseEvent, reason string) DisconnectedEvent {
	return DisconnectedEvent{BaseEvent: be, Reason: reason}
}

type StateChangedEvent struct {
	BaseEvent
	From   string
	To     string
	Reason string
}

func StateChanged(be BaseEvent, from, to, reason string) StateChangedEvent {
	return StateChangedEvent{BaseEvent: be, From: from, To: to, Reason: reason}
}

// CommandDroppedEvent is sent when a queued command is discarded without running.
type CommandDroppedEvent struct {
	BaseEvent
	CommandID string
	Kind      string
	Reason    string
}

func CommandDropped(be BaseEvent, id, kind, reason string) CommandDroppedEvent {
	return CommandDroppedEvent{BaseEvent: be, CommandID: id, Kind: kind, Reason: reason}
}

// ChatRelayEvent carries feed chat messages shown to the player.
type ChatRelayEvent struct {
	BaseEvent
	Text string
}

func ChatRelay(be BaseEvent, text string) ChatRelayEvent {
	return ChatRelayEvent{BaseEvent: be, Text: text}
}

type HealthWarningEvent struct {
	BaseEvent
	Failures int
}

func HealthWarning(be BaseEvent, failures int) HealthWarningEvent {
	return HealthWarningEvent{BaseEvent: be, Failures: failures}
}

type NgrokTunnelEvent struct {
	BaseEvent
	URL string
}

func NgrokTunnel(be BaseEvent, url string) NgrokTunnelEvent {
	return NgrokTunnelEvent{BaseEvent: be, URL: url}
}
