package game

// Transport is the game connection. It owns authentication and the raw socket, the bot only
// consumes its event stream and hands it encoded packets.
type Transport interface {
	Events() <-chan Event
	SendPacket(payload []byte) error
	Close() error
}
