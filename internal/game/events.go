package game

import (
	"github.com/frikadellen/baf/internal/ui"
)

// Event is an inbound notification from the game connection.
type Event interface {
	eventName() string
}

type Login struct {
	Username string
}

// Spawn marks world entry, the last step of the connect sequence.
type Spawn struct{}

type WindowOpened struct {
	ID    int
	Type  string
	Title string
}

type WindowItems struct {
	ID    int
	Items []ui.Item
}

type SlotUpdate struct {
	ID   int
	Item ui.Item
}

type WindowClosed struct {
	ID int
}

// SignOpened is sent when the server opens a sign editor for custom amounts and prices.
type SignOpened struct {
	X, Y, Z int
}

type ChatReceived struct {
	Text string
}

type Disconnected struct {
	Reason string
}

func (Login) eventName() string        { return "login" }
func (Spawn) eventName() string        { return "spawn" }
func (WindowOpened) eventName() string { return "window_open" }
func (WindowItems) eventName() string  { return "window_items" }
func (SlotUpdate) eventName() string   { return "set_slot" }
func (WindowClosed) eventName() string { return "window_close" }
func (SignOpened) eventName() string   { return "open_sign" }
func (ChatReceived) eventName() string { return "chat" }
func (Disconnected) eventName() string { return "disconnect" }

// Name returns the wire name of an event.
func Name(e Event) string {
	return e.eventName()
}

// Kind classifies an opened window by its title.
func (e WindowOpened) Kind() ui.WindowKind {
	return ui.ClassifyTitle(e.Title)
}

// NextWindowID predicts the id the server assigns to the next window. Ids cycle through 1..100.
func NextWindowID(id int) int {
	return id%100 + 1
}
