package packet

const TypeCloseWindow = "close_window"

type CloseWindow struct {
	WindowID int `json:"windowId"`
}

func NewCloseWindow(windowID int) *CloseWindow {
	return &CloseWindow{WindowID: windowID}
}

func (p *CloseWindow) Type() string { return TypeCloseWindow }

func (p *CloseWindow) GetPayload() []byte {
	return encode(TypeCloseWindow, p)
}
