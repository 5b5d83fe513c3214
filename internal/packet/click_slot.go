package packet

const TypeWindowClick = "window_click"

const (
	ButtonLeft   = 0
	ButtonRight  = 1
	ButtonMiddle = 2

	ModeClick  = 0
	ModeMiddle = 3
)

// ClickSlot is a window click. ActionNumber is the per-window counter the server uses to
// acknowledge clicks; it must match the window session it targets.
//
// Purchase flows use a middle click (button 2, mode 3), the same packet a player sends
// when pick-block clicking a GUI button.
type ClickSlot struct {
	WindowID     int `json:"windowId"`
	Slot         int `json:"slot"`
	Button       int `json:"mouseButton"`
	Mode         int `json:"mode"`
	ActionNumber int `json:"action"`
	ItemID       int `json:"itemId,omitempty"`
}

func NewClickSlot(windowID, slot, action, itemID int) *ClickSlot {
	return &ClickSlot{
		WindowID:     windowID,
		Slot:         slot,
		Button:       ButtonMiddle,
		Mode:         ModeMiddle,
		ActionNumber: action,
		ItemID:       itemID,
	}
}

// NewLeftClick builds a plain left click, used by bazaar menus.
func NewLeftClick(windowID, slot, action int) *ClickSlot {
	return &ClickSlot{
		WindowID:     windowID,
		Slot:         slot,
		Button:       ButtonLeft,
		Mode:         ModeClick,
		ActionNumber: action,
	}
}

func (p *ClickSlot) Type() string { return TypeWindowClick }

func (p *ClickSlot) GetPayload() []byte {
	return encode(TypeWindowClick, p)
}
