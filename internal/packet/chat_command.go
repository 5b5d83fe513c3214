package packet

const TypeChat = "chat"

// ChatCommand sends a chat line or a slash command, e.g. "/viewauction <uuid>" or "/bz ENCHANTED_COAL".
type ChatCommand struct {
	Message string `json:"message"`
}

func NewChatCommand(message string) *ChatCommand {
	return &ChatCommand{Message: message}
}

func (p *ChatCommand) Type() string { return TypeChat }

func (p *ChatCommand) GetPayload() []byte {
	return encode(TypeChat, p)
}
