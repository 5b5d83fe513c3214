package packet

import (
	"encoding/json"
)

// Frame is the envelope exchanged with the game bridge:
//
//	{"type": "<packet type>", "data": {...}}
type Frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Packet is an outbound action the bridge forwards to the game server.
type Packet interface {
	Type() string
	GetPayload() []byte
}

func encode(typ string, data any) []byte {
	raw, err := json.Marshal(data)
	if err != nil {
		// Packet structs only hold plain fields, Marshal cannot fail on them.
		raw = []byte("null")
	}
	buf, _ := json.Marshal(Frame{Type: typ, Data: raw})
	return buf
}

// Decode parses a frame produced by GetPayload.
func Decode(payload []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(payload, &f)
	return f, err
}
