package packet

const TypeUpdateSign = "update_sign"

// UpdateSign submits the text of the sign editor opened for custom amounts and prices.
// The value goes on the first line, the remaining lines keep the prompt the server wrote.
type UpdateSign struct {
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Z     int       `json:"z"`
	Lines [4]string `json:"lines"`
}

func NewUpdateSign(x, y, z int, value string) *UpdateSign {
	return &UpdateSign{
		X:     x,
		Y:     y,
		Z:     z,
		Lines: [4]string{value, "^^^^^^^^^^^^^^^", "", ""},
	}
}

func (p *UpdateSign) Type() string { return TypeUpdateSign }

func (p *UpdateSign) GetPayload() []byte {
	return encode(TypeUpdateSign, p)
}
