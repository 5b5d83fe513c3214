package ui

// Item is the content of one window slot as reported by the game.
type Item struct {
	Slot        int      `json:"slot"`
	ItemID      int      `json:"itemId,omitempty"`
	Name        string   `json:"name"`
	DisplayName string   `json:"displayName,omitempty"`
	Count       int      `json:"count,omitempty"`
	Lore        []string `json:"lore,omitempty"`
}

func (i Item) Empty() bool {
	return i.Name == "" || i.Name == "air"
}

// Label is the name shown to the player, falling back to the item identifier.
func (i Item) Label() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Name
}

// ItemAt returns the item in the given slot, if any.
func ItemAt(items []Item, slot int) (Item, bool) {
	for _, it := range items {
		if it.Slot == slot {
			return it, !it.Empty()
		}
	}
	return Item{}, false
}
