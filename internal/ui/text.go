package ui

import (
	"strings"
)

const colorMarker = '§'

var bazaarErrorPatterns = []string{
	"cannot place any more",
	"order limit",
	"insufficient",
	"not enough",
	"maximum orders",
	"buy order limit",
	"sell offer limit",
}

var decorations = strings.NewReplacer("☘", "", "☂", "", "✪", "", "◆", "", "❤", "")

// StripColors removes §x formatting codes.
func StripColors(s string) string {
	if !strings.ContainsRune(s, colorMarker) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	skip := false
	for _, r := range s {
		if skip {
			skip = false
			continue
		}
		if r == colorMarker {
			skip = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// normalize is the comparison form for item names.
func normalize(s string) string {
	return strings.TrimSpace(decorations.Replace(strings.ToLower(StripColors(s))))
}

// ErrorLine returns the cleaned text of a red line that matches a known bazaar rejection.
func ErrorLine(line string) (string, bool) {
	if !strings.Contains(line, "§c") {
		return "", false
	}

	clean := StripColors(line)
	lower := strings.ToLower(clean)
	for _, p := range bazaarErrorPatterns {
		if strings.Contains(lower, p) {
			return strings.TrimSpace(clean), true
		}
	}

	return "", false
}

// FindError scans display names and lore of the given items for a bazaar rejection message.
func FindError(items []Item) (string, bool) {
	for _, it := range items {
		if msg, found := ErrorLine(it.DisplayName); found {
			return msg, true
		}
		for _, l := range it.Lore {
			if msg, found := ErrorLine(l); found {
				return msg, true
			}
		}
	}
	return "", false
}
