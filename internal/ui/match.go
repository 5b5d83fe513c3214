package ui

import (
	"log/slog"
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	fuzzyMinLength   = 5
	fuzzyMinDistance = 2
)

// MatchKind tells how FindItem located its result.
type MatchKind int

const (
	NoMatch MatchKind = iota
	ExactMatch
	TokenMatch
	PartialMatch
	FuzzyMatch
)

func (m MatchKind) String() string {
	switch m {
	case ExactMatch:
		return "exact"
	case TokenMatch:
		return "tokens"
	case PartialMatch:
		return "partial"
	case FuzzyMatch:
		return "fuzzy"
	}
	return "none"
}

type candidate struct {
	slot int
	name string
}

// FindItem locates target among the window items. Tiers run in order and the first
// hit wins: exact name, all tokens present, substring either way, then edit distance
// for targets of at least five characters.
func FindItem(logger *slog.Logger, items []Item, target string) (int, MatchKind) {
	want := normalize(target)
	if want == "" {
		return 0, NoMatch
	}

	candidates := make([]candidate, 0, len(items))
	for _, it := range items {
		name := normalize(it.Label())
		if name == "" || name == "close" {
			continue
		}
		if name == want {
			return it.Slot, ExactMatch
		}
		candidates = append(candidates, candidate{slot: it.Slot, name: name})
	}

	tokens := strings.Fields(want)
	for _, c := range candidates {
		if containsAll(c.name, tokens) {
			return c.slot, TokenMatch
		}
	}

	for _, c := range candidates {
		if strings.Contains(c.name, want) || strings.Contains(want, c.name) {
			return c.slot, PartialMatch
		}
	}

	length := len([]rune(want))
	if length >= fuzzyMinLength {
		maxDistance := max(fuzzyMinDistance, length*20/100)
		best, bestSlot := maxDistance+1, -1
		for _, c := range candidates {
			d := levenshtein.ComputeDistance(want, c.name)
			if d <= maxDistance && d < best {
				best, bestSlot = d, c.slot
			}
		}
		if bestSlot >= 0 {
			return bestSlot, FuzzyMatch
		}
	}

	if logger != nil {
		names := make([]string, 0, len(candidates))
		for _, c := range candidates {
			names = append(names, c.name)
		}
		logger.Warn("No match in search results", slog.String("item", target), slog.String("found", strings.Join(names, ", ")))
	}

	return 0, NoMatch
}

func containsAll(name string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, t := range tokens {
		if !strings.Contains(name, t) {
			return false
		}
	}
	return true
}
