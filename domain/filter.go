package domain

import (
	"slices"
	"strings"
)

// PassesFilter reports whether the card matches every active filter
// dimension. Empty dimensions pass vacuously; tag and tool filters require
// the card to carry all selected values, not any.
func PassesFilter(card Card, filter Filter) bool {
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		haystack := strings.ToLower(card.Title + " " + card.Assignee + " " + card.Desc)
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	if len(filter.LaneIDs) > 0 && !slices.Contains(filter.LaneIDs, card.LaneID) {
		return false
	}
	if len(filter.Tags) > 0 && !containsAll(card.Tags, filter.Tags) {
		return false
	}
	if len(filter.Tools) > 0 && !containsAll(card.Tools, filter.Tools) {
		return false
	}
	return true
}

func containsAll(have, want []string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}
