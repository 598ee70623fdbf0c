package tui

import (
	"strings"
	"unicode/utf8"

	"charm.land/bubbles/v2/list"
)

// substringFilter matches a case-insensitive substring and keeps matches in
// their original list order. The fuzzy default would re-rank results and
// match scattered subsequences ("bug" hitting "build usage graph"), which
// makes filtered pickers jump around.
func substringFilter(term string, targets []string) []list.Rank {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		ranks := make([]list.Rank, len(targets))
		for i := range targets {
			ranks[i] = list.Rank{Index: i}
		}
		return ranks
	}

	var ranks []list.Rank
	for i, target := range targets {
		lower := strings.ToLower(target)
		off := strings.Index(lower, t)
		if off < 0 {
			continue
		}
		start := utf8.RuneCountInString(lower[:off])
		matched := make([]int, utf8.RuneCountInString(t))
		for j := range matched {
			matched[j] = start + j
		}
		ranks = append(ranks, list.Rank{Index: i, MatchedIndexes: matched})
	}
	return ranks
}
