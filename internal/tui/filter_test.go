package tui

import (
	"testing"
)

func TestSubstringFilterKeepsOriginalOrder(t *testing.T) {
	targets := []string{"Fix bug #1", "Add feature", "bug triage", "build usage graph"}

	ranks := substringFilter("bug", targets)
	if len(ranks) != 2 {
		t.Fatalf("matches = %d, want 2 (%+v)", len(ranks), ranks)
	}
	// Relative order of the input, not match-quality order.
	if ranks[0].Index != 0 || ranks[1].Index != 2 {
		t.Fatalf("indexes = %d, %d, want 0, 2", ranks[0].Index, ranks[1].Index)
	}
}

func TestSubstringFilterRejectsScatteredSubsequence(t *testing.T) {
	// "bug" is a subsequence of "build usage graph" but not a substring.
	if ranks := substringFilter("bug", []string{"build usage graph"}); len(ranks) != 0 {
		t.Fatalf("subsequence matched: %+v", ranks)
	}
}

func TestSubstringFilterCaseInsensitive(t *testing.T) {
	ranks := substringFilter("BUG", []string{"fix Bug"})
	if len(ranks) != 1 {
		t.Fatalf("matches = %d, want 1", len(ranks))
	}
	want := []int{4, 5, 6}
	if len(ranks[0].MatchedIndexes) != len(want) {
		t.Fatalf("matched indexes = %v, want %v", ranks[0].MatchedIndexes, want)
	}
	for i, idx := range want {
		if ranks[0].MatchedIndexes[i] != idx {
			t.Fatalf("matched indexes = %v, want %v", ranks[0].MatchedIndexes, want)
		}
	}
}

func TestSubstringFilterEmptyTermMatchesAll(t *testing.T) {
	ranks := substringFilter("  ", []string{"a", "b", "c"})
	if len(ranks) != 3 {
		t.Fatalf("matches = %d, want 3", len(ranks))
	}
	for i, r := range ranks {
		if r.Index != i {
			t.Fatalf("rank %d has index %d", i, r.Index)
		}
	}
}
