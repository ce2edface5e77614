package generate

import (
	"strings"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/cases"
)

// foldCaser is a package-level Unicode case folder, shared because caser
// construction is not free.
var foldCaser = cases.Fold()

// normalizeIdea prepares an idea for similarity comparison: trimmed and
// Unicode case-folded, so "The Lighthouse" and "the lighthouse" collide.
func normalizeIdea(idea string) string {
	return foldCaser.String(strings.TrimSpace(idea))
}

// similarity returns a normalized similarity score in [0.0, 1.0] between
// two ideas, where 1.0 means identical after normalization. It is based
// on Levenshtein edit distance over the longer string's length; the
// levenshtein library handles multi-byte UTF-8 correctly.
func similarity(a, b string) float64 {
	na, nb := normalizeIdea(a), normalizeIdea(b)
	if na == nb {
		return 1.0
	}

	longest := max(len([]rune(na)), len([]rune(nb)))
	if longest == 0 {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(na, nb)
	return 1.0 - float64(distance)/float64(longest)
}

// isNearDuplicate reports whether candidate is at least threshold similar
// to any already-kept idea. Duplicate prompts would otherwise end up
// competing against themselves in comparison groups.
func isNearDuplicate(kept []string, candidate string, threshold float64) bool {
	for _, idea := range kept {
		if similarity(idea, candidate) >= threshold {
			return true
		}
	}
	return false
}
