package index

import "github.com/xrash/smetrics"

// reindexThreshold is the similarity below which an edit warrants a full
// re-index. Edits above it keep the existing chunks and vectors.
const reindexThreshold = 0.9

// ShouldReindex reports whether the edit from old to new content is
// substantial enough to rebuild the document's index.
//
// Both empty: nothing to do. Exactly one empty: always rebuild. Identical:
// keep. Otherwise the decision uses normalized Levenshtein similarity
// (1 − distance/maxLen) with unit edit costs, rebuilding below 0.9.
func ShouldReindex(old, new string) bool {
	if old == "" && new == "" {
		return false
	}
	if old == "" || new == "" {
		return true
	}
	if old == new {
		return false
	}

	maxLen := len(old)
	if len(new) > maxLen {
		maxLen = len(new)
	}
	distance := smetrics.WagnerFischer(old, new, 1, 1, 1)
	similarity := 1.0 - float64(distance)/float64(maxLen)
	return similarity < reindexThreshold
}
