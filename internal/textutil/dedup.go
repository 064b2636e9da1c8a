package textutil

import "github.com/agnivade/levenshtein"

// DefaultDedupThreshold is the minimum similarity ratio at which two chunks
// are considered near-duplicates.
const DefaultDedupThreshold = 0.92

// dedupWindow bounds how many recently retained chunks a candidate is
// compared against; duplicate content tends to be near-adjacent in
// paginated sources.
const dedupWindow = 50

// SoftDedup retains texts in input order, dropping any candidate whose
// similarity ratio to one of the last dedupWindow retained texts is at or
// above threshold.
func SoftDedup(texts []string, threshold float64) []string {
	kept := make([]string, 0, len(texts))
	for _, t := range texts {
		nt := Normalize(t)

		windowStart := 0
		if len(kept) > dedupWindow {
			windowStart = len(kept) - dedupWindow
		}

		duplicate := false
		for _, k := range kept[windowStart:] {
			if similarityRatio(nt, k) >= threshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			kept = append(kept, t)
		}
	}
	return kept
}

// similarityRatio returns the normalized Levenshtein similarity of a and b in
// [0,1]; 1 means identical.
func similarityRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}
