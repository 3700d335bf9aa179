package aggregate

import "sort"

// Rank sorts items primarily by normalized score descending, ties
// broken by priority (Critical > High > Medium > Low), then by
// location for stability (spec §4.9).
func Rank(items []ScoredItem) []ScoredItem {
	out := make([]ScoredItem, len(items))
	copy(out, items)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Score.Normalized != b.Score.Normalized {
			return a.Score.Normalized > b.Score.Normalized
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.ID.File != b.ID.File {
			return a.ID.File < b.ID.File
		}
		return a.ID.Line < b.ID.Line
	})

	return out
}
