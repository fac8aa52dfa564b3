// Package ranking holds the ordering rules of the leaderboard.
//
// Ordering: score DESC. Ties keep their relative order from the input, so an
// earlier submission outranks a later one with the same score.
package ranking

import (
	"sort"

	"github.com/okian/dexboard/internal/domain/model"
)

// Sort orders entries by score descending in place. The sort is stable.
func Sort(entries []model.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
}

// Sorted returns a ranked copy and leaves the input untouched.
func Sorted(entries []model.Entry) []model.Entry {
	out := make([]model.Entry, len(entries))
	copy(out, entries)
	Sort(out)
	return out
}

// IsRanked reports whether scores are non-increasing across consecutive entries.
func IsRanked(entries []model.Entry) bool {
	for i := 1; i < len(entries); i++ {
		if entries[i].Score > entries[i-1].Score {
			return false
		}
	}
	return true
}

// Top returns a copy of the first n entries. The result is never nil.
func Top(entries []model.Entry, n int) []model.Entry {
	if n <= 0 {
		return []model.Entry{}
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]model.Entry, n)
	copy(out, entries[:n])
	return out
}

// Cap truncates a ranked slice to limit entries; limit <= 0 means unbounded.
func Cap(entries []model.Entry, limit int) []model.Entry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[:limit]
}
