package textutil

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Suggest returns up to limit candidates closest to value by edit distance,
// compared case-insensitively. Candidates further than half the length of
// value (minimum 2) are dropped. Ties keep candidate order.
func Suggest(value string, candidates []string, limit int) []string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || limit <= 0 {
		return nil
	}
	maxDistance := len([]rune(value)) / 2
	if maxDistance < 2 {
		maxDistance = 2
	}

	type scored struct {
		name     string
		distance int
	}
	matches := make([]scored, 0, len(candidates))
	for _, candidate := range candidates {
		lowered := strings.ToLower(candidate)
		distance := levenshtein.ComputeDistance(value, lowered)
		if strings.HasPrefix(lowered, value) && distance > 0 {
			distance = 1
		}
		if distance > maxDistance {
			continue
		}
		matches = append(matches, scored{name: candidate, distance: distance})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.name)
	}
	return out
}

// DidYouMean formats the best suggestion as a hint suffix, or "" when there
// is nothing close enough.
func DidYouMean(value string, candidates []string) string {
	best := Suggest(value, candidates, 1)
	if len(best) == 0 {
		return ""
	}
	return " (did you mean " + `"` + best[0] + `"?)`
}
