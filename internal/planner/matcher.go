// Package planner maps free-text questions to typed query plans or
// analytics directives. It is pure string processing: no I/O, no retries,
// and a non-match is an absence, never an error.
package planner

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"duck-agent/internal/domain"
)

// similarityFloor is the minimum 0–1 similarity for a fuzzy suggestion.
const similarityFloor = 0.6

// ResolveColumn maps a free-text token to an actual column name: exact
// case-insensitive match first, then the first column (in schema order)
// whose lowercase name starts with the lowercase token.
func ResolveColumn(schema *domain.SchemaSnapshot, token string) (string, bool) {
	lower := strings.ToLower(token)
	for _, c := range schema.Columns {
		if strings.ToLower(c.Name) == lower {
			return c.Name, true
		}
	}
	for _, c := range schema.Columns {
		if strings.HasPrefix(strings.ToLower(c.Name), lower) {
			return c.Name, true
		}
	}
	return "", false
}

// SuggestColumns produces up to limit ranked column-name suggestions for a
// token that failed to resolve. Three tiers, cheapest first: substring
// containment (schema order), prefix match (schema order), then
// Levenshtein similarity at or above the floor, ranked descending. Typos
// should surface near-exact names before any fuzzy search runs.
func SuggestColumns(schema *domain.SchemaSnapshot, token string, limit int) []string {
	if limit <= 0 {
		limit = 5
	}
	lower := strings.ToLower(token)

	var out []string
	for _, c := range schema.Columns {
		if strings.Contains(strings.ToLower(c.Name), lower) {
			out = append(out, c.Name)
			if len(out) == limit {
				return out
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, c := range schema.Columns {
		if strings.HasPrefix(strings.ToLower(c.Name), lower) {
			out = append(out, c.Name)
			if len(out) == limit {
				return out
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	type scored struct {
		name  string
		score float64
	}
	var ranked []scored
	for _, c := range schema.Columns {
		score := similarity(lower, strings.ToLower(c.Name))
		if score >= similarityFloor {
			ranked = append(ranked, scored{name: c.Name, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	for _, s := range ranked {
		out = append(out, s.name)
		if len(out) == limit {
			break
		}
	}
	return out
}

// similarity maps Levenshtein distance to a 0–1 score relative to the
// longer string.
func similarity(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	dist := fuzzy.LevenshteinDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
