package suppliers

import (
	"sort"
	"strings"
)

// DefaultSuggestLimit caps autocomplete suggestions.
const DefaultSuggestLimit = 5

// Suggest returns up to limit distinct names containing term, case-insensitively,
// in ascending order.
func Suggest(names []string, term string, limit int) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return []string{}
	}
	if limit <= 0 {
		limit = DefaultSuggestLimit
	}
	seen := make(map[string]struct{}, len(names))
	matches := make([]string, 0, limit)
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if strings.Contains(strings.ToLower(name), term) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
