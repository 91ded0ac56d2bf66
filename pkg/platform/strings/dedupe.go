// Package strings holds small helpers for reason-code lists and the bounded
// identifier sets kept in wallet profiles.
package strings

import (
	"slices"
	"strings"
)

// DedupeAndTrim trims every value and drops blanks and repeats, keeping the
// first occurrence of each.
func DedupeAndTrim(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}

// SortedUnique is DedupeAndTrim in lexical order. It never returns nil.
func SortedUnique(values []string) []string {
	out := DedupeAndTrim(values)
	slices.Sort(out)
	return out
}

// AppendBounded adds v when absent and reports whether it did. Past limit
// the oldest entries are evicted; a non-positive limit keeps everything.
func AppendBounded(values []string, v string, limit int) ([]string, bool) {
	if slices.Contains(values, v) {
		return values, false
	}
	values = append(values, v)
	if limit > 0 && len(values) > limit {
		values = slices.Clone(values[len(values)-limit:])
	}
	return values, true
}
