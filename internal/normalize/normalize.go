// Package normalize provides utilities for normalizing user-supplied data.
package normalize

import "strings"

// TagName converts a raw tag name to its canonical form: trimmed and
// upper-cased. Tags are globally deduplicated by this form, so "travel",
// " Travel " and "TRAVEL" all resolve to the same tag record.
// The transformation is idempotent.
func TagName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// TagNames normalizes a list of raw tag names, dropping empties and
// duplicates while preserving first-seen order.
func TagNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		n := TagName(name)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Username canonicalizes a username for lookups: trimmed only.
// Usernames are case-sensitive identity, matching the authoritative store.
func Username(name string) string {
	return strings.TrimSpace(name)
}
