// Package strings normalises the identifiers sent to the registry.
package strings

import (
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice, trimming
// whitespace from each element. Order is preserved. Contact IDs are case
// sensitive and go through this unchanged otherwise.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, strings.TrimSpace)
}

// NormalizeHostName returns the canonical form of a domain or host name:
// trimmed, lowercased and without a trailing root dot.
func NormalizeHostName(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}

// NormalizeHostNames normalises each name and drops empties and duplicates.
//
//	NormalizeHostNames([]string{" Example.COM.", "example.com", ""})
//	// Returns: []string{"example.com"}
func NormalizeHostNames(names []string) []string {
	return dedupe(names, NormalizeHostName)
}

func dedupe(values []string, norm func(string) string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		n := norm(v)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			result = append(result, n)
		}
	}

	return result
}
