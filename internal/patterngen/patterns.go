// Package patterngen synthesizes candidate email local parts from a
// person's name and joins them with a domain.
package patterngen

import (
	"regexp"
	"sort"
	"strings"
)

// Generate builds the deduplicated, regex-filtered, lexicographically
// sorted list of candidate addresses for (first, last, domain). Empty
// name or domain, or a domain without a dot, yields an empty result.
func Generate(first, last, domain string, emailRegex *regexp.Regexp) []string {
	first = strings.ToLower(strings.TrimSpace(first))
	last = strings.ToLower(strings.TrimSpace(last))
	domain = strings.ToLower(strings.TrimSpace(domain))

	if first == "" || last == "" || domain == "" || !strings.Contains(domain, ".") {
		return nil
	}

	finitial := first[:1]
	linitial := last[:1]

	locals := []string{
		first,
		first + "." + last,
		first + last,
		last + "." + first,
		last + first,
		finitial + last,
		finitial + "." + last,
		first + linitial,
		first + "." + linitial,
		first + "_" + last,
		first + "-" + last,
		last + "_" + first,
		last + "-" + first,
	}
	if len(first) >= 3 {
		locals = append(locals, first[:3]+last)
	}
	if len(last) >= 3 {
		locals = append(locals, first+last[:3])
	}

	seen := make(map[string]bool, len(locals))
	patterns := make([]string, 0, len(locals))
	for _, local := range locals {
		email := local + "@" + domain
		if seen[email] {
			continue
		}
		if emailRegex != nil && !emailRegex.MatchString(email) {
			continue
		}
		seen[email] = true
		patterns = append(patterns, email)
	}

	sort.Strings(patterns)
	return patterns
}
