// Package textmatch implements the case-insensitive substring matching used
// by listing search and the location filter.
package textmatch

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower lower-cases s using Unicode rules. A Caser is stateful, so one is
// built per call.
func Lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// Contains reports whether haystack contains needle, ignoring case.
// An empty needle matches everything.
func Contains(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(Lower(haystack), Lower(needle))
}

// AnyContains reports whether any of the fields contains needle, ignoring case.
func AnyContains(needle string, fields ...string) bool {
	if needle == "" {
		return true
	}
	n := Lower(needle)
	for _, f := range fields {
		if strings.Contains(Lower(f), n) {
			return true
		}
	}
	return false
}
