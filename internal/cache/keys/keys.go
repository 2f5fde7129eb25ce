// Package keys builds the cache keys of listing query results.
package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/listing-map/internal/textmatch"
)

const (
	listPrefix = "list:"
	idPrefix   = "id:"
)

// All is the key of the full listing snapshot.
func All() string {
	return listPrefix + "all"
}

// Search keys a text search. Search is case-insensitive, so queries that only
// differ in case share a key; whitespace is significant and kept in the hash.
func Search(query string) string {
	norm := textmatch.Lower(query)
	safe := sanitizeForKey(norm)

	const maxQueryTextLen = 64
	if len(safe) > maxQueryTextLen {
		safe = safe[:maxQueryTextLen]
	}

	sum := xxhash.Sum64String(norm)
	return fmt.Sprintf("%sq=%s:f=%016x", listPrefix, safe, sum)
}

func ByID(id string) string {
	return idPrefix + id
}

// IsList reports whether key holds a multi-listing result.
func IsList(key string) bool {
	return strings.HasPrefix(key, listPrefix)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			// Any other rune (including non-ASCII) becomes '-'
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}
