package core

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns the contacts whose display name or search phone contains
// query, ignoring case. Order is preserved. An empty query matches every
// contact. The result never aliases the input slice.
func Filter(contacts []Contact, query string) []Contact {
	out := make([]Contact, 0, len(contacts))
	if query == "" {
		return append(out, contacts...)
	}

	// A Caser is stateful, so each call gets its own.
	fold := cases.Fold()
	needle := fold.String(query)
	for _, c := range contacts {
		if matches(fold, c, needle) {
			out = append(out, c)
		}
	}
	return out
}

// Matches reports whether a single contact passes the filter for query.
func Matches(c Contact, query string) bool {
	if query == "" {
		return true
	}
	fold := cases.Fold()
	return matches(fold, c, fold.String(query))
}

func matches(fold cases.Caser, c Contact, needle string) bool {
	return strings.Contains(fold.String(c.DisplayName()), needle) ||
		strings.Contains(fold.String(c.SearchPhone()), needle)
}
