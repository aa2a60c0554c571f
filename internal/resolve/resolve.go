// Package resolve maps user-typed pet or device identifiers to exactly one
// entry of a candidate set. An exact ID match wins outright; otherwise
// names are matched by case-insensitive substring, and anything but a
// single hit is reported as a structured failure.
package resolve

import (
	"fmt"
	"strconv"
	"strings"
)

type Candidate struct {
	ID   int64
	Name string
}

type NotFoundError struct {
	Query string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("nothing matches %q", e.Query)
}

// AmbiguousError lists every matching candidate, in candidate-set order,
// so the caller can tell the user how to disambiguate.
type AmbiguousError struct {
	Query   string
	Matches []Candidate
}

func (e *AmbiguousError) Error() string {
	names := make([]string, len(e.Matches))
	for i, m := range e.Matches {
		names[i] = fmt.Sprintf("%s (ID %d)", m.Name, m.ID)
	}
	return fmt.Sprintf("%q matches %s: retry with the ID or a longer name fragment",
		e.Query, strings.Join(names, ", "))
}

// Resolve is pure: it never mutates candidates and performs no I/O.
func Resolve(query string, candidates []Candidate) (Candidate, error) {
	for _, c := range candidates {
		if query == strconv.FormatInt(c.ID, 10) {
			return c, nil
		}
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	var matches []Candidate
	for _, c := range candidates {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return Candidate{}, &NotFoundError{Query: query}
	case 1:
		return matches[0], nil
	default:
		return Candidate{}, &AmbiguousError{Query: query, Matches: matches}
	}
}
