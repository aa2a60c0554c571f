// Package timerange turns the range expressions accepted by the history
// commands into concrete start/end bounds.
package timerange

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Range is a resolved start/end pair with Start <= End. The named forms
// use rolling windows anchored at the reference time; explicit date pairs
// are inclusive of both days.
type Range struct {
	Start time.Time
	End   time.Time
}

func (r Range) Days() int {
	d := int(r.End.Sub(r.Start).Hours() / 24)
	if d < 1 {
		return 1
	}
	return d
}

type ParseError struct {
	Expr   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid range %q: %s", e.Expr, e.Reason)
	}
	return fmt.Sprintf("invalid range %q: use 'today', 'week', 'month' or 'YYYY-MM-DD,YYYY-MM-DD'", e.Expr)
}

// Parse resolves expr against the reference time now. It performs no I/O,
// so the same now always yields the same range.
func Parse(expr string, now time.Time) (Range, error) {
	switch strings.ToLower(strings.TrimSpace(expr)) {
	case "today":
		y, m, d := now.Date()
		start := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		return Range{Start: start, End: start.AddDate(0, 0, 1)}, nil
	case "week":
		return Range{Start: now.AddDate(0, 0, -7), End: now}, nil
	case "month":
		return Range{Start: now.AddDate(0, -1, 0), End: now}, nil
	}

	if !strings.Contains(expr, ",") {
		return Range{}, &ParseError{Expr: expr}
	}

	parts := strings.SplitN(expr, ",", 3)
	if len(parts) != 2 {
		return Range{}, &ParseError{Expr: expr, Reason: "expected exactly one comma between two YYYY-MM-DD dates"}
	}

	from, err := time.ParseInLocation(dateLayout, strings.TrimSpace(parts[0]), time.UTC)
	if err != nil {
		return Range{}, &ParseError{Expr: expr, Reason: fmt.Sprintf("bad start date %q: use YYYY-MM-DD", strings.TrimSpace(parts[0]))}
	}
	to, err := time.ParseInLocation(dateLayout, strings.TrimSpace(parts[1]), time.UTC)
	if err != nil {
		return Range{}, &ParseError{Expr: expr, Reason: fmt.Sprintf("bad end date %q: use YYYY-MM-DD", strings.TrimSpace(parts[1]))}
	}
	if from.After(to) {
		return Range{}, &ParseError{Expr: expr, Reason: "start date is after end date"}
	}

	// Inclusive span: the end bound covers the whole final day.
	return Range{Start: from, End: to.Add(24*time.Hour - time.Second)}, nil
}
