package corpus

import (
	"cmp"
	"fmt"
	"strconv"
	"strings"
)

// EventDate is a possibly imprecise historical date. A zero Year means the
// date is unknown; a zero Month or Day means that component is unknown.
type EventDate struct {
	Year  int
	Month int
	Day   int
}

// ParseDate parses "YYYY", "YYYY-MM" or "YYYY-MM-DD". An empty string is
// the unknown date.
func ParseDate(s string) (EventDate, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EventDate{}, nil
	}

	parts := strings.Split(s, "-")
	if len(parts) > 3 {
		return EventDate{}, fmt.Errorf("invalid date %q", s)
	}

	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return EventDate{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		fields[i] = v
	}

	d := EventDate{Year: fields[0], Month: fields[1], Day: fields[2]}
	if d.Year <= 0 {
		return EventDate{}, fmt.Errorf("invalid year in date %q", s)
	}
	if len(parts) > 1 && (d.Month < 1 || d.Month > 12) {
		return EventDate{}, fmt.Errorf("invalid month in date %q", s)
	}
	if len(parts) > 2 && (d.Day < 1 || d.Day > 31) {
		return EventDate{}, fmt.Errorf("invalid day in date %q", s)
	}
	return d, nil
}

// IsZero reports whether the date is unknown.
func (d EventDate) IsZero() bool {
	return d.Year == 0
}

// String formats the date with the precision it was given in.
func (d EventDate) String() string {
	switch {
	case d.IsZero():
		return ""
	case d.Month == 0:
		return fmt.Sprintf("%04d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// SortCmp is the chronological comparator for event dates. Unknown dates
// sort first, and an unknown month or day sorts before a known one in the
// same year or month.
func SortCmp(a, b EventDate) int {
	if c := cmp.Compare(a.Year, b.Year); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Month, b.Month); c != 0 {
		return c
	}
	return cmp.Compare(a.Day, b.Day)
}
