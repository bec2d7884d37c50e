// Package reldate resolves relative date phrases ("last week", "two years ago")
// into calendar date ranges against an explicit reference time.
package reldate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layout is the calendar date format used for range bounds.
const Layout = "2006-01-02"

// Range is an inclusive span of calendar days.
type Range struct {
	After  time.Time
	Before time.Time
}

// AfterDate returns the first day of the range as YYYY-MM-DD.
func (r Range) AfterDate() string { return r.After.Format(Layout) }

// BeforeDate returns the last day of the range as YYYY-MM-DD.
func (r Range) BeforeDate() string { return r.Before.Format(Layout) }

// UntilDate returns the day after the range ends as YYYY-MM-DD. A "<=" cutoff at
// its midnight covers all of the last day, so single-day ranges match videos
// released at any time that day.
func (r Range) UntilDate() string { return r.Before.AddDate(0, 0, 1).Format(Layout) }

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

var (
	agoPattern  = regexp.MustCompile(`^(\w+) (day|week|month|year)s? ago$`)
	pastPattern = regexp.MustCompile(`^(?:past|last|previous) (\w+) (day|week|month|year)s?$`)
	yearPattern = regexp.MustCompile(`^(?:in |from |during )?(\d{4})$`)
)

var fillerWords = map[string]bool{
	"the": true, "video": true, "videos": true, "released": true, "came": true, "out": true,
}

// Resolve maps phrase to a date range relative to now. The second result is
// false when the phrase is not understood.
func Resolve(phrase string, now time.Time) (Range, bool) {
	p := normalize(phrase)
	if p == "" {
		return Range{}, false
	}
	today := day(now)

	switch p {
	case "today":
		return Range{today, today}, true
	case "yesterday":
		y := today.AddDate(0, 0, -1)
		return Range{y, y}, true
	case "this week":
		start := today.AddDate(0, 0, -weekdayOffset(today))
		return Range{start, start.AddDate(0, 0, 6)}, true
	case "last week", "past week", "previous week":
		return Range{today.AddDate(0, 0, -7), today}, true
	case "this month":
		return monthRange(today.Year(), today.Month(), today.Location()), true
	case "last month", "previous month":
		m := firstOfMonth(today).AddDate(0, -1, 0)
		return monthRange(m.Year(), m.Month(), m.Location()), true
	case "this year":
		return yearRange(today.Year(), today.Location()), true
	case "last year", "previous year":
		return yearRange(today.Year()-1, today.Location()), true
	}

	if m := agoPattern.FindStringSubmatch(p); m != nil {
		n, ok := count(m[1])
		if !ok {
			return Range{}, false
		}
		switch m[2] {
		case "day":
			d := today.AddDate(0, 0, -n)
			return Range{d, d}, true
		case "week":
			end := today.AddDate(0, 0, -7*(n-1))
			return Range{end.AddDate(0, 0, -7), end}, true
		case "month":
			first := firstOfMonth(today).AddDate(0, -n, 0)
			return monthRange(first.Year(), first.Month(), first.Location()), true
		case "year":
			return yearRange(today.Year()-n, today.Location()), true
		}
	}

	if m := pastPattern.FindStringSubmatch(p); m != nil {
		n, ok := count(m[1])
		if !ok {
			return Range{}, false
		}
		switch m[2] {
		case "day":
			return Range{today.AddDate(0, 0, -n), today}, true
		case "week":
			return Range{today.AddDate(0, 0, -7*n), today}, true
		case "month":
			return Range{today.AddDate(0, -n, 0), today}, true
		case "year":
			return Range{today.AddDate(-n, 0, 0), today}, true
		}
	}

	if m := yearPattern.FindStringSubmatch(p); m != nil {
		year, err := strconv.Atoi(m[1])
		if err != nil {
			return Range{}, false
		}
		return yearRange(year, today.Location()), true
	}

	return Range{}, false
}

func normalize(phrase string) string {
	p := strings.ToLower(strings.TrimSpace(phrase))
	p = strings.Trim(p, ".!?,'\"")
	words := strings.Fields(p)
	kept := words[:0]
	for _, w := range words {
		if !fillerWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func count(word string) (int, bool) {
	if n, ok := numberWords[word]; ok {
		return n, true
	}
	n, err := strconv.Atoi(word)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// weekdayOffset is the number of days since Monday.
func weekdayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func monthRange(year int, month time.Month, loc *time.Location) Range {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return Range{first, first.AddDate(0, 1, -1)}
}

func yearRange(year int, loc *time.Location) Range {
	return Range{
		time.Date(year, time.January, 1, 0, 0, 0, 0, loc),
		time.Date(year, time.December, 31, 0, 0, 0, 0, loc),
	}
}
