package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	reNumber = regexp.MustCompile(`\d+`)
)

// Layouts tried in order before handing off to dateparse. The list mirrors
// the date formats the source sites actually emit.
var layouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
	"02-01-2006",
}

// Normalize parses a heterogeneous date representation into a UTC
// timestamp. Relative phrases ("3 days ago") are resolved against now.
// Unparseable input falls back to now itself: an article whose date we
// cannot read is treated as fresh rather than silently discarded.
func Normalize(raw string, now time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.UTC()
	}

	if t, ok := parseRelative(raw, now); ok {
		return t.UTC()
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}

	// Naive timestamps are treated as already UTC.
	if t, err := dateparse.ParseIn(raw, time.UTC); err == nil {
		return t.UTC()
	}

	return now.UTC()
}

func parseRelative(raw string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(raw)
	if !strings.Contains(lower, "ago") {
		return time.Time{}, false
	}

	match := reNumber.FindString(lower)
	if match == "" {
		return time.Time{}, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return time.Time{}, false
	}

	switch {
	case strings.Contains(lower, "hour"):
		return now.Add(-time.Duration(n) * time.Hour), true
	case strings.Contains(lower, "day"):
		return now.AddDate(0, 0, -n), true
	case strings.Contains(lower, "week"):
		return now.AddDate(0, 0, -n*7), true
	case strings.Contains(lower, "month"):
		// A month is approximated as 30 days.
		return now.AddDate(0, 0, -n*30), true
	}

	return time.Time{}, false
}

// SameOrAfterDay reports whether t falls on the same calendar day as
// cutoff or later. Comparison is by date, not instant, so an article
// published earlier on the cutoff day still passes.
func SameOrAfterDay(t, cutoff time.Time) bool {
	ty, tm, td := t.UTC().Date()
	cy, cm, cd := cutoff.UTC().Date()
	tDay := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	cDay := time.Date(cy, cm, cd, 0, 0, 0, 0, time.UTC)
	return !tDay.Before(cDay)
}
