package reconcile

import (
	"math"
	"time"
)

// Order exports carry day-first dates; ISO dates also appear in the wild
// and are accepted as-is.
var dayFirstLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2006-01-02",
}

var eventLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

func parseDayFirst(s string) *time.Time {
	return parseAny(s, dayFirstLayouts)
}

func parseEvent(s string) *time.Time {
	return parseAny(s, eventLayouts)
}

func parseAny(s string, layouts []string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// daysBetween is the whole number of days from `from` to `to`, nil when
// either input is missing. Negative spans floor like a calendar diff.
func daysBetween(to, from *time.Time) *int {
	if to == nil || from == nil {
		return nil
	}
	d := int(math.Floor(to.Sub(*from).Hours() / 24))
	return &d
}

func sumDays(a, b *int) *int {
	if a == nil || b == nil {
		return nil
	}
	s := *a + *b
	return &s
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
