// Package rrule holds the recurrence helpers used by the occurrence
// resolver: weekday-token normalization for WEEKLY schedules and RFC 5545
// evaluation of N-day cadences.
package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// NormalizeWeekday maps a human-entered weekday token to a time.Weekday.
// Tokens are matched case-insensitively on their first two or three
// letters, so "MO", "Mon", "monday" and "MONDAY" all resolve to Monday.
// Unrecognized tokens report ok=false and are ignored by callers.
func NormalizeWeekday(token string) (time.Weekday, bool) {
	t := strings.ToUpper(strings.TrimSpace(token))
	if len(t) > 3 {
		t = t[:3]
	}
	switch t {
	case "MON", "MO":
		return time.Monday, true
	case "TUE", "TU":
		return time.Tuesday, true
	case "WED", "WE":
		return time.Wednesday, true
	case "THU", "TH":
		return time.Thursday, true
	case "FRI", "FR":
		return time.Friday, true
	case "SAT", "SA":
		return time.Saturday, true
	case "SUN", "SU":
		return time.Sunday, true
	}
	return time.Sunday, false
}

// WeekdaySet normalizes a token list into a membership set, dropping
// anything unrecognized.
func WeekdaySet(tokens []string) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(tokens))
	for _, tok := range tokens {
		if day, ok := NormalizeWeekday(tok); ok {
			set[day] = true
		}
	}
	return set
}

// WeekdayToken returns the canonical three-letter token for a weekday, the
// inverse of NormalizeWeekday.
func WeekdayToken(day time.Weekday) string {
	return strings.ToUpper(day.String()[:3])
}

// NDayOccursOn reports whether an every-N-days cadence anchored at anchor
// has an occurrence on the day beginning at dayStart. dayStart must be a
// midnight in the schedule's timezone; the anchor is truncated to its own
// midnight in that zone before the rule is evaluated.
func NDayOccursOn(anchor time.Time, n int, dayStart time.Time) (bool, error) {
	if n < 1 {
		return false, fmt.Errorf("rrule: invalid interval %d", n)
	}
	loc := dayStart.Location()
	a := anchor.In(loc)
	y, m, d := a.Date()

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:     rrule.DAILY,
		Interval: n,
		Dtstart:  time.Date(y, m, d, 0, 0, 0, 0, loc),
	})
	if err != nil {
		return false, fmt.Errorf("rrule: build N-day rule: %w", err)
	}

	next := rule.After(dayStart.Add(-time.Second), true)
	if next.IsZero() {
		return false, nil
	}
	return next.Equal(dayStart), nil
}
