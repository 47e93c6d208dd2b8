// Package timeutil parses and formats human-entered clock strings.
package timeutil

import (
	"fmt"
	"strings"
	"time"
)

var clockLayouts = []string{"15:04", "3:04PM", "3:04 PM"}

// ParseClockToMinutes parses a clock string such as "9:30", "09:30",
// "9:30am" or "11:05 PM" into minutes since midnight. ok is false for
// anything unparseable; callers drop that entry rather than failing.
func ParseClockToMinutes(s string) (int, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(s))
	if trimmed == "" {
		return 0, false
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Hour()*60 + t.Minute(), true
		}
	}
	return 0, false
}

// MinutesToDisplay formats minutes since midnight as a 12-hour clock
// string, e.g. 690 -> "11:30AM", 1380 -> "11:00PM".
func MinutesToDisplay(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	dispH := h
	switch {
	case h == 0:
		dispH = 12
	case h > 12:
		dispH = h - 12
	}
	return fmt.Sprintf("%d:%02d%s", dispH, m, suffix)
}
