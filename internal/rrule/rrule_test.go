package rrule

import (
	"testing"
	"time"
)

func TestNormalizeWeekday(t *testing.T) {
	tests := []struct {
		token string
		want  time.Weekday
		ok    bool
	}{
		{"MON", time.Monday, true},
		{"MO", time.Monday, true},
		{"mon", time.Monday, true},
		{" Tu ", time.Tuesday, true},
		{"TUESDAY", time.Tuesday, true},
		{"Wed", time.Wednesday, true},
		{"THU", time.Thursday, true},
		{"fri", time.Friday, true},
		{"SATURDAY", time.Saturday, true},
		{"Su", time.Sunday, true},
		{"", time.Sunday, false},
		{"XX", time.Sunday, false},
		{"M", time.Sunday, false},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, ok := NormalizeWeekday(tt.token)
			if ok != tt.ok {
				t.Fatalf("NormalizeWeekday(%q) ok = %v, want %v", tt.token, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("NormalizeWeekday(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestWeekdaySetIgnoresUnknownTokens(t *testing.T) {
	set := WeekdaySet([]string{"MON", "nope", "WED", ""})
	if len(set) != 2 || !set[time.Monday] || !set[time.Wednesday] {
		t.Errorf("WeekdaySet = %v, want {Monday, Wednesday}", set)
	}
}

func TestWeekdayTokenRoundTrip(t *testing.T) {
	for day := time.Sunday; day <= time.Saturday; day++ {
		got, ok := NormalizeWeekday(WeekdayToken(day))
		if !ok || got != day {
			t.Errorf("round trip for %v: got %v, ok=%v", day, got, ok)
		}
	}
}

func TestNDayOccursOn(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatal(err)
	}
	// Anchored Saturday June 1; every 3 days hits June 1, 4, 7...
	anchor := time.Date(2024, 6, 1, 9, 30, 0, 0, loc)

	tests := []struct {
		day  int
		want bool
	}{
		{1, true},
		{2, false},
		{3, false},
		{4, true},
		{7, true},
	}
	for _, tt := range tests {
		dayStart := time.Date(2024, 6, tt.day, 0, 0, 0, 0, loc)
		got, err := NDayOccursOn(anchor, 3, dayStart)
		if err != nil {
			t.Fatalf("NDayOccursOn(june %d): %v", tt.day, err)
		}
		if got != tt.want {
			t.Errorf("NDayOccursOn(june %d) = %v, want %v", tt.day, got, tt.want)
		}
	}
}

func TestNDayOccursOnBeforeAnchor(t *testing.T) {
	loc := time.UTC
	anchor := time.Date(2024, 6, 10, 0, 0, 0, 0, loc)
	got, err := NDayOccursOn(anchor, 2, time.Date(2024, 6, 8, 0, 0, 0, 0, loc))
	if err != nil {
		t.Fatal(err)
	}
	if got {
		t.Error("cadence must not occur before its anchor")
	}
}

func TestNDayOccursOnRejectsBadInterval(t *testing.T) {
	if _, err := NDayOccursOn(time.Now(), 0, time.Now()); err == nil {
		t.Error("expected error for interval 0")
	}
}
