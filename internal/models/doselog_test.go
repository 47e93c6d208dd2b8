package models

import (
	"testing"
	"time"
)

func timep(t time.Time) *time.Time { return &t }

func TestIsMissed(t *testing.T) {
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		log  DoseLog
		want bool
	}{
		{"planned in past", DoseLog{Status: StatusPlanned, PlannedTime: timep(now.Add(-time.Hour))}, true},
		{"planned exactly now", DoseLog{Status: StatusPlanned, PlannedTime: timep(now)}, true},
		{"planned in future", DoseLog{Status: StatusPlanned, PlannedTime: timep(now.Add(time.Hour))}, false},
		{"taken in past", DoseLog{Status: StatusTaken, PlannedTime: timep(now.Add(-time.Hour))}, false},
		{"skipped in past", DoseLog{Status: StatusSkipped, PlannedTime: timep(now.Add(-time.Hour))}, false},
		{"prn entry without planned time", DoseLog{Status: StatusTaken}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.log.IsMissed(now); got != tt.want {
				t.Errorf("IsMissed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitLogsForDay(t *testing.T) {
	loc := time.UTC
	now := time.Date(2024, 6, 3, 12, 0, 0, 0, loc)
	drug := Drug{DrugID: 1, Name: "Apixaban"}

	items := []LogWithDrug{
		{Log: DoseLog{LogID: 1, Status: StatusPlanned, PlannedTime: timep(time.Date(2024, 6, 3, 9, 0, 0, 0, loc))}, Drug: drug},  // missed today
		{Log: DoseLog{LogID: 2, Status: StatusPlanned, PlannedTime: timep(time.Date(2024, 6, 3, 18, 0, 0, 0, loc))}, Drug: drug}, // upcoming
		{Log: DoseLog{LogID: 3, Status: StatusTaken, PlannedTime: timep(time.Date(2024, 6, 3, 8, 0, 0, 0, loc)), TakenTime: timep(time.Date(2024, 6, 3, 8, 5, 0, 0, loc))}, Drug: drug},
		{Log: DoseLog{LogID: 4, Status: StatusSkipped, PlannedTime: timep(time.Date(2024, 6, 3, 10, 0, 0, 0, loc))}, Drug: drug},
		{Log: DoseLog{LogID: 5, Status: StatusPlanned, PlannedTime: timep(time.Date(2024, 6, 4, 9, 0, 0, 0, loc))}, Drug: drug}, // tomorrow
	}

	upcoming, history := SplitLogsForDay(items, now, loc)

	wantUpcoming := []int64{2, 5}
	if len(upcoming) != len(wantUpcoming) {
		t.Fatalf("upcoming = %d items, want %d", len(upcoming), len(wantUpcoming))
	}
	for i, want := range wantUpcoming {
		if upcoming[i].Log.LogID != want {
			t.Errorf("upcoming[%d] = log %d, want %d", i, upcoming[i].Log.LogID, want)
		}
	}

	// History is most-recent-first: skipped 10:00, missed 9:00, taken 8:05.
	wantHistory := []int64{4, 1, 3}
	if len(history) != len(wantHistory) {
		t.Fatalf("history = %d items, want %d", len(history), len(wantHistory))
	}
	for i, want := range wantHistory {
		if history[i].Log.LogID != want {
			t.Errorf("history[%d] = log %d, want %d", i, history[i].Log.LogID, want)
		}
	}
}
