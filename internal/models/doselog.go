package models

import (
	"sort"
	"time"
)

type DoseStatus string

const (
	StatusPlanned DoseStatus = "PLANNED"
	StatusTaken   DoseStatus = "TAKEN"
	StatusSkipped DoseStatus = "SKIPPED"
)

// DoseLog is one concrete planned or as-needed dose occurrence. For
// scheduled doses (drug_id, planned_time) is unique; that constraint is
// what makes occurrence generation idempotent. PRN entries have a nil
// PlannedTime and a nil ScheduleID.
type DoseLog struct {
	LogID       int64      `json:"log_id"`
	DrugID      int64      `json:"drug_id"`
	ScheduleID  *int64     `json:"dose_schedule_id"` // nil for PRN entries
	PlannedTime *time.Time `json:"planned_time"`     // nil for PRN entries
	TakenTime   *time.Time `json:"taken_time"`       // nil until marked taken
	Status      DoseStatus `json:"status"`
	Quantity    *float64   `json:"quantity"`
	Unit        *string    `json:"unit"`
	Note        *string    `json:"note"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (l *DoseLog) IsActed() bool {
	return l.Status == StatusTaken || l.Status == StatusSkipped
}

// IsMissed reports whether this log counts as missed at the given moment:
// still PLANNED with a planned time in the past. Missed is a derived
// classification, never a stored status.
func (l *DoseLog) IsMissed(now time.Time) bool {
	return !l.IsActed() && l.PlannedTime != nil && !l.PlannedTime.After(now)
}

// LogWithDrug pairs a dose log with its drug for list views.
type LogWithDrug struct {
	Log  DoseLog
	Drug Drug
}

// SplitLogsForDay divides a day's logs into upcoming and history lists.
// History holds entries acted on today (taken or skipped) and entries
// missed today; everything else is upcoming. Upcoming sorts soonest-first,
// history most-recent-first.
func SplitLogsForDay(items []LogWithDrug, now time.Time, loc *time.Location) (upcoming, history []LogWithDrug) {
	local := now.In(loc)
	y, m, d := local.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, loc)
	endOfDay := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	inToday := func(t *time.Time) bool {
		return t != nil && !t.Before(startOfDay) && t.Before(endOfDay)
	}

	for _, item := range items {
		log := item.Log
		switch {
		case log.IsActed() && (inToday(log.PlannedTime) || inToday(log.TakenTime)):
			history = append(history, item)
		case !log.IsActed() && inToday(log.PlannedTime) && log.IsMissed(now):
			history = append(history, item)
		default:
			upcoming = append(upcoming, item)
		}
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return sortKey(upcoming[i].Log) < sortKey(upcoming[j].Log)
	})
	sort.SliceStable(history, func(i, j int) bool {
		return historyKey(history[i].Log) > historyKey(history[j].Log)
	})
	return upcoming, history
}

func sortKey(l DoseLog) int64 {
	if l.PlannedTime != nil {
		return l.PlannedTime.UnixMilli()
	}
	if l.TakenTime != nil {
		return l.TakenTime.UnixMilli()
	}
	return int64(1<<63 - 1)
}

func historyKey(l DoseLog) int64 {
	if l.TakenTime != nil {
		return l.TakenTime.UnixMilli()
	}
	if l.PlannedTime != nil {
		return l.PlannedTime.UnixMilli()
	}
	return 0
}
