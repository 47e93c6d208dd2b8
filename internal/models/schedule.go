package models

import "time"

type FrequencyType string

const (
	FrequencyDaily       FrequencyType = "DAILY"
	FrequencyWeekly      FrequencyType = "WEEKLY"
	FrequencyEveryNDays  FrequencyType = "EVERY_N_DAYS"
	FrequencyEveryNHours FrequencyType = "EVERY_N_HOURS"
	FrequencyPRN         FrequencyType = "PRN"
)

// Schedule is the dosing recurrence rule for a drug. Each drug has at most
// one schedule; its timezone is the authority for what "today" means when
// occurrences are resolved.
type Schedule struct {
	ScheduleID    int64         `json:"dose_schedule_id"`
	DrugID        int64         `json:"drug_id"`
	PRN           bool          `json:"prn"` // as needed, no fixed recurrence or times
	DoseAmount    *float64      `json:"dose_amount"`
	DoseUnit      *string       `json:"dose_unit"` // "mg", "ml"
	FrequencyType FrequencyType `json:"freq_type"`
	IntervalHours *int          `json:"interval_hours"` // when freq_type == EVERY_N_HOURS
	EveryNDays    *int          `json:"every_n_days"`   // when freq_type == EVERY_N_DAYS; 1 means daily
	ByWeekday     []string      `json:"by_weekday"`     // tokens like "MON", "WED"; WEEKLY only
	StartDate     *time.Time    `json:"start_date"`     // inclusive; inactive before
	EndDate       *time.Time    `json:"end_date"`       // inclusive; inactive after
	Timezone      string        `json:"timezone"`       // IANA zone id
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// DoseTime is one wall-clock time-of-day entry belonging to a schedule.
// (ScheduleID, MinutesLocal) is unique.
type DoseTime struct {
	DoseTimeID   int64     `json:"dose_time_id"`
	ScheduleID   int64     `json:"dose_schedule_id"`
	MinutesLocal int       `json:"minutes_local"` // 0-1439, in the schedule's timezone
	DoseCount    float64   `json:"dose_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TimeEntry is the unsaved (minutes, count) pair handed to SaveOrReplaceForDrug.
type TimeEntry struct {
	MinutesLocal int
	DoseCount    float64
}

// ScheduleWithTimes pairs a schedule with its time-of-day entries.
type ScheduleWithTimes struct {
	Schedule Schedule
	Times    []DoseTime
}

// Sanitized returns a copy satisfying the PRN invariant: an as-needed
// schedule carries no recurrence fields. Non-PRN schedules pass through
// unchanged. Callers must route every schedule write through this.
func (s Schedule) Sanitized() Schedule {
	if !s.PRN {
		return s
	}
	s.ByWeekday = nil
	s.EveryNDays = nil
	s.IntervalHours = nil
	return s
}

// Location resolves the schedule's IANA timezone, falling back to UTC when
// the stored id no longer loads.
func (s *Schedule) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
