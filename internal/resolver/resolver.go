// Package resolver turns dosing schedules into concrete dose-log rows for
// the current day.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"medtrack/internal/models"
	"medtrack/internal/rrule"
	"medtrack/internal/storage"
)

// Generator materializes today's planned dose logs for every non-PRN
// schedule a user owns. It is safe to invoke on every app foreground or
// concurrently from multiple entry points: correctness rests on the
// (drug, planned time) uniqueness constraint in the store, so a racing
// run's duplicate insert is rejected there and treated as benign here.
type Generator struct {
	drugs     storage.DrugStore
	schedules storage.ScheduleStore
	logs      storage.DoseLogStore
}

func New(drugs storage.DrugStore, schedules storage.ScheduleStore, logs storage.DoseLogStore) *Generator {
	return &Generator{drugs: drugs, schedules: schedules, logs: logs}
}

// GenerateDueOccurrences inserts a PLANNED dose log for each (drug,
// time-of-day) pair due on the day containing asOf, where "the day" is
// computed independently per schedule in that schedule's own timezone.
// A failure in one schedule aborts only that schedule's resolution; the
// rest of the batch continues and the first error is returned.
func (g *Generator) GenerateDueOccurrences(ctx context.Context, uid string, asOf time.Time) error {
	drugs, err := g.drugs.FindByOwner(ctx, uid)
	if err != nil {
		return fmt.Errorf("list drugs for %s: %w", uid, err)
	}

	var firstErr error
	for _, drug := range drugs {
		if err := g.resolveDrug(ctx, drug, asOf); err != nil {
			log.Printf("resolver: drug %d: %v", drug.DrugID, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (g *Generator) resolveDrug(ctx context.Context, drug *models.Drug, asOf time.Time) error {
	swt, err := g.schedules.GetWithTimesByDrugID(ctx, drug.DrugID)
	if err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}
	if swt == nil || swt.Schedule.PRN {
		return nil
	}
	sched := swt.Schedule

	loc := sched.Location()
	localNow := asOf.In(loc)
	y, m, d := localNow.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, loc)
	endOfDay := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	// Inclusive activity window: skip before start_date's day and after
	// end_date's day, judged against today's bounds in the schedule zone.
	if sched.StartDate != nil && !sched.StartDate.Before(endOfDay) {
		return nil
	}
	if sched.EndDate != nil && sched.EndDate.Before(startOfDay) {
		return nil
	}

	due, err := appliesOn(&sched, startOfDay)
	if err != nil {
		return err
	}
	if !due {
		return nil
	}

	for _, dt := range swt.Times {
		planned := time.Date(y, m, d, dt.MinutesLocal/60, dt.MinutesLocal%60, 0, 0, loc)
		// A wall-clock time that does not exist on a DST transition day
		// normalizes to a neighboring instant; keep it only if it still
		// falls inside today.
		if planned.Before(startOfDay) || !planned.Before(endOfDay) {
			continue
		}

		existing, err := g.logs.FindByDrugAndPlannedTime(ctx, drug.DrugID, planned)
		if err != nil {
			return fmt.Errorf("check existing log: %w", err)
		}
		if existing != nil {
			continue
		}

		scheduleID := sched.ScheduleID
		plannedAt := planned
		entry := &models.DoseLog{
			DrugID:      drug.DrugID,
			ScheduleID:  &scheduleID,
			PlannedTime: &plannedAt,
			Status:      models.StatusPlanned,
			Quantity:    &dt.DoseCount,
			Unit:        unitFor(&sched, drug),
		}
		if err := g.logs.Insert(ctx, entry); err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				// A concurrent run inserted it first.
				continue
			}
			return fmt.Errorf("insert log: %w", err)
		}
	}
	return nil
}

// appliesOn decides whether a schedule's cadence lands on the day starting
// at dayStart (a midnight in the schedule's timezone).
func appliesOn(s *models.Schedule, dayStart time.Time) (bool, error) {
	// DAILY and every-1-day are equivalent every-day signals.
	if s.FrequencyType == models.FrequencyDaily || (s.EveryNDays != nil && *s.EveryNDays == 1) {
		return true, nil
	}

	switch s.FrequencyType {
	case models.FrequencyWeekly:
		return rrule.WeekdaySet(s.ByWeekday)[dayStart.Weekday()], nil
	case models.FrequencyEveryNDays:
		if s.EveryNDays == nil {
			return false, nil
		}
		anchor := s.CreatedAt
		if s.StartDate != nil {
			anchor = *s.StartDate
		}
		return rrule.NDayOccursOn(anchor, *s.EveryNDays, dayStart)
	default:
		// EVERY_N_HOURS is stored but not expanded into daily
		// occurrences; PRN never reaches this point.
		return false, nil
	}
}

func unitFor(s *models.Schedule, drug *models.Drug) *string {
	if s.DoseUnit != nil {
		return s.DoseUnit
	}
	return drug.Unit
}
