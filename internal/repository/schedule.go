package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"medtrack/internal/database"
	"medtrack/internal/models"
	"medtrack/internal/storage"
)

type ScheduleRepository struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) GetWithTimesByDrugID(ctx context.Context, drugID int64) (*models.ScheduleWithTimes, error) {
	sched := models.Schedule{}
	var byWeekday *string
	err := r.db.Pool.QueryRow(ctx,
		`SELECT dose_schedule_id, drug_id, prn, dose_amount, dose_unit, freq_type,
		 interval_hours, every_n_days, by_weekday, start_date, end_date, timezone,
		 created_at, updated_at
		 FROM dose_schedule WHERE drug_id = $1`,
		drugID,
	).Scan(&sched.ScheduleID, &sched.DrugID, &sched.PRN, &sched.DoseAmount, &sched.DoseUnit,
		&sched.FrequencyType, &sched.IntervalHours, &sched.EveryNDays, &byWeekday,
		&sched.StartDate, &sched.EndDate, &sched.Timezone, &sched.CreatedAt, &sched.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sched.ByWeekday = csvToWeekdays(byWeekday)

	rows, err := r.db.Pool.Query(ctx,
		`SELECT dose_time_id, dose_schedule_id, minutes_local, dose_count, created_at, updated_at
		 FROM dose_time WHERE dose_schedule_id = $1 ORDER BY minutes_local`,
		sched.ScheduleID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []models.DoseTime
	for rows.Next() {
		dt := models.DoseTime{}
		if err := rows.Scan(&dt.DoseTimeID, &dt.ScheduleID, &dt.MinutesLocal, &dt.DoseCount,
			&dt.CreatedAt, &dt.UpdatedAt); err != nil {
			return nil, err
		}
		times = append(times, dt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &models.ScheduleWithTimes{Schedule: sched, Times: times}, nil
}

// SaveOrReplaceForDrug persists the schedule and its time set in one
// transaction. The schedule is sanitized first; PRN schedules never keep
// times no matter what was passed. An existing schedule for the drug keeps
// its id and has every prior time row replaced by the new set. A duplicate
// (schedule, minutes) pair rolls the whole operation back with
// storage.ErrDuplicate.
func (r *ScheduleRepository) SaveOrReplaceForDrug(ctx context.Context, schedule models.Schedule, times []models.TimeEntry) (int64, error) {
	schedule = schedule.Sanitized()
	if schedule.PRN {
		times = nil
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var scheduleID int64
	err = tx.QueryRow(ctx,
		`SELECT dose_schedule_id FROM dose_schedule WHERE drug_id = $1`,
		schedule.DrugID,
	).Scan(&scheduleID)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx,
			`INSERT INTO dose_schedule (drug_id, prn, dose_amount, dose_unit, freq_type,
			 interval_hours, every_n_days, by_weekday, start_date, end_date, timezone)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 RETURNING dose_schedule_id`,
			schedule.DrugID, schedule.PRN, schedule.DoseAmount, schedule.DoseUnit,
			schedule.FrequencyType, schedule.IntervalHours, schedule.EveryNDays,
			weekdaysToCSV(schedule.ByWeekday), schedule.StartDate, schedule.EndDate,
			schedule.Timezone,
		).Scan(&scheduleID)
		if err != nil {
			if isUniqueViolation(err) {
				return 0, storage.ErrDuplicate
			}
			return 0, fmt.Errorf("insert schedule: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("find schedule: %w", err)
	default:
		_, err = tx.Exec(ctx,
			`UPDATE dose_schedule SET prn = $1, dose_amount = $2, dose_unit = $3,
			 freq_type = $4, interval_hours = $5, every_n_days = $6, by_weekday = $7,
			 start_date = $8, end_date = $9, timezone = $10, updated_at = NOW()
			 WHERE dose_schedule_id = $11`,
			schedule.PRN, schedule.DoseAmount, schedule.DoseUnit, schedule.FrequencyType,
			schedule.IntervalHours, schedule.EveryNDays, weekdaysToCSV(schedule.ByWeekday),
			schedule.StartDate, schedule.EndDate, schedule.Timezone, scheduleID,
		)
		if err != nil {
			return 0, fmt.Errorf("update schedule: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM dose_time WHERE dose_schedule_id = $1`, scheduleID,
		); err != nil {
			return 0, fmt.Errorf("clear times: %w", err)
		}
	}

	for _, t := range times {
		if _, err := tx.Exec(ctx,
			`INSERT INTO dose_time (dose_schedule_id, minutes_local, dose_count)
			 VALUES ($1, $2, $3)`,
			scheduleID, t.MinutesLocal, t.DoseCount,
		); err != nil {
			if isUniqueViolation(err) {
				return 0, storage.ErrDuplicate
			}
			return 0, fmt.Errorf("insert time: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return scheduleID, nil
}

func (r *ScheduleRepository) Delete(ctx context.Context, scheduleID int64) error {
	// dose_log.dose_schedule_id is ON DELETE SET NULL; logs survive.
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM dose_schedule WHERE dose_schedule_id = $1`, scheduleID,
	)
	return err
}

func weekdaysToCSV(days []string) *string {
	if len(days) == 0 {
		return nil
	}
	csv := strings.Join(days, ",")
	return &csv
}

func csvToWeekdays(csv *string) []string {
	if csv == nil || strings.TrimSpace(*csv) == "" {
		return nil
	}
	parts := strings.Split(*csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
