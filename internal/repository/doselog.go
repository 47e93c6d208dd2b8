package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"medtrack/internal/database"
	"medtrack/internal/models"
	"medtrack/internal/storage"
)

type DoseLogRepository struct {
	db *database.DB
}

func NewDoseLogRepository(db *database.DB) *DoseLogRepository {
	return &DoseLogRepository{db: db}
}

const doseLogColumns = `log_id, drug_id, dose_schedule_id, planned_time, taken_time, status, quantity, unit, note, created_at, updated_at`

// Insert fails with storage.ErrDuplicate when a log already exists for the
// same (drug, planned time); a concurrent resolver run losing that race
// treats it as a no-op.
func (r *DoseLogRepository) Insert(ctx context.Context, log *models.DoseLog) error {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO dose_log (drug_id, dose_schedule_id, planned_time, taken_time, status, quantity, unit, note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING log_id, created_at, updated_at`,
		log.DrugID, log.ScheduleID, log.PlannedTime, log.TakenTime, log.Status,
		log.Quantity, log.Unit, log.Note,
	).Scan(&log.LogID, &log.CreatedAt, &log.UpdatedAt)
	if isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (r *DoseLogRepository) GetByID(ctx context.Context, logID int64) (*models.DoseLog, error) {
	log := &models.DoseLog{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+doseLogColumns+` FROM dose_log WHERE log_id = $1`,
		logID,
	).Scan(&log.LogID, &log.DrugID, &log.ScheduleID, &log.PlannedTime, &log.TakenTime,
		&log.Status, &log.Quantity, &log.Unit, &log.Note, &log.CreatedAt, &log.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (r *DoseLogRepository) FindByDrugAndPlannedTime(ctx context.Context, drugID int64, planned time.Time) (*models.DoseLog, error) {
	log := &models.DoseLog{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT `+doseLogColumns+` FROM dose_log WHERE drug_id = $1 AND planned_time = $2`,
		drugID, planned,
	).Scan(&log.LogID, &log.DrugID, &log.ScheduleID, &log.PlannedTime, &log.TakenTime,
		&log.Status, &log.Quantity, &log.Unit, &log.Note, &log.CreatedAt, &log.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return log, nil
}

func (r *DoseLogRepository) ListForUserBetween(ctx context.Context, uid string, start, end time.Time) ([]*models.LogWithDrug, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT l.log_id, l.drug_id, l.dose_schedule_id, l.planned_time, l.taken_time,
		 l.status, l.quantity, l.unit, l.note, l.created_at, l.updated_at,
		 d.drug_id, d.uid, d.name, d.brand_name, d.drugbank_id, d.strength, d.unit,
		 d.form, d.notes, d.client_uuid, d.created_at, d.updated_at
		 FROM dose_log l
		 JOIN drug d ON d.drug_id = l.drug_id
		 WHERE d.uid = $1
		 AND ((l.planned_time >= $2 AND l.planned_time < $3)
		      OR (l.taken_time >= $2 AND l.taken_time < $3))
		 ORDER BY l.planned_time ASC NULLS LAST, l.log_id ASC`,
		uid, start, end,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.LogWithDrug
	for rows.Next() {
		item := &models.LogWithDrug{}
		if err := rows.Scan(
			&item.Log.LogID, &item.Log.DrugID, &item.Log.ScheduleID, &item.Log.PlannedTime,
			&item.Log.TakenTime, &item.Log.Status, &item.Log.Quantity, &item.Log.Unit,
			&item.Log.Note, &item.Log.CreatedAt, &item.Log.UpdatedAt,
			&item.Drug.DrugID, &item.Drug.UID, &item.Drug.Name, &item.Drug.BrandName,
			&item.Drug.DrugbankID, &item.Drug.Strength, &item.Drug.Unit, &item.Drug.Form,
			&item.Drug.Notes, &item.Drug.ClientUUID, &item.Drug.CreatedAt, &item.Drug.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *DoseLogRepository) MarkTaken(ctx context.Context, logID int64, takenAt time.Time, quantity *float64, unit *string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE dose_log
		 SET status = $1, taken_time = $2, quantity = $3, unit = $4, updated_at = NOW()
		 WHERE log_id = $5`,
		models.StatusTaken, takenAt, quantity, unit, logID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SetStatus overwrites the status and clears taken_time/quantity/unit;
// used to skip a planned dose or reset it to PLANNED.
func (r *DoseLogRepository) SetStatus(ctx context.Context, logID int64, status models.DoseStatus) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE dose_log
		 SET status = $1, taken_time = NULL, quantity = NULL, unit = NULL, updated_at = NOW()
		 WHERE log_id = $2`,
		status, logID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *DoseLogRepository) DeleteByID(ctx context.Context, logID int64) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM dose_log WHERE log_id = $1`, logID)
	return err
}
