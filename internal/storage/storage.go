// Package storage defines the store interfaces the core depends on.
// Postgres implementations live in internal/repository; an in-memory
// implementation backing the tests lives in internal/storage/memory.
// Stores are constructed explicitly and injected; there is no global
// database handle.
package storage

import (
	"context"
	"errors"
	"time"

	"medtrack/internal/models"
)

// ErrDuplicate reports a uniqueness-constraint violation: a second schedule
// for a drug, a repeated (schedule, minutes) time entry, or a second dose
// log for the same (drug, planned time).
var ErrDuplicate = errors.New("storage: duplicate row")

// ErrNotFound reports a missing row where one is required.
var ErrNotFound = errors.New("storage: not found")

type UserStore interface {
	GetOrCreate(ctx context.Context, uid string) (*models.UserProfile, error)
	ListUIDs(ctx context.Context) ([]string, error)
}

type DrugStore interface {
	Insert(ctx context.Context, drug *models.Drug) error
	GetByID(ctx context.Context, drugID int64) (*models.Drug, error)
	FindByOwner(ctx context.Context, uid string) ([]*models.Drug, error)
	FindExactByNameOrBrand(ctx context.Context, uid, name string) (*models.Drug, error)
	DeleteByID(ctx context.Context, drugID int64) error
}

type ScheduleStore interface {
	// GetWithTimesByDrugID returns nil when the drug has no schedule.
	GetWithTimesByDrugID(ctx context.Context, drugID int64) (*models.ScheduleWithTimes, error)
	// SaveOrReplaceForDrug sanitizes and persists the schedule atomically.
	// An existing schedule keeps its id and has its time set fully
	// replaced; PRN schedules persist zero times regardless of the list
	// passed. Duplicate (schedule, minutes) pairs abort the whole
	// operation with ErrDuplicate.
	SaveOrReplaceForDrug(ctx context.Context, schedule models.Schedule, times []models.TimeEntry) (int64, error)
	Delete(ctx context.Context, scheduleID int64) error
}

type DoseLogStore interface {
	// Insert fails with ErrDuplicate when a log already exists for the
	// same (drug, planned time).
	Insert(ctx context.Context, log *models.DoseLog) error
	GetByID(ctx context.Context, logID int64) (*models.DoseLog, error)
	// FindByDrugAndPlannedTime returns nil when no matching log exists.
	FindByDrugAndPlannedTime(ctx context.Context, drugID int64, planned time.Time) (*models.DoseLog, error)
	ListForUserBetween(ctx context.Context, uid string, start, end time.Time) ([]*models.LogWithDrug, error)
	MarkTaken(ctx context.Context, logID int64, takenAt time.Time, quantity *float64, unit *string) error
	SetStatus(ctx context.Context, logID int64, status models.DoseStatus) error
	DeleteByID(ctx context.Context, logID int64) error
}
