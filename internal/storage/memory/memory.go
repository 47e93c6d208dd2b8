// Package memory implements the storage interfaces over process memory.
// It enforces the same uniqueness constraints as the SQL schema and backs
// the resolver and schedule tests; it is also usable as a throwaway demo
// store when no database is configured.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"medtrack/internal/models"
	"medtrack/internal/storage"
)

// Store holds all tables behind one mutex. The typed accessors return
// views satisfying the individual storage interfaces.
type Store struct {
	mu             sync.Mutex
	users          map[string]*models.UserProfile
	drugs          map[int64]*models.Drug
	schedules      map[int64]*models.Schedule
	scheduleByDrug map[int64]int64
	times          map[int64][]models.DoseTime // keyed by schedule id
	logs           map[int64]*models.DoseLog
	nextID         int64
}

func New() *Store {
	return &Store{
		users:          make(map[string]*models.UserProfile),
		drugs:          make(map[int64]*models.Drug),
		schedules:      make(map[int64]*models.Schedule),
		scheduleByDrug: make(map[int64]int64),
		times:          make(map[int64][]models.DoseTime),
		logs:           make(map[int64]*models.DoseLog),
	}
}

func (s *Store) Users() storage.UserStore         { return (*userStore)(s) }
func (s *Store) Drugs() storage.DrugStore         { return (*drugStore)(s) }
func (s *Store) Schedules() storage.ScheduleStore { return (*scheduleStore)(s) }
func (s *Store) DoseLogs() storage.DoseLogStore   { return (*doseLogStore)(s) }

func (s *Store) nextSeq() int64 {
	s.nextID++
	return s.nextID
}

type userStore Store

func (s *userStore) GetOrCreate(_ context.Context, uid string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[uid]; ok {
		cp := *u
		return &cp, nil
	}
	u := &models.UserProfile{UID: uid, CreatedAt: time.Now()}
	s.users[uid] = u
	cp := *u
	return &cp, nil
}

func (s *userStore) ListUIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	uids := make([]string, 0, len(s.users))
	for uid := range s.users {
		uids = append(uids, uid)
	}
	sort.Strings(uids)
	return uids, nil
}

type drugStore Store

func (s *drugStore) Insert(_ context.Context, drug *models.Drug) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if drug.DrugbankID != "" {
		for _, d := range s.drugs {
			if d.UID == drug.UID && d.DrugbankID == drug.DrugbankID {
				return storage.ErrDuplicate
			}
		}
	}
	drug.DrugID = (*Store)(s).nextSeq()
	now := time.Now()
	drug.CreatedAt = now
	drug.UpdatedAt = now
	cp := *drug
	s.drugs[drug.DrugID] = &cp
	return nil
}

func (s *drugStore) GetByID(_ context.Context, drugID int64) (*models.Drug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drugs[drugID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (s *drugStore) FindByOwner(_ context.Context, uid string) ([]*models.Drug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Drug
	for _, d := range s.drugs {
		if d.UID == uid {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *drugStore) FindExactByNameOrBrand(_ context.Context, uid, name string) (*models.Drug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.drugs {
		if d.UID != uid {
			continue
		}
		if strings.EqualFold(d.Name, name) || (d.BrandName != nil && strings.EqualFold(*d.BrandName, name)) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *drugStore) DeleteByID(_ context.Context, drugID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drugs, drugID)
	// Cascade: schedule, its times, and all logs for the drug go too.
	if schedID, ok := s.scheduleByDrug[drugID]; ok {
		delete(s.schedules, schedID)
		delete(s.times, schedID)
		delete(s.scheduleByDrug, drugID)
	}
	for id, l := range s.logs {
		if l.DrugID == drugID {
			delete(s.logs, id)
		}
	}
	return nil
}

type scheduleStore Store

func (s *scheduleStore) GetWithTimesByDrugID(_ context.Context, drugID int64) (*models.ScheduleWithTimes, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedID, ok := s.scheduleByDrug[drugID]
	if !ok {
		return nil, nil
	}
	sched := *s.schedules[schedID]
	times := make([]models.DoseTime, len(s.times[schedID]))
	copy(times, s.times[schedID])
	sort.Slice(times, func(i, j int) bool { return times[i].MinutesLocal < times[j].MinutesLocal })
	return &models.ScheduleWithTimes{Schedule: sched, Times: times}, nil
}

func (s *scheduleStore) SaveOrReplaceForDrug(_ context.Context, schedule models.Schedule, times []models.TimeEntry) (int64, error) {
	schedule = schedule.Sanitized()
	if schedule.PRN {
		times = nil
	}

	seen := make(map[int]bool, len(times))
	for _, t := range times {
		if seen[t.MinutesLocal] {
			return 0, storage.ErrDuplicate
		}
		seen[t.MinutesLocal] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()

	schedID, exists := s.scheduleByDrug[schedule.DrugID]
	if exists {
		schedule.ScheduleID = schedID
		schedule.CreatedAt = s.schedules[schedID].CreatedAt
	} else {
		schedID = (*Store)(s).nextSeq()
		schedule.ScheduleID = schedID
		schedule.CreatedAt = now
		s.scheduleByDrug[schedule.DrugID] = schedID
	}
	schedule.UpdatedAt = now
	cp := schedule
	s.schedules[schedID] = &cp

	replaced := make([]models.DoseTime, 0, len(times))
	for _, t := range times {
		replaced = append(replaced, models.DoseTime{
			DoseTimeID:   (*Store)(s).nextSeq(),
			ScheduleID:   schedID,
			MinutesLocal: t.MinutesLocal,
			DoseCount:    t.DoseCount,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	s.times[schedID] = replaced
	return schedID, nil
}

func (s *scheduleStore) Delete(_ context.Context, scheduleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[scheduleID]
	if !ok {
		return nil
	}
	delete(s.scheduleByDrug, sched.DrugID)
	delete(s.schedules, scheduleID)
	delete(s.times, scheduleID)
	// Schedule deletion nulls the log reference, it never deletes logs.
	for _, l := range s.logs {
		if l.ScheduleID != nil && *l.ScheduleID == scheduleID {
			l.ScheduleID = nil
		}
	}
	return nil
}

type doseLogStore Store

func (s *doseLogStore) Insert(_ context.Context, log *models.DoseLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log.PlannedTime != nil {
		for _, l := range s.logs {
			if l.DrugID == log.DrugID && l.PlannedTime != nil && l.PlannedTime.Equal(*log.PlannedTime) {
				return storage.ErrDuplicate
			}
		}
	}
	log.LogID = (*Store)(s).nextSeq()
	now := time.Now()
	log.CreatedAt = now
	log.UpdatedAt = now
	cp := *log
	s.logs[log.LogID] = &cp
	return nil
}

func (s *doseLogStore) GetByID(_ context.Context, logID int64) (*models.DoseLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[logID]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (s *doseLogStore) FindByDrugAndPlannedTime(_ context.Context, drugID int64, planned time.Time) (*models.DoseLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.logs {
		if l.DrugID == drugID && l.PlannedTime != nil && l.PlannedTime.Equal(planned) {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *doseLogStore) ListForUserBetween(_ context.Context, uid string, start, end time.Time) ([]*models.LogWithDrug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inRange := func(t *time.Time) bool {
		return t != nil && !t.Before(start) && t.Before(end)
	}
	var out []*models.LogWithDrug
	for _, l := range s.logs {
		drug, ok := s.drugs[l.DrugID]
		if !ok || drug.UID != uid {
			continue
		}
		if inRange(l.PlannedTime) || inRange(l.TakenTime) {
			out = append(out, &models.LogWithDrug{Log: *l, Drug: *drug})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Log.LogID < out[j].Log.LogID })
	return out, nil
}

func (s *doseLogStore) MarkTaken(_ context.Context, logID int64, takenAt time.Time, quantity *float64, unit *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[logID]
	if !ok {
		return storage.ErrNotFound
	}
	l.Status = models.StatusTaken
	l.TakenTime = &takenAt
	l.Quantity = quantity
	l.Unit = unit
	l.UpdatedAt = time.Now()
	return nil
}

func (s *doseLogStore) SetStatus(_ context.Context, logID int64, status models.DoseStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[logID]
	if !ok {
		return storage.ErrNotFound
	}
	l.Status = status
	l.TakenTime = nil
	l.Quantity = nil
	l.Unit = nil
	l.UpdatedAt = time.Now()
	return nil
}

func (s *doseLogStore) DeleteByID(_ context.Context, logID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, logID)
	return nil
}
