// Package importer creates drug entries from catalog lookups and captures
// dosing schedules from free text.
package importer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"medtrack/internal/ai"
	"medtrack/internal/models"
	"medtrack/internal/openfda"
	"medtrack/internal/rrule"
	"medtrack/internal/storage"
	"medtrack/internal/timeutil"
)

type Service struct {
	drugs     storage.DrugStore
	schedules storage.ScheduleStore
	remote    *openfda.Client
	ai        *ai.Client // nil when free-text capture is not configured
}

func New(drugs storage.DrugStore, schedules storage.ScheduleStore, remote *openfda.Client, aiClient *ai.Client) *Service {
	return &Service{drugs: drugs, schedules: schedules, remote: remote, ai: aiClient}
}

// FetchOrCacheByName returns the user's existing drug matching the name or
// brand, or creates one from the best catalog suggestion. When the catalog
// has no answer (or is unreachable) a bare entry with just the name is
// created instead, so capture keeps working offline.
func (s *Service) FetchOrCacheByName(ctx context.Context, uid, name string) (*models.Drug, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("importer: empty drug name")
	}

	existing, err := s.drugs.FindExactByNameOrBrand(ctx, uid, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	drug := &models.Drug{
		UID:        uid,
		Name:       name,
		ClientUUID: uuid.NewString(),
	}
	if s.remote != nil {
		suggestions, err := s.remote.SuggestByName(ctx, name, 1)
		if err != nil {
			log.Printf("importer: catalog lookup for %q failed: %v", name, err)
		} else if len(suggestions) > 0 {
			applySuggestion(drug, suggestions[0])
		}
	}

	if err := s.drugs.Insert(ctx, drug); err != nil {
		return nil, fmt.Errorf("importer: insert drug: %w", err)
	}
	return drug, nil
}

// CaptureScheduleText extracts a schedule from a description like
// "Apixaban every Monday and Wednesday at 9am and 11pm", creates the drug
// if needed, and saves the schedule. tz is the IANA zone the times are
// anchored to.
func (s *Service) CaptureScheduleText(ctx context.Context, uid, text, tz string) (*models.Drug, int64, error) {
	if s.ai == nil {
		return nil, 0, fmt.Errorf("importer: free-text capture not configured")
	}

	draft, err := s.ai.ExtractSchedule(ctx, text, time.Now())
	if err != nil {
		return nil, 0, err
	}

	drug, err := s.FetchOrCacheByName(ctx, uid, draft.DrugName)
	if err != nil {
		return nil, 0, err
	}

	schedule, times := DraftToSchedule(draft, drug.DrugID, tz)
	scheduleID, err := s.schedules.SaveOrReplaceForDrug(ctx, schedule, times)
	if err != nil {
		return nil, 0, err
	}
	return drug, scheduleID, nil
}

// DraftToSchedule maps an extraction draft into a schedule and its time
// entries. Unparseable clock strings and unknown weekday tokens are
// dropped; duplicate minutes collapse to the first occurrence. The result
// still passes through Sanitized() at the save boundary.
func DraftToSchedule(draft *ai.ScheduleDraft, drugID int64, tz string) (models.Schedule, []models.TimeEntry) {
	freq := models.FrequencyType(strings.ToUpper(strings.TrimSpace(draft.FreqType)))
	switch freq {
	case models.FrequencyDaily, models.FrequencyWeekly, models.FrequencyEveryNDays,
		models.FrequencyEveryNHours, models.FrequencyPRN:
	default:
		freq = models.FrequencyDaily
	}
	if draft.PRN {
		freq = models.FrequencyPRN
	}

	schedule := models.Schedule{
		DrugID:        drugID,
		PRN:           freq == models.FrequencyPRN,
		FrequencyType: freq,
		Timezone:      tz,
	}

	if freq == models.FrequencyEveryNDays && draft.EveryNDays > 0 {
		n := draft.EveryNDays
		schedule.EveryNDays = &n
	}
	if freq == models.FrequencyEveryNHours && draft.IntervalHours > 0 {
		h := draft.IntervalHours
		schedule.IntervalHours = &h
	}
	if freq == models.FrequencyWeekly {
		seen := make(map[string]bool)
		for _, tok := range draft.ByWeekday {
			day, ok := rrule.NormalizeWeekday(tok)
			if !ok {
				continue
			}
			canonical := rrule.WeekdayToken(day)
			if !seen[canonical] {
				seen[canonical] = true
				schedule.ByWeekday = append(schedule.ByWeekday, canonical)
			}
		}
	}

	var times []models.TimeEntry
	seenMinutes := make(map[int]bool)
	for _, t := range draft.Times {
		minutes, ok := timeutil.ParseClockToMinutes(t.Time)
		if !ok || seenMinutes[minutes] {
			continue
		}
		seenMinutes[minutes] = true
		count := t.Count
		if count <= 0 {
			count = 1
		}
		times = append(times, models.TimeEntry{MinutesLocal: minutes, DoseCount: count})
	}
	return schedule, times
}

func applySuggestion(drug *models.Drug, s openfda.Suggestion) {
	if s.GenericName != "" {
		drug.Name = s.GenericName
	}
	if s.BrandName != "" {
		brand := s.BrandName
		drug.BrandName = &brand
	}
	drug.Strength = s.StrengthAmount
	drug.Unit = s.StrengthUnit
	drug.Form = s.Form
}
