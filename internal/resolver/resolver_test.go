package resolver

import (
	"context"
	"testing"
	"time"

	"medtrack/internal/models"
	"medtrack/internal/storage"
	"medtrack/internal/storage/memory"
)

const testUID = "user-1"

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatal(err)
	}
	return loc
}

type fixture struct {
	store *memory.Store
	gen   *Generator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()
	if _, err := s.Users().GetOrCreate(context.Background(), testUID); err != nil {
		t.Fatal(err)
	}
	return &fixture{
		store: s,
		gen:   New(s.Drugs(), s.Schedules(), s.DoseLogs()),
	}
}

func (f *fixture) addDrug(t *testing.T, name string, unit *string) *models.Drug {
	t.Helper()
	d := &models.Drug{UID: testUID, Name: name, Unit: unit, ClientUUID: "fix-" + name}
	if err := f.store.Drugs().Insert(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	return d
}

func (f *fixture) addSchedule(t *testing.T, sched models.Schedule, times []models.TimeEntry) int64 {
	t.Helper()
	id, err := f.store.Schedules().SaveOrReplaceForDrug(context.Background(), sched, times)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func (f *fixture) logsFor(t *testing.T) []*models.LogWithDrug {
	t.Helper()
	wideStart := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	wideEnd := time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
	out, err := f.store.DoseLogs().ListForUserBetween(context.Background(), testUID, wideStart, wideEnd)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func strp(s string) *string    { return &s }
func intp(n int) *int          { return &n }
func datep(t time.Time) *time.Time { return &t }

func TestGenerateDailyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	drug := f.addDrug(t, "Metformin", strp("mg"))
	f.addSchedule(t, models.Schedule{
		DrugID:        drug.DrugID,
		FrequencyType: models.FrequencyDaily,
		Timezone:      "UTC",
	}, []models.TimeEntry{
		{MinutesLocal: 540, DoseCount: 1},
		{MinutesLocal: 1260, DoseCount: 1},
	})

	asOf := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := f.gen.GenerateDueOccurrences(ctx, testUID, asOf); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}

	logs := f.logsFor(t)
	if len(logs) != 2 {
		t.Fatalf("got %d logs after 3 runs, want 2", len(logs))
	}
	for _, l := range logs {
		if l.Log.Status != models.StatusPlanned {
			t.Errorf("log %d status = %s, want PLANNED", l.Log.LogID, l.Log.Status)
		}
		if l.Log.Unit == nil || *l.Log.Unit != "mg" {
			t.Errorf("log %d unit = %v, want drug unit mg", l.Log.LogID, l.Log.Unit)
		}
	}
}

func TestGenerateWeeklyRespectsWeekday(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	drug := f.addDrug(t, "Apixaban", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        drug.DrugID,
		FrequencyType: models.FrequencyWeekly,
		ByWeekday:     []string{"MON", "WED"},
		Timezone:      "UTC",
	}, []models.TimeEntry{{MinutesLocal: 660, DoseCount: 1}})

	// Tuesday June 4 2024 is off-cadence.
	tuesday := time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC)
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, tuesday); err != nil {
		t.Fatal(err)
	}
	if logs := f.logsFor(t); len(logs) != 0 {
		t.Fatalf("generated %d logs on a Tuesday for a MON/WED schedule", len(logs))
	}

	monday := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, monday); err != nil {
		t.Fatal(err)
	}
	if logs := f.logsFor(t); len(logs) != 1 {
		t.Fatalf("got %d logs on Monday, want 1", len(logs))
	}
}

func TestGenerateIgnoresUnknownWeekdayTokens(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	drug := f.addDrug(t, "Apixaban", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        drug.DrugID,
		FrequencyType: models.FrequencyWeekly,
		ByWeekday:     []string{"FUNDAY", ""},
		Timezone:      "UTC",
	}, []models.TimeEntry{{MinutesLocal: 660, DoseCount: 1}})

	asOf := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, asOf); err != nil {
		t.Fatal(err)
	}
	if logs := f.logsFor(t); len(logs) != 0 {
		t.Fatalf("got %d logs for a schedule with only junk weekday tokens", len(logs))
	}
}

func TestGenerateHonorsDateWindow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	asOf := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	times := []models.TimeEntry{{MinutesLocal: 540, DoseCount: 1}}

	notStarted := f.addDrug(t, "FutureCourse", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        notStarted.DrugID,
		FrequencyType: models.FrequencyDaily,
		StartDate:     datep(time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC)),
		Timezone:      "UTC",
	}, times)

	ended := f.addDrug(t, "PastCourse", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        ended.DrugID,
		FrequencyType: models.FrequencyDaily,
		EndDate:       datep(time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)),
		Timezone:      "UTC",
	}, times)

	// end_date today is still active: the window is inclusive.
	endingToday := f.addDrug(t, "LastDayCourse", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        endingToday.DrugID,
		FrequencyType: models.FrequencyDaily,
		EndDate:       datep(time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)),
		Timezone:      "UTC",
	}, times)

	if err := f.gen.GenerateDueOccurrences(ctx, testUID, asOf); err != nil {
		t.Fatal(err)
	}
	logs := f.logsFor(t)
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1 (only the course ending today)", len(logs))
	}
	if logs[0].Log.DrugID != endingToday.DrugID {
		t.Errorf("log belongs to drug %d, want %d", logs[0].Log.DrugID, endingToday.DrugID)
	}
}

func TestGenerateEveryNDaysAnchored(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := mustLoc(t, "America/New_York")
	drug := f.addDrug(t, "Alendronate", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        drug.DrugID,
		FrequencyType: models.FrequencyEveryNDays,
		EveryNDays:    intp(3),
		StartDate:     datep(time.Date(2024, 6, 1, 0, 0, 0, 0, loc)),
		Timezone:      "America/New_York",
	}, []models.TimeEntry{{MinutesLocal: 480, DoseCount: 1}})

	// Anchor June 1, every 3 days: June 3 is off, June 4 is on.
	offDay := time.Date(2024, 6, 3, 12, 0, 0, 0, loc)
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, offDay); err != nil {
		t.Fatal(err)
	}
	if logs := f.logsFor(t); len(logs) != 0 {
		t.Fatalf("got %d logs on an off day", len(logs))
	}

	onDay := time.Date(2024, 6, 4, 12, 0, 0, 0, loc)
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, onDay); err != nil {
		t.Fatal(err)
	}
	logs := f.logsFor(t)
	if len(logs) != 1 {
		t.Fatalf("got %d logs on cadence day, want 1", len(logs))
	}
	want := time.Date(2024, 6, 4, 8, 0, 0, 0, loc)
	if !logs[0].Log.PlannedTime.Equal(want) {
		t.Errorf("planned = %v, want %v", logs[0].Log.PlannedTime, want)
	}
}

func TestGenerateEveryOneDayBehavesAsDaily(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	drug := f.addDrug(t, "Levothyroxine", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        drug.DrugID,
		FrequencyType: models.FrequencyEveryNDays,
		EveryNDays:    intp(1),
		Timezone:      "UTC",
	}, []models.TimeEntry{{MinutesLocal: 420, DoseCount: 1}})

	// No start date, so a pure cadence check would have no anchor; an
	// interval of one means every day regardless.
	asOf := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, asOf); err != nil {
		t.Fatal(err)
	}
	if logs := f.logsFor(t); len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
}

func TestGenerateSkipsPRNAndScheduleless(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	prnDrug := f.addDrug(t, "Ibuprofen", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        prnDrug.DrugID,
		PRN:           true,
		FrequencyType: models.FrequencyPRN,
		Timezone:      "UTC",
	}, nil)

	f.addDrug(t, "Unscheduled", nil)

	asOf := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, asOf); err != nil {
		t.Fatal(err)
	}
	if logs := f.logsFor(t); len(logs) != 0 {
		t.Fatalf("got %d logs, want 0", len(logs))
	}
}

func TestGenerateSpringForwardShiftsNonexistentTime(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := mustLoc(t, "America/New_York")
	drug := f.addDrug(t, "Warfarin", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        drug.DrugID,
		FrequencyType: models.FrequencyDaily,
		Timezone:      "America/New_York",
	}, []models.TimeEntry{{MinutesLocal: 150, DoseCount: 1}}) // 02:30, skipped on transition day

	asOf := time.Date(2024, 3, 10, 12, 0, 0, 0, loc)
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, asOf); err != nil {
		t.Fatal(err)
	}
	logs := f.logsFor(t)
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
	got := logs[0].Log.PlannedTime.In(loc)
	if got.Hour() != 3 || got.Minute() != 30 {
		t.Errorf("planned local = %02d:%02d, want 03:30 (shifted past the gap)", got.Hour(), got.Minute())
	}
}

func TestGenerateFallBackProducesOneOccurrence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := mustLoc(t, "America/New_York")
	drug := f.addDrug(t, "Warfarin", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        drug.DrugID,
		FrequencyType: models.FrequencyDaily,
		Timezone:      "America/New_York",
	}, []models.TimeEntry{{MinutesLocal: 90, DoseCount: 1}}) // 01:30 happens twice on transition day

	asOf := time.Date(2024, 11, 3, 12, 0, 0, 0, loc)
	for i := 0; i < 2; i++ {
		if err := f.gen.GenerateDueOccurrences(ctx, testUID, asOf); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	logs := f.logsFor(t)
	if len(logs) != 1 {
		t.Fatalf("got %d logs, want exactly 1 despite the repeated wall-clock hour", len(logs))
	}
	got := logs[0].Log.PlannedTime.In(loc)
	dayStart := time.Date(2024, 11, 3, 0, 0, 0, 0, loc)
	dayEnd := time.Date(2024, 11, 4, 0, 0, 0, 0, loc)
	if got.Before(dayStart) || !got.Before(dayEnd) {
		t.Errorf("planned %v falls outside the transition day", got)
	}
}

// forgetfulLogs hides existing rows from the pre-insert lookup, forcing the
// generator down the duplicate-insert path a concurrent run would hit.
type forgetfulLogs struct {
	storage.DoseLogStore
}

func (forgetfulLogs) FindByDrugAndPlannedTime(context.Context, int64, time.Time) (*models.DoseLog, error) {
	return nil, nil
}

func TestGenerateTreatsRaceDuplicateAsBenign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	drug := f.addDrug(t, "Metformin", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        drug.DrugID,
		FrequencyType: models.FrequencyDaily,
		Timezone:      "UTC",
	}, []models.TimeEntry{{MinutesLocal: 540, DoseCount: 1}})

	racy := New(f.store.Drugs(), f.store.Schedules(), forgetfulLogs{f.store.DoseLogs()})

	asOf := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	if err := racy.GenerateDueOccurrences(ctx, testUID, asOf); err != nil {
		t.Fatal(err)
	}
	// Second run cannot see the first run's row and collides on insert.
	if err := racy.GenerateDueOccurrences(ctx, testUID, asOf); err != nil {
		t.Fatalf("duplicate from a racing run must not surface as an error, got %v", err)
	}
	if logs := f.logsFor(t); len(logs) != 1 {
		t.Fatalf("got %d logs, want 1", len(logs))
	}
}

func TestGenerateApixabanWeekEnd(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loc := mustLoc(t, "America/New_York")
	drug := f.addDrug(t, "Apixaban", nil)
	f.addSchedule(t, models.Schedule{
		DrugID:        drug.DrugID,
		FrequencyType: models.FrequencyWeekly,
		ByWeekday:     []string{"MON", "WED"},
		DoseUnit:      strp("tablet"),
		Timezone:      "America/New_York",
	}, []models.TimeEntry{
		{MinutesLocal: 660, DoseCount: 1},  // 11:00
		{MinutesLocal: 1380, DoseCount: 2}, // 23:00
	})

	monday := time.Date(2024, 6, 3, 9, 0, 0, 0, loc)
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, monday); err != nil {
		t.Fatal(err)
	}

	logs := f.logsFor(t)
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}

	byHour := map[int]*models.DoseLog{}
	for i := range logs {
		byHour[logs[i].Log.PlannedTime.In(loc).Hour()] = &logs[i].Log
	}
	morning, evening := byHour[11], byHour[23]
	if morning == nil || evening == nil {
		t.Fatalf("planned hours wrong: have %v", byHour)
	}
	if *morning.Quantity != 1 || *evening.Quantity != 2 {
		t.Errorf("quantities = %v/%v, want 1/2", *morning.Quantity, *evening.Quantity)
	}
	for _, l := range []*models.DoseLog{morning, evening} {
		if l.Unit == nil || *l.Unit != "tablet" {
			t.Errorf("log %d unit = %v, want schedule dose unit", l.LogID, l.Unit)
		}
		if l.ScheduleID == nil {
			t.Errorf("log %d has no schedule reference", l.LogID)
		}
	}

	// Re-running later the same day adds nothing.
	if err := f.gen.GenerateDueOccurrences(ctx, testUID, monday.Add(6*time.Hour)); err != nil {
		t.Fatal(err)
	}
	if logs := f.logsFor(t); len(logs) != 2 {
		t.Fatalf("re-run grew the log set to %d", len(logs))
	}

	// Acting on the morning dose sticks across a read-back.
	takenAt := monday.Add(2*time.Hour + 10*time.Minute)
	qty := 1.0
	if err := f.store.DoseLogs().MarkTaken(ctx, morning.LogID, takenAt, &qty, strp("tablet")); err != nil {
		t.Fatal(err)
	}
	got, err := f.store.DoseLogs().GetByID(ctx, morning.LogID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusTaken || got.TakenTime == nil || !got.TakenTime.Equal(takenAt) {
		t.Errorf("after MarkTaken: %+v", got)
	}
}
