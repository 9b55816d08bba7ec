package legacy

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/utils"
)

type recordingWriter struct {
	written []models.DayRecord
	err     error
}

func (w *recordingWriter) UpsertRecord(ctx context.Context, r models.DayRecord) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, r)
	return nil
}

func newTestMigrator(t *testing.T, w Writer) *Migrator {
	t.Helper()
	m, err := NewMigrator(DefaultRules(), w, utils.FixedClock(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)))
	if err != nil {
		t.Fatalf("NewMigrator() error: %v", err)
	}
	return m
}

func cleanRecord() models.DayRecord {
	r := models.NewDayRecord("me", "2024-03-09")
	r.Tasks = []models.Task{{ID: "a1b2", Name: "Walk", Time: "06:00", Category: models.CategoryEarlyMorning, Status: models.TaskChecked}}
	r.Habits = []models.Habit{{ID: "pages", Label: "Pages", Type: models.HabitNumber, Value: float64(3)}}
	r.Locked = true
	r.Submitted = true
	return r
}

func TestNormalize_PurgesLegacyAndForcesUnlock(t *testing.T) {
	m := newTestMigrator(t, &recordingWriter{})

	r := cleanRecord()
	r.Tasks = append(r.Tasks, models.Task{ID: "task_007", Name: "Seeded task", Status: models.TaskChecked})

	out, report := m.Normalize(r)
	if len(out.Tasks) != 1 || out.Tasks[0].ID != "a1b2" {
		t.Fatalf("tasks after purge = %+v", out.Tasks)
	}
	if out.Locked || out.Submitted {
		t.Error("legacy purge must force locked and submitted to false")
	}
	if report.PurgedTasks != 1 || !report.Dirty() || !report.Purged() {
		t.Errorf("report = %+v", report)
	}
	if len(r.Tasks) != 2 || !r.Locked {
		t.Error("Normalize() mutated its input")
	}
}

func TestNormalize_PurgesLegacyHabits(t *testing.T) {
	m := newTestMigrator(t, &recordingWriter{})

	r := cleanRecord()
	r.Habits = append(r.Habits, models.Habit{ID: "habit_02", Label: "Water", Type: models.HabitToggle, Value: true})

	out, report := m.Normalize(r)
	if len(out.Habits) != 1 || out.Habits[0].ID != "pages" {
		t.Fatalf("habits after purge = %+v", out.Habits)
	}
	if report.PurgedHabits != 1 || out.Locked || out.Submitted {
		t.Errorf("report = %+v, locked=%v submitted=%v", report, out.Locked, out.Submitted)
	}
}

func TestNormalize_PatternIsExact(t *testing.T) {
	m := newTestMigrator(t, &recordingWriter{})

	r := cleanRecord()
	r.Tasks = []models.Task{
		{ID: "task_0123", Name: "Too long", Category: models.CategoryBeforeNoon, Status: models.TaskUnchecked},
		{ID: "task_1", Name: "Too short", Category: models.CategoryBeforeNoon, Status: models.TaskUnchecked},
		{ID: "mytask_012", Name: "Prefixed", Category: models.CategoryBeforeNoon, Status: models.TaskUnchecked},
	}

	out, report := m.Normalize(r)
	if report.Dirty() || len(out.Tasks) != 3 || !out.Locked {
		t.Errorf("non-legacy ids were treated as legacy: %+v", report)
	}
}

func TestNormalize_InfersCategories(t *testing.T) {
	m := newTestMigrator(t, &recordingWriter{})

	r := cleanRecord()
	r.Tasks = []models.Task{
		{ID: "x", Name: "Early", Time: "06:00", Status: models.TaskUnchecked},
		{ID: "y", Name: "Afternoon", Time: "14:30", Status: models.TaskChecked},
	}

	out, report := m.Normalize(r)
	if out.Tasks[0].Category != models.CategoryEarlyMorning {
		t.Errorf("06:00 category = %q", out.Tasks[0].Category)
	}
	if out.Tasks[1].Category != models.CategoryAfterNoon {
		t.Errorf("14:30 category = %q", out.Tasks[1].Category)
	}
	if report.InferredCategory != 2 || !report.Dirty() {
		t.Errorf("report = %+v", report)
	}
	// Category inference alone does not reopen the day
	if !out.Locked || !out.Submitted {
		t.Error("category inference must not touch lock state")
	}
}

func TestNormalize_CoercesHabitsAndStatuses(t *testing.T) {
	m := newTestMigrator(t, &recordingWriter{})

	r := cleanRecord()
	r.Tasks[0].Status = ""
	r.Habits = []models.Habit{{ID: "walk", Label: "Walk", Type: models.HabitToggle, Value: float64(1)}}

	out, report := m.Normalize(r)
	if out.Tasks[0].Status != models.TaskUnchecked || report.RepairedStatus != 1 {
		t.Errorf("status = %q, report = %+v", out.Tasks[0].Status, report)
	}
	if out.Habits[0].Value != true || report.CoercedHabits != 1 {
		t.Errorf("habit = %+v, report = %+v", out.Habits[0], report)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	m := newTestMigrator(t, &recordingWriter{})

	r := cleanRecord()
	r.Tasks = append(r.Tasks, models.Task{ID: "task_001", Name: "Seed"}, models.Task{ID: "n", Name: "No category", Time: "19:00"})

	once, _ := m.Normalize(r)
	twice, report := m.Normalize(once)
	if report.Dirty() {
		t.Errorf("second pass reported changes: %+v", report)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second pass changed the record")
	}
}

func TestApply_WritesBackOnlyWhenDirty(t *testing.T) {
	w := &recordingWriter{}
	m := newTestMigrator(t, w)

	clean := cleanRecord()
	out, report, err := m.Apply(context.Background(), clean)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(w.written) != 0 || report.Dirty() {
		t.Errorf("clean record was written back")
	}
	if !reflect.DeepEqual(out, clean) {
		t.Error("clean record was changed")
	}

	dirty := cleanRecord()
	dirty.Tasks = append(dirty.Tasks, models.Task{ID: "task_042", Name: "Seed"})
	out, report, err = m.Apply(context.Background(), dirty)
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	if len(w.written) != 1 {
		t.Fatalf("writes = %d, want 1", len(w.written))
	}
	if report.PurgedTasks != 1 {
		t.Errorf("report = %+v", report)
	}
	if len(out.Tasks) != 1 || out.Locked || out.LastModified == 0 {
		t.Errorf("unexpected cleaned record %+v", out)
	}
}

func TestApply_PropagatesStoreFailure(t *testing.T) {
	w := &recordingWriter{err: apperrors.Unavailable("upsert", errors.New("disk full"))}
	m := newTestMigrator(t, w)

	dirty := cleanRecord()
	dirty.Tasks = append(dirty.Tasks, models.Task{ID: "task_042", Name: "Seed"})
	if _, _, err := m.Apply(context.Background(), dirty); !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules("")
	if err != nil || !reflect.DeepEqual(rules, DefaultRules()) {
		t.Fatalf("LoadRules(\"\") = %+v, %v", rules, err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.yaml")
	content := "task_id_patterns:\n  - '^seed-\\d+$'\nhabit_ids:\n  - starter_water\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	rules, err = LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error: %v", err)
	}
	if len(rules.TaskIDPatterns) != 1 || rules.TaskIDPatterns[0] != `^seed-\d+$` {
		t.Errorf("task patterns = %v", rules.TaskIDPatterns)
	}
	if len(rules.HabitIDs) != 1 || rules.HabitIDs[0] != "starter_water" {
		t.Errorf("habit ids = %v", rules.HabitIDs)
	}

	m, err := NewMigrator(rules, &recordingWriter{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := cleanRecord()
	r.Tasks = append(r.Tasks, models.Task{ID: "seed-3", Name: "Seed"})
	if out, report := m.Normalize(r); report.PurgedTasks != 1 || len(out.Tasks) != 1 {
		t.Errorf("custom rules not applied: %+v", report)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("task_id_patterns:\n  - '('\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(bad); err == nil {
		t.Error("expected error for invalid pattern")
	}
	if _, err := LoadRules(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
