package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/models"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "daybook.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	return store, func() { store.Close() }
}

func sampleRecord(date string) models.DayRecord {
	r := models.NewDayRecord("me", date)
	r.Tasks = []models.Task{
		{ID: "t1", Name: "Walk", Time: "06:00", Category: models.CategoryEarlyMorning, Status: models.TaskChecked},
		{ID: "t2", Name: "Read", Category: models.CategoryBeforeNoon, Status: models.TaskMissed},
	}
	r.Habits = []models.Habit{
		{ID: "h1", Label: "Pages", Type: models.HabitNumber, Value: float64(12), Unit: "pages"},
		{ID: "h2", Label: "Water", Type: models.HabitToggle, Value: true},
	}
	r.Submitted = true
	r.UnlockHistory = []models.UnlockEvent{
		{Reason: "typo", Timestamp: time.Date(2024, 3, 9, 21, 0, 0, 0, time.UTC), ActorID: "me"},
	}
	r.Source = models.SourceCarriedOver
	r.CarriedOverFrom = "2024-03-08"
	r.LastModified = 1710000000000
	return r
}

func TestInitAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "daybook.db")

	if err := New(path).Load(); err == nil {
		t.Fatal("Load() on missing database should fail")
	}

	store := New(path)
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	settings, err := store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error: %v", err)
	}
	if settings != models.DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", settings)
	}
	store.Close()

	reopened := New(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	defer reopened.Close()
	if reopened.GetDB() == nil || reopened.GetConfigPath() != path {
		t.Error("store not opened")
	}

	// Init on an existing database keeps saved settings
	settings.Timezone = "Asia/Karachi"
	if err := reopened.SaveSettings(settings); err != nil {
		t.Fatal(err)
	}
	if err := reopened.Init(); err != nil {
		t.Fatalf("second Init() error: %v", err)
	}
	got, _ := reopened.GetSettings()
	if got.Timezone != "Asia/Karachi" {
		t.Errorf("Init() overwrote settings: %+v", got)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()

	want := models.Settings{
		Timezone:        "America/New_York",
		AllowPastUnlock: false,
		LegacyRulesPath: "/etc/daybook/legacy.yaml",
		DefaultUser:     "sam",
	}
	if err := store.SaveSettings(want); err != nil {
		t.Fatalf("SaveSettings() error: %v", err)
	}
	got, err := store.GetSettings()
	if err != nil {
		t.Fatalf("GetSettings() error: %v", err)
	}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	missing, err := store.GetRecord(ctx, "me", "2024-03-09")
	if err != nil || missing != nil {
		t.Fatalf("GetRecord() on empty store = %v, %v", missing, err)
	}

	want := sampleRecord("2024-03-09")
	if err := store.UpsertRecord(ctx, want); err != nil {
		t.Fatalf("UpsertRecord() error: %v", err)
	}

	got, err := store.GetRecord(ctx, "me", "2024-03-09")
	if err != nil {
		t.Fatalf("GetRecord() error: %v", err)
	}
	if got == nil {
		t.Fatal("GetRecord() returned nil after upsert")
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, want)
	}
}

func TestUpsertConverges(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	first := sampleRecord("2024-03-10")
	if err := store.UpsertRecord(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := first.Clone()
	second.Tasks = second.Tasks[:1]
	second.Locked = true
	if err := store.UpsertRecord(ctx, second); err != nil {
		t.Fatal(err)
	}

	all, err := store.QueryMostRecent(ctx, "me", "2024-03-11", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("records = %d, want 1", len(all))
	}
	if len(all[0].Tasks) != 1 || !all[0].Locked {
		t.Errorf("last write did not win: %+v", all[0])
	}
	if all[0].LastModified <= first.LastModified {
		t.Errorf("last_modified did not advance: %d", all[0].LastModified)
	}
}

func TestQueryMostRecent(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	for _, date := range []string{"2024-03-01", "2024-03-09", "2024-03-05", "2024-03-10"} {
		if err := store.UpsertRecord(ctx, sampleRecord(date)); err != nil {
			t.Fatal(err)
		}
	}
	other := sampleRecord("2024-03-08")
	other.UserID = "sam"
	if err := store.UpsertRecord(ctx, other); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		before string
		limit  int
		want   []string
	}{
		{"2024-03-10", 1, []string{"2024-03-09"}},
		{"2024-03-10", 2, []string{"2024-03-09", "2024-03-05"}},
		{"2024-03-11", 0, []string{"2024-03-10", "2024-03-09", "2024-03-05", "2024-03-01"}},
		{"2024-03-01", 5, []string{}},
	}

	for _, tt := range tests {
		got, err := store.QueryMostRecent(ctx, "me", tt.before, tt.limit)
		if err != nil {
			t.Fatalf("QueryMostRecent(%s, %d) error: %v", tt.before, tt.limit, err)
		}
		dates := []string{}
		for _, r := range got {
			dates = append(dates, r.DateKey)
		}
		if !reflect.DeepEqual(dates, tt.want) {
			t.Errorf("QueryMostRecent(%s, %d) = %v, want %v", tt.before, tt.limit, dates, tt.want)
		}
	}
}

func TestTemplateRoundTrip(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if tpl, err := store.GetTemplate(ctx, "me"); err != nil || tpl != nil {
		t.Fatalf("GetTemplate() on empty store = %v, %v", tpl, err)
	}

	now := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	want := models.TemplateFromTasks("me", sampleRecord("2024-03-10").Tasks, now)
	if err := store.SaveTemplate(ctx, want); err != nil {
		t.Fatalf("SaveTemplate() error: %v", err)
	}

	got, err := store.GetTemplate(ctx, "me")
	if err != nil || got == nil {
		t.Fatalf("GetTemplate() = %v, %v", got, err)
	}
	if !reflect.DeepEqual(got.Tasks, want.Tasks) || !got.UpdatedAt.Equal(now) {
		t.Errorf("template = %+v, want %+v", got, want)
	}

	want.Tasks = want.Tasks[:1]
	if err := store.SaveTemplate(ctx, want); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetTemplate(ctx, "me")
	if len(got.Tasks) != 1 {
		t.Errorf("template not replaced: %+v", got.Tasks)
	}
}

func TestClosedStoreIsUnavailable(t *testing.T) {
	store, _ := setupTestStore(t)
	db := store.GetDB()
	db.Close()

	_, err := store.GetRecord(context.Background(), "me", "2024-03-10")
	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	if err := store.UpsertRecord(context.Background(), sampleRecord("2024-03-10")); !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestSchemaVersion(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "daybook.db"))
	if _, _, err := store.SchemaVersion(); err == nil {
		t.Error("expected error before Init")
	}
	if err := store.Init(); err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	current, latest, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("SchemaVersion() error: %v", err)
	}
	if current != latest || current < 2 {
		t.Errorf("SchemaVersion() = %d, %d", current, latest)
	}
}
