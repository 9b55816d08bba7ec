package tasks

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/daybook/internal/cli"
	"github.com/julianstephens/daybook/internal/daybook"
	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/storage/sqlite"
	"github.com/julianstephens/daybook/internal/utils"
)

func setupTestDB(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := utils.FixedClock(time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC))
	svc, err := daybook.New(store, daybook.Config{Clock: clock, Location: time.UTC})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	out := &bytes.Buffer{}
	return &cli.Context{Store: store, Service: svc, User: "me", Out: out}, out
}

func today(t *testing.T, ctx *cli.Context) *models.DayRecord {
	t.Helper()
	rec, err := ctx.Store.GetRecord(context.Background(), "me", "2024-03-10")
	if err != nil || rec == nil {
		t.Fatalf("today's record missing: %v", err)
	}
	return rec
}

func TestTaskAddCmd(t *testing.T) {
	tests := []struct {
		name         string
		cmd          TaskAddCmd
		wantCategory models.Category
		wantErr      bool
	}{
		{"early", TaskAddCmd{Name: "Run", Time: "06:00"}, models.CategoryEarlyMorning, false},
		{"afternoon", TaskAddCmd{Name: "Walk", Time: "14:30"}, models.CategoryAfterNoon, false},
		{"no time", TaskAddCmd{Name: "Call mom"}, models.CategoryBeforeNoon, false},
		{"bad time", TaskAddCmd{Name: "Nap", Time: "25:00"}, "", true},
		{"empty name", TaskAddCmd{Name: "  "}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, out := setupTestDB(t)
			err := tt.cmd.Run(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			rec := today(t, ctx)
			if len(rec.Tasks) != 1 || rec.Tasks[0].Category != tt.wantCategory {
				t.Errorf("tasks = %+v, want one %s task", rec.Tasks, tt.wantCategory)
			}
			if !strings.Contains(out.String(), "✓ Added task") {
				t.Errorf("unexpected output: %s", out.String())
			}
		})
	}
}

func TestTaskCycleByPrefix(t *testing.T) {
	ctx, _ := setupTestDB(t)
	if err := (&TaskAddCmd{Name: "Run", Time: "06:00"}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	id := today(t, ctx).Tasks[0].ID

	want := []models.TaskStatus{models.TaskChecked, models.TaskMissed, models.TaskUnchecked}
	for _, status := range want {
		if err := (&TaskCycleCmd{ID: id[:8]}).Run(ctx); err != nil {
			t.Fatalf("cycle failed: %v", err)
		}
		if got := today(t, ctx).Tasks[0].Status; got != status {
			t.Errorf("status = %s, want %s", got, status)
		}
	}
}

func TestTaskRemoveUpdatesTemplate(t *testing.T) {
	ctx, out := setupTestDB(t)
	for _, name := range []string{"Run", "Read"} {
		if err := (&TaskAddCmd{Name: name}).Run(ctx); err != nil {
			t.Fatal(err)
		}
	}
	id := today(t, ctx).Tasks[0].ID

	if err := (&TaskRemoveCmd{ID: id}).Run(ctx); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if tasks := today(t, ctx).Tasks; len(tasks) != 1 || tasks[0].Name != "Read" {
		t.Errorf("tasks after remove = %+v", tasks)
	}

	tpl, err := ctx.Store.GetTemplate(context.Background(), "me")
	if err != nil || tpl == nil || len(tpl.Tasks) != 1 {
		t.Fatalf("template = %+v, %v", tpl, err)
	}

	out.Reset()
	if err := (&TemplateShowCmd{}).Run(ctx); err != nil {
		t.Fatalf("template show failed: %v", err)
	}
	if !strings.Contains(out.String(), "Read") || strings.Contains(out.String(), "Run") {
		t.Errorf("template output:\n%s", out.String())
	}
}

func TestTaskCmdsOnLockedDay(t *testing.T) {
	ctx, _ := setupTestDB(t)
	past := models.NewDayRecord("me", "2024-03-09")
	past.Tasks = []models.Task{{ID: "t1", Name: "Run", Category: models.CategoryEarlyMorning, Status: models.TaskUnchecked}}
	past.Locked = true
	if err := ctx.Store.UpsertRecord(context.Background(), past); err != nil {
		t.Fatal(err)
	}

	err := (&TaskCycleCmd{ID: "t1", Date: "2024-03-09"}).Run(ctx)
	if !errors.Is(err, apperrors.ErrRecordLocked) {
		t.Errorf("cycle on locked day = %v, want ErrRecordLocked", err)
	}
	err = (&TaskRemoveCmd{ID: "nope", Date: "2024-03-10"}).Run(ctx)
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("remove unknown = %v, want ErrNotFound", err)
	}
}

func TestTemplateShowEmpty(t *testing.T) {
	ctx, out := setupTestDB(t)
	if err := (&TemplateShowCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No template") {
		t.Errorf("unexpected output: %s", out.String())
	}
}
