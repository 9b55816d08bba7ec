// Package legacy normalizes day records as they are loaded: it purges the
// obsolete seed data, fills in missing task categories and coerces habit
// values. The pass is idempotent.
package legacy

import (
	"context"
	"fmt"

	"github.com/julianstephens/daybook/internal/logger"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/utils"
)

// Writer persists a cleaned record.
type Writer interface {
	UpsertRecord(ctx context.Context, record models.DayRecord) error
}

// Report summarizes what a normalization pass changed.
type Report struct {
	PurgedTasks      int
	PurgedHabits     int
	InferredCategory int
	RepairedStatus   int
	CoercedHabits    int
}

// Dirty reports whether the record needs to be written back.
func (r Report) Dirty() bool {
	return r.PurgedTasks+r.PurgedHabits+r.InferredCategory+r.RepairedStatus+r.CoercedHabits > 0
}

// Purged reports whether legacy seed data was found.
func (r Report) Purged() bool {
	return r.PurgedTasks+r.PurgedHabits > 0
}

type Migrator struct {
	match  *matcher
	writer Writer
	clock  utils.Clock
}

func NewMigrator(rules Rules, writer Writer, clock utils.Clock) (*Migrator, error) {
	m, err := rules.compile()
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = utils.SystemClock
	}
	return &Migrator{match: m, writer: writer, clock: clock}, nil
}

// Normalize returns the cleaned record and a report of what changed. It
// never touches the store.
//
// When any legacy entry is present the record is also forced open
// (locked=false, submitted=false): stale seed data must not count as a
// completed day.
func (m *Migrator) Normalize(record models.DayRecord) (models.DayRecord, Report) {
	out := record.Clone()
	var report Report

	hasLegacy := false
	for _, t := range out.Tasks {
		if m.match.isLegacyTask(t.ID) {
			hasLegacy = true
			break
		}
	}
	if !hasLegacy {
		for _, h := range out.Habits {
			if m.match.isLegacyHabit(h.ID) {
				hasLegacy = true
				break
			}
		}
	}

	if hasLegacy {
		tasks := make([]models.Task, 0, len(out.Tasks))
		for _, t := range out.Tasks {
			if m.match.isLegacyTask(t.ID) {
				report.PurgedTasks++
				continue
			}
			tasks = append(tasks, t)
		}
		habits := make([]models.Habit, 0, len(out.Habits))
		for _, h := range out.Habits {
			if m.match.isLegacyHabit(h.ID) {
				report.PurgedHabits++
				continue
			}
			habits = append(habits, h)
		}
		out.Tasks = tasks
		out.Habits = habits
		out.Locked = false
		out.Submitted = false
	}

	for i := range out.Tasks {
		if out.Tasks[i].Category == "" || !out.Tasks[i].Category.Valid() {
			out.Tasks[i].Category = utils.InferCategory(out.Tasks[i].Time)
			report.InferredCategory++
		}
		if !out.Tasks[i].Status.Valid() {
			out.Tasks[i].Status = models.TaskUnchecked
			report.RepairedStatus++
		}
	}

	for i := range out.Habits {
		if out.Habits[i].NeedsNormalize() {
			out.Habits[i] = out.Habits[i].Normalize()
			report.CoercedHabits++
		}
	}

	return out, report
}

// Apply normalizes a loaded record and writes it back when anything changed.
func (m *Migrator) Apply(ctx context.Context, record models.DayRecord) (models.DayRecord, Report, error) {
	cleaned, report := m.Normalize(record)
	if !report.Dirty() {
		return record, report, nil
	}

	if report.Purged() {
		logger.Warn("Purged legacy seed data",
			"user", record.UserID,
			"date", record.DateKey,
			"tasks", report.PurgedTasks,
			"habits", report.PurgedHabits,
		)
	}

	cleaned.LastModified = m.clock().UnixMilli()
	if err := m.writer.UpsertRecord(ctx, cleaned); err != nil {
		return models.DayRecord{}, report, fmt.Errorf("write back normalized record %s: %w", record.DateKey, err)
	}
	logger.Debug("Normalized day record", "date", record.DateKey, "categories", report.InferredCategory, "habits", report.CoercedHabits)
	return cleaned, report, nil
}
