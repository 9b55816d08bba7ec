// Package rollover builds the first record of a day that has none yet.
package rollover

import (
	"context"
	"fmt"

	"github.com/julianstephens/daybook/internal/logger"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/utils"
)

// Store is the slice of the durable store the engine reads and writes.
type Store interface {
	GetTemplate(ctx context.Context, userID string) (*models.Template, error)
	QueryMostRecent(ctx context.Context, userID, beforeDateKey string, limit int) ([]models.DayRecord, error)
	UpsertRecord(ctx context.Context, record models.DayRecord) error
}

type Engine struct {
	store Store
	clock utils.Clock
}

func New(store Store, clock utils.Clock) *Engine {
	if clock == nil {
		clock = utils.SystemClock
	}
	return &Engine{store: store, clock: clock}
}

// Rollover constructs, persists and returns the initial record for dateKey.
// It holds no lock: concurrent calls for the same key produce the same shape
// and the keyed upsert makes them converge. Store failures are returned as is.
func (e *Engine) Rollover(ctx context.Context, userID, dateKey string) (models.DayRecord, error) {
	tpl, err := e.store.GetTemplate(ctx, userID)
	if err != nil {
		return models.DayRecord{}, fmt.Errorf("rollover %s: fetch template: %w", dateKey, err)
	}

	priors, err := e.store.QueryMostRecent(ctx, userID, dateKey, 1)
	if err != nil {
		return models.DayRecord{}, fmt.Errorf("rollover %s: fetch prior day: %w", dateKey, err)
	}
	var prior *models.DayRecord
	if len(priors) > 0 {
		prior = &priors[0]
	}

	record := Build(userID, dateKey, tpl, prior)
	record.LastModified = e.clock().UnixMilli()

	if err := e.store.UpsertRecord(ctx, record); err != nil {
		return models.DayRecord{}, fmt.Errorf("rollover %s: persist: %w", dateKey, err)
	}

	logger.Debug("Rolled over day",
		"user", userID,
		"date", dateKey,
		"source", record.Source,
		"carried_over_from", record.CarriedOverFrom,
		"tasks", len(record.Tasks),
		"habits", len(record.Habits),
	)
	return record, nil
}

// Build derives a new day's content from the template or the most recent
// prior record. Completion state never survives: tasks come back unchecked
// and habit values are reset to their type's default.
func Build(userID, dateKey string, tpl *models.Template, prior *models.DayRecord) models.DayRecord {
	record := models.NewDayRecord(userID, dateKey)

	// A prior record for the same day is never a source
	if prior != nil && prior.DateKey >= dateKey {
		prior = nil
	}

	if tpl != nil && len(tpl.Tasks) > 0 {
		record.Tasks = freshTasks(tpl.Tasks)
		record.Source = models.SourceTemplate
		if prior != nil {
			record.Habits = freshHabits(prior.Habits)
		}
		return record
	}

	if prior == nil {
		// Nothing to carry: an empty day is a valid result, not a failure
		return record
	}

	record.Tasks = freshTasks(prior.Tasks)
	record.Habits = freshHabits(prior.Habits)
	record.Source = models.SourceCarriedOver
	record.CarriedOverFrom = prior.DateKey
	return record
}

func freshTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Fresh())
	}
	utils.EnsureCategories(out)
	return out
}

func freshHabits(habits []models.Habit) []models.Habit {
	out := make([]models.Habit, 0, len(habits))
	for _, h := range habits {
		out = append(out, h.Reset())
	}
	return out
}
