// Package daybook is the read/edit surface over day records. It ties the
// lock state machine, the rollover engine and the legacy pass to a store.
package daybook

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	apperrors "github.com/julianstephens/daybook/internal/errors"
	"github.com/julianstephens/daybook/internal/legacy"
	"github.com/julianstephens/daybook/internal/lock"
	"github.com/julianstephens/daybook/internal/logger"
	"github.com/julianstephens/daybook/internal/models"
	"github.com/julianstephens/daybook/internal/rollover"
	"github.com/julianstephens/daybook/internal/utils"
)

// DefaultHistoryLimit is used when History is called with a non-positive limit.
const DefaultHistoryLimit = 7

// Store is the part of the durable store the service needs.
type Store interface {
	GetRecord(ctx context.Context, userID, dateKey string) (*models.DayRecord, error)
	UpsertRecord(ctx context.Context, record models.DayRecord) error
	QueryMostRecent(ctx context.Context, userID, beforeDateKey string, limit int) ([]models.DayRecord, error)
	GetTemplate(ctx context.Context, userID string) (*models.Template, error)
	SaveTemplate(ctx context.Context, tpl models.Template) error
}

type Config struct {
	Clock    utils.Clock
	Location *time.Location
	Policy   lock.UnlockPolicy
	Rules    legacy.Rules
}

// ConfigFromSettings builds a Config from persisted settings. rulesPath
// overrides the legacy rules file when non-empty.
func ConfigFromSettings(settings models.Settings, clock utils.Clock, rulesPath string) (Config, error) {
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return Config{}, fmt.Errorf("invalid timezone %q: %w", settings.Timezone, err)
	}

	if rulesPath == "" {
		rulesPath = settings.LegacyRulesPath
	}
	rules, err := legacy.LoadRules(rulesPath)
	if err != nil {
		return Config{}, err
	}

	policy := lock.AllowPastUnlock
	if !settings.AllowPastUnlock {
		policy = lock.ForbidPastUnlock
	}

	return Config{Clock: clock, Location: loc, Policy: policy, Rules: rules}, nil
}

type Service struct {
	store    Store
	engine   *rollover.Engine
	migrator *legacy.Migrator
	locks    *lock.Manager
	clock    utils.Clock
	flight   singleflight.Group
}

func New(store Store, cfg Config) (*Service, error) {
	clock := cfg.Clock
	if clock == nil {
		clock = utils.SystemClock
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	if cfg.Rules.TaskIDPatterns == nil && cfg.Rules.HabitIDs == nil {
		cfg.Rules = legacy.DefaultRules()
	}

	migrator, err := legacy.NewMigrator(cfg.Rules, store, clock)
	if err != nil {
		return nil, err
	}

	return &Service{
		store:    store,
		engine:   rollover.New(store, clock),
		migrator: migrator,
		locks:    lock.NewManager(lock.WithClock(clock), lock.WithLocation(loc), lock.WithPolicy(cfg.Policy)),
		clock:    clock,
	}, nil
}

// Today returns the current date key. It is recomputed on every call.
func (s *Service) Today() string {
	return s.locks.Today()
}

// EvaluateLockState validates dateKey and evaluates it against today.
func (s *Service) EvaluateLockState(dateKey string, record *models.DayRecord) (lock.State, error) {
	if _, err := utils.ParseDateKey(dateKey); err != nil {
		return "", err
	}
	return s.locks.Evaluate(dateKey, record), nil
}

// Load returns the record for dateKey and its lock state. Today's record is
// created on first access; a past day with no record yields a nil record.
func (s *Service) Load(ctx context.Context, userID, dateKey string) (*models.DayRecord, lock.State, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return nil, "", err
	}
	if _, err := utils.ParseDateKey(dateKey); err != nil {
		return nil, "", err
	}

	today := s.Today()
	switch utils.Classify(dateKey, today) {
	case utils.Future:
		return nil, lock.Blocked, fmt.Errorf("load %s: %w", dateKey, apperrors.ErrFutureAccessDenied)
	case utils.Present:
		rec, err := s.ensure(ctx, userID, dateKey)
		if err != nil {
			return nil, "", err
		}
		return &rec, lock.Evaluate(dateKey, today, &rec), nil
	}

	found, err := s.store.GetRecord(ctx, userID, dateKey)
	if err != nil {
		return nil, "", err
	}
	if found == nil {
		return nil, lock.Evaluate(dateKey, today, nil), nil
	}

	rec, _, err := s.migrator.Apply(ctx, *found)
	if err != nil {
		return nil, "", err
	}
	return &rec, lock.Evaluate(dateKey, today, &rec), nil
}

// EnsureTodayRecord returns today's record, rolling one over if none exists.
func (s *Service) EnsureTodayRecord(ctx context.Context, userID string) (models.DayRecord, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return models.DayRecord{}, err
	}
	return s.ensure(ctx, userID, s.Today())
}

// ensure runs at most one read-or-create per (user, date) at a time. The
// work is detached from ctx cancellation so an abandoned caller never
// leaves a half-written day behind.
func (s *Service) ensure(ctx context.Context, userID, dateKey string) (models.DayRecord, error) {
	key := userID + "|" + dateKey
	v, err, shared := s.flight.Do(key, func() (any, error) {
		wctx := context.WithoutCancel(ctx)

		found, err := s.store.GetRecord(wctx, userID, dateKey)
		if err != nil {
			return nil, err
		}

		var rec models.DayRecord
		if found != nil {
			rec = *found
		} else {
			rec, err = s.engine.Rollover(wctx, userID, dateKey)
			if err != nil {
				return nil, err
			}
		}

		rec, _, err = s.migrator.Apply(wctx, rec)
		if err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return models.DayRecord{}, err
	}
	if shared {
		logger.Debug("Joined in-flight day load", "user", userID, "date", dateKey)
	}
	// Callers sharing a flight must not alias each other's slices
	return v.(models.DayRecord).Clone(), nil
}

// Submit marks a day complete and locks it.
func (s *Service) Submit(ctx context.Context, userID, dateKey, actorID string) (models.DayRecord, error) {
	rec, _, err := s.Load(ctx, userID, dateKey)
	if err != nil {
		return models.DayRecord{}, err
	}
	if rec == nil {
		return models.DayRecord{}, fmt.Errorf("submit %s: no record: %w", dateKey, apperrors.ErrNotFound)
	}
	if rec.Locked {
		return *rec, nil
	}

	out, err := s.locks.Submit(*rec, actorID)
	if err != nil {
		return models.DayRecord{}, err
	}
	return s.persist(ctx, out)
}

// Unlock reopens a day with an audited reason.
func (s *Service) Unlock(ctx context.Context, userID, dateKey, reason, actorID string) (models.DayRecord, error) {
	if strings.TrimSpace(reason) == "" {
		return models.DayRecord{}, apperrors.ErrEmptyUnlockReason
	}

	rec, _, err := s.Load(ctx, userID, dateKey)
	if err != nil {
		return models.DayRecord{}, err
	}
	if rec == nil {
		return models.DayRecord{}, fmt.Errorf("unlock %s: no record: %w", dateKey, apperrors.ErrNotFound)
	}

	out, err := s.locks.Unlock(*rec, reason, actorID)
	if err != nil {
		return models.DayRecord{}, err
	}
	return s.persist(ctx, out)
}

// NewTask builds an unchecked task with a fresh ID. The category follows
// the time anchor.
func NewTask(name, timeStr string) (models.Task, error) {
	task := models.Task{
		ID:     uuid.NewString(),
		Name:   strings.TrimSpace(name),
		Time:   strings.TrimSpace(timeStr),
		Status: models.TaskUnchecked,
	}
	if task.Time != "" && !utils.ValidateTimeFormat(task.Time) {
		return models.Task{}, fmt.Errorf("invalid time %q (expected HH:MM)", task.Time)
	}
	task.Category = utils.InferCategory(task.Time)
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// AddTask appends task to today's record and writes the new list through
// to the user's template. A task whose ID is already on the record is not
// appended again, so a failed call can be repeated with the same task.
func (s *Service) AddTask(ctx context.Context, userID string, task models.Task) (models.Task, error) {
	if task.Category == "" {
		task.Category = utils.InferCategory(task.Time)
	}
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}

	today := s.Today()
	rec, err := s.edit(ctx, userID, today, func(r *models.DayRecord) error {
		if r.FindTask(task.ID) < 0 {
			r.Tasks = append(r.Tasks, task)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}

	if err := s.saveTemplate(ctx, rec); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// RemoveTask deletes a task from a day. Removing from today also updates
// the template.
func (s *Service) RemoveTask(ctx context.Context, userID, dateKey, taskID string) error {
	rec, err := s.edit(ctx, userID, dateKey, func(r *models.DayRecord) error {
		idx := r.FindTask(taskID)
		if idx < 0 {
			return fmt.Errorf("task %s: %w", taskID, apperrors.ErrNotFound)
		}
		r.Tasks = append(r.Tasks[:idx], r.Tasks[idx+1:]...)
		return nil
	})
	if err != nil {
		return err
	}

	if dateKey == s.Today() {
		return s.saveTemplate(ctx, rec)
	}
	return nil
}

// CycleTask advances a task through unchecked -> checked -> missed.
func (s *Service) CycleTask(ctx context.Context, userID, dateKey, taskID string) (models.Task, error) {
	var task models.Task
	_, err := s.edit(ctx, userID, dateKey, func(r *models.DayRecord) error {
		idx := r.FindTask(taskID)
		if idx < 0 {
			return fmt.Errorf("task %s: %w", taskID, apperrors.ErrNotFound)
		}
		r.Tasks[idx].Status = r.Tasks[idx].Status.Next()
		task = r.Tasks[idx]
		return nil
	})
	return task, err
}

// NewHabit builds a habit with a fresh ID and its type's zero value.
func NewHabit(label string, habitType models.HabitType, unit string) (models.Habit, error) {
	habit := models.Habit{
		ID:    uuid.NewString(),
		Label: strings.TrimSpace(label),
		Type:  habitType,
		Unit:  strings.TrimSpace(unit),
	}
	if err := habit.Validate(); err != nil {
		return models.Habit{}, err
	}
	return habit.Reset(), nil
}

// AddHabit starts tracking a habit from today on. Adding a habit whose ID
// is already on the record leaves the record as it is.
func (s *Service) AddHabit(ctx context.Context, userID string, habit models.Habit) (models.Habit, error) {
	if err := habit.Validate(); err != nil {
		return models.Habit{}, err
	}

	_, err := s.edit(ctx, userID, s.Today(), func(r *models.DayRecord) error {
		if r.FindHabit(habit.ID) < 0 {
			r.Habits = append(r.Habits, habit)
		}
		return nil
	})
	if err != nil {
		return models.Habit{}, err
	}
	return habit, nil
}

// SetHabit records progress for a habit. raw is parsed per the habit type.
func (s *Service) SetHabit(ctx context.Context, userID, dateKey, habitID, raw string) (models.Habit, error) {
	var habit models.Habit
	_, err := s.edit(ctx, userID, dateKey, func(r *models.DayRecord) error {
		idx := r.FindHabit(habitID)
		if idx < 0 {
			return fmt.Errorf("habit %s: %w", habitID, apperrors.ErrNotFound)
		}
		value, err := r.Habits[idx].ParseValue(raw)
		if err != nil {
			return err
		}
		r.Habits[idx].Value = value
		habit = r.Habits[idx]
		return nil
	})
	return habit, err
}

// History lists up to limit records strictly before the given date key,
// newest first. An empty before includes today.
func (s *Service) History(ctx context.Context, userID, before string, limit int) ([]models.DayRecord, error) {
	if err := models.ValidateUserID(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if before == "" {
		tomorrow, err := utils.AddDays(s.Today(), 1)
		if err != nil {
			return nil, err
		}
		before = tomorrow
	} else if _, err := utils.ParseDateKey(before); err != nil {
		return nil, err
	}
	return s.store.QueryMostRecent(ctx, userID, before, limit)
}

// MigrationSummary totals a bulk legacy pass.
type MigrationSummary struct {
	Scanned   int
	Rewritten int
	Report    legacy.Report
}

// MigrateHistory runs the legacy pass over every stored record of a user.
func (s *Service) MigrateHistory(ctx context.Context, userID string) (MigrationSummary, error) {
	var summary MigrationSummary
	if err := models.ValidateUserID(userID); err != nil {
		return summary, err
	}

	tomorrow, err := utils.AddDays(s.Today(), 1)
	if err != nil {
		return summary, err
	}
	records, err := s.store.QueryMostRecent(ctx, userID, tomorrow, 0)
	if err != nil {
		return summary, err
	}

	for _, rec := range records {
		summary.Scanned++
		_, report, err := s.migrator.Apply(ctx, rec)
		if err != nil {
			return summary, err
		}
		if report.Dirty() {
			summary.Rewritten++
		}
		summary.Report.PurgedTasks += report.PurgedTasks
		summary.Report.PurgedHabits += report.PurgedHabits
		summary.Report.InferredCategory += report.InferredCategory
		summary.Report.RepairedStatus += report.RepairedStatus
		summary.Report.CoercedHabits += report.CoercedHabits
	}

	logger.Info("Legacy migration finished", "user", userID, "scanned", summary.Scanned, "rewritten", summary.Rewritten)
	return summary, nil
}

func (s *Service) edit(ctx context.Context, userID, dateKey string, fn func(*models.DayRecord) error) (models.DayRecord, error) {
	rec, state, err := s.Load(ctx, userID, dateKey)
	if err != nil {
		return models.DayRecord{}, err
	}
	if !lock.CanEdit(state) || rec == nil {
		return models.DayRecord{}, fmt.Errorf("%s is %s: %w", dateKey, state, apperrors.ErrRecordLocked)
	}

	out := rec.Clone()
	if err := fn(&out); err != nil {
		return models.DayRecord{}, err
	}
	return s.persist(ctx, out)
}

func (s *Service) persist(ctx context.Context, rec models.DayRecord) (models.DayRecord, error) {
	rec.LastModified = s.clock().UnixMilli()
	if err := s.store.UpsertRecord(ctx, rec); err != nil {
		return models.DayRecord{}, fmt.Errorf("save %s: %w", rec.DateKey, err)
	}
	return rec, nil
}

func (s *Service) saveTemplate(ctx context.Context, rec models.DayRecord) error {
	tpl := models.TemplateFromTasks(rec.UserID, rec.Tasks, s.clock())
	if err := s.store.SaveTemplate(ctx, tpl); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return nil
}
