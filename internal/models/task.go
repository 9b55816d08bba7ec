package models

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	TaskUnchecked TaskStatus = "unchecked"
	TaskChecked   TaskStatus = "checked"
	TaskMissed    TaskStatus = "missed"
)

// Next advances the status through the unchecked -> checked -> missed cycle.
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case TaskUnchecked:
		return TaskChecked
	case TaskChecked:
		return TaskMissed
	default:
		return TaskUnchecked
	}
}

func (s TaskStatus) Valid() bool {
	return s == TaskUnchecked || s == TaskChecked || s == TaskMissed
}

// Category is the day-part bucket a task belongs to.
type Category string

const (
	CategoryEarlyMorning Category = "EARLY MORNING"
	CategoryBeforeNoon   Category = "BEFORE NOON"
	CategoryAfterNoon    Category = "AFTER NOON"
	CategoryEveNight     Category = "EVE-NIGHT"
)

// Categories lists the buckets in display order.
var Categories = []Category{
	CategoryEarlyMorning,
	CategoryBeforeNoon,
	CategoryAfterNoon,
	CategoryEveNight,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Task struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Time     string     `json:"time,omitempty"`     // HH:MM format
	Category Category   `json:"category,omitempty"` // inferred from Time when absent
	Status   TaskStatus `json:"status,omitempty"`   // never set on template tasks
}

func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("task id cannot be empty")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("task name cannot be empty")
	}
	if t.Time != "" {
		if _, err := time.Parse("15:04", t.Time); err != nil {
			return fmt.Errorf("invalid time format (expected HH:MM): %w", err)
		}
	}
	if t.Category != "" && !t.Category.Valid() {
		return fmt.Errorf("unknown category %q", t.Category)
	}
	return nil
}

// Fresh returns a copy of the task with completion state cleared.
func (t Task) Fresh() Task {
	t.Status = TaskUnchecked
	return t
}
