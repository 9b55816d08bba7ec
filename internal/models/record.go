package models

import (
	"fmt"
	"strings"
	"time"
)

// RecordSource tags where a day record's initial content came from.
type RecordSource string

const (
	SourceOrganic     RecordSource = ""
	SourceTemplate    RecordSource = "template"
	SourceCarriedOver RecordSource = "carried-over"
)

// UnlockEvent is one entry in a record's append-only unlock audit trail.
type UnlockEvent struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
}

// DayRecord is the task/habit/lock aggregate for one (user, date key) pair.
type DayRecord struct {
	UserID          string        `json:"user_id"`
	DateKey         string        `json:"date_key"` // YYYY-MM-DD format
	Tasks           []Task        `json:"tasks"`
	Habits          []Habit       `json:"habits"`
	Submitted       bool          `json:"submitted"`
	Locked          bool          `json:"locked"`
	UnlockHistory   []UnlockEvent `json:"unlock_history"`
	Source          RecordSource  `json:"source,omitempty"`
	CarriedOverFrom string        `json:"carried_over_from,omitempty"` // YYYY-MM-DD format
	LastModified    int64         `json:"last_modified"`               // unix millis, ordering only
}

// NewDayRecord returns an empty record with non-nil collections.
func NewDayRecord(userID, dateKey string) DayRecord {
	return DayRecord{
		UserID:        userID,
		DateKey:       dateKey,
		Tasks:         []Task{},
		Habits:        []Habit{},
		UnlockHistory: []UnlockEvent{},
	}
}

// Clone returns a deep copy so mutators never alias the caller's slices.
func (r DayRecord) Clone() DayRecord {
	out := r
	out.Tasks = append([]Task{}, r.Tasks...)
	out.Habits = append([]Habit{}, r.Habits...)
	out.UnlockHistory = append([]UnlockEvent{}, r.UnlockHistory...)
	return out
}

// FindTask returns the index of the task with the given id, or -1.
func (r *DayRecord) FindTask(id string) int {
	for i, t := range r.Tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FindHabit returns the index of the habit with the given id, or -1.
func (r *DayRecord) FindHabit(id string) int {
	for i, h := range r.Habits {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// Template is a user's completion-free canonical task list.
type Template struct {
	UserID    string    `json:"user_id"`
	Tasks     []Task    `json:"tasks"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TemplateFromTasks builds a template from a day's task list, dropping statuses.
func TemplateFromTasks(userID string, tasks []Task, now time.Time) Template {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		t.Status = ""
		out = append(out, t)
	}
	return Template{UserID: userID, Tasks: out, UpdatedAt: now}
}

// ValidateUserID rejects ids that cannot be used as a store key.
func ValidateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if strings.ContainsAny(userID, "/\\") {
		return fmt.Errorf("user id %q must not contain path separators", userID)
	}
	return nil
}
