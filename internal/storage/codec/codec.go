// Package codec converts day records to and from the JSON columns shared
// by the SQL backends.
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/julianstephens/daybook/internal/models"
)

// Columns holds the JSON-encoded collections of a record.
type Columns struct {
	Tasks         []byte
	Habits        []byte
	UnlockHistory []byte
}

func Encode(r models.DayRecord) (Columns, error) {
	var c Columns
	var err error
	if c.Tasks, err = marshalList(r.Tasks); err != nil {
		return Columns{}, fmt.Errorf("encoding tasks: %w", err)
	}
	if c.Habits, err = marshalList(r.Habits); err != nil {
		return Columns{}, fmt.Errorf("encoding habits: %w", err)
	}
	if c.UnlockHistory, err = marshalList(r.UnlockHistory); err != nil {
		return Columns{}, fmt.Errorf("encoding unlock history: %w", err)
	}
	return c, nil
}

// Decode fills the collections of r from c. Empty columns decode to empty
// slices, never nil.
func Decode(r *models.DayRecord, c Columns) error {
	r.Tasks = []models.Task{}
	r.Habits = []models.Habit{}
	r.UnlockHistory = []models.UnlockEvent{}
	if err := unmarshalList(c.Tasks, &r.Tasks); err != nil {
		return fmt.Errorf("decoding tasks: %w", err)
	}
	if err := unmarshalList(c.Habits, &r.Habits); err != nil {
		return fmt.Errorf("decoding habits: %w", err)
	}
	if err := unmarshalList(c.UnlockHistory, &r.UnlockHistory); err != nil {
		return fmt.Errorf("decoding unlock history: %w", err)
	}
	return nil
}

// EncodeTasks is used for template rows.
func EncodeTasks(tasks []models.Task) ([]byte, error) {
	return marshalList(tasks)
}

func DecodeTasks(data []byte) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := unmarshalList(data, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func marshalList[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

func unmarshalList[T any](data []byte, out *[]T) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return err
	}
	if *out == nil {
		*out = []T{}
	}
	return nil
}
