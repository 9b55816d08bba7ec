package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type HabitType string

const (
	HabitToggle HabitType = "toggle"
	HabitNumber HabitType = "number"
)

// Habit is a tracked daily practice. Value holds a bool for toggle habits
// and a float64 for number habits.
type Habit struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Type  HabitType `json:"type"`
	Value any       `json:"value"`
	Unit  string    `json:"unit,omitempty"` // only meaningful for number habits
}

func (h *Habit) Validate() error {
	if strings.TrimSpace(h.ID) == "" {
		return fmt.Errorf("habit id cannot be empty")
	}
	if strings.TrimSpace(h.Label) == "" {
		return fmt.Errorf("habit label cannot be empty")
	}
	if h.Type != HabitToggle && h.Type != HabitNumber {
		return fmt.Errorf("unknown habit type %q (expected toggle or number)", h.Type)
	}
	return nil
}

// DefaultValue returns the zero progress value for the habit's type.
func (h Habit) DefaultValue() any {
	if h.Type == HabitNumber {
		return float64(0)
	}
	return false
}

// Reset returns a copy of the habit with its daily progress cleared.
func (h Habit) Reset() Habit {
	h = h.Normalize()
	h.Value = h.DefaultValue()
	return h
}

// Normalize coerces Type and Value so that they agree. Mismatched values
// are converted, never rejected.
func (h Habit) Normalize() Habit {
	if h.Type != HabitToggle && h.Type != HabitNumber {
		switch h.Value.(type) {
		case float64, float32, int, int64, json.Number:
			h.Type = HabitNumber
		default:
			h.Type = HabitToggle
		}
	}

	switch h.Type {
	case HabitNumber:
		h.Value = coerceNumber(h.Value)
	default:
		h.Value = coerceBool(h.Value)
		h.Unit = ""
	}
	return h
}

// NeedsNormalize reports whether Normalize would change the habit.
func (h Habit) NeedsNormalize() bool {
	n := h.Normalize()
	if n.Type != h.Type || n.Unit != h.Unit {
		return true
	}
	switch h.Value.(type) {
	case bool:
		return n.Type != HabitToggle
	case float64:
		return n.Type != HabitNumber
	default:
		return true
	}
}

// ParseValue parses user input into a value matching the habit's type.
func (h Habit) ParseValue(raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch h.Type {
	case HabitNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("habit %q expects a number: %w", h.Label, err)
		}
		return n, nil
	default:
		switch strings.ToLower(raw) {
		case "true", "yes", "y", "1", "done", "on":
			return true, nil
		case "false", "no", "n", "0", "off":
			return false, nil
		}
		return nil, fmt.Errorf("habit %q expects true or false, got %q", h.Label, raw)
	}
}

func coerceNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func coerceBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case float32:
		return b != 0
	case int:
		return b != 0
	case int64:
		return b != 0
	case json.Number:
		f, _ := b.Float64()
		return f != 0
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	default:
		return false
	}
}
