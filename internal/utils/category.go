package utils

import "github.com/julianstephens/daybook/internal/models"

// Bucket boundaries in minutes from midnight.
const (
	earlyMorningStart = 4 * 60
	beforeNoonStart   = 9 * 60
	afterNoonStart    = 12 * 60
	eveNightStart     = 18 * 60
)

// DefaultCategory is assigned to tasks with no usable time anchor.
const DefaultCategory = models.CategoryBeforeNoon

// InferCategory maps an HH:MM time onto its day-part bucket.
func InferCategory(timeStr string) models.Category {
	if timeStr == "" {
		return DefaultCategory
	}
	minutes, err := ParseTimeToMinutes(timeStr)
	if err != nil {
		return DefaultCategory
	}

	switch {
	case minutes >= earlyMorningStart && minutes < beforeNoonStart:
		return models.CategoryEarlyMorning
	case minutes >= beforeNoonStart && minutes < afterNoonStart:
		return models.CategoryBeforeNoon
	case minutes >= afterNoonStart && minutes < eveNightStart:
		return models.CategoryAfterNoon
	default:
		return models.CategoryEveNight
	}
}

// EnsureCategories fills in missing categories and reports whether any task changed.
func EnsureCategories(tasks []models.Task) bool {
	changed := false
	for i := range tasks {
		if tasks[i].Category == "" || !tasks[i].Category.Valid() {
			tasks[i].Category = InferCategory(tasks[i].Time)
			changed = true
		}
	}
	return changed
}
