package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/daybook/internal/lock"
	"github.com/julianstephens/daybook/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	categoryStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginTop(1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	checkedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	missedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Strikethrough(true)

	stateStyles = map[lock.State]lipgloss.Style{
		lock.Editable: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		lock.Unlocked: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		lock.Locked:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Bold(true),
		lock.Blocked:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)

// StateBadge renders a lock state for terminal output.
func StateBadge(state lock.State) string {
	style, ok := stateStyles[state]
	if !ok {
		return string(state)
	}
	return style.Render(string(state))
}

func statusMark(status models.TaskStatus) string {
	switch status {
	case models.TaskChecked:
		return checkedStyle.Render("[x]")
	case models.TaskMissed:
		return missedStyle.Render("[-]")
	default:
		return "[ ]"
	}
}

// FormatHabitValue renders a habit's progress, with its unit for number habits.
func FormatHabitValue(h models.Habit) string {
	switch v := h.Value.(type) {
	case bool:
		if v {
			return "done"
		}
		return "not done"
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if h.Unit != "" {
			s += " " + h.Unit
		}
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

// RenderDay writes a day record grouped by category. A nil record is shown
// as an empty day.
func RenderDay(w io.Writer, dateKey string, rec *models.DayRecord, state lock.State) {
	fmt.Fprintf(w, "%s  %s\n", titleStyle.Render(dateKey), StateBadge(state))

	if rec == nil {
		fmt.Fprintln(w, mutedStyle.Render("No record for this day."))
		return
	}

	if rec.CarriedOverFrom != "" {
		fmt.Fprintln(w, mutedStyle.Render("Carried over from "+rec.CarriedOverFrom))
	} else if rec.Source == models.SourceTemplate {
		fmt.Fprintln(w, mutedStyle.Render("Created from template"))
	}

	if len(rec.Tasks) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks. Add one with 'daybook task add'."))
	}
	for _, cat := range models.Categories {
		var lines []string
		for _, t := range rec.Tasks {
			if t.Category != cat {
				continue
			}
			line := fmt.Sprintf("  %s %s", statusMark(t.Status), t.Name)
			if t.Time != "" {
				line += " " + mutedStyle.Render("@"+t.Time)
			}
			line += " " + mutedStyle.Render("("+shortID(t.ID)+")")
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintln(w, categoryStyle.Render(string(cat)))
		fmt.Fprintln(w, strings.Join(lines, "\n"))
	}

	if len(rec.Habits) > 0 {
		fmt.Fprintln(w, categoryStyle.Render("HABITS"))
		for _, h := range rec.Habits {
			fmt.Fprintf(w, "  %s: %s %s\n", h.Label, FormatHabitValue(h), mutedStyle.Render("("+shortID(h.ID)+")"))
		}
	}

	if rec.Submitted {
		fmt.Fprintln(w, mutedStyle.Render("\nSubmitted"))
	}
	for _, ev := range rec.UnlockHistory {
		fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("Unlocked %s by %s: %s",
			ev.Timestamp.Local().Format("2006-01-02 15:04"), ev.ActorID, ev.Reason)))
	}
}

// shortID trims a UUID to its first block for display. Commands accept
// either the full id or this prefix.
func shortID(id string) string {
	if prefix, _, ok := strings.Cut(id, "-"); ok && len(prefix) >= 8 {
		return prefix
	}
	return id
}

// ResolveTaskID expands a unique id prefix to the full task id.
func ResolveTaskID(rec *models.DayRecord, ref string) (string, error) {
	ids := make([]string, len(rec.Tasks))
	for i, t := range rec.Tasks {
		ids[i] = t.ID
	}
	return resolveID(ids, ref, "task")
}

// ResolveHabitID expands a unique id prefix to the full habit id.
func ResolveHabitID(rec *models.DayRecord, ref string) (string, error) {
	ids := make([]string, len(rec.Habits))
	for i, h := range rec.Habits {
		ids[i] = h.ID
	}
	return resolveID(ids, ref, "habit")
}

func resolveID(ids []string, ref, kind string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%s id cannot be empty", kind)
	}
	var match string
	for _, id := range ids {
		if id == ref {
			return id, nil
		}
		if strings.HasPrefix(id, ref) {
			if match != "" {
				return "", fmt.Errorf("%s id %q is ambiguous", kind, ref)
			}
			match = id
		}
	}
	if match == "" {
		// Unknown ids fall through to the service, which reports not found.
		return ref, nil
	}
	return match, nil
}
