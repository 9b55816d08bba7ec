package legacy

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rules identifies the obsolete seed data shipped by early versions.
// They can be overridden from a YAML file.
type Rules struct {
	TaskIDPatterns []string `yaml:"task_id_patterns"`
	HabitIDs       []string `yaml:"habit_ids"`
}

// DefaultRules matches the built-in seed: tasks task_000..task_099 and the
// four starter habits.
func DefaultRules() Rules {
	return Rules{
		TaskIDPatterns: []string{`^task_0\d{2}$`},
		HabitIDs:       []string{"habit_01", "habit_02", "habit_03", "habit_04"},
	}
}

// LoadRules reads rules from a YAML file. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read legacy rules: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse legacy rules %s: %w", path, err)
	}
	if _, err := rules.compile(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

type matcher struct {
	taskPatterns []*regexp.Regexp
	habitIDs     map[string]struct{}
}

func (r Rules) compile() (*matcher, error) {
	m := &matcher{habitIDs: make(map[string]struct{}, len(r.HabitIDs))}
	for _, p := range r.TaskIDPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid legacy task pattern %q: %w", p, err)
		}
		m.taskPatterns = append(m.taskPatterns, re)
	}
	for _, id := range r.HabitIDs {
		m.habitIDs[id] = struct{}{}
	}
	return m, nil
}

func (m *matcher) isLegacyTask(id string) bool {
	for _, re := range m.taskPatterns {
		if re.MatchString(id) {
			return true
		}
	}
	return false
}

func (m *matcher) isLegacyHabit(id string) bool {
	_, ok := m.habitIDs[id]
	return ok
}
