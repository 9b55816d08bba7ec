package models

import "testing"

func TestTaskStatus_Next(t *testing.T) {
	tests := []struct {
		from TaskStatus
		want TaskStatus
	}{
		{TaskUnchecked, TaskChecked},
		{TaskChecked, TaskMissed},
		{TaskMissed, TaskUnchecked},
		{"", TaskUnchecked},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			if got := tt.from.Next(); got != tt.want {
				t.Errorf("%q.Next() = %q, want %q", tt.from, got, tt.want)
			}
		})
	}
}

func TestTask_Validate(t *testing.T) {
	tests := []struct {
		name    string
		task    Task
		wantErr bool
	}{
		{name: "valid", task: Task{ID: "t1", Name: "Walk", Time: "06:00"}},
		{name: "valid without time", task: Task{ID: "t1", Name: "Walk"}},
		{name: "missing id", task: Task{Name: "Walk"}, wantErr: true},
		{name: "blank name", task: Task{ID: "t1", Name: "  "}, wantErr: true},
		{name: "bad time", task: Task{ID: "t1", Name: "Walk", Time: "6am"}, wantErr: true},
		{name: "unknown category", task: Task{ID: "t1", Name: "Walk", Category: "MIDNIGHT"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.task.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Task.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDayRecord_Clone(t *testing.T) {
	original := NewDayRecord("me", "2024-03-10")
	original.Tasks = append(original.Tasks, Task{ID: "a", Name: "A", Status: TaskChecked})
	original.Habits = append(original.Habits, Habit{ID: "h", Label: "H", Type: HabitNumber, Value: float64(5)})

	clone := original.Clone()
	clone.Tasks[0].Status = TaskMissed
	clone.Habits[0].Value = float64(9)
	clone.UnlockHistory = append(clone.UnlockHistory, UnlockEvent{Reason: "fix"})

	if original.Tasks[0].Status != TaskChecked {
		t.Error("clone shares task storage with original")
	}
	if original.Habits[0].Value != float64(5) {
		t.Error("clone shares habit storage with original")
	}
	if len(original.UnlockHistory) != 0 {
		t.Error("clone shares unlock history with original")
	}
}

func TestTemplateFromTasks(t *testing.T) {
	tasks := []Task{
		{ID: "a", Name: "A", Status: TaskChecked},
		{ID: "b", Name: "B", Status: TaskMissed},
	}
	tpl := TemplateFromTasks("me", tasks, zeroTime)

	for _, task := range tpl.Tasks {
		if task.Status != "" {
			t.Errorf("template task %s kept status %q", task.ID, task.Status)
		}
	}
	if tasks[0].Status != TaskChecked {
		t.Error("TemplateFromTasks mutated its input")
	}
}

func TestValidateUserID(t *testing.T) {
	for _, bad := range []string{"", "  ", "a/b", `a\b`} {
		if err := ValidateUserID(bad); err == nil {
			t.Errorf("ValidateUserID(%q) should fail", bad)
		}
	}
	if err := ValidateUserID("alice"); err != nil {
		t.Errorf("ValidateUserID(alice) = %v", err)
	}
}
