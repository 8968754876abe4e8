package plan

import "testing"

func TestTaskKind(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want Kind
	}{
		{"command", Task{Command: "npm install"}, KindCommand},
		{"file", Task{Filename: "src/app.ts"}, KindFile},
		{"command wins over file", Task{Command: "AUTO", Filename: "x.go"}, KindCommand},
		{"blank fields", Task{Command: "  ", Filename: ""}, KindInstructions},
		{"instructions only", Task{Instructions: "think"}, KindInstructions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.task.Kind(); got != tt.want {
				t.Errorf("Kind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGeneratesCommand(t *testing.T) {
	for cmd, want := range map[string]bool{
		"AUTO":      true,
		"GENERATE":  true,
		" AUTO ":    true,
		"auto":      false,
		"git init":  false,
		"":          false,
	} {
		if got := (Task{Command: cmd}).GeneratesCommand(); got != want {
			t.Errorf("GeneratesCommand(%q) = %v, want %v", cmd, got, want)
		}
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Result{
		{Task: "a", Success: true},
		{Task: "b", Success: false},
		{Task: "c", Success: true},
	})
	if s.Succeeded != 2 || s.Failed != 1 {
		t.Errorf("Summarize = %+v, want 2 succeeded 1 failed", s)
	}
	if got := Summarize(nil); got != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v", got)
	}
}
