// Package plan holds the task list produced by a debate and the results of executing it.
package plan

import "strings"

// Command sentinels asking the assigned provider to write the shell command.
const (
	CommandGenerate = "GENERATE"
	CommandAuto     = "AUTO"
)

// Kind is the shape of a task.
type Kind string

const (
	KindCommand      Kind = "command"
	KindFile         Kind = "file"
	KindInstructions Kind = "instructions-only"
)

// Task is one unit of work synthesized by the debate.
// Provider is unvalidated until the executor remaps it against the available set.
type Task struct {
	Name         string   `json:"name"`
	Provider     string   `json:"provider"`
	Instructions string   `json:"instructions"`
	Filename     string   `json:"filename,omitempty"`
	Command      string   `json:"command,omitempty"`
	Skills       []string `json:"skills,omitempty"`
}

// Kind reports what the task produces. A command wins over a filename.
func (t Task) Kind() Kind {
	switch {
	case strings.TrimSpace(t.Command) != "":
		return KindCommand
	case strings.TrimSpace(t.Filename) != "":
		return KindFile
	default:
		return KindInstructions
	}
}

// GeneratesCommand reports whether the command must be written by the provider.
func (t Task) GeneratesCommand() bool {
	c := strings.TrimSpace(t.Command)
	return c == CommandGenerate || c == CommandAuto
}

// Target describes the task output for progress lines.
func (t Task) Target() string {
	switch t.Kind() {
	case KindCommand:
		return "[EXEC: " + t.Command + "]"
	case KindFile:
		return "[FILE: " + t.Filename + "]"
	default:
		return "(instructions only)"
	}
}

// Plan is the outcome of a debate, awaiting approval.
type Plan struct {
	ID          string   `json:"id"`
	Objective   string   `json:"objective"`
	Suggestions []string `json:"suggestions"`
	Tasks       []Task   `json:"tasks"`
	Visionary   string   `json:"visionary"`
	Critic      string   `json:"critic"`
	Tactician   string   `json:"tactician"`
	// ParseError is set when the synthesis output could not be parsed.
	ParseError string `json:"parse_error,omitempty"`
}

// Result is the terminal state of one executed task.
type Result struct {
	Task     string `json:"task"`
	Provider string `json:"provider"`
	Success  bool   `json:"success"`
	Kind     Kind   `json:"type"`
	Filename string `json:"filename,omitempty"`
	Session  string `json:"session,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Summary counts terminal states of a run.
type Summary struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Summarize aggregates results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		if r.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
