package debate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aristath/roundtable/internal/extract"
	"github.com/aristath/roundtable/internal/plan"
	"github.com/aristath/roundtable/internal/provider"
)

var (
	// ErrNoJSON is returned when the synthesis output holds no JSON object.
	ErrNoJSON = errors.New("no JSON structure found in tactician output")

	// ErrSchema is returned when the JSON does not match the task-list schema.
	ErrSchema = errors.New("tactician output does not match task schema")
)

type synthesis struct {
	Suggestions []string     `json:"suggestions"`
	Tasks       *[]plan.Task `json:"tasks"`
}

// ParsePlan extracts the suggestions and task list from raw synthesis output.
// Every task's provider is remapped onto available.
func ParsePlan(raw string, available []string) (tasks []plan.Task, suggestions []string, err error) {
	obj, err := extract.FirstObject(raw)
	if err != nil {
		return nil, nil, ErrNoJSON
	}

	var s synthesis
	if err := json.Unmarshal([]byte(obj), &s); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if s.Tasks == nil {
		return nil, nil, fmt.Errorf("%w: missing \"tasks\"", ErrSchema)
	}

	tasks = make([]plan.Task, 0, len(*s.Tasks))
	for i, t := range *s.Tasks {
		if strings.TrimSpace(t.Name) == "" || strings.TrimSpace(t.Instructions) == "" {
			return nil, nil, fmt.Errorf("%w: task %d needs a name and instructions", ErrSchema, i+1)
		}
		t.Provider = provider.Remap(t.Provider, available)
		tasks = append(tasks, t)
	}
	return tasks, s.Suggestions, nil
}
