// Package debate turns an objective into a task list through three seated
// providers: a visionary drafts, a critic reviews, and a tactician
// synthesizes a JSON plan.
package debate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/aristath/roundtable/internal/events"
	"github.com/aristath/roundtable/internal/plan"
	"github.com/aristath/roundtable/internal/provider"
	"github.com/aristath/roundtable/internal/routing"
)

const agent = "RoundTable"

// SkillLister enumerates skill names for the synthesis prompt.
type SkillLister interface {
	List() ([]string, error)
}

// Seats names the provider for each debate seat. Empty means no preference.
type Seats struct {
	Visionary string `json:"visionary,omitempty"`
	Critic    string `json:"critic,omitempty"`
	Tactician string `json:"tactician,omitempty"`
}

// Request starts a debate.
type Request struct {
	Objective string
	Overrides Seats
	// Feedback from a rejected previous plan, injected into the draft prompt.
	Feedback string
}

// Debater runs the debate protocol.
type Debater struct {
	catalog     provider.Catalog
	preferences map[string][]string
	skills      SkillLister
	log         *events.Logger
}

// New creates a Debater. preferences maps seat names to ranked providers; skills may be nil.
func New(catalog provider.Catalog, preferences map[string][]string, skills SkillLister, log *events.Logger) *Debater {
	return &Debater{catalog: catalog, preferences: preferences, skills: skills, log: log}
}

// Run executes draft, critique and synthesis in order. A provider failure aborts
// the debate; unparseable synthesis output yields a plan with no tasks and a ParseError.
func (d *Debater) Run(ctx context.Context, req Request) (*plan.Plan, error) {
	start := time.Now()
	available := d.catalog.ListHealthy(ctx)
	if len(available) == 0 {
		return nil, provider.ErrNoProviders
	}
	skills := d.listSkills()

	seats := Seats{
		Visionary: routing.PickSeat(req.Overrides.Visionary, d.preferences[routing.SeatVisionary], available),
		Critic:    routing.PickSeat(req.Overrides.Critic, d.preferences[routing.SeatCritic], available),
		Tactician: routing.PickSeat(req.Overrides.Tactician, d.preferences[routing.SeatTactician], available),
	}
	d.log.Logf(agent, "Visionary: %s | Critic: %s | Tactician: %s", seats.Visionary, seats.Critic, seats.Tactician)
	d.log.Logf(agent, "Debate commencing with %d providers and %d skills.", len(available), len(skills))

	d.log.Logf(agent, "[1/3] Asking %s for initial architectural draft...", seats.Visionary)
	draft, err := d.ask(ctx, seats.Visionary, "draft", draftPrompt(req.Objective, req.Feedback), visionarySystem)
	if err != nil {
		return nil, err
	}
	d.log.Logf("Visionary / "+seats.Visionary, "Draft received (%d chars).", len(draft))

	d.log.Logf(agent, "[2/3] Passing draft to %s for critical review...", seats.Critic)
	critique, err := d.ask(ctx, seats.Critic, "critique", critiquePrompt(draft), criticSystem)
	if err != nil {
		return nil, err
	}
	d.log.Logf("Critic / "+seats.Critic, "Critique received (%d chars).", len(critique))

	d.log.Logf(agent, "[3/3] Asking %s to synthesize into JSON task list...", seats.Tactician)
	raw, err := d.ask(ctx, seats.Tactician, "synthesis", synthesisPrompt(draft, critique, available, skills), tacticianSystem)
	if err != nil {
		return nil, err
	}

	p := &plan.Plan{
		ID:          uuid.NewString(),
		Objective:   req.Objective,
		Suggestions: []string{},
		Tasks:       []plan.Task{},
		Visionary:   seats.Visionary,
		Critic:      seats.Critic,
		Tactician:   seats.Tactician,
	}

	tasks, suggestions, err := ParsePlan(raw, available)
	if err != nil {
		p.ParseError = err.Error()
		d.log.Warn(agent, fmt.Sprintf("Failed to parse Tactician output: %v", err))
	} else {
		p.Tasks = tasks
		if suggestions != nil {
			p.Suggestions = suggestions
		}
		d.log.Logf(agent, "Tactician broke objective into %d parallel tasks.", len(tasks))
		for i, t := range tasks {
			d.log.Logf(agent, "  %d. [%s] %s -> %s", i+1, t.Provider, t.Name, t.Target())
		}
	}

	d.log.Logf(agent, "Debate complete in %s. Waiting for human review.", time.Since(start).Round(time.Millisecond))
	return p, nil
}

func (d *Debater) ask(ctx context.Context, name, phase, prompt, system string) (string, error) {
	out, err := d.catalog.Resolve(name).Generate(ctx, prompt, system)
	if err != nil {
		return "", fmt.Errorf("%s phase via %s: %w", phase, name, err)
	}
	return out, nil
}

func (d *Debater) listSkills() []string {
	if d.skills == nil {
		return nil
	}
	names, err := d.skills.List()
	if err != nil {
		d.log.Warn(agent, fmt.Sprintf("Could not list skills: %v", err))
		return nil
	}
	return names
}
