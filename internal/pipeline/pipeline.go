// Package pipeline runs the per-task sub-swarm: a planner drafts pseudocode,
// a coder implements it, and a reviewer audits the result. Each role is
// routed to a provider by task complexity.
package pipeline

import (
	"context"
	"fmt"

	"github.com/aristath/roundtable/internal/events"
	"github.com/aristath/roundtable/internal/extract"
	"github.com/aristath/roundtable/internal/plan"
	"github.com/aristath/roundtable/internal/provider"
	"github.com/aristath/roundtable/internal/routing"
)

// Stage names, used in errors.
const (
	StagePlan   = "plan"
	StageCode   = "code"
	StageReview = "review"
)

// StageError reports which stage and provider failed.
type StageError struct {
	Stage    string
	Provider string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage via %s: %v", e.Stage, e.Provider, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline is the model router. It is safe for concurrent use.
type Pipeline struct {
	catalog provider.Catalog
	table   routing.Table
	log     *events.Logger
}

// New creates a Pipeline.
func New(catalog provider.Catalog, table routing.Table, log *events.Logger) *Pipeline {
	return &Pipeline{catalog: catalog, table: table, log: log}
}

// Run generates the final file content for task. Stages run strictly in order
// and the first failing stage aborts the run.
func (p *Pipeline) Run(ctx context.Context, task plan.Task, system string) (string, error) {
	agent := "HiveMind / " + task.Provider

	available := p.catalog.ListHealthy(ctx)
	assign, err := p.table.Assign(task.Instructions, available)
	if err != nil {
		return "", err
	}

	p.log.Logf(agent, "Task complexity: %s. Planner: %s | Coder: %s | Reviewer: %s",
		assign.Tier, assign.Planner, assign.Coder, assign.Reviewer)

	p.log.Logf(agent, "[%s] Drafting logic plan...", assign.Planner)
	blueprint, err := p.stage(ctx, StagePlan, assign.Planner, planPrompt(task), system)
	if err != nil {
		return "", err
	}

	p.log.Logf(agent, "[%s] Writing implementation...", assign.Coder)
	code, err := p.stage(ctx, StageCode, assign.Coder, codePrompt(task, blueprint), system)
	if err != nil {
		return "", err
	}
	code = extract.StripFences(code)

	p.log.Logf(agent, "[%s] Reviewing code...", assign.Reviewer)
	final, err := p.stage(ctx, StageReview, assign.Reviewer, reviewPrompt(task, code), system)
	if err != nil {
		return "", err
	}

	p.log.Log(agent, "Pipeline complete.")
	return extract.StripFences(final), nil
}

func (p *Pipeline) stage(ctx context.Context, stage, name, prompt, system string) (string, error) {
	out, err := p.catalog.Resolve(name).Generate(ctx, prompt, system)
	if err != nil {
		return "", &StageError{Stage: stage, Provider: name, Err: err}
	}
	return out, nil
}

func planPrompt(task plan.Task) string {
	return fmt.Sprintf("Draft a detailed, step-by-step logic pseudocode for the following task. "+
		"Focus purely on architecture and algorithms.\n\n"+
		"Task Name: %s\nInstructions: %s\nTarget File: %s\n\n"+
		"Output only the pseudocode/plan.", task.Name, task.Instructions, task.Filename)
}

func codePrompt(task plan.Task, blueprint string) string {
	return fmt.Sprintf("Implement the following task based ENTIRELY on this pseudocode plan.\n\n"+
		"Task: %s\nInstructions: %s\nFile context: %s\n\nPlan:\n%s\n\n"+
		"Output STRICTLY raw code, no markdown fences or formatting. Just raw textual source code.",
		task.Name, task.Instructions, task.Filename, blueprint)
}

func reviewPrompt(task plan.Task, code string) string {
	return fmt.Sprintf("Audit this generated code for the specified task. "+
		"If the code is correct, return the EXACT original code. "+
		"If there are bugs, logic errors, or syntax issues, fix them and return the full corrected code.\n\n"+
		"Task: %s\n\nCode:\n%s\n\nOutput STRICTLY raw code, no markdown fences.", task.Name, code)
}
