// Package session holds plans awaiting human review, keyed by plan ID, and
// drives their approve, reject and feedback transitions.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aristath/roundtable/internal/debate"
	"github.com/aristath/roundtable/internal/events"
	"github.com/aristath/roundtable/internal/plan"
)

const agent = "RoundTable"

// Resolutions reported in PlanResolvedEvent.
const (
	ResolutionApproved = "approved"
	ResolutionRejected = "rejected"
	ResolutionFeedback = "feedback"
)

// ErrPlanNotFound is returned for an unknown or already resolved plan ID.
var ErrPlanNotFound = errors.New("plan not found")

// Debater produces plans.
type Debater interface {
	Run(ctx context.Context, req debate.Request) (*plan.Plan, error)
}

// Executor runs approved tasks.
type Executor interface {
	Delegate(ctx context.Context, objective string, tasks []plan.Task) []plan.Result
}

type pending struct {
	plan    *plan.Plan
	request debate.Request
}

// Board is safe for concurrent use. Each debate gets its own slot, so a
// second debate never overwrites a plan that is still awaiting review.
type Board struct {
	debater  Debater
	executor Executor
	log      *events.Logger

	mu    sync.Mutex
	plans map[string]*pending
	order []string
}

// NewBoard creates an empty Board.
func NewBoard(debater Debater, executor Executor, log *events.Logger) *Board {
	return &Board{
		debater:  debater,
		executor: executor,
		log:      log,
		plans:    make(map[string]*pending),
	}
}

// Debate runs a debate and parks the resulting plan for review.
func (b *Board) Debate(ctx context.Context, req debate.Request) (*plan.Plan, error) {
	if n := b.count(); n > 0 {
		b.log.Warn(agent, fmt.Sprintf("Starting a new debate while %d plan(s) await review.", n))
	}

	p, err := b.debater.Run(ctx, req)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.plans[p.ID] = &pending{plan: p, request: req}
	b.order = append(b.order, p.ID)
	b.mu.Unlock()

	b.log.Emit(events.PlanReadyEvent{
		PlanID:      p.ID,
		Objective:   p.Objective,
		Tasks:       len(p.Tasks),
		Suggestions: len(p.Suggestions),
		Timestamp:   time.Now(),
	})
	return p, nil
}

// Approve executes the plan. tasks, when non-nil, replaces the plan's task
// list with a user-edited one.
func (b *Board) Approve(ctx context.Context, id string, tasks []plan.Task) ([]plan.Result, error) {
	entry, err := b.take(id)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = entry.plan.Tasks
	}
	b.resolved(id, ResolutionApproved)
	b.log.Logf(agent, "Plan approved. Deploying %d task(s) to the swarm.", len(tasks))
	return b.executor.Delegate(ctx, entry.plan.Objective, tasks), nil
}

// Reject discards the plan without executing anything.
func (b *Board) Reject(id string) error {
	if _, err := b.take(id); err != nil {
		return err
	}
	b.resolved(id, ResolutionRejected)
	b.log.Log(agent, "Plan rejected. Swarm aborted.")
	return nil
}

// Feedback discards the plan and re-runs the debate for the same objective
// and seat overrides with text injected into the draft.
func (b *Board) Feedback(ctx context.Context, id, text string) (*plan.Plan, error) {
	entry, err := b.take(id)
	if err != nil {
		return nil, err
	}
	b.resolved(id, ResolutionFeedback)
	b.log.Log(agent, "Feedback received. Reconvening the debate...")

	req := entry.request
	req.Feedback = text
	return b.Debate(ctx, req)
}

// Get returns a pending plan.
func (b *Board) Get(id string) (*plan.Plan, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.plans[id]
	if !ok {
		return nil, false
	}
	return entry.plan, true
}

// Pending returns plans awaiting review, oldest first.
func (b *Board) Pending() []*plan.Plan {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*plan.Plan, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.plans[id].plan)
	}
	return out
}

func (b *Board) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.plans)
}

// take removes and returns a pending plan so each plan resolves once.
func (b *Board) take(id string) (*pending, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.plans[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlanNotFound, id)
	}
	delete(b.plans, id)
	for i, pid := range b.order {
		if pid == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return entry, nil
}

func (b *Board) resolved(id, resolution string) {
	b.log.Emit(events.PlanResolvedEvent{PlanID: id, Resolution: resolution, Timestamp: time.Now()})
}
