package events

import (
	"time"
)

// Event is the base interface for everything published on the bus.
// Subject identifies what the event is about: a task name, plan ID or file.
type Event interface {
	EventType() string
	Subject() string
}

// Topic constants
const (
	TopicLog     = "log"
	TopicTask    = "task"
	TopicPlan    = "plan"
	TopicImprove = "improve"
)

// Event type constants
const (
	EventTypeLog                 = "log.line"
	EventTypeTaskStarted         = "task.started"
	EventTypeTaskCompleted       = "task.completed"
	EventTypeTaskFailed          = "task.failed"
	EventTypeSwarmFinished       = "task.swarm_finished"
	EventTypePlanReady           = "plan.ready"
	EventTypePlanResolved        = "plan.resolved"
	EventTypeFileAudited         = "improve.file"
	EventTypeImprovementFinished = "improve.finished"
)

// LogEvent is one progress line from an agent such as "Swarm", "HiveMind" or "Visionary".
type LogEvent struct {
	Agent     string
	Message   string
	Timestamp time.Time
}

func (e LogEvent) EventType() string { return EventTypeLog }
func (e LogEvent) Subject() string   { return e.Agent }

// TaskStartedEvent is published when the swarm starts a task.
type TaskStartedEvent struct {
	Name      string
	Kind      string
	Provider  string
	Timestamp time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) Subject() string   { return e.Name }

// TaskCompletedEvent is published when a task reaches a successful terminal state.
type TaskCompletedEvent struct {
	Name      string
	Kind      string
	Filename  string
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) Subject() string   { return e.Name }

// TaskFailedEvent is published when a task fails.
type TaskFailedEvent struct {
	Name      string
	Kind      string
	Err       error
	Duration  time.Duration
	Timestamp time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) Subject() string   { return e.Name }

// SwarmFinishedEvent is published once every task of a delegation has finished.
type SwarmFinishedEvent struct {
	Succeeded int
	Failed    int
	Timestamp time.Time
}

func (e SwarmFinishedEvent) EventType() string { return EventTypeSwarmFinished }
func (e SwarmFinishedEvent) Subject() string   { return "" }

// PlanReadyEvent is published when a debate leaves a plan awaiting approval.
type PlanReadyEvent struct {
	PlanID      string
	Objective   string
	Tasks       int
	Suggestions int
	Timestamp   time.Time
}

func (e PlanReadyEvent) EventType() string { return EventTypePlanReady }
func (e PlanReadyEvent) Subject() string   { return e.PlanID }

// PlanResolvedEvent is published when a pending plan is approved, rejected or sent back for feedback.
type PlanResolvedEvent struct {
	PlanID     string
	Resolution string
	Timestamp  time.Time
}

func (e PlanResolvedEvent) EventType() string { return EventTypePlanResolved }
func (e PlanResolvedEvent) Subject() string   { return e.PlanID }

// FileAuditedEvent carries one per-file outcome of an improvement cycle.
type FileAuditedEvent struct {
	SessionID string
	Filename  string
	Score     float64
	Outcome   string
	Reason    string
	Timestamp time.Time
}

func (e FileAuditedEvent) EventType() string { return EventTypeFileAudited }
func (e FileAuditedEvent) Subject() string   { return e.Filename }

// ImprovementFinishedEvent is published when an improvement cycle completes.
type ImprovementFinishedEvent struct {
	SessionID    string
	FilesScanned int
	Improved     int
	Skipped      int
	Failed       int
	Duration     time.Duration
	Timestamp    time.Time
}

func (e ImprovementFinishedEvent) EventType() string { return EventTypeImprovementFinished }
func (e ImprovementFinishedEvent) Subject() string   { return e.SessionID }
