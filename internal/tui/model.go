package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/roundtable/internal/debate"
	"github.com/aristath/roundtable/internal/events"
	"github.com/aristath/roundtable/internal/plan"
)

// Mode is the stage of the review loop the screen is in.
type Mode int

const (
	ModeDebating Mode = iota
	ModeReview
	ModeFeedback
	ModeExecuting
	ModeDone
)

// PaneID identifies which pane is focused.
type PaneID int

const (
	PanePlan PaneID = iota
	PaneActivity
)

// Controller runs the debate and resolves plans. *session.Board satisfies it.
type Controller interface {
	Debate(ctx context.Context, req debate.Request) (*plan.Plan, error)
	Approve(ctx context.Context, id string, tasks []plan.Task) ([]plan.Result, error)
	Reject(id string) error
	Feedback(ctx context.Context, id, text string) (*plan.Plan, error)
}

type planMsg struct {
	plan *plan.Plan
	err  error
}

type resultsMsg struct {
	results []plan.Result
	err     error
}

type rejectedMsg struct {
	err error
}

// Model is the root Bubble Tea model for the plan review screen.
type Model struct {
	ctx          context.Context
	ctrl         Controller
	request      debate.Request
	mode         Mode
	plan         *plan.Plan
	results      []plan.Result
	rejected     bool
	err          error
	planPane     PlanPaneModel
	activityPane ActivityPaneModel
	input        textinput.Model
	spinner      spinner.Model
	focusedPane  PaneID
	eventSub     <-chan events.Event
	width        int
	height       int
	quitting     bool
}

// New creates the review screen for one objective.
// It subscribes to all events from the event bus using SubscribeAll.
func New(ctx context.Context, eventBus *events.EventBus, ctrl Controller, req debate.Request) Model {
	input := textinput.New()
	input.Placeholder = "What should the round table change?"
	input.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StyleStatusRunning

	m := Model{
		ctx:          ctx,
		ctrl:         ctrl,
		request:      req,
		mode:         ModeDebating,
		planPane:     NewPlanPaneModel(),
		activityPane: NewActivityPaneModel(),
		input:        input,
		spinner:      sp,
		focusedPane:  PanePlan,
	}
	if eventBus != nil {
		m.eventSub = eventBus.SubscribeAll(256)
	}
	m.updateFocusStates()
	return m
}

// Init starts the debate and begins listening for events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForEvent(m.eventSub), m.spinner.Tick, m.debateCmd())
}

// waitForEvent returns a command that waits for the next event from the event bus.
func waitForEvent(sub <-chan events.Event) tea.Cmd {
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-sub
		if !ok {
			return nil
		}
		return event
	}
}

func (m Model) debateCmd() tea.Cmd {
	ctx, ctrl, req := m.ctx, m.ctrl, m.request
	return func() tea.Msg {
		p, err := ctrl.Debate(ctx, req)
		return planMsg{plan: p, err: err}
	}
}

func (m Model) approveCmd() tea.Cmd {
	ctx, ctrl, id := m.ctx, m.ctrl, m.plan.ID
	return func() tea.Msg {
		results, err := ctrl.Approve(ctx, id, nil)
		return resultsMsg{results: results, err: err}
	}
}

func (m Model) rejectCmd() tea.Cmd {
	ctrl, id := m.ctrl, m.plan.ID
	return func() tea.Msg {
		return rejectedMsg{err: ctrl.Reject(id)}
	}
}

func (m Model) feedbackCmd(text string) tea.Cmd {
	ctx, ctrl, id := m.ctx, m.ctrl, m.plan.ID
	return func() tea.Msg {
		p, err := ctrl.Feedback(ctx, id, text)
		return planMsg{plan: p, err: err}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}

		if m.mode == ModeFeedback {
			switch msg.String() {
			case KeyEnter:
				text := m.input.Value()
				if text == "" {
					return m, nil
				}
				m.input.Reset()
				m.input.Blur()
				m.mode = ModeDebating
				m.planPane.SetPlan(nil)
				return m, tea.Batch(m.feedbackCmd(text), m.spinner.Tick)
			case KeyEsc:
				m.input.Blur()
				m.mode = ModeReview
				return m, nil
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case KeyQuit:
			if m.mode == ModeReview || m.mode == ModeDone {
				m.quitting = true
				return m, tea.Quit
			}

		case KeyApprove:
			if m.mode == ModeReview {
				m.mode = ModeExecuting
				m.focusedPane = PaneActivity
				m.updateFocusStates()
				return m, tea.Batch(m.approveCmd(), m.spinner.Tick)
			}

		case KeyReject:
			if m.mode == ModeReview {
				return m, m.rejectCmd()
			}

		case KeyFeedback:
			if m.mode == ModeReview {
				m.mode = ModeFeedback
				return m, m.input.Focus()
			}

		case KeyTab, KeyShiftTab:
			m.focusedPane = (m.focusedPane + 1) % 2
			m.updateFocusStates()

		default:
			var cmd tea.Cmd
			switch m.focusedPane {
			case PanePlan:
				m.planPane, cmd = m.planPane.Update(msg)
			case PaneActivity:
				m.activityPane, cmd = m.activityPane.Update(msg)
			}
			cmds = append(cmds, cmd)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.computeLayout()

	case spinner.TickMsg:
		if m.mode == ModeDebating || m.mode == ModeExecuting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case planMsg:
		if msg.err != nil {
			m.err = msg.err
			m.mode = ModeDone
			break
		}
		m.plan = msg.plan
		m.planPane.SetPlan(msg.plan)
		m.mode = ModeReview
		m.focusedPane = PanePlan
		m.updateFocusStates()

	case resultsMsg:
		m.results = msg.results
		m.err = msg.err
		m.planPane.SetResults(msg.results)
		m.mode = ModeDone

	case rejectedMsg:
		m.err = msg.err
		m.rejected = msg.err == nil
		m.mode = ModeDone

	case tickMsg:
		var cmd tea.Cmd
		m.activityPane, cmd = m.activityPane.Update(msg)
		cmds = append(cmds, cmd)

	case events.LogEvent, events.TaskStartedEvent, events.TaskCompletedEvent, events.TaskFailedEvent:
		var cmd tea.Cmd
		m.activityPane, cmd = m.activityPane.Update(msg)
		cmds = append(cmds, cmd, waitForEvent(m.eventSub))

	case events.Event:
		// Other events are shown by the console printer, not here.
		cmds = append(cmds, waitForEvent(m.eventSub))
	}

	return m, tea.Batch(cmds...)
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.statusLine()
	footer := HelpView(m.mode)
	if m.mode == ModeFeedback {
		footer = lipgloss.JoinVertical(lipgloss.Left, m.input.View(), footer)
	}

	main := lipgloss.JoinHorizontal(lipgloss.Top, m.planPane.View(), m.activityPane.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, main, footer)
}

func (m Model) statusLine() string {
	switch m.mode {
	case ModeDebating:
		return m.spinner.View() + StyleTitle.Render("Round table in session...")
	case ModeReview, ModeFeedback:
		return StyleTitle.Render("Debate complete. Waiting for your decision.")
	case ModeExecuting:
		return m.spinner.View() + StyleTitle.Render("Swarm executing...")
	}
	if m.err != nil {
		return StyleError.Render("Error: " + m.err.Error())
	}
	if m.rejected {
		return StyleTitle.Render("Plan rejected.")
	}
	s := plan.Summarize(m.results)
	return StyleTitle.Render("Swarm complete.") + " " +
		StyleStatusComplete.Render(fmt.Sprintf("%d succeeded", s.Succeeded)) + " " +
		StyleStatusFailed.Render(fmt.Sprintf("%d failed", s.Failed))
}

// computeLayout calculates pane dimensions and updates all child models.
func (m *Model) computeLayout() {
	leftWidth := (m.width * 55) / 100
	rightWidth := m.width - leftWidth
	availableHeight := m.height - 3

	m.planPane.SetSize(leftWidth, availableHeight)
	m.activityPane.SetSize(rightWidth, availableHeight)
	m.updateFocusStates()
}

// updateFocusStates updates the focus state of all panes.
func (m *Model) updateFocusStates() {
	m.planPane.SetFocused(m.focusedPane == PanePlan)
	m.activityPane.SetFocused(m.focusedPane == PaneActivity)
}

// Mode reports the current stage of the review loop.
func (m Model) Mode() Mode { return m.mode }

// Plan returns the plan under review, if any.
func (m Model) Plan() *plan.Plan { return m.plan }

// Results returns the execution results once the plan was approved.
func (m Model) Results() []plan.Result { return m.results }

// Rejected reports whether the plan was rejected.
func (m Model) Rejected() bool { return m.rejected }

// Err returns the error that ended the session, if any.
func (m Model) Err() error { return m.err }
