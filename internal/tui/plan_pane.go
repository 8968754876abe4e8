package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/roundtable/internal/plan"
)

// PlanPaneModel renders the plan under review and, once executed, its results.
type PlanPaneModel struct {
	plan     *plan.Plan
	results  map[string]plan.Result
	viewport viewport.Model
	width    int
	height   int
	focused  bool
}

// NewPlanPaneModel creates an empty plan pane.
func NewPlanPaneModel() PlanPaneModel {
	return PlanPaneModel{viewport: viewport.New(0, 0)}
}

// Update handles messages for the plan pane.
func (m PlanPaneModel) Update(msg tea.Msg) (PlanPaneModel, tea.Cmd) {
	var cmd tea.Cmd
	if key, ok := msg.(tea.KeyMsg); ok && m.focused {
		m.viewport, cmd = m.viewport.Update(key)
	}
	return m, cmd
}

// SetPlan replaces the plan on display and clears earlier results.
func (m *PlanPaneModel) SetPlan(p *plan.Plan) {
	m.plan = p
	m.results = nil
	m.viewport.SetContent(m.render())
	m.viewport.GotoTop()
}

// SetResults attaches execution results to the tasks on display.
func (m *PlanPaneModel) SetResults(results []plan.Result) {
	m.results = make(map[string]plan.Result, len(results))
	for _, r := range results {
		m.results[r.Task] = r
	}
	m.viewport.SetContent(m.render())
}

// Render returns the plan body without borders.
func (m PlanPaneModel) Render() string {
	return m.render()
}

func (m PlanPaneModel) render() string {
	if m.plan == nil {
		return StyleStatusPending.Render("The round table is debating...")
	}
	p := m.plan

	var b strings.Builder
	b.WriteString(StyleTitle.Render("Objective"))
	b.WriteString("\n")
	b.WriteString(p.Objective)
	b.WriteString("\n\n")

	b.WriteString(StyleSeat.Render(fmt.Sprintf("Visionary: %s | Critic: %s | Tactician: %s", p.Visionary, p.Critic, p.Tactician)))
	b.WriteString("\n\n")

	if p.ParseError != "" {
		b.WriteString(StyleError.Render("Synthesis could not be parsed: " + p.ParseError))
		b.WriteString("\n\n")
	}

	if len(p.Suggestions) > 0 {
		b.WriteString(StyleTitle.Render("Suggestions"))
		b.WriteString("\n")
		for _, s := range p.Suggestions {
			b.WriteString(StyleSuggestion.Render("* " + s))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Tasks (%d)", len(p.Tasks))))
	b.WriteString("\n")
	if len(p.Tasks) == 0 {
		b.WriteString(StyleStatusPending.Render("No tasks."))
		b.WriteString("\n")
	}
	for i, t := range p.Tasks {
		status := ""
		if r, ok := m.results[t.Name]; ok {
			status = StatusIcon("failed") + " "
			if r.Success {
				status = StatusIcon("completed") + " "
			}
		}
		fmt.Fprintf(&b, "%s%d. [%s] %s -> %s\n", status, i+1, t.Provider, t.Name, t.Target())
		if r, ok := m.results[t.Name]; ok && r.Error != "" {
			b.WriteString(StyleError.Render("   " + r.Error))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// View renders the plan pane.
func (m PlanPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(lipgloss.NewStyle().Width(m.width - 4).Render(m.viewport.View()))
}

// SetSize updates the pane dimensions.
func (m *PlanPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = max(w-4, 10)
	m.viewport.Height = max(h-2, 3)
	m.viewport.SetContent(m.render())
}

// SetFocused updates the focus state.
func (m *PlanPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
