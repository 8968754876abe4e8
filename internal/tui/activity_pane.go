package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aristath/roundtable/internal/events"
)

// feedEntry is the pseudo-entry at the top of the list that shows every log line.
const feedEntry = "Log"

// TaskState is the live state of one swarm task.
type TaskState struct {
	Name      string
	Provider  string
	Status    string // "running", "completed", "failed"
	Output    []string
	StartTime time.Time
	Duration  time.Duration
}

// ActivityPaneModel lists swarm tasks next to a scrollable output viewport.
// The first entry is the shared log feed.
type ActivityPaneModel struct {
	tasks       map[string]*TaskState
	order       []string
	feed        []string
	selectedIdx int
	viewport    viewport.Model
	width       int
	height      int
	focused     bool
	updateTag   int
}

// NewActivityPaneModel creates an empty activity pane.
func NewActivityPaneModel() ActivityPaneModel {
	return ActivityPaneModel{
		tasks:    make(map[string]*TaskState),
		viewport: viewport.New(0, 0),
	}
}

// tickMsg debounces viewport refreshes.
type tickMsg struct {
	tag int
}

// Update handles messages for the activity pane.
func (m ActivityPaneModel) Update(msg tea.Msg) (ActivityPaneModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !m.focused {
			break
		}
		switch msg.String() {
		case KeyJ, KeyDown:
			if m.selectedIdx < len(m.order) {
				m.selectedIdx++
				m.updateViewportContent()
			}
		case KeyK, KeyUp:
			if m.selectedIdx > 0 {
				m.selectedIdx--
				m.updateViewportContent()
			}
		default:
			m.viewport, cmd = m.viewport.Update(msg)
		}

	case events.LogEvent:
		m.feed = append(m.feed, fmt.Sprintf("[%s] %s", msg.Agent, msg.Message))
		if m.selected() == feedEntry {
			return m, m.debounce()
		}

	case events.TaskStartedEvent:
		if _, exists := m.tasks[msg.Name]; !exists {
			m.tasks[msg.Name] = &TaskState{
				Name:      msg.Name,
				Provider:  msg.Provider,
				Status:    "running",
				StartTime: msg.Timestamp,
			}
			m.order = append(m.order, msg.Name)
		}
		m.tasks[msg.Name].Output = append(m.tasks[msg.Name].Output,
			fmt.Sprintf("[Started %s task on %s]", msg.Kind, msg.Provider))
		if m.selected() == msg.Name {
			m.updateViewportContent()
		}

	case events.TaskCompletedEvent:
		if task, exists := m.tasks[msg.Name]; exists {
			task.Status = "completed"
			task.Duration = msg.Duration
			line := fmt.Sprintf("[Completed in %v]", msg.Duration.Round(time.Millisecond))
			if msg.Filename != "" {
				line = fmt.Sprintf("[Completed in %v -> %s]", msg.Duration.Round(time.Millisecond), msg.Filename)
			}
			task.Output = append(task.Output, line)
			if m.selected() == msg.Name {
				m.updateViewportContent()
			}
		}

	case events.TaskFailedEvent:
		if task, exists := m.tasks[msg.Name]; exists {
			task.Status = "failed"
			task.Duration = msg.Duration
			task.Output = append(task.Output, fmt.Sprintf("[Failed: %v]", msg.Err))
			if m.selected() == msg.Name {
				m.updateViewportContent()
			}
		}

	case tickMsg:
		if msg.tag == m.updateTag {
			m.updateViewportContent()
		}
	}

	return m, cmd
}

func (m *ActivityPaneModel) debounce() tea.Cmd {
	m.updateTag++
	tag := m.updateTag
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{tag: tag}
	})
}

// View renders the activity pane.
func (m ActivityPaneModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	listWidth := 25
	viewportWidth := m.width - listWidth - 4

	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderTaskList(listWidth),
		lipgloss.NewStyle().
			Width(viewportWidth).
			Height(m.height-2).
			Render(m.viewport.View()),
	)

	style := StyleUnfocusedBorder
	if m.focused {
		style = StyleFocusedBorder
	}

	return style.
		Width(m.width - 2).
		Height(m.height - 2).
		Render(content)
}

func (m ActivityPaneModel) renderTaskList(width int) string {
	var b strings.Builder

	title := StyleTitle.Render("Activity")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", min(width, lipgloss.Width(title))))
	b.WriteString("\n\n")

	for i, name := range m.entries() {
		icon := StyleSeat.Render("≡")
		if task, ok := m.tasks[name]; ok && i > 0 {
			icon = StatusIcon(task.Status)
		}
		if len(name) > width-6 {
			name = name[:width-9] + "..."
		}
		line := fmt.Sprintf("%s %s", icon, name)
		if i == m.selectedIdx {
			line = StyleSelected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(m.height - 2).
		Render(b.String())
}

// StatusIcon returns a styled status indicator.
func StatusIcon(status string) string {
	switch status {
	case "running":
		return StyleStatusRunning.Render("●")
	case "completed":
		return StyleStatusComplete.Render("✓")
	case "failed":
		return StyleStatusFailed.Render("✗")
	default:
		return StyleStatusPending.Render("○")
	}
}

// Task returns the state of a task by name.
func (m ActivityPaneModel) Task(name string) (*TaskState, bool) {
	t, ok := m.tasks[name]
	return t, ok
}

// Feed returns the log lines received so far.
func (m ActivityPaneModel) Feed() []string {
	return m.feed
}

func (m ActivityPaneModel) entries() []string {
	return append([]string{feedEntry}, m.order...)
}

func (m ActivityPaneModel) selected() string {
	if m.selectedIdx == 0 {
		return feedEntry
	}
	if m.selectedIdx-1 < len(m.order) {
		return m.order[m.selectedIdx-1]
	}
	return ""
}

func (m *ActivityPaneModel) updateViewportContent() {
	name := m.selected()
	if name == feedEntry {
		m.viewport.SetContent(strings.Join(m.feed, "\n"))
		m.viewport.GotoBottom()
		return
	}
	task, ok := m.tasks[name]
	if !ok {
		m.viewport.SetContent("Waiting for tasks...")
		return
	}
	m.viewport.SetContent(strings.Join(task.Output, "\n"))
	m.viewport.GotoBottom()
}

func (m *ActivityPaneModel) resizeViewport() {
	listWidth := 25
	m.viewport.Width = max(m.width-listWidth-4, 10)
	m.viewport.Height = max(m.height-4, 5)
}

// SetSize updates the pane dimensions.
func (m *ActivityPaneModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.resizeViewport()
	m.updateViewportContent()
}

// SetFocused updates the focus state.
func (m *ActivityPaneModel) SetFocused(focused bool) {
	m.focused = focused
}
