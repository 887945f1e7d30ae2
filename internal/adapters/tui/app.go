// Package tui is an interactive browser over the open-task list.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/NathanJKW/calmdown/internal/adapters/tui/styles"
	"github.com/NathanJKW/calmdown/internal/application/commands"
	"github.com/NathanJKW/calmdown/internal/domain"
)

// KeyMap defines key bindings for the task browser
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Toggle   key.Binding
	Rollover key.Binding
	DueOnly  key.Binding
	Refresh  key.Binding
	Quit     key.Binding
}

var Keys = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("enter", " "),
		key.WithHelp("enter", "complete"),
	),
	Rollover: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rollover"),
	),
	DueOnly: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "due only"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("R"),
		key.WithHelp("R", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// App is the task browser model
type App struct {
	list     *commands.ListTasksCommand
	toggle   *commands.ToggleCommand
	rollover *commands.RolloverCommand

	tasks      []domain.Task
	cursor     int
	dueOnly    bool
	width      int
	height     int
	message    string
	messageErr bool
}

// NewApp creates the task browser
func NewApp(list *commands.ListTasksCommand, toggle *commands.ToggleCommand, rollover *commands.RolloverCommand) *App {
	return &App{list: list, toggle: toggle, rollover: rollover}
}

type tasksLoadedMsg struct {
	tasks []domain.Task
}

type toggledMsg struct {
	result *commands.ToggleResult
}

type rolledMsg struct {
	result *commands.RolloverResult
}

type errMsg struct {
	err error
}

// Init initializes the browser
func (a *App) Init() tea.Cmd {
	return a.loadTasks
}

func (a *App) loadTasks() tea.Msg {
	tasks, err := a.list.Execute(context.Background(), a.dueOnly)
	if err != nil {
		return errMsg{err}
	}
	return tasksLoadedMsg{tasks}
}

func (a *App) toggleSelected() tea.Cmd {
	if a.cursor >= len(a.tasks) {
		return nil
	}
	t := a.tasks[a.cursor]
	return func() tea.Msg {
		result, err := a.toggle.Execute(t.File, t.Line)
		if err != nil {
			return errMsg{err}
		}
		return toggledMsg{result}
	}
}

func (a *App) runRollover() tea.Msg {
	result, err := a.rollover.Execute(context.Background())
	if err != nil && result == nil {
		return errMsg{err}
	}
	return rolledMsg{result}
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tasksLoadedMsg:
		a.tasks = msg.tasks
		if a.cursor >= len(a.tasks) {
			a.cursor = max(0, len(a.tasks)-1)
		}
		return a, nil

	case toggledMsg:
		a.setMessage(toggleMessage(msg.result), false)
		return a, a.loadTasks

	case rolledMsg:
		r := msg.result
		if len(r.Failed) > 0 {
			a.setMessage(fmt.Sprintf("rolled %d tasks, %d files failed", r.Rolled, len(r.Failed)), true)
		} else if r.Rolled == 0 {
			a.setMessage("nothing due to roll over", false)
		} else {
			a.setMessage(fmt.Sprintf("rolled %d tasks into %s", r.Rolled, r.Target), false)
		}
		return a, a.loadTasks

	case errMsg:
		a.setMessage(msg.err.Error(), true)
		return a, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, Keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, Keys.Up):
			if a.cursor > 0 {
				a.cursor--
			}
		case key.Matches(msg, Keys.Down):
			if a.cursor < len(a.tasks)-1 {
				a.cursor++
			}
		case key.Matches(msg, Keys.Toggle):
			return a, a.toggleSelected()
		case key.Matches(msg, Keys.Rollover):
			return a, a.runRollover
		case key.Matches(msg, Keys.DueOnly):
			a.dueOnly = !a.dueOnly
			a.cursor = 0
			return a, a.loadTasks
		case key.Matches(msg, Keys.Refresh):
			return a, a.loadTasks
		}
	}
	return a, nil
}

// toggleMessage names the transition the toggle performed, judged from the
// state of the line before the rewrite.
func toggleMessage(r *commands.ToggleResult) string {
	if r.Old == r.New {
		return fmt.Sprintf("no change: %s", strings.TrimSpace(r.Old))
	}
	verb := "added"
	if old, ok := domain.ParseMarker("", 0, r.Old); ok {
		switch old.Status {
		case domain.StatusTodo:
			verb = "completed"
		case domain.StatusComplete:
			verb = "reopened"
		default:
			verb = "updated"
		}
	}
	return fmt.Sprintf("%s: %s", verb, strings.TrimSpace(r.New))
}

func (a *App) setMessage(text string, isErr bool) {
	a.message = text
	a.messageErr = isErr
}

// View renders the browser
func (a *App) View() string {
	var sb strings.Builder

	title := "Open tasks"
	if a.dueOnly {
		title = "Open tasks (due)"
	}
	sb.WriteString(styles.Title.Render(title))
	sb.WriteString("\n")

	if len(a.tasks) == 0 {
		sb.WriteString(styles.Subtitle.Render("nothing open"))
		sb.WriteString("\n")
	}

	for i, t := range a.tasks {
		row := a.renderTask(t)
		if i == a.cursor {
			row = styles.TaskSelected.Render("> " + row)
		} else {
			row = "  " + row
		}
		sb.WriteString(row)
		sb.WriteString("\n")
	}

	if a.message != "" {
		sb.WriteString("\n")
		if a.messageErr {
			sb.WriteString(styles.MessageErr.Render(a.message))
		} else {
			sb.WriteString(styles.Message.Render(a.message))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(styles.StatusBar.Render("enter complete · r rollover · d due only · R refresh · q quit"))
	return styles.App.Render(sb.String())
}

func (a *App) renderTask(t domain.Task) string {
	badge := styles.PriorityBadge.Render(fmt.Sprintf("p%d d%d", t.Priority, t.Difficulty))
	due := t.Due
	if d, err := t.DueDate(); err == nil {
		due = d.ISO()
	}
	text := t.Text
	if t.Status == domain.StatusRolled {
		text = styles.TaskRolled.Render(text)
	}
	loc := styles.TaskLocation.Render(fmt.Sprintf("%s:%d", t.File, t.Line+1))
	return fmt.Sprintf("%s  %s  %s  %s", badge, due, text, loc)
}

// Run starts the browser in the alternate screen.
func Run(list *commands.ListTasksCommand, toggle *commands.ToggleCommand, rollover *commands.RolloverCommand) error {
	p := tea.NewProgram(NewApp(list, toggle, rollover), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
