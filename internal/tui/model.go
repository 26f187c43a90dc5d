// Package tui is an interactive viewer over the filtering pipeline. It is a plain
// consumer: it folds the ordered Replace/Append stream into a viewport and submits
// edited settings back through the pipeline's debounced settings path.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vburojevic/logsieve/internal/domain"
	"github.com/vburojevic/logsieve/internal/filter"
	"github.com/vburojevic/logsieve/internal/pipeline"
	"github.com/vburojevic/logsieve/internal/view"
)

const maxContextLines = 9

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	footerStyle  = lipgloss.NewStyle().Faint(true)
	matchStyle   = lipgloss.NewStyle().Bold(true)
	contextStyle = lipgloss.NewStyle().Faint(true)
	numberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
)

// EventMsg carries one pipeline view update.
type EventMsg domain.Event

// ErrMsg carries a terminal pipeline error.
type ErrMsg error

// TotalMsg carries the total-lines-processed counter.
type TotalMsg int

// closedMsg signals the update stream completed.
type closedMsg struct{}

// Model is the TUI state.
type Model struct {
	proc   *pipeline.Processor
	acc    *view.Accumulator
	name   string
	closed bool

	viewport  viewport.Model
	textinput textinput.Model
	width     int
	height    int
	ready     bool

	searching    bool
	query        string
	contextLines int
	follow       bool
	total        int
	err          error
}

// New creates the viewer. The processor must already be started; the model submits
// the initial settings itself on Init.
func New(name string, proc *pipeline.Processor, query string, contextLines int) Model {
	ti := textinput.New()
	ti.Placeholder = "Substring filter..."
	ti.CharLimit = 200
	ti.Width = 40
	ti.SetValue(query)

	return Model{
		proc:         proc,
		acc:          view.NewAccumulator(),
		name:         name,
		textinput:    ti,
		query:        query,
		contextLines: contextLines,
		follow:       true,
	}
}

// Init subscribes to the pipeline streams and submits the initial filter.
func (m Model) Init() tea.Cmd {
	m.submitSettings()
	return tea.Batch(
		waitForEvent(m.proc.Updates()),
		waitForError(m.proc.Errors()),
		waitForTotal(m.proc.Totals()),
	)
}

func waitForEvent(ch <-chan domain.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return EventMsg(ev)
	}
}

func waitForError(ch <-chan error) tea.Cmd {
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return ErrMsg(err)
	}
}

func waitForTotal(ch <-chan int) tea.Cmd {
	return func() tea.Msg {
		total, ok := <-ch
		if !ok {
			return nil
		}
		return TotalMsg(total)
	}
}

// submitSettings pushes the current query and context through the debounced
// settings path. Rapid keystrokes collapse into one evaluation.
func (m Model) submitSettings() {
	var node filter.Node
	if m.query == "" {
		node = filter.NewTrue()
	} else {
		node = filter.NewSubstring(m.query, false)
	}
	m.proc.UpdateFilterSettings(node, m.contextLines)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "esc":
				m.searching = false
				m.textinput.Blur()
				m.textinput.SetValue(m.query)
			case "enter":
				m.searching = false
				m.textinput.Blur()
				m.query = m.textinput.Value()
				m.submitSettings()
			default:
				m.textinput, cmd = m.textinput.Update(msg)
				cmds = append(cmds, cmd)
				// Live resubmit per keystroke; the debounce collapses the burst.
				m.query = m.textinput.Value()
				m.submitSettings()
			}
		} else {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "/":
				m.searching = true
				m.textinput.Focus()
			case "c":
				m.contextLines = (m.contextLines + 1) % (maxContextLines + 1)
				m.submitSettings()
			case "f":
				m.follow = !m.follow
			default:
				m.viewport, cmd = m.viewport.Update(msg)
				cmds = append(cmds, cmd)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.renderLines())

	case EventMsg:
		m.acc.Apply(domain.Event(msg))
		m.viewport.SetContent(m.renderLines())
		if m.follow {
			m.viewport.GotoBottom()
		}
		cmds = append(cmds, waitForEvent(m.proc.Updates()))

	case TotalMsg:
		m.total = int(msg)
		cmds = append(cmds, waitForTotal(m.proc.Totals()))

	case ErrMsg:
		m.err = msg

	case closedMsg:
		m.closed = true
	}

	return m, tea.Batch(cmds...)
}

func (m Model) renderLines() string {
	lines := m.acc.Lines()
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(numberStyle.Render(fmt.Sprintf("%6d", l.LineNumber)))
		b.WriteString("  ")
		if l.IsContext {
			b.WriteString(contextStyle.Render(l.Text))
		} else {
			b.WriteString(matchStyle.Render(l.Text))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// View renders the UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render(fmt.Sprintf("%s · %d/%d lines, context %d",
		m.name, m.acc.Len(), m.total, m.contextLines))
	if m.err != nil {
		header += "  " + failStyle.Render(fmt.Sprintf("pipeline failed: %v", m.err))
	} else if m.closed {
		header += "  " + footerStyle.Render("(stream ended)")
	}

	var footer string
	if m.searching {
		footer = m.textinput.View()
	} else {
		parts := []string{"/ filter", "c context", "f follow", "q quit"}
		if m.query != "" {
			parts = append(parts, fmt.Sprintf("filter=%q", m.query))
		}
		footer = footerStyle.Render(strings.Join(parts, "  ·  "))
	}

	return fmt.Sprintf("%s\n\n%s\n%s", header, m.viewport.View(), footer)
}
