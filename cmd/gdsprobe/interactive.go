package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/fbnative/gds"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateQuery modelState = iota
	stateRunning
	stateSymbols
)

type queryResultMsg struct {
	err error
	res *queryResult
}

type interactiveModel struct {
	err     error
	session *gds.Session
	result  *queryResult
	target  probeTarget
	input   textinput.Model
	symbols []symbolInfo
	history []string
	histIdx int
	state   modelState
}

func newInteractiveModel(s *gds.Session, target probeTarget, sql string) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "SQL> "
	ti.Placeholder = "SELECT ... FROM ..."
	ti.Width = 80
	ti.SetValue(sql)
	ti.Focus()
	return &interactiveModel{
		session: s,
		target:  target,
		input:   ti,
		symbols: leaseSymbols(s.EntryPoints()),
		state:   stateQuery,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *interactiveModel) runQuery(sql string) tea.Cmd {
	return func() tea.Msg {
		res, err := runQuery(m.session, m.target, sql)
		return queryResultMsg{res: res, err: err}
	}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "tab":
			switch m.state {
			case stateQuery:
				m.state = stateSymbols
				m.input.Blur()
			case stateSymbols:
				m.state = stateQuery
				m.input.Focus()
			}
			return m, nil

		case "enter":
			if m.state != stateQuery {
				return m, nil
			}
			sql := strings.TrimSpace(m.input.Value())
			if sql == "" || m.target.path == "" {
				return m, nil
			}
			m.history = append(m.history, sql)
			m.histIdx = len(m.history)
			m.state = stateRunning
			return m, m.runQuery(sql)

		case "up":
			if m.state == stateQuery && m.histIdx > 0 {
				m.histIdx--
				m.input.SetValue(m.history[m.histIdx])
			}
			return m, nil

		case "down":
			if m.state == stateQuery && m.histIdx < len(m.history)-1 {
				m.histIdx++
				m.input.SetValue(m.history[m.histIdx])
			}
			return m, nil

		case "esc":
			if m.state == stateSymbols {
				m.state = stateQuery
				m.input.Focus()
			}
			m.result = nil
			m.err = nil
			return m, nil
		}

	case queryResultMsg:
		m.result = msg.res
		m.err = msg.err
		m.state = stateQuery
		return m, nil
	}

	if m.state == stateQuery {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("GDS Probe"))
	b.WriteString(" ")
	b.WriteString(m.session.ID())
	if m.target.path != "" {
		b.WriteString(" ")
		b.WriteString(typeStyle.Render(m.target.path))
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSymbols:
		render := renderer(true)
		for _, s := range m.symbols {
			b.WriteString("  " + formatSymbol(s, render) + "\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab/esc back • ctrl+c quit"))
		return b.String()

	case stateRunning:
		b.WriteString(m.input.View())
		b.WriteString("\n\nRunning...")
		return b.String()
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	case m.result != nil:
		var out strings.Builder
		printResult(&out, m.result, true)
		b.WriteString(out.String())
		b.WriteString("\n")
	case m.target.path == "":
		b.WriteString(helpStyle.Render("no database given; start with -db to run queries"))
		b.WriteString("\n\n")
	}
	b.WriteString(helpStyle.Render("enter run • ↑/↓ history • tab entry points • esc clear • ctrl+c quit"))
	return b.String()
}

func runInteractive(s *gds.Session, target probeTarget, sql string) error {
	p := tea.NewProgram(newInteractiveModel(s, target, sql), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
