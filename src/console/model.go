package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	warnStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var menu = []string{
	"create order (c)",
	"delete order (d)",
	"delete all orders (da)",
	"cancel all brokerage orders (car)",
	"login (li)",
	"logout (lo)",
	"execute order # (e)",
	"print http link for order (l)",
	"export orders to csv (x)",
	"quit (q)",
}

// Messages.
type boardMsg string

type actionDoneMsg struct {
	output string
	err    error
}

type model struct {
	ctx     context.Context
	console *Console
	input   textinput.Model

	board  string
	form   *form
	busy   bool
	output string
	notice string
}

func newModel(ctx context.Context, c *Console) model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.Focus()

	m := model{ctx: ctx, console: c, input: ti}
	m.setPrompt("")

	return m
}

func (m model) Init() tea.Cmd {
	return m.refresh()
}

func (m model) refresh() tea.Cmd {
	ctx, c := m.ctx, m.console
	return func() tea.Msg {
		return boardMsg(c.renderBoard(ctx))
	}
}

func (m model) run(action func(ctx context.Context) (string, error)) (tea.Model, tea.Cmd) {
	m.busy = true
	ctx := m.ctx
	return m, func() tea.Msg {
		out, err := action(ctx)
		return actionDoneMsg{output: out, err: err}
	}
}

func (m *model) setPrompt(label string) {
	m.input.Prompt = label + "> "
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeyEsc:
			if m.form != nil && !m.busy {
				m.form = nil
				m.notice = ""
				m.setPrompt("")
			}
			return m, nil
		case tea.KeyEnter:
			if m.busy {
				return m, nil
			}
			answer := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			return m.submit(answer)
		}

		if !m.busy {
			// the cursor is static, so the input never schedules a blink
			m.input, _ = m.input.Update(msg)
		}
		return m, nil

	case boardMsg:
		m.board = string(msg)
		return m, nil

	case actionDoneMsg:
		m.busy = false
		m.output = msg.output
		if msg.err != nil {
			m.output = strings.TrimSpace(m.output + "\n" + warnStyle.Render(fmt.Sprintf("error: %v", msg.err)))
		}
		m.setPrompt("")
		return m, m.refresh()
	}

	return m, nil
}

func (m model) submit(answer string) (tea.Model, tea.Cmd) {
	if m.form != nil {
		if err := m.form.current().apply(answer); err != nil {
			m.notice = err.Error()
			return m, nil
		}

		m.notice = ""
		m.form.advance()
		if !m.form.done() {
			m.setPrompt(m.form.current().label)
			return m, nil
		}

		submit := m.form.submit
		m.form = nil
		return m.run(submit)
	}

	m.output = ""
	m.notice = ""

	c := m.console
	switch strings.ToLower(answer) {
	case "":
		return m, nil
	case "q", "quit", "exit":
		return m, tea.Quit
	case "c":
		return m.start(c.createOrderForm())
	case "d":
		return m.start(c.deleteOrderForm())
	case "da":
		return m.run(c.deleteAll)
	case "car":
		return m.run(c.cancelAll)
	case "li":
		return m.run(c.login)
	case "lo":
		return m.run(c.logout)
	case "e":
		return m.start(c.executeOrderForm())
	case "l":
		return m.start(c.printLinkForm())
	case "x":
		return m.start(c.exportOrdersForm())
	}

	m.output = "Invalid selection."
	return m, nil
}

func (m model) start(f *form) (tea.Model, tea.Cmd) {
	m.form = f
	m.setPrompt(f.current().label)
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("TRADEBOX CONSOLE"))
	b.WriteString("\n\n")
	b.WriteString(m.board)
	b.WriteString("\n")

	if m.form == nil && !m.busy {
		b.WriteString("Menu:\n")
		for _, item := range menu {
			b.WriteString(item)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.output != "" {
		b.WriteString(m.output)
		b.WriteString("\n\n")
	}

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(dimStyle.Render("working..."))
	} else {
		b.WriteString(m.input.View())
		if m.form != nil {
			b.WriteString("\n" + dimStyle.Render("esc to cancel"))
		}
	}
	b.WriteString("\n")

	return b.String()
}
