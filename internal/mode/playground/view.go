package playground

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/strand/store"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Italic(true)
)

const intro = "Every keypress below commits a new immutable state. " +
	"The greeting is a memoized derivation: cycling the count leaves its " +
	"reference untouched, cycling name or language produces a new one."

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("strand playground"))
	b.WriteString("\n\n")
	b.WriteString(wordwrap.String(intro, min(width, 72)))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.renderState()),
		" ",
		panelStyle.Render(m.renderEvents()),
	))
	b.WriteString("\n")

	if m.lastAction != "" {
		b.WriteString(actionStyle.Render("last action: " + m.lastAction))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderState() string {
	state, _ := m.st.GetSnapshot().(store.State)

	count, _ := m.countBinding.GetSnapshot()
	greeting, _ := m.greetingBinding.GetSnapshot()

	rows := []string{
		row("count", fmt.Sprintf("%v", count)),
		row("name", str(state["name"])),
		row("language", str(state["language"])),
		row("greeting", str(greeting)),
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderEvents() string {
	if len(m.events) == 0 {
		return labelStyle.Render("no changes yet")
	}
	return strings.Join(m.events, "\n")
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-9s", label)) + " " + valueStyle.Render(value)
}

func str(v any) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%v", v)
}
