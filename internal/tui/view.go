package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/0000mz/lotab/internal/mode"
	"github.com/0000mz/lotab/internal/wire"
)

var (
	activeRowStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	selectedRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	cursorRowStyle   = lipgloss.NewStyle().Background(lipgloss.Color("237"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	taskLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	filterBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Bold(true)
	errStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func (m Model) View() string {
	if m.hidden {
		return ""
	}
	if m.err != nil {
		return errStyle.Render(fmt.Sprintf("lotab: %v\n", m.err))
	}
	if m.client == nil {
		return dimStyle.Render("connecting to lotabd…\n")
	}

	var b strings.Builder
	b.WriteString(m.renderModeLine())
	b.WriteString("\n")

	filtered := m.filteredTabs()
	if len(filtered) == 0 {
		b.WriteString(dimStyle.Render("  (no tabs)\n"))
	}
	for i, t := range filtered {
		b.WriteString(m.renderRow(i, t))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderModeLine() string {
	switch m.mode.State() {
	case mode.FilterInflight:
		return filterBarStyle.Render("/" + m.mode.InflightFilter())
	case mode.Multiselect:
		return dimStyle.Render(fmt.Sprintf("MULTISELECT  %d selected", len(m.selectedIDs())))
	default:
		if f := m.mode.ListFilter(); f != "" {
			return dimStyle.Render("filter: " + f)
		}
		return dimStyle.Render("lotab")
	}
}

func (m Model) renderRow(idx int, t wire.TabSnapshot) string {
	marker := "  "
	if m.selected[t.ID] {
		marker = "✓ "
	}

	label := t.Title
	if t.TaskID != -1 {
		if task, ok := m.tasks[t.TaskID]; ok {
			label = fmt.Sprintf("%s %s", taskLabelStyle.Render("["+task.Name+"]"), label)
		}
	}

	line := marker + label
	if t.Active {
		line = activeRowStyle.Render(line)
	} else if m.selected[t.ID] {
		line = selectedRowStyle.Render(line)
	}

	if idx == m.cursor {
		line = cursorRowStyle.Render(line)
	}
	return line
}
