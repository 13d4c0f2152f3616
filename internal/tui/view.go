package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	title := titleStyle.Render("wgroutes — review candidate networks")

	detailPane := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(lipgloss.Color("#585858")).
		PaddingLeft(2).
		Render(m.viewport.View())

	main := lipgloss.JoinHorizontal(lipgloss.Top, m.table.View(), detailPane)

	retained := 0
	for _, b := range m.report.Blocks {
		if m.retained(b) {
			retained++
		}
	}
	footer := footerStyle.Render(fmt.Sprintf(
		"%d/%d retained · ↑/↓ move · x toggle · enter accept · q cancel",
		retained, len(m.report.Blocks)))

	return baseStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, main, footer))
}

func (m Model) detailContent() string {
	b := m.selectedBlock()
	if b == nil {
		return "no candidate blocks"
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render(b.Prefix.String()))
	sb.WriteString("\n\n")

	switch {
	case m.retained(b) && m.overrides[b.Prefix]:
		sb.WriteString(overrideStyle.Render("retained (manual override)"))
	case m.retained(b):
		sb.WriteString(retainedStyle.Render("retained"))
	case m.overrides[b.Prefix]:
		sb.WriteString(overrideStyle.Render("excluded (manual override)"))
	default:
		sb.WriteString(excludedStyle.Render("excluded"))
	}
	sb.WriteString("\n")

	if b.Status == model.StatusExcluded && b.ExcludedBy != nil {
		sb.WriteString(wordwrap.String(
			fmt.Sprintf("conflict: active connection %s falls inside this network", b.ExcludedBy),
			m.viewport.Width))
		sb.WriteString("\n")
	}

	sb.WriteString("\nEndpoints:\n")
	for _, a := range b.Addrs() {
		ep := b.Contributors[a]
		line := "  " + a.String()
		if ep.Hostname != "" {
			line += "  " + ep.Hostname
		}
		if ep.Source != "" {
			line += "  (" + ep.Source + ")"
		}
		sb.WriteString(wordwrap.String(line, m.viewport.Width))
		sb.WriteString("\n")
	}
	return sb.String()
}
