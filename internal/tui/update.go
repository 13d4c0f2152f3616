package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		tableHeight := m.height - 8
		if tableHeight < 5 {
			tableHeight = 5
		}
		m.table.SetHeight(tableHeight)

		detailWidth := m.width/3 - 4
		if detailWidth < 24 {
			detailWidth = 24
		}
		m.viewport.Width = detailWidth
		m.viewport.Height = tableHeight

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter", "a":
			m.accepted = true
			m.quitting = true
			return m, tea.Quit

		case "x":
			if b := m.selectedBlock(); b != nil {
				if m.overrides[b.Prefix] {
					delete(m.overrides, b.Prefix)
				} else {
					m.overrides[b.Prefix] = true
				}
				m.table.SetRows(m.rows())
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.viewport.SetContent(m.detailContent())
	return m, cmd
}
