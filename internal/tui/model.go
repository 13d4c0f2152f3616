// Package tui is an interactive review of the candidate blocks before the
// directive is emitted. The automatic exclusion policy is conservative by
// design; here the user can inspect why a block was dropped and override
// individual decisions.
package tui

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pranshuparmar/wgroutes/pkg/model"
)

var (
	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#585858")) // Dark Gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")). // White
			Background(lipgloss.Color("#7D56F4")). // Purple
			Padding(0, 1)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#5f5fd7")). // Purple/Blue
				Bold(true).
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("#585858")). // Dark Gray
				Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676")). // Dimmed Gray
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(lipgloss.Color("#585858")). // Dark Gray
			Padding(0, 1)

	retainedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22aa22")). // Green
			Bold(true)

	excludedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ff5f5f")). // Soft red
			Bold(true)

	overrideStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffdf87")). // Amber
			Bold(true)
)

type Model struct {
	table    table.Model
	viewport viewport.Model
	report   *model.Report

	// overrides holds the blocks whose automatic status the user flipped.
	overrides map[netip.Prefix]bool

	width    int
	height   int
	quitting bool
	accepted bool
}

func New(report *model.Report) Model {
	columns := []table.Column{
		{Title: "Network", Width: 18},
		{Title: "Status", Width: 12},
		{Title: "Endpoints", Width: 9},
		{Title: "Hostnames", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = tableHeaderStyle
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#ffffaf")). // Light Yellow
		Background(lipgloss.Color("#5f00d7")). // Purple
		Bold(false)
	t.SetStyles(s)

	vp := viewport.New(0, 0)

	m := Model{
		table:     t,
		viewport:  vp,
		report:    report,
		overrides: make(map[netip.Prefix]bool),
	}
	m.table.SetRows(m.rows())
	return m
}

// Run shows the review UI and returns the allow-list as accepted. Quitting
// without accepting returns the automatic result untouched.
func Run(report *model.Report) ([]netip.Prefix, error) {
	p := tea.NewProgram(New(report), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("error running tui: %w", err)
	}
	m := final.(Model)
	if !m.accepted {
		return report.AllowList, nil
	}
	return m.allowList(), nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

// retained is the block's status with the user's override applied.
func (m Model) retained(b *model.Block) bool {
	r := b.Status == model.StatusRetained
	if m.overrides[b.Prefix] {
		r = !r
	}
	return r
}

// allowList rebuilds the prefix list from the effective statuses. Blocks
// are already in canonical order.
func (m Model) allowList() []netip.Prefix {
	var out []netip.Prefix
	for _, b := range m.report.Blocks {
		if m.retained(b) {
			out = append(out, b.Prefix)
		}
	}
	return out
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.report.Blocks))
	for _, b := range m.report.Blocks {
		status := "excluded"
		if m.retained(b) {
			status = "retained"
		}
		if m.overrides[b.Prefix] {
			status += " *"
		}
		rows = append(rows, table.Row{
			b.Prefix.String(),
			status,
			strconv.Itoa(len(b.Contributors)),
			strings.Join(b.Hostnames(), ", "),
		})
	}
	return rows
}

func (m Model) selectedBlock() *model.Block {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.report.Blocks) {
		return nil
	}
	return m.report.Blocks[i]
}
