package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/stackdepth/pkg/analysis"
	"github.com/matzehuels/stackdepth/pkg/pipeline"
	"github.com/matzehuels/stackdepth/pkg/scenario"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorMuted)
)

// =============================================================================
// scenarioModel - Interactive scenario browser
// =============================================================================

// scenarioModel lists scenarios next to the worst path of the selected one.
// Enter toggles between the winning entry point and all entry points.
type scenarioModel struct {
	Outcomes []scenario.Outcome
	Sizes    analysis.SizeTable
	Worst    string // label of the overall winner

	Cursor     int
	Offset     int
	Height     int
	AllEntries bool
}

func newScenarioModel(res *pipeline.Result) scenarioModel {
	return scenarioModel{
		Outcomes: res.Report.Scenarios,
		Sizes:    res.Table,
		Worst:    res.Report.Overall.Label,
		Height:   10,
	}
}

func (m scenarioModel) Init() tea.Cmd {
	return nil
}

func (m scenarioModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Outcomes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "tab":
			m.AllEntries = !m.AllEntries
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height/2 - 4
		if m.Height < 3 {
			m.Height = 3
		}
	}
	return m, nil
}

func (m scenarioModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Scenarios"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle entry points  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Outcomes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		o := m.Outcomes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := ""
		if o.Label == m.Worst {
			mark = "worst"
		}
		rows = append(rows, []string{cursor, o.Label, o.Entry, formatWorst(o.Result), mark})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers("", "Scenario", "Entry", "Worst case", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			o := m.Outcomes[m.Offset+row]
			base := lipgloss.NewStyle()
			if o.Result.Unbounded && col == 3 {
				base = base.Foreground(colorBad)
			}
			if m.Offset+row == m.Cursor {
				return base.Bold(true).Foreground(colorAccent)
			}
			return base
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	if len(m.Outcomes) > 0 {
		b.WriteString(m.detail(m.Outcomes[m.Cursor]))
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("\n  [%d/%d]", m.Cursor+1, len(m.Outcomes))))
	return b.String()
}

// detail renders the worst path of one scenario, or of every entry point
// when AllEntries is set.
func (m scenarioModel) detail(o scenario.Outcome) string {
	entries := []scenario.EntryResult{{Entry: o.Entry, Result: o.Result}}
	if m.AllEntries {
		entries = o.Entries
	}

	var b strings.Builder
	for _, e := range entries {
		if e.Entry == "" {
			b.WriteString(listDimStyle.Render("no call path"))
			b.WriteString("\n")
			continue
		}
		b.WriteString(listSelectedStyle.Render(e.Entry))
		b.WriteString("  " + formatWorst(e.Result) + "\n")
		if e.Result.Unbounded {
			b.WriteString("  " + StyleDanger.Render(strings.Join(e.Result.Cycle, " -> ")) + "\n")
			continue
		}
		for _, line := range pathLines(analysis.Breakdown(e.Result.Path, m.Sizes)) {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}
