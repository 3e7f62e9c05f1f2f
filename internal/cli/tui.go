package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/beltline/beltline/pkg/game"
	"github.com/beltline/beltline/pkg/plan"
	"github.com/beltline/beltline/pkg/route"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// EdgeListModel - Interactive solved-layout inspector
// =============================================================================

// EdgeListModel is the bubbletea model for browsing a solved layout.
// It lists every connection with its computed flow and status; the
// detail pane under the table follows the cursor.
type EdgeListModel struct {
	Plan   *plan.Plan
	Unit   string
	Cursor int
	Height int
	Offset int
}

// NewEdgeListModel creates an inspector model for a solved plan.
func NewEdgeListModel(p *plan.Plan, g *game.GameDefinition) EdgeListModel {
	return EdgeListModel{
		Plan:   p,
		Unit:   string(g.Settings.RateUnit),
		Height: 15,
	}
}

func (m EdgeListModel) Init() tea.Cmd {
	return nil
}

func (m EdgeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Plan.Edges)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "g":
			m.Cursor = 0
			m.Offset = 0
		case "G":
			m.Cursor = len(m.Plan.Edges) - 1
			if m.Cursor >= m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 12
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m EdgeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Inspect Layout"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Plan.Edges) == 0 {
		b.WriteString(listDimStyle.Render("  layout has no connections"))
		return b.String()
	}

	end := m.Offset + m.Height
	if end > len(m.Plan.Edges) {
		end = len(m.Plan.Edges)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		e := m.Plan.Edges[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{
			cursor,
			e.ID,
			e.Data.Item.String(),
			fmt.Sprintf("%.1f", e.Data.FlowRate),
			fmt.Sprintf("%.1f", e.Data.Capacity),
			string(e.Data.Status),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Edge", "Item", "Flow/"+m.Unit, "Capacity", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			actualIdx := m.Offset + row
			if actualIdx >= len(m.Plan.Edges) {
				return lipgloss.NewStyle()
			}
			e := m.Plan.Edges[actualIdx]
			if col == 5 {
				return statusStyle(e.Data.Status)
			}
			if actualIdx == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(m.detailView())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Plan.Edges))))

	return b.String()
}

// detailView renders the detail pane for the edge under the cursor.
func (m EdgeListModel) detailView() string {
	e := m.Plan.Edges[m.Cursor]
	lanes := route.LaneCount(e.Data.FlowRate, e.Data.Capacity)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("  %s %s %s\n",
		StyleValue.Render(e.Source), listDimStyle.Render(iconArrow), StyleValue.Render(e.Target)))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  demand %.1f  lanes %d  waypoints %d  status ",
		e.Data.DemandRate, lanes, len(e.Data.Points))))
	b.WriteString(statusStyle(e.Data.Status).Render(string(e.Data.Status)))
	b.WriteString("\n")
	return b.String()
}
