package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/pixelforge/pkg/estimate"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorFaint)

// =============================================================================
// BlockSizePickerModel - Interactive block size selection
// =============================================================================

// BlockSizePickerModel lets the user override the estimator's choice. Rows
// are the candidate scores, best first; the cursor starts on the winner.
type BlockSizePickerModel struct {
	Scores   []estimate.Score
	Best     int
	Cursor   int
	Selected int // 0 until the user confirms a row
}

// NewBlockSizePickerModel creates a picker over the ranked scores of est.
func NewBlockSizePickerModel(est *estimate.Estimate) BlockSizePickerModel {
	return BlockSizePickerModel{
		Scores: est.Ranked(),
		Best:   est.BlockSize,
	}
}

func (m BlockSizePickerModel) Init() tea.Cmd {
	return nil
}

func (m BlockSizePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Scores)-1 {
			m.Cursor++
		}
	case "enter":
		if len(m.Scores) > 0 {
			m.Selected = m.Scores[m.Cursor].BlockSize
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m BlockSizePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Block Size"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, len(m.Scores))
	for i, s := range m.Scores {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows[i] = append([]string{cursor}, scoreCells(s, s.BlockSize == m.Best)...)
	}

	t := scoreTable(rows).StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == -1:
			return tableHeaderStyle
		case row == m.Cursor:
			return lipgloss.NewStyle().Foreground(colorOK).Bold(true)
		default:
			return lipgloss.NewStyle().Foreground(colorMuted)
		}
	})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Scores))))

	return b.String()
}

// =============================================================================
// Score Tables
// =============================================================================

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorMuted).Bold(true)

var scoreHeaders = []string{"", "Block", "Uniformity", "Boundary", "Inside", "Ratio", "Score"}

// scoreCells formats one score as table cells, marking the winner.
func scoreCells(s estimate.Score, best bool) []string {
	size := fmt.Sprintf("%dpx", s.BlockSize)
	if best {
		size += " " + iconSuccess
	}
	return []string{
		size,
		fmt.Sprintf("%.3f", s.Uniformity),
		fmt.Sprintf("%.2f", s.BoundaryGradient),
		fmt.Sprintf("%.2f", s.InsideGradient),
		fmt.Sprintf("%.2f", s.BoundaryRatio),
		fmt.Sprintf("%.4f", s.Combined),
	}
}

func scoreTable(rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorFaint)).
		Headers(scoreHeaders...).
		Rows(rows...)
}

// renderScoreTable renders the estimate as a static table, best first.
func renderScoreTable(est *estimate.Estimate) string {
	ranked := est.Ranked()
	rows := make([][]string, len(ranked))
	for i, s := range ranked {
		rows[i] = append([]string{""}, scoreCells(s, s.BlockSize == est.BlockSize)...)
	}
	return scoreTable(rows).StyleFunc(func(row, col int) lipgloss.Style {
		switch {
		case row == -1:
			return tableHeaderStyle
		case row == 0:
			return lipgloss.NewStyle().Foreground(colorOK)
		default:
			return lipgloss.NewStyle().Foreground(colorMuted)
		}
	}).Render()
}
