package ui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/tameszaza/p2p/internal/utils"
)

// FileTableItem represents a file in the table
type FileTableItem struct {
	Name     string
	Size     int64
	Type     string
	Archived bool
}

func styledTable(headers []string, rows [][]string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})
}

// FileTableView renders the files about to be sent.
func FileTableView(items []FileTableItem) string {
	if len(items) == 0 {
		return MutedStyle.Render("No files")
	}

	rows := make([][]string, 0, len(items))
	for i, item := range items {
		name := utils.TruncateString(item.Name, 50)
		if item.Archived {
			name = IconFolder + " " + name
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			name,
			utils.FormatSize(item.Size),
			utils.TruncateString(item.Type, 20),
		})
	}
	return styledTable([]string{"#", "Name", "Size", "Type"}, rows).Render()
}

func RenderFileTable(w io.Writer, items []FileTableItem) {
	fmt.Fprintln(w, FileTableView(items))
}

// TransferSummary is shown once a single file finishes.
type TransferSummary struct {
	Status    string
	File      string
	TotalSize string
	Duration  string
	Speed     string
}

func TransferSummaryView(summary TransferSummary) string {
	rows := [][]string{
		{"Status", summary.Status},
		{"File", summary.File},
		{"Size", summary.TotalSize},
		{"Duration", summary.Duration},
		{"Avg Speed", summary.Speed},
	}
	return styledTable([]string{"Metric", "Value"}, rows).Render()
}

func RenderTransferSummary(w io.Writer, summary TransferSummary) {
	fmt.Fprintln(w, TransferSummaryView(summary))
}
