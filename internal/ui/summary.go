package ui

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/tameszaza/p2p/internal/utils"
)

// SessionSummary is printed when the process exits.
type SessionSummary struct {
	SessionID     string
	Role          string
	Duration      time.Duration
	ChatSent      int
	ChatReceived  int
	FilesSent     int
	BytesSent     int64
	FilesReceived int
	BytesReceived int64
	Warnings      int
	Incomplete    int
}

// SessionSummaryView renders s as a rounded table. Warning rows only appear
// when something went wrong.
func SessionSummaryView(s SessionSummary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(IconComplete + " Session Summary")
	t.Style().Title.Align = text.AlignCenter
	t.Style().Options.SeparateRows = false

	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"Session", s.SessionID},
		{"Role", s.Role},
		{"Duration", utils.FormatTimeDuration(s.Duration)},
		{"Messages sent", s.ChatSent},
		{"Messages received", s.ChatReceived},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Files sent", s.FilesSent},
		{"Bytes sent", utils.FormatSize(s.BytesSent)},
		{"Files received", s.FilesReceived},
		{"Bytes received", utils.FormatSize(s.BytesReceived)},
	})
	if s.Warnings > 0 || s.Incomplete > 0 {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Protocol warnings", s.Warnings})
		t.AppendRow(table.Row{"Incomplete files", s.Incomplete})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	return t.Render()
}

func RenderSessionSummary(w io.Writer, s SessionSummary) {
	io.WriteString(w, SessionSummaryView(s)+"\n")
}
