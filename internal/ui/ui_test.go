package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFileTableView(t *testing.T) {
	view := FileTableView([]FileTableItem{
		{Name: "report.pdf", Size: 2048, Type: "application/pdf"},
		{Name: "photos.zip", Size: 10, Type: "application/zip", Archived: true},
	})
	assert.Contains(t, view, "report.pdf")
	assert.Contains(t, view, "2.00 KB")
	assert.Contains(t, view, IconFolder+" photos.zip")

	assert.Contains(t, FileTableView(nil), "No files")
}

func TestSessionSummaryView(t *testing.T) {
	s := SessionSummary{
		SessionID:     "abc",
		Role:          "offer",
		Duration:      3 * time.Second,
		ChatSent:      2,
		FilesReceived: 1,
		BytesReceived: 40000,
	}
	view := SessionSummaryView(s)
	assert.Contains(t, view, "Session Summary")
	assert.Contains(t, view, "abc")
	assert.Contains(t, view, "Files received")
	assert.NotContains(t, view, "Incomplete files")

	s.Incomplete = 1
	assert.Contains(t, SessionSummaryView(s), "Incomplete files")
}

func TestTransferSummaryView(t *testing.T) {
	view := TransferSummaryView(TransferSummary{Status: "done", File: "a.txt", TotalSize: "1 B"})
	assert.Contains(t, view, "a.txt")
	assert.Contains(t, view, "Avg Speed")
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var out bytes.Buffer
	s := NewWaitingSpinner(&out, "waiting")
	s.Stop()
	s.Stop()
	assert.Empty(t, out.String())
}

func TestSpinnerSuccess(t *testing.T) {
	var out bytes.Buffer
	s := NewConnectionSpinner(&out, "connecting")
	s.Start()
	s.UpdateMessage("still connecting")
	s.Success("connected")
	assert.True(t, strings.HasSuffix(out.String(), "connected\n"))
}

func TestProgressModelView(t *testing.T) {
	u := NewTransferUI(&bytes.Buffer{}, ModeReceive, "movie.mkv", 100)
	m := u.model

	m.Update(progressUpdate{current: 50})
	view := m.View()
	assert.Contains(t, view, "Receiving")
	assert.Contains(t, view, "movie.mkv")
	assert.Contains(t, view, "50.0%")

	m.Update(progressUpdate{completed: true})
	assert.True(t, m.finished())
	assert.Contains(t, m.View(), "100.0%")

	u.Stop()
}

func TestFormatPeerMessage(t *testing.T) {
	assert.Contains(t, FormatPeerMessage("hello"), "hello")
}
