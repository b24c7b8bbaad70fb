package transfer

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/tameszaza/p2p/internal/ui"
	"github.com/tameszaza/p2p/internal/utils"
)

// ConsoleObserver prints engine activity for a human. With Interactive set
// a live progress bar is drawn for the first running transfer; otherwise
// plain lines are written.
type ConsoleObserver struct {
	Interactive bool
	// ChatMode prints the chat hint once the channel opens.
	ChatMode bool
	// OnOpen runs before anything is printed for an open channel, typically
	// to clear a spinner.
	OnOpen func()

	out io.Writer

	mu       sync.Mutex
	bar      *ui.TransferUI
	barOwner string
}

func NewConsoleObserver(out io.Writer) *ConsoleObserver {
	return &ConsoleObserver{out: out}
}

func (o *ConsoleObserver) println(line string) {
	o.mu.Lock()
	bar := o.bar
	o.mu.Unlock()

	if bar != nil {
		bar.Println(line)
		return
	}
	fmt.Fprintln(o.out, line)
}

func (o *ConsoleObserver) startBar(owner string, mode ui.TransferMode, name string, size int64) bool {
	if !o.Interactive || size == 0 {
		return false
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bar != nil {
		return false
	}
	o.bar = ui.NewTransferUI(o.out, mode, name, size)
	o.barOwner = owner
	o.bar.Start()
	return true
}

func (o *ConsoleObserver) withBar(owner string, f func(*ui.TransferUI)) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.bar == nil || o.barOwner != owner {
		return false
	}
	f(o.bar)
	return true
}

func (o *ConsoleObserver) stopBar(owner string) {
	o.mu.Lock()
	bar := o.bar
	if bar == nil || (owner != "" && o.barOwner != owner) {
		o.mu.Unlock()
		return
	}
	o.bar = nil
	o.barOwner = ""
	o.mu.Unlock()

	bar.Stop()
}

func sendOwner(meta FileMetadata) string { return "send:" + meta.FileName }
func recvOwner(w *FileWriter) string     { return "recv:" + w.Path }

func (o *ConsoleObserver) ChannelOpened(label string) {
	if o.OnOpen != nil {
		o.OnOpen()
	}
	ui.FprintSuccess(o.out, fmt.Sprintf("Connected. Data channel %s is open.", ui.BoldStyle.Render(label)))
	if o.ChatMode {
		fmt.Fprintln(o.out, ui.MutedStyle.Render(fmt.Sprintf("%s Type a message and press Enter. Type %q to leave.", ui.IconChat, ByeSentinel)))
	}
}

func (o *ConsoleObserver) ChatReceived(text string) {
	o.println(ui.FormatPeerMessage(text))
}

func (o *ConsoleObserver) ChatEnded(announced bool) {
	msg := "You left the chat."
	if announced {
		msg = "You left the chat. Your peer has been told."
	}
	o.println(fmt.Sprintf("%s %s", ui.IconBye, msg))
}

func (o *ConsoleObserver) SendStarted(meta FileMetadata) {
	if o.startBar(sendOwner(meta), ui.ModeSend, meta.FileName, meta.FileSize) {
		return
	}
	o.println(fmt.Sprintf("%s Sending %s (%s)", ui.IconSend, meta.FileName, utils.FormatSize(meta.FileSize)))
}

func (o *ConsoleObserver) SendProgress(meta FileMetadata, sent int64) {
	o.withBar(sendOwner(meta), func(bar *ui.TransferUI) { bar.UpdateProgress(sent) })
}

func (o *ConsoleObserver) SendFinished(meta FileMetadata, elapsed time.Duration, err error) {
	owner := sendOwner(meta)
	if err != nil {
		o.withBar(owner, func(bar *ui.TransferUI) { bar.MarkFailed(err.Error()) })
		o.stopBar(owner)
		ui.FprintError(o.out, fmt.Sprintf("Sending %s failed: %v", meta.FileName, err))
		return
	}

	o.withBar(owner, func(bar *ui.TransferUI) { bar.MarkComplete() })
	o.stopBar(owner)
	ui.FprintSuccess(o.out, fmt.Sprintf("Sent %s", meta.FileName))
	ui.RenderTransferSummary(o.out, summaryOf(meta.FileName, meta.FileSize, elapsed, "Sent"))
}

func (o *ConsoleObserver) ReceiveStarted(w *FileWriter) {
	if o.startBar(recvOwner(w), ui.ModeReceive, w.Metadata.FileName, w.Metadata.FileSize) {
		return
	}
	o.println(fmt.Sprintf("%s Receiving %s (%s)", ui.IconReceive, w.Metadata.FileName, utils.FormatSize(w.Metadata.FileSize)))
}

func (o *ConsoleObserver) ReceiveProgress(w *FileWriter) {
	o.withBar(recvOwner(w), func(bar *ui.TransferUI) { bar.UpdateProgress(w.ReceivedBytes) })
}

func (o *ConsoleObserver) ReceiveCompleted(w *FileWriter) {
	owner := recvOwner(w)
	o.withBar(owner, func(bar *ui.TransferUI) { bar.MarkComplete() })
	o.stopBar(owner)

	ui.FprintSuccess(o.out, fmt.Sprintf("Saved %s to %s", w.Metadata.FileName, ui.BoldStyle.Render(w.Path)))
	ui.RenderTransferSummary(o.out, summaryOf(w.Metadata.FileName, w.ReceivedBytes, w.Elapsed(), "Received"))
}

func (o *ConsoleObserver) ReceiveFailed(w *FileWriter, err error) {
	owner := recvOwner(w)
	o.withBar(owner, func(bar *ui.TransferUI) { bar.MarkFailed(err.Error()) })
	o.stopBar(owner)

	ui.FprintError(o.out, err.Error())
	ui.FprintInfo(o.out, fmt.Sprintf("Partial file kept at %s", w.Path))
}

func (o *ConsoleObserver) Warning(err error) {
	o.println(fmt.Sprintf("%s %s", ui.WarningStyle.Render(ui.IconWarning), ui.WarningStyle.Render(err.Error())))
}

func (o *ConsoleObserver) ChannelClosed(err error) {
	o.stopBar("")
	switch {
	case errors.Is(err, ErrTransportFailure):
		ui.FprintError(o.out, fmt.Sprintf("Connection lost: %v", err))
	case err != nil:
		ui.FprintError(o.out, err.Error())
	default:
		ui.FprintInfo(o.out, "Data channel closed.")
	}
}

func summaryOf(name string, size int64, elapsed time.Duration, status string) ui.TransferSummary {
	return ui.TransferSummary{
		Status:    ui.IconSuccess + " " + status,
		File:      utils.TruncateString(name, 40),
		TotalSize: utils.FormatSize(size),
		Duration:  utils.FormatTimeDuration(elapsed),
		Speed:     utils.FormatSpeed(utils.AverageSpeed(size, elapsed)),
	}
}
