package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/tameszaza/p2p/internal/webrtc"
)

// Observer is told about everything the operator should see. Calls are made
// from the engine's dispatch goroutine, except SendProgress which comes from
// the file-send goroutine.
type Observer interface {
	ChannelOpened(label string)
	ChatReceived(text string)
	ChatEnded(announced bool)
	SendStarted(meta FileMetadata)
	SendProgress(meta FileMetadata, sent int64)
	SendFinished(meta FileMetadata, elapsed time.Duration, err error)
	ReceiveStarted(w *FileWriter)
	ReceiveProgress(w *FileWriter)
	ReceiveCompleted(w *FileWriter)
	ReceiveFailed(w *FileWriter, err error)
	Warning(err error)
	ChannelClosed(err error)
}

// Options configures an Engine.
type Options struct {
	// FilePath, when set, is sent as soon as the channel opens instead of
	// starting the chat loop.
	FilePath string
	// FileName overrides the announced name of FilePath.
	FileName  string
	ChunkSize int
	OutputDir string

	ByeClosesChannel  bool
	AnnounceDeparture bool
	Greeting          string
	KeepAlive         time.Duration

	SessionID string
	Logger    *slog.Logger
}

// Stats counts what happened during a session.
type Stats struct {
	ChatSent          int
	ChatReceived      int
	FilesSent         int
	BytesSent         int64
	FilesReceived     int
	BytesReceived     int64
	ProtocolWarnings  int
	IncompleteReceive int
}

type sendResult struct {
	meta    FileMetadata
	sent    int64
	elapsed time.Duration
	err     error
}

// Engine owns one data channel for its whole life: a single dispatch loop
// reacts to channel events, console lines and the outcome of a file send.
type Engine struct {
	channel  webrtc.Channel
	lines    <-chan string
	observer Observer
	opts     Options
	logger   *slog.Logger

	inbound    *Inbound
	lastReport time.Time

	mu    sync.Mutex
	state webrtc.State
	stats Stats
}

// NewEngine prepares an engine for ch. lines feeds the chat loop and may be
// nil when no console is attached.
func NewEngine(ch webrtc.Channel, lines <-chan string, observer Observer, opts Options) *Engine {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = ChunkSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		channel:  ch,
		lines:    lines,
		observer: observer,
		opts:     opts,
		logger:   logger.With("channel", ch.Label()),
		inbound:  NewInbound(&TransferOptions{OutputDir: opts.OutputDir}),
		state:    webrtc.StateConnecting,
	}
}

// State returns the engine's view of the channel.
func (e *Engine) State() webrtc.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Stats returns a snapshot of the session counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) setState(s webrtc.State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) count(f func(*Stats)) {
	e.mu.Lock()
	f(&e.stats)
	e.mu.Unlock()
}

// Run dispatches until the channel closes, fails or ctx is cancelled. It
// returns an error wrapping ErrIncompleteTransfer when an inbound file was
// cut short, or ErrTransportFailure when the channel failed.
func (e *Engine) Run(ctx context.Context) error {
	sendCtx, cancelSend := context.WithCancel(ctx)
	defer cancelSend()

	var (
		lines     <-chan string
		sendDone  chan sendResult
		keepAlive <-chan time.Time
	)

	events := e.channel.Events()
	for {
		select {
		case <-ctx.Done():
			e.logger.Debug("session interrupted")
			return e.finish(nil)

		case ev := <-events:
			switch ev.Type {
			case webrtc.EventOpen:
				if e.State() != webrtc.StateConnecting {
					continue
				}
				e.setState(webrtc.StateOpen)
				e.observer.ChannelOpened(e.channel.Label())
				e.greet()

				if e.opts.KeepAlive > 0 {
					ticker := time.NewTicker(e.opts.KeepAlive)
					defer ticker.Stop()
					keepAlive = ticker.C
				}

				if e.opts.FilePath != "" {
					sendDone = make(chan sendResult, 1)
					go e.sendFile(sendCtx, sendDone)
				} else {
					lines = e.lines
				}

			case webrtc.EventMessage:
				e.handleMessage(ev.Message)

			case webrtc.EventClose:
				e.logger.Debug("channel closed by peer")
				return e.finish(nil)

			case webrtc.EventError:
				e.logger.Warn("transport failure", "error", ev.Err)
				return e.finish(fmt.Errorf("%w: %v", ErrTransportFailure, ev.Err))
			}

		case line, ok := <-lines:
			if !ok {
				e.logger.Debug("console input ended")
				lines = nil
				continue
			}
			if stop := e.handleLine(line); stop {
				lines = nil
				if e.opts.ByeClosesChannel {
					if err := e.channel.Flush(ctx); err != nil {
						e.logger.Debug("departure not flushed", "error", err)
					}
					_ = e.channel.Close()
					return e.finish(nil)
				}
			}

		case res := <-sendDone:
			sendDone = nil
			if res.err == nil {
				e.count(func(s *Stats) {
					s.FilesSent++
					s.BytesSent += res.sent
				})
			}
			e.observer.SendFinished(res.meta, res.elapsed, res.err)

		case <-keepAlive:
			if err := e.channel.SendText(EncodeKeepAlive()); err != nil {
				e.logger.Debug("keep-alive not sent", "error", err)
			}
		}
	}
}

func (e *Engine) greet() {
	if e.opts.Greeting == "" {
		return
	}
	if err := e.channel.SendText(e.opts.Greeting); err != nil {
		e.observer.Warning(NewError("send greeting", err))
		return
	}
	e.count(func(s *Stats) { s.ChatSent++ })
}

func (e *Engine) sendFile(ctx context.Context, done chan<- sendResult) {
	name := e.opts.FileName
	if name == "" {
		name = filepath.Base(e.opts.FilePath)
	}

	started := time.Now()
	meta := FileMetadata{FileName: name}
	var lastReport time.Time

	sender := NewFileSender(e.channel, e.opts.ChunkSize)
	sender.OnStart = func(m FileMetadata) {
		meta = m
		started = time.Now()
		e.observer.SendStarted(m)
	}
	sent, err := sender.SendFile(ctx, e.opts.FilePath, name, func(sent int64) {
		if now := time.Now(); now.Sub(lastReport) >= progressInterval || sent >= meta.FileSize {
			lastReport = now
			e.observer.SendProgress(meta, sent)
		}
	})

	done <- sendResult{meta: meta, sent: sent, elapsed: time.Since(started), err: err}
}

// handleLine forwards one console line as chat. It reports true when the
// line ended the chat loop.
func (e *Engine) handleLine(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}

	if IsBye(line) {
		announced := false
		if e.opts.AnnounceDeparture {
			if err := e.channel.SendText(DepartureNotice); err != nil {
				e.observer.Warning(NewError("announce departure", err))
			} else {
				announced = true
				e.count(func(s *Stats) { s.ChatSent++ })
			}
		}
		e.observer.ChatEnded(announced)
		return true
	}

	if err := e.channel.SendText(line); err != nil {
		e.observer.Warning(NewError("send message", err))
		return false
	}
	e.count(func(s *Stats) { s.ChatSent++ })
	return false
}

func (e *Engine) handleMessage(msg webrtc.Message) {
	if !msg.IsString {
		e.handleChunk(msg.Data)
		return
	}

	text := msg.Text()
	kind, meta, err := ParseControl(text)
	switch {
	case err != nil:
		e.count(func(s *Stats) { s.ProtocolWarnings++ })
		e.observer.Warning(err)
	case kind == KindKeepAlive:
		e.logger.Debug("keep-alive received")
	case kind == KindFileMeta:
		e.handleAnnouncement(meta)
	default:
		e.count(func(s *Stats) { s.ChatReceived++ })
		e.observer.ChatReceived(text)
	}
}

func (e *Engine) handleAnnouncement(meta FileMetadata) {
	w, done, err := e.inbound.Begin(meta)

	var conflict *ConflictError
	switch {
	case errors.As(err, &conflict):
		e.count(func(s *Stats) { s.ProtocolWarnings++ })
		e.observer.Warning(err)
		e.incomplete(conflict.Dropped, "superseded by "+meta.FileName)
		return
	case err != nil:
		e.observer.Warning(err)
		return
	}

	e.logger.Info("receiving file", "name", meta.FileName, "size", meta.FileSize, "path", w.Path)
	if prev := earlierPartial(e.opts.OutputDir, meta.FileName); prev != nil {
		e.observer.Warning(fmt.Errorf("earlier transfer was incomplete (%s), saving to %s", prev, w.Path))
	}
	e.observer.ReceiveStarted(w)
	if done {
		e.completed(w)
	}
}

func (e *Engine) handleChunk(data []byte) {
	w, done, err := e.inbound.Append(data)
	switch {
	case errors.Is(err, ErrProtocolViolation):
		e.count(func(s *Stats) { s.ProtocolWarnings++ })
		e.logger.Warn("discarding chunk", "bytes", len(data))
		e.observer.Warning(err)
		return
	case err != nil && !done:
		e.incomplete(w, err.Error())
		return
	case err != nil:
		e.observer.Warning(err)
	}

	if done {
		e.completed(w)
		return
	}
	if now := time.Now(); now.Sub(e.lastReport) >= progressInterval {
		e.lastReport = now
		e.observer.ReceiveProgress(w)
	}
}

func (e *Engine) completed(w *FileWriter) {
	if over := w.Overshoot(); over > 0 {
		e.logger.Warn("final chunk exceeded announced size", "name", w.Metadata.FileName, "extra", over)
	}
	e.count(func(s *Stats) {
		s.FilesReceived++
		s.BytesReceived += w.ReceivedBytes
	})
	e.observer.ReceiveCompleted(w)
}

func (e *Engine) incomplete(w *FileWriter, reason string) error {
	if w == nil {
		return nil
	}
	e.count(func(s *Stats) { s.IncompleteReceive++ })

	err := &TransferError{
		Op:      "receive",
		File:    w.Metadata.FileName,
		Err:     ErrIncompleteTransfer,
		Details: fmt.Sprintf("%d of %d bytes, %s", w.ReceivedBytes, w.Metadata.FileSize, reason),
	}
	if _, jerr := WritePartialRecord(w, reason, e.opts.SessionID); jerr != nil {
		e.logger.Warn("partial record not written", "error", jerr)
	}
	e.observer.ReceiveFailed(w, err)
	return err
}

func (e *Engine) finish(cause error) error {
	e.setState(webrtc.StateClosed)

	var incomplete error
	if w := e.inbound.Abort(); w != nil {
		incomplete = e.incomplete(w, "channel closed")
	}

	e.observer.ChannelClosed(cause)
	return errors.Join(cause, incomplete)
}
