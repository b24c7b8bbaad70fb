package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tameszaza/p2p/internal/config"
	"github.com/tameszaza/p2p/internal/console"
	"github.com/tameszaza/p2p/internal/dns"
	"github.com/tameszaza/p2p/internal/files"
	"github.com/tameszaza/p2p/internal/logging"
	"github.com/tameszaza/p2p/internal/session"
	"github.com/tameszaza/p2p/internal/signaling"
	"github.com/tameszaza/p2p/internal/transfer"
	"github.com/tameszaza/p2p/internal/ui"
	"github.com/tameszaza/p2p/internal/webrtc"
)

type sessionOptions struct {
	File   string
	Config config.Options
}

func sessionFlags() sessionOptions {
	return sessionOptions{
		File: flagFile,
		Config: config.Options{
			STUNServer:  flagSTUN,
			TURNServer:  flagTURN,
			TURNUser:    flagTURNUser,
			TURNPass:    flagTURNPass,
			ForceRelay:  flagRelay,
			OutputDir:   flagDir,
			ChunkSize:   flagChunkSize,
			ByeCloses:   flagByeCloses,
			NoDeparture: flagNoDeparture,
			KeepAlive:   flagKeepAlive,
			Greeting:    flagGreeting,
			Encoding:    flagEncoding,
			LogFile:     flagLogFile,
		},
	}
}

func LoadConfig(opts config.Options) (*config.Config, error) {
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, transfer.NewError("load config", err)
	}
	return cfg, nil
}

// prepareFile validates the file to send and shows it. The name is checked
// against the announcement rules before any connection is made. A directory
// is zipped first; the caller must Cleanup the result.
func prepareFile(path string) (*files.FileInfo, error) {
	s := ui.NewWaitingSpinner(os.Stdout, "Preparing "+path+"...")
	s.Start()
	info, err := files.Prepare(path)
	s.Stop()
	if err != nil {
		return nil, transfer.NewFileError("prepare", path, err)
	}
	if err := transfer.ValidateFileName(info.Name); err != nil {
		info.Cleanup()
		return nil, transfer.NewFileError("prepare", path, err)
	}

	fmt.Println()
	ui.RenderFileTable(os.Stdout, []ui.FileTableItem{{
		Name:     info.Name,
		Size:     info.Size,
		Type:     info.Type,
		Archived: info.Archived,
	}})
	fmt.Println()
	return info, nil
}

func runSession(parent context.Context, role session.Role, opts sessionOptions) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return err
	}
	if cfg.LogFile != "" {
		sink := logging.InitFile(cfg.LogFile)
		defer sink.Close()
	}

	var file *files.FileInfo
	if opts.File != "" {
		if file, err = prepareFile(opts.File); err != nil {
			return err
		}
		defer file.Cleanup()
	}

	peer := session.NewPeerSession(role, opts.File)
	logger := slog.Default().With("session", peer.ID, "role", string(role))
	logger.Info("starting session", "file", opts.File, "stun", cfg.STUNServer, "turn", cfg.TURNServer != "")

	engine, err := webrtc.NewEngine(webrtc.ICEConfiguration(cfg, dns.Lookup), logger)
	if err != nil {
		return transfer.NewError("create peer connection", err)
	}
	defer engine.Close()

	reader := console.NewReader(os.Stdin)
	defer reader.Stop()

	exchange := signaling.NewExchanger(os.Stdout, reader.Lines(), cfg.Encoding)
	negotiator := session.NewNegotiator(engine, exchange, transfer.ChannelLabel, logger)

	ch, err := negotiator.Negotiate(ctx, role)
	switch {
	case errors.Is(err, context.Canceled):
		ui.PrintInfo("Interrupted before the connection was established.")
		return nil
	case err != nil:
		logger.Error("handshake failed", "error", err)
		return err
	}
	peer.Attach(ch)

	spinner := ui.NewConnectionSpinner(os.Stdout, "Waiting for the data channel to open...")
	spinner.Start()
	defer spinner.Stop()

	observer := transfer.NewConsoleObserver(os.Stdout)
	observer.Interactive = stdoutIsTerminal()
	observer.ChatMode = file == nil
	observer.OnOpen = spinner.Stop

	topts := transfer.Options{
		ChunkSize:         cfg.ChunkSize,
		OutputDir:         cfg.OutputDir,
		ByeClosesChannel:  cfg.ByeClosesChannel,
		AnnounceDeparture: cfg.AnnounceDeparture,
		Greeting:          cfg.Greeting,
		KeepAlive:         cfg.KeepAlive,
		SessionID:         peer.ID,
		Logger:            logger,
	}
	if file != nil {
		topts.FilePath = file.Path
		topts.FileName = file.Name
	}

	started := time.Now()
	te := transfer.NewEngine(ch, reader.Lines(), observer, topts)
	runErr := te.Run(ctx)
	spinner.Stop()

	if err := ch.Close(); err != nil {
		logger.Debug("close data channel", "error", err)
	}
	if err := reader.Err(); err != nil {
		logger.Warn("console input failed", "error", err)
	}
	logger.Info("session ended", "state", peer.State().String(), "error", runErr)

	stats := te.Stats()
	fmt.Println()
	ui.RenderSessionSummary(os.Stdout, ui.SessionSummary{
		SessionID:     peer.ID,
		Role:          string(role),
		Duration:      time.Since(started),
		ChatSent:      stats.ChatSent,
		ChatReceived:  stats.ChatReceived,
		FilesSent:     stats.FilesSent,
		BytesSent:     stats.BytesSent,
		FilesReceived: stats.FilesReceived,
		BytesReceived: stats.BytesReceived,
		Warnings:      stats.ProtocolWarnings,
		Incomplete:    stats.IncompleteReceive,
	})

	return runErr
}
