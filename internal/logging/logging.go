package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// ParseLevel maps LOG_LEVEL values to slog levels.
func ParseLevel(value string, fallback slog.Level) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	}
	return fallback
}

// Init installs the default logger. Output goes to stderr at the level from
// LOG_LEVEL (errors only by default).
func Init() {
	level := ParseLevel(os.Getenv("LOG_LEVEL"), slog.LevelError)
	slog.SetDefault(New(os.Stderr, level))
}

// InitFile redirects logging to a rotating file so the terminal stays free
// for the chat. The returned closer flushes the file.
func InitFile(path string) io.Closer {
	sink := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	}
	level := ParseLevel(os.Getenv("LOG_LEVEL"), slog.LevelInfo)
	slog.SetDefault(New(sink, level))
	return sink
}

// New returns a text logger writing to w.
func New(w io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
