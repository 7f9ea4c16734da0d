// Package logging wraps log/slog with a console handler, a rotating JSON file
// handler and an HTTP access-log middleware.
package logging

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/eskulia/eskulia-api/config"
)

type LoggingService struct {
	Logger *slog.Logger
	file   *RotatingFile
	stop   context.CancelFunc
}

var DefaultLoggingService *LoggingService

// parseLogLevel maps a LOG_LEVEL string to a slog level, defaulting to info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetConsoleLogLevel picks the console level. Tests stay quiet unless verbose;
// staging and prod default to warn; an explicit LOG_LEVEL wins elsewhere.
func GetConsoleLogLevel(env config.Environment, logLevel string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}

	if logLevel != "" {
		return parseLogLevel(logLevel)
	}

	if env == config.EnvProduction || env == config.EnvStaging {
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

// GetFileLogLevel returns the level of the rotating file handler; the file keeps everything.
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

// InitLogger initializes the global logger instance from the configuration
func InitLogger(cfg *config.Config) {
	consoleLevel := GetConsoleLogLevel(cfg.Env, cfg.LogLevel, os.Getenv("VERBOSE") != "")
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: consoleLevel})

	service := &LoggingService{}

	file, err := NewRotatingFile(cfg.LogDir, cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	if err != nil {
		service.Logger = slog.New(console)
		service.Logger.Error("File logging disabled", "error", err)
	} else {
		ctx, cancel := context.WithCancel(context.Background())
		service.file = file
		service.stop = cancel
		go cleanupLoop(ctx, file)

		fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: GetFileLogLevel()})
		service.Logger = slog.New(&multiHandler{handlers: []slog.Handler{console, fileHandler}})
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
}

// Close stops retention cleanup and closes the log file
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.file == nil {
		return nil
	}
	DefaultLoggingService.stop()
	return DefaultLoggingService.file.Close()
}

func cleanupLoop(ctx context.Context, file *RotatingFile) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := file.Cleanup(); err != nil {
				Warn("Failed to cleanup old logs", "error", err)
			}
		}
	}
}

// Logger returns the configured logger or a stderr fallback before InitLogger runs
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return DefaultLoggingService.Logger
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// multiHandler fans records out to every handler that accepts their level
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if h.Enabled(ctx, r.Level) {
			if err := h.Handle(ctx, r.Clone()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
