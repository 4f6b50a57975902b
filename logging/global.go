// Package logging wires slog for the service: console text output plus a
// weekly rotating JSON file, and package-level helpers usable before init.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/giygas/govdata-api/config"
)

type LoggingService struct {
	Logger  *slog.Logger
	rotator *RotatingLogger
}

var DefaultLoggingService *LoggingService

// InitLogger initializes the global logger with console output only when
// logDir is empty, or console plus rotating file otherwise.
func InitLogger(logDir string) {
	InitLoggerWithOptions(Options{
		LogDir:         logDir,
		Env:            config.EnvDevelopment,
		RetentionWeeks: 4,
		MaxFileSize:    100 * 1024 * 1024,
	})
}

// Options configure InitLoggerWithOptions
type Options struct {
	LogDir         string
	Env            config.Environment
	Level          string
	Verbose        bool
	RetentionWeeks int
	MaxFileSize    int64
}

// InitLoggerWithOptions builds the global logger from explicit options
func InitLoggerWithOptions(opts Options) {
	if DefaultLoggingService != nil && DefaultLoggingService.rotator != nil {
		_ = DefaultLoggingService.rotator.Close()
	}

	consoleHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: GetConsoleLogLevel(opts.Env, opts.Level, opts.Verbose),
	})

	service := &LoggingService{}
	if opts.LogDir == "" {
		service.Logger = slog.New(consoleHandler)
	} else {
		rotator, err := NewRotatingLogger(opts.LogDir, opts.RetentionWeeks, opts.MaxFileSize)
		if err != nil {
			service.Logger = slog.New(consoleHandler)
			service.Logger.Error("Failed to initialize rotating logger", "error", err)
		} else {
			service.rotator = rotator
			fileHandler := slog.NewJSONHandler(rotator, &slog.HandlerOptions{Level: GetFileLogLevel()})
			service.Logger = slog.New(&multiHandler{handlers: []slog.Handler{consoleHandler, fileHandler}})
		}
	}

	DefaultLoggingService = service
	slog.SetDefault(service.Logger)
}

// Close flushes and closes the log file, if any
func Close() error {
	if DefaultLoggingService == nil || DefaultLoggingService.rotator == nil {
		return nil
	}
	return DefaultLoggingService.rotator.Close()
}

// Logger returns the global logger or a console fallback
func Logger() *slog.Logger {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		return fallback(slog.LevelDebug)
	}
	return DefaultLoggingService.Logger
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// GetConsoleLogLevel picks the console level. An explicit level wins except in
// tests, which stay quiet unless verbose.
func GetConsoleLogLevel(env config.Environment, level string, verbose bool) slog.Level {
	if env == config.EnvTest {
		if verbose {
			return slog.LevelInfo
		}
		return slog.LevelError
	}
	if level != "" {
		return parseLogLevel(level)
	}
	switch env {
	case config.EnvProduction, config.EnvStaging:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// GetFileLogLevel is always debug; the file is the full record
func GetFileLogLevel() slog.Level {
	return slog.LevelDebug
}

func fallback(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Package-level functions for direct access

func Info(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelInfo).Info(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Info(msg, args...)
}

func Error(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelError).Error(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Error(msg, args...)
}

func Warn(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelWarn).Warn(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Warn(msg, args...)
}

func Debug(msg string, args ...any) {
	if DefaultLoggingService == nil || DefaultLoggingService.Logger == nil {
		fallback(slog.LevelDebug).Debug(msg, args...)
		return
	}
	DefaultLoggingService.Logger.Debug(msg, args...)
}

// Discard silences the global logger, for tests
func Discard() {
	DefaultLoggingService = &LoggingService{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	slog.SetDefault(DefaultLoggingService.Logger)
}
