// Package logging provides structured logging functionality.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "tecl-trader", "logs", "trader.log"),
		MaxSize:    50,
		MaxBackups: 7,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stdout
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// SetDebugLevel sets the global log level to debug.
func SetDebugLevel() {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

// WithTrader adds a trader id to the logger context.
func WithTrader(logger zerolog.Logger, traderID string) zerolog.Logger {
	return logger.With().Str("trader_id", traderID).Logger()
}

// LogTrade logs an executed transition.
func LogTrade(logger zerolog.Logger, date time.Time, action string, shares int64, price float64) {
	logger.Info().
		Str("event", "trade").
		Str("date", date.Format("2006-01-02")).
		Str("action", action).
		Int64("shares", shares).
		Float64("price", price).
		Msg("Trade executed")
}

// LogSignal logs an evaluated signal, traded or not.
func LogSignal(logger zerolog.Logger, date time.Time, action, reason string) {
	logger.Debug().
		Str("event", "signal").
		Str("date", date.Format("2006-01-02")).
		Str("action", action).
		Str("reason", reason).
		Msg("Signal evaluated")
}

// LogSkip logs a session that produced no decision.
func LogSkip(logger zerolog.Logger, date time.Time, reason string) {
	logger.Debug().
		Str("event", "skip").
		Str("date", date.Format("2006-01-02")).
		Str("reason", reason).
		Msg("Session skipped")
}
