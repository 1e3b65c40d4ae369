// Package common provides shared utilities for finapp
package common

import (
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"
)

// Logger wraps arbor.ILogger to provide a consistent interface
type Logger struct {
	arbor.ILogger
}

// NewLogger creates a console logger with the specified level
func NewLogger(level string) *Logger {
	logger := arbor.NewLogger().
		WithConsoleWriter(consoleWriter()).
		WithLevelFromString(normalizeLevel(level))
	return &Logger{ILogger: logger}
}

// NewLoggerFromConfig creates a logger writing to the configured outputs.
// A file output whose directory cannot be created is skipped.
func NewLoggerFromConfig(cfg LoggingConfig) *Logger {
	logger := arbor.NewLogger()

	hasConsole := len(cfg.Outputs) == 0
	for _, output := range cfg.Outputs {
		switch output {
		case "console", "stdout":
			hasConsole = true
		case "file":
			if cfg.FilePath == "" {
				continue
			}
			if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
				continue
			}
			logger = logger.WithFileWriter(arbormodels.WriterConfiguration{
				Type:       arbormodels.LogWriterTypeFile,
				FileName:   cfg.FilePath,
				TimeFormat: "15:04:05",
				MaxSize:    100 * 1024 * 1024,
				MaxBackups: 3,
				TextOutput: cfg.Format != "json",
			})
		}
	}
	if hasConsole {
		logger = logger.WithConsoleWriter(consoleWriter())
	}

	return &Logger{ILogger: logger.WithLevelFromString(normalizeLevel(cfg.Level))}
}

// NewDefaultLogger creates a logger with default settings
func NewDefaultLogger() *Logger {
	return NewLogger("info")
}

// NewSilentLogger creates a logger that discards all output
func NewSilentLogger() *Logger {
	return &Logger{ILogger: arbor.NewNoOpLogger()}
}

func consoleWriter() arbormodels.WriterConfiguration {
	return arbormodels.WriterConfiguration{
		Type:       arbormodels.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
		TextOutput: true,
	}
}

func normalizeLevel(level string) string {
	switch level {
	case "debug", "info", "warn", "error":
		return level
	default:
		return "info"
	}
}
