package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/xrpscan/tezsync/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log stays a no-op logger until New is called.
var Log = zerolog.Nop()
var loggerOnce sync.Once

func New() {
	loggerOnce.Do(func() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		level, err := zerolog.ParseLevel(config.EnvLogLevel())
		if err == nil && config.EnvLogLevel() != "" {
			zerolog.SetGlobalLevel(level)
		}

		// Console writer goes to stderr so the CLI can print JSON on stdout
		consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}

		var writers []io.Writer
		writers = append(writers, consoleWriter)

		if config.EnvLogFileEnabled() {
			logFilePath := config.EnvLogFilePath()
			if logFilePath == "" {
				logFilePath = "logs/tezsync.log"
			}

			logDir := filepath.Dir(logFilePath)
			if err := os.MkdirAll(logDir, 0755); err != nil {
				// If we can't create directory, just log to console
				tempLogger := zerolog.New(consoleWriter).With().Timestamp().Logger()
				tempLogger.Error().
					Err(err).Str("log_dir", logDir).Msg("Failed to create log directory, logging to console only")
			} else {
				fileWriter := &lumberjack.Logger{
					Filename:   logFilePath,
					MaxSize:    config.EnvLogFileMaxSize(), // MB
					MaxBackups: config.EnvLogFileMaxBackups(),
					MaxAge:     config.EnvLogFileMaxAge(), // days
					Compress:   true,
				}
				writers = append(writers, fileWriter)

				tempLogger := zerolog.New(consoleWriter).With().Timestamp().Logger()
				tempLogger.Info().
					Str("log_file", logFilePath).
					Int("max_size_mb", config.EnvLogFileMaxSize()).
					Int("max_backups", config.EnvLogFileMaxBackups()).
					Int("max_age_days", config.EnvLogFileMaxAge()).
					Msg("File logging enabled")
			}
		}

		multiWriter := io.MultiWriter(writers...)
		Log = zerolog.New(multiWriter).With().Timestamp().Logger()
	})
}
