package config

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig controls operator-facing diagnostics. Build log lines are
// written through the build listener and are not affected by it.
type LoggerConfig struct {
	DebugModeEnabled bool

	// FileLoggingEnabled adds a rolling log file next to the console output.
	// The fields below are ignored when it is false.
	FileLoggingEnabled bool
	Directory          string
	Filename           string
	// MaxSize in megabytes before the file is rolled.
	MaxSize    int
	MaxBackups int
	// MaxAge in days.
	MaxAge int
}

// LoggerConfigFromEnv builds a LoggerConfig from QG_* environment variables.
func LoggerConfigFromEnv(debugModeEnabled bool) LoggerConfig {
	conf := LoggerConfig{DebugModeEnabled: debugModeEnabled}

	if v, err := strconv.ParseBool(os.Getenv("QG_FILE_LOGGING_ENABLED")); err != nil || !v {
		return conf
	}

	conf.FileLoggingEnabled = true
	conf.Directory = getEnvOrDefault("QG_LOGS_DIRECTORY", "logs")
	conf.Filename = getEnvOrDefault("QG_LOGS_FILE_NAME", "qualitygates.log")
	conf.MaxSize = getEnvInt("QG_LOGS_MAX_SIZE", 10)
	conf.MaxBackups = getEnvInt("QG_LOGS_MAX_BACKUPS", 10)
	conf.MaxAge = getEnvInt("QG_LOGS_MAX_AGE", 10)
	return conf
}

// ConfigureLogger returns a logger writing to stderr and, if enabled, to a
// rolling file.
func ConfigureLogger(conf LoggerConfig) zerolog.Logger {
	writers := []io.Writer{
		zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
			w.Out = os.Stderr
			w.TimeFormat = time.RFC3339
		}),
	}
	if conf.FileLoggingEnabled {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(conf.Directory, conf.Filename),
			MaxSize:    conf.MaxSize,    // megabytes
			MaxBackups: conf.MaxBackups, // files
			MaxAge:     conf.MaxAge,     // days
		})
	}

	level := zerolog.InfoLevel
	if conf.DebugModeEnabled {
		level = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
}

func getEnvInt(envVar string, defaultValue int) int {
	v, err := strconv.Atoi(os.Getenv(envVar))
	if err != nil {
		return defaultValue
	}
	return v
}
