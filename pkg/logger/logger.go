package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/movie-recommender/config"
	"github.com/rs/zerolog"
)

// Fields carries structured context attached to a single log event
type Fields map[string]any

type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates a structured logger with validation and defaults
func NewLogger(cfg *config.LoggingConfig) (*Logger, error) {
	level := cfg.Level
	if level == "" {
		level = "info"
	}

	format := cfg.Format
	if format == "" {
		format = "json"
	}

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "movie-recommender"
	}

	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level '%s': %v", level, err)
	}

	var output io.Writer
	switch format {
	case "console":
		output = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	case "stdout":
		// JSON without the log file, for containers that collect stdout
		output = os.Stdout
	default:
		logDir := "./logs"
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %v", err)
		}

		logFile := fmt.Sprintf("%s/%s-%s.log", logDir, serviceName, time.Now().Format("2006-01-02"))
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %v", err)
		}
		output = io.MultiWriter(os.Stdout, file)
	}

	logger := zerolog.New(output).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	return &Logger{logger: logger}, nil
}

// NewNop returns a logger that discards everything, used by tests and tools
func NewNop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *Logger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func (l *Logger) Fatal(msg string) {
	l.logger.Fatal().Msg(msg)
}

// InfoFields logs msg at info level with structured fields
func (l *Logger) InfoFields(msg string, fields Fields) {
	l.logger.Info().Fields(map[string]any(fields)).Msg(msg)
}

// ErrorFields logs msg at error level with the error and structured fields
func (l *Logger) ErrorFields(msg string, err error, fields Fields) {
	l.logger.Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}

// WithComponent returns a logger instance with component context
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("component", component).Logger(),
	}
}

// WithFields returns a child logger that stamps every event with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	return &Logger{
		logger: l.logger.With().Fields(map[string]any(fields)).Logger(),
	}
}
