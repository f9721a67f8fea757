package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with application-specific methods
type Logger struct {
	zerolog.Logger
}

// New creates a new Logger instance
func New(level string, format string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var logger zerolog.Logger

	if format == "text" || format == "console" {
		// Human-readable output for development
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		logger = zerolog.New(output).With().Timestamp().Caller().Logger()
	} else {
		logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
	}

	return &Logger{Logger: logger}
}

// NewWithWriter creates a JSON logger writing to w. Used by tests that inspect log output.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{Logger: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// WithRequestID returns a new logger with the request ID attached
func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{
		Logger: l.With().Str("request_id", requestID).Logger(),
	}
}

// WithComponent returns a new logger with the component name attached
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger: l.With().Str("component", component).Logger(),
	}
}

// HTTPRequest logs an HTTP request
func (l *Logger) HTTPRequest(method, path string, statusCode int, duration time.Duration, clientIP string) {
	l.Info().
		Str("method", method).
		Str("path", path).
		Int("status", statusCode).
		Dur("duration", duration).
		Str("client_ip", clientIP).
		Msg("HTTP request")
}

// DispatchOutcome logs the result of one recipient of a bulk dispatch
func (l *Logger) DispatchOutcome(email, delivery, writeBack string, row int, errText string) {
	event := l.Info()
	if errText != "" {
		event = l.Warn().Str("error", errText)
	}
	event = event.
		Str("recipient", email).
		Str("delivery", delivery).
		Str("write_back", writeBack)
	if row > 0 {
		event = event.Int("row", row)
	}
	event.Msg("dispatch outcome")
}
