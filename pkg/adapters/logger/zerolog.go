package logger

import (
	"os"

	"github.com/ideamans/go-l10n"
	"github.com/rs/zerolog"
	"github.com/user/revid/pkg/ports"
)

// ZerologLogger emits structured JSON log lines via zerolog. It is selected
// with --log-format json for machine-readable batch runs.
type ZerologLogger struct {
	logger zerolog.Logger
	level  ports.LogLevel
}

// NewZerolog creates a zerolog-backed logger writing JSON to stderr.
func NewZerolog(level ports.LogLevel) *ZerologLogger {
	zl := zerolog.New(os.Stderr).With().Timestamp().Logger()
	return &ZerologLogger{
		logger: zl,
		level:  level,
	}
}

// Debug logs a debug message.
func (l *ZerologLogger) Debug(msg string, args ...interface{}) {
	if l.level > ports.LevelDebug {
		return
	}
	l.logger.Debug().Msg(l10n.F(msg, args...))
}

// Info logs an informational message.
func (l *ZerologLogger) Info(msg string, args ...interface{}) {
	if l.level > ports.LevelInfo {
		return
	}
	l.logger.Info().Msg(l10n.F(msg, args...))
}

// Warn logs a warning message.
func (l *ZerologLogger) Warn(msg string, args ...interface{}) {
	if l.level > ports.LevelWarn {
		return
	}
	l.logger.Warn().Msg(l10n.F(msg, args...))
}

// Error logs an error message.
func (l *ZerologLogger) Error(msg string, args ...interface{}) {
	if l.level > ports.LevelError {
		return
	}
	l.logger.Error().Msg(l10n.F(msg, args...))
}

// WithComponent returns a logger tagging messages with the component name.
func (l *ZerologLogger) WithComponent(component string) ports.Logger {
	return &ZerologLogger{
		logger: l.logger.With().Str("component", component).Logger(),
		level:  l.level,
	}
}

var _ ports.Logger = (*ZerologLogger)(nil)
