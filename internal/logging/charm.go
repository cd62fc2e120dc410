package logging

import (
	"io"

	charmlog "github.com/charmbracelet/log"
)

// charmBackend routes Logger calls through charmbracelet/log, giving
// operators a colorized, structured console sink as an alternative to the
// plain stdlib text backend.
type charmBackend struct {
	logger *charmlog.Logger
}

func (b *charmBackend) log(level LogLevel, msg string, args []any) {
	switch level {
	case LevelDebug:
		b.logger.Debug(msg, args...)
	case LevelWarn:
		b.logger.Warn(msg, args...)
	case LevelError:
		b.logger.Error(msg, args...)
	default:
		b.logger.Info(msg, args...)
	}
}

func toCharmLevel(level LogLevel) charmlog.Level {
	switch level {
	case LevelDebug:
		return charmlog.DebugLevel
	case LevelWarn:
		return charmlog.WarnLevel
	case LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

// NewCharmLogger returns a Logger backed by charmbracelet/log's pretty
// console writer. Intended for interactive use (cmd/nodesim's -log=pretty);
// the plain stdlib-backed Logger remains the default for headless runs.
func NewCharmLogger(w io.Writer, level LogLevel) *Logger {
	cl := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           toCharmLevel(level),
		ReportTimestamp: true,
	})
	return &Logger{
		level:   level,
		backend: &charmBackend{logger: cl},
	}
}
