// Package logger is the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

type Options struct {
	Level  string
	Prefix string
	Output io.Writer
}

var current atomic.Pointer[log.Logger]

func init() {
	current.Store(log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	}))
}

// Init replaces the global logger. It is safe to call more than once.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	current.Store(log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Level:           ParseLevel(opts.Level),
		Prefix:          opts.Prefix,
	}))
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// With returns a child logger carrying keyvals on every line.
func With(keyvals ...any) *log.Logger {
	return current.Load().With(keyvals...)
}

func Debug(message string, keyvals ...any) {
	current.Load().Debug(message, keyvals...)
}

func Info(message string, keyvals ...any) {
	current.Load().Info(message, keyvals...)
}

func Warn(message string, keyvals ...any) {
	current.Load().Warn(message, keyvals...)
}

func Error(message string, keyvals ...any) {
	current.Load().Error(message, keyvals...)
}

// Fatal logs and exits the process.
func Fatal(message string, keyvals ...any) {
	current.Load().Fatal(message, keyvals...)
}
