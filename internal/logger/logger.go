// Package logger holds the process-wide structured logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the shared logger. It is usable before Init is called.
var Log = logrus.New()

// Init configures the shared logger. Empty arguments fall back to the
// DRACONIC_LOG_LEVEL and DRACONIC_LOG_FORMAT environment variables, then to
// "info" and "text".
func Init(level, format string) {
	if level == "" {
		level = os.Getenv("DRACONIC_LOG_LEVEL")
	}
	if format == "" {
		format = os.Getenv("DRACONIC_LOG_FORMAT")
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	if strings.EqualFold(format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	Log.SetOutput(os.Stderr)
}

// Discard returns a logger that drops everything. Tests and the TUI use it.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
