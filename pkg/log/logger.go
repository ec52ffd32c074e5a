// Package log configures the logrus logger shared by all capter packages.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup sets the level and output of the standard logger. Unknown levels
// fall back to warn so that normal runs only print the reporter output.
func Setup(logLevel string, debug bool) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	if debug {
		level = logrus.DebugLevel
	}

	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: !debug,
		FullTimestamp:    true,
	})
}

// WithModule returns a logger entry tagged with the module name.
func WithModule(module string) *logrus.Entry {
	return logrus.WithField("module", module)
}

// Discard returns a logger that drops everything. Used by tests and as the
// default for library types constructed without a logger.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
