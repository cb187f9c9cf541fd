// Package obslog builds the process-wide structured logger and a helper
// for attaching a perception-local timestamp to a log entry.
package obslog

import (
	"io"
	"os"
	"strings"

	"github.com/asgard/heimdall/internal/clock"
	"github.com/sirupsen/logrus"
)

// New builds a *logrus.Logger at the given level, writing JSON lines to
// output ("stdout" or a file path). A file that cannot be opened falls
// back to stdout with a warning on the fallback logger itself.
func New(level string, output string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)

	var w io.Writer = os.Stdout
	if output != "" && output != "stdout" {
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger.SetOutput(os.Stdout)
			logger.Warnf("obslog: could not open log file %q, falling back to stdout: %v", output, err)
		} else {
			w = f
		}
	}
	logger.SetOutput(w)
	return logger
}

// Frame returns a *logrus.Entry carrying the given local timestamp as a
// field, so every log line in the perception path is traceable to the
// tick that produced it without threading a context value through every
// call.
func Frame(logger *logrus.Logger, ts clock.Timestamp[clock.Local]) *logrus.Entry {
	return logger.WithField("local_ts_us", ts.Micros)
}

// FrameError is a convenience wrapper combining Frame with an error
// field, the common case at a component boundary.
func FrameError(logger *logrus.Logger, ts clock.Timestamp[clock.Local], err error) *logrus.Entry {
	return Frame(logger, ts).WithError(err)
}
