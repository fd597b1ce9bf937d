/**
 * @description
 * Structured logger for the CoinPulse backend.
 * Info and warning messages go to stdout, errors to stderr, so log collectors can
 * tell them apart without parsing.
 *
 * @dependencies
 * - github.com/sirupsen/logrus: leveled logging with text/JSON formatters
 *
 * @notes
 * - Text output by default; Configure switches to JSON for production.
 */

package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// InfoLogger writes to stdout
	InfoLogger *logrus.Logger
	// ErrorLogger writes to stderr (for actual errors)
	ErrorLogger *logrus.Logger
)

func init() {
	InfoLogger = New(os.Stdout)
	ErrorLogger = New(os.Stderr)
}

// Configure applies the environment's output format and the minimum level
func Configure(env, level string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	for _, l := range []*logrus.Logger{InfoLogger, ErrorLogger} {
		l.SetLevel(lvl)
		if env == "production" {
			l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
		}
	}
	return nil
}

// Info logs an info message to stdout
func Info(format string, v ...interface{}) {
	InfoLogger.Infof(format, v...)
}

// Warn logs a recoverable problem to stdout
func Warn(format string, v ...interface{}) {
	InfoLogger.Warnf(format, v...)
}

// Error logs an error message to stderr
func Error(format string, v ...interface{}) {
	ErrorLogger.Errorf(format, v...)
}

// Fatal logs an error and exits
func Fatal(format string, v ...interface{}) {
	ErrorLogger.Fatalf(format, v...)
}

// With returns an stdout entry carrying the given fields
func With(fields map[string]interface{}) *logrus.Entry {
	return InfoLogger.WithFields(fields)
}

// New creates a new logger that writes to the specified writer
func New(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		DisableColors:   true,
	})
	return l
}
