// Package logger provides the diagnostic logger for uartwatch using Logrus.
// Console lines themselves go to the logfile package; this logger carries the
// monitor's own operational messages and collaborator failures.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log            *logrus.Logger
	mu             sync.RWMutex
	currentLogFile io.Closer
)

func init() {
	log = logrus.New()
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
}

// Initialize sets up the global logger.
//   - level: debug, info, warn, error
//   - format: json or text
//   - output: stdout, stderr or file
//   - outputFile: file path when output is "file"
func Initialize(level, format, output, outputFile string) error {
	mu.Lock()
	defer mu.Unlock()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	next := logrus.New()
	next.SetLevel(lvl)

	switch format {
	case "json":
		next.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "text", "":
		next.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", format)
	}

	var closer io.Closer
	switch output {
	case "stderr", "":
		next.SetOutput(os.Stderr)
	case "stdout":
		next.SetOutput(os.Stdout)
	case "file":
		if outputFile == "" {
			return fmt.Errorf("log file must be specified when log output is 'file'")
		}
		f, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", outputFile, err)
		}
		next.SetOutput(f)
		closer = f
	default:
		return fmt.Errorf("invalid log output %q: must be stdout, stderr, or file", output)
	}

	if currentLogFile != nil {
		if err := currentLogFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close previous log file: %v\n", err)
		}
	}
	currentLogFile = closer
	log = next
	return nil
}

// Get returns the global logger instance.
func Get() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithField returns a logger entry with a single structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Get().WithField(key, value)
}

// WithError returns a logger entry with an error field.
func WithError(err error) *logrus.Entry {
	return Get().WithError(err)
}

// Close closes the log file if one is open. It is safe to call more than once.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if currentLogFile != nil {
		err := currentLogFile.Close()
		currentLogFile = nil
		return err
	}
	return nil
}
