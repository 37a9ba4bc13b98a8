package logger

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// aliases accepts the npm level names used by winston-style configurations.
// verbose ranks with debug, silly with trace.
var aliases = map[string]logrus.Level{
	"http":    logrus.InfoLevel,
	"verbose": logrus.DebugLevel,
	"silly":   logrus.TraceLevel,
}

// ParseLevel maps a configured console level name onto a logrus severity, so
// thresholds on files and notification channels can be compared.
func ParseLevel(name string) (logrus.Level, error) {
	name = strings.TrimSpace(name)
	if lvl, ok := aliases[strings.ToLower(name)]; ok {
		return lvl, nil
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return 0, fmt.Errorf("unknown level %q: %w", name, err)
	}
	return lvl, nil
}

// Admits reports whether a message at level passes the threshold min.
// Unknown level names never pass.
func Admits(min logrus.Level, level string) bool {
	lvl, err := ParseLevel(level)
	if err != nil {
		return false
	}
	return lvl <= min
}

// LevelName returns the short name used in console logs, e.g. "warn".
func LevelName(lvl logrus.Level) string {
	if lvl == logrus.WarnLevel {
		return "warn"
	}
	return lvl.String()
}
