package logfile

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/model"
)

// levelField carries the configured console level name on each entry.
const levelField = "console_level"

// Formatters are the strategies a log file can select by name.
var Formatters = map[string]logrus.Formatter{
	"timestamp": &TimestampFormatter{},
	"leveled":   &LeveledFormatter{},
}

// FormatterNames lists the registered formatter names, sorted.
func FormatterNames() []string {
	names := make([]string, 0, len(Formatters))
	for name := range Formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TimestampFormatter writes "[time] message", leaving the level out; the level
// only decides which files a line goes to.
type TimestampFormatter struct{}

func (f *TimestampFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] %s\n", model.FormatTime(e.Time), e.Message)
	return b.Bytes(), nil
}

// LeveledFormatter writes "[time] [level] message".
type LeveledFormatter struct{}

func (f *LeveledFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level, _ := e.Data[levelField].(string)
	if level == "" {
		level = e.Level.String()
	}
	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] [%s] %s\n", model.FormatTime(e.Time), level, e.Message)
	return b.Bytes(), nil
}
