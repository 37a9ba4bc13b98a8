package logfile

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/logger"
)

// Hook copies diagnostic entries at warn or above into the log files, so
// operational warnings sit next to the console lines they concern.
type Hook struct {
	sink *Sink
}

// NewHook returns a Hook writing to s.
func NewHook(s *Sink) *Hook {
	return &Hook{sink: s}
}

func (h *Hook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

func (h *Hook) Fire(e *logrus.Entry) error {
	msg := e.Message
	if component, ok := e.Data["component"].(string); ok && component != "" {
		msg = "[" + component + "] " + msg
	}
	h.sink.Log(logger.LevelName(e.Level), msg)
	return nil
}

// WarningLogger derives a logger that writes like base and also feeds its
// warnings to the sink through a Hook. Its level is never stricter than warn.
func (s *Sink) WarningLogger(base logrus.FieldLogger) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	var parent *logrus.Logger
	switch b := base.(type) {
	case *logrus.Logger:
		parent = b
	case *logrus.Entry:
		parent = b.Logger
	}
	if parent != nil {
		l.SetOutput(parent.Out)
		l.SetFormatter(parent.Formatter)
		l.SetLevel(parent.GetLevel())
	}
	if l.GetLevel() < logrus.WarnLevel {
		l.SetLevel(logrus.WarnLevel)
	}
	l.AddHook(NewHook(s))
	return l
}
