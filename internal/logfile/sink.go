// Package logfile writes classified console lines to daily-rotated files, each
// file admitting lines from its own minimum level upwards.
package logfile

import (
	"errors"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/uartwatch/internal/logger"
	"github.com/atikulmunna/uartwatch/internal/model"
)

// FileConfig describes one log file.
type FileConfig struct {
	Name       string
	Level      string // minimum level written to this file
	Filename   string // may contain %DATE%
	Dir        string
	DateLayout string
	Format     string // key into Formatters, default "timestamp"
	Compress   bool
}

type file struct {
	name   string
	logger *logrus.Logger
	writer *DailyWriter
}

// Sink fans console lines out to the configured files.
type Sink struct {
	files []*file
	clock clock.Clock
}

// New opens every configured file.
func New(cfgs []FileConfig, clk clock.Clock, log logrus.FieldLogger) (*Sink, error) {
	log = log.WithField("component", "logfile")
	s := &Sink{clock: clk}
	for _, cfg := range cfgs {
		f, err := openFile(cfg, clk, log)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("log file %s: %w", cfg.Name, err)
		}
		s.files = append(s.files, f)
	}
	return s, nil
}

func openFile(cfg FileConfig, clk clock.Clock, log logrus.FieldLogger) (*file, error) {
	min, err := logger.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	format := cfg.Format
	if format == "" {
		format = "timestamp"
	}
	formatter, ok := Formatters[format]
	if !ok {
		return nil, fmt.Errorf("unknown format %q (known: %v)", format, FormatterNames())
	}
	w, err := NewDailyWriter(cfg.Dir, cfg.Filename, cfg.DateLayout, cfg.Compress, clk, log.WithField("file", cfg.Name))
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(min)
	l.SetFormatter(formatter)
	return &file{name: cfg.Name, logger: l, writer: w}, nil
}

// Log writes msg to every file whose threshold admits level. Unknown level
// names are treated as debug.
func (s *Sink) Log(level, msg string) {
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		lvl = logrus.DebugLevel
	}
	if lvl < logrus.FatalLevel {
		// Entry.Log panics at PanicLevel.
		lvl = logrus.FatalLevel
	}
	now := s.clock.Now()
	for _, f := range s.files {
		f.logger.WithTime(now).WithField(levelField, level).Log(lvl, msg)
	}
}

// Write logs a classified console line.
func (s *Sink) Write(entry model.LogEntry) {
	s.Log(entry.Level, entry.Message)
}

// Paths returns the files currently written to, keyed by configured name.
func (s *Sink) Paths() map[string]string {
	out := make(map[string]string, len(s.files))
	for _, f := range s.files {
		out[f.name] = f.writer.Path()
	}
	return out
}

// Close closes every file.
func (s *Sink) Close() error {
	var errs []error
	for _, f := range s.files {
		errs = append(errs, f.writer.Close())
	}
	return errors.Join(errs...)
}
