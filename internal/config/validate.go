package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/atikulmunna/uartwatch/internal/logfile"
	"github.com/atikulmunna/uartwatch/internal/logger"
	"github.com/atikulmunna/uartwatch/internal/parser"
)

// Validate checks the whole configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}
	wrap := func(prefix string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", prefix, err))
		}
	}

	switch c.Source.Type {
	case SourceSerial:
		if c.Source.Port == "" {
			add("source.port is required for a serial source")
		}
	case SourceFile:
		if c.Source.Path == "" {
			add("source.path is required for a file source")
		}
	case SourceStdin:
	default:
		add("source.type %q: must be serial, file or stdin", c.Source.Type)
	}

	switch c.Output {
	case "text", "json", "none":
	default:
		add("output %q: must be text, json or none", c.Output)
	}

	wrap("default_level", checkLevel(c.DefaultLevel))
	seen := make(map[string]bool)
	for i, l := range c.Levels {
		prefix := fmt.Sprintf("levels[%d]", i)
		if l.Name == "" {
			add("%s: name is required", prefix)
			continue
		}
		prefix = fmt.Sprintf("levels[%s]", l.Name)
		if seen[l.Name] {
			add("%s: duplicate level", prefix)
		}
		seen[l.Name] = true
		wrap(prefix, checkLevel(l.Name))
		_, err := l.Matchers.compile()
		wrap(prefix, err)
	}

	names := make(map[string]bool)
	for i, f := range c.LogFiles {
		prefix := fmt.Sprintf("logfiles[%d]", i)
		if names[f.Name] {
			add("%s: duplicate name %q", prefix, f.Name)
		}
		names[f.Name] = true
		if f.Filename == "" {
			add("%s: filename is required", prefix)
		}
		wrap(prefix, checkLevel(f.Level))
		if f.Format != "" {
			if _, ok := logfile.Formatters[f.Format]; !ok {
				add("%s: unknown format %q (known: %v)", prefix, f.Format, logfile.FormatterNames())
			}
		}
	}

	if s := c.Notifications.Slack; s != nil {
		if s.WebhookURL == "" {
			add("notifications.slack: webhook_url is required")
		}
		wrap("notifications.slack", checkLevel(s.Level))
	}
	if t := c.Notifications.Telegram; t != nil {
		if t.Token == "" || t.ChatID == "" {
			add("notifications.telegram: token and chat_id are required")
		}
		wrap("notifications.telegram", checkLevel(t.Level))
	}

	for i, w := range c.Watchdogs {
		prefix := fmt.Sprintf("watchdogs[%d]", i)
		if w.Name == "" {
			add("%s: name is required", prefix)
		}
		_, err := parseDuration(w.Timeout)
		wrap(prefix+".timeout", err)
		_, err = parseDuration(w.Repeat)
		wrap(prefix+".repeat", err)
		_, err = w.Matchers.compile()
		wrap(prefix, err)
	}

	for i, r := range c.Reporters {
		for j, s := range r.Schedules {
			prefix := fmt.Sprintf("reporters[%d].schedules[%d]", i, j)
			if s.Name == "" {
				add("%s: name is required", prefix)
			}
			_, err := parseDuration(s.Interval)
			wrap(prefix+".interval", err)
			wrap(prefix, checkLevel(s.Level))
		}
		reports := make(map[string]bool)
		for j, rep := range r.Reports {
			prefix := fmt.Sprintf("reporters[%d].reports[%d]", i, j)
			if rep.Name == "" {
				add("%s: name is required", prefix)
			}
			if reports[rep.Name] {
				add("%s: duplicate report %q", prefix, rep.Name)
			}
			reports[rep.Name] = true
			_, err := rep.Matchers.compile()
			wrap(prefix, err)
		}
	}

	return errors.Join(errs...)
}

func checkLevel(name string) error {
	_, err := logger.ParseLevel(name)
	return err
}

// parseDuration accepts Go duration strings; an empty string is zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

func (m Matchers) compile() (*parser.Pattern, error) {
	return parser.NewPattern(m.Include, m.Exclude)
}
