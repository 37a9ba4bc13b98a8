package config

import (
	"github.com/atikulmunna/uartwatch/internal/logfile"
	"github.com/atikulmunna/uartwatch/internal/notify"
	"github.com/atikulmunna/uartwatch/internal/parser"
	"github.com/atikulmunna/uartwatch/internal/report"
	"github.com/atikulmunna/uartwatch/internal/watchdog"
)

// The conversions below assume Validate has passed; they still return errors
// so a Config built in code cannot panic.

// LevelRules compiles the classification levels in declared order.
func (c *Config) LevelRules() (parser.LevelRules, error) {
	rules := make(parser.LevelRules, 0, len(c.Levels))
	for _, l := range c.Levels {
		p, err := l.Matchers.compile()
		if err != nil {
			return nil, err
		}
		rules = append(rules, parser.Level{Name: l.Name, Pattern: p})
	}
	return rules, nil
}

// Classifier builds the line classifier.
func (c *Config) Classifier() (*parser.Classifier, error) {
	rules, err := c.LevelRules()
	if err != nil {
		return nil, err
	}
	return parser.NewClassifier(rules, c.DefaultLevel), nil
}

// WatchdogSpecs compiles the watchdogs in declared order.
func (c *Config) WatchdogSpecs() ([]watchdog.Spec, error) {
	specs := make([]watchdog.Spec, 0, len(c.Watchdogs))
	for _, w := range c.Watchdogs {
		p, err := w.Matchers.compile()
		if err != nil {
			return nil, err
		}
		timeout, err := parseDuration(w.Timeout)
		if err != nil {
			return nil, err
		}
		repeat, err := parseDuration(w.Repeat)
		if err != nil {
			return nil, err
		}
		specs = append(specs, watchdog.Spec{Name: w.Name, Pattern: p, Timeout: timeout, Repeat: repeat})
	}
	return specs, nil
}

// ReportGroups compiles the reporters.
func (c *Config) ReportGroups() ([]report.Group, error) {
	groups := make([]report.Group, 0, len(c.Reporters))
	for _, r := range c.Reporters {
		var g report.Group
		for _, s := range r.Schedules {
			interval, err := parseDuration(s.Interval)
			if err != nil {
				return nil, err
			}
			g.Schedules = append(g.Schedules, report.Schedule{Name: s.Name, Interval: interval, Level: s.Level})
		}
		for _, rep := range r.Reports {
			p, err := rep.Matchers.compile()
			if err != nil {
				return nil, err
			}
			g.Reports = append(g.Reports, report.Report{Name: rep.Name, Pattern: p})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// LogFileConfigs converts the log files.
func (c *Config) LogFileConfigs() []logfile.FileConfig {
	out := make([]logfile.FileConfig, 0, len(c.LogFiles))
	for _, f := range c.LogFiles {
		out = append(out, logfile.FileConfig{
			Name:       f.Name,
			Level:      f.Level,
			Filename:   f.Filename,
			Dir:        f.Dir,
			DateLayout: f.DateLayout,
			Format:     f.Format,
			Compress:   f.Compress == nil || *f.Compress,
		})
	}
	return out
}

// Channel is a notification channel with its minimum level.
type Channel struct {
	Alerter  notify.Alerter
	MinLevel string
}

// Channels builds the configured notification channels, Slack first.
func (c *Config) Channels() []Channel {
	var out []Channel
	if s := c.Notifications.Slack; s != nil {
		out = append(out, Channel{
			Alerter: notify.NewSlack(notify.SlackConfig{
				WebhookURL: s.WebhookURL,
				Channel:    s.Channel,
				Username:   s.Username,
				IconEmoji:  s.IconEmoji,
			}),
			MinLevel: s.Level,
		})
	}
	if t := c.Notifications.Telegram; t != nil {
		out = append(out, Channel{
			Alerter: notify.NewTelegram(notify.TelegramConfig{
				BotToken: t.Token,
				ChatID:   t.ChatID,
				BaseURL:  t.BaseURL,
			}),
			MinLevel: t.Level,
		})
	}
	return out
}
