// Package config loads, defaults and validates the monitor configuration.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/atikulmunna/uartwatch/internal/parser"
	"github.com/atikulmunna/uartwatch/internal/report"
	"github.com/atikulmunna/uartwatch/internal/tailer"
)

// Source types.
const (
	SourceSerial = "serial"
	SourceFile   = "file"
	SourceStdin  = "stdin"
)

const (
	defaultListen    = ":9110"
	defaultOutput    = "text"
	defaultQueueSize = 256
	defaultLogLevel  = "warn"
)

// Config is the root of the configuration file.
type Config struct {
	Source        SourceConfig        `mapstructure:"source" yaml:"source"`
	Levels        []LevelConfig       `mapstructure:"levels" yaml:"levels"`
	DefaultLevel  string              `mapstructure:"default_level" yaml:"default_level"`
	LogFiles      []LogFileConfig     `mapstructure:"logfiles" yaml:"logfiles"`
	Notifications NotificationsConfig `mapstructure:"notifications" yaml:"notifications"`
	Watchdogs     []WatchdogConfig    `mapstructure:"watchdogs" yaml:"watchdogs"`
	Reporters     []ReporterConfig    `mapstructure:"reporters" yaml:"reporters"`
	HTTP          HTTPConfig          `mapstructure:"http" yaml:"http"`
	Output        string              `mapstructure:"output" yaml:"output"`
}

// SourceConfig selects where console bytes come from.
type SourceConfig struct {
	Type   string `mapstructure:"type" yaml:"type"`
	Port   string `mapstructure:"port" yaml:"port,omitempty"` // may be a glob, e.g. /dev/ttyUSB*
	Baud   int    `mapstructure:"baud" yaml:"baud,omitempty"`
	Path   string `mapstructure:"path" yaml:"path,omitempty"`
	Follow bool   `mapstructure:"follow" yaml:"follow,omitempty"`
}

// Matchers is an include/exclude pair. An absent include list is distinct
// from an empty one: the former leaves the pattern unconfigured.
type Matchers struct {
	Include []string `mapstructure:"include" yaml:"include,omitempty"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude,omitempty"`
}

// LevelConfig is one classification level, evaluated in list order.
type LevelConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Matchers `mapstructure:",squash" yaml:",inline"`
}

// LogFileConfig is one daily-rotated log file.
type LogFileConfig struct {
	Name       string `mapstructure:"name" yaml:"name"`
	Level      string `mapstructure:"level" yaml:"level"`
	Filename   string `mapstructure:"filename" yaml:"filename"`
	Dir        string `mapstructure:"dir" yaml:"dir,omitempty"`
	DateLayout string `mapstructure:"date_layout" yaml:"date_layout,omitempty"`
	Format     string `mapstructure:"format" yaml:"format,omitempty"`
	Compress   *bool  `mapstructure:"compress" yaml:"compress,omitempty"`
}

// NotificationsConfig configures the optional chat channels.
type NotificationsConfig struct {
	QueueSize int             `mapstructure:"queue_size" yaml:"queue_size"`
	Slack     *SlackConfig    `mapstructure:"slack" yaml:"slack,omitempty"`
	Telegram  *TelegramConfig `mapstructure:"telegram" yaml:"telegram,omitempty"`
}

// SlackConfig configures a Slack incoming webhook.
type SlackConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"`
	Channel    string `mapstructure:"channel" yaml:"channel,omitempty"`
	Username   string `mapstructure:"username" yaml:"username,omitempty"`
	IconEmoji  string `mapstructure:"icon_emoji" yaml:"icon_emoji,omitempty"`
}

// TelegramConfig configures a Telegram bot.
type TelegramConfig struct {
	Level   string `mapstructure:"level" yaml:"level"`
	Token   string `mapstructure:"token" yaml:"token"`
	ChatID  string `mapstructure:"chat_id" yaml:"chat_id"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"`
}

// WatchdogConfig is one watchdog. Without include it is a heartbeat watchdog.
type WatchdogConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Matchers `mapstructure:",squash" yaml:",inline"`
	Timeout  string `mapstructure:"timeout" yaml:"timeout,omitempty"`
	Repeat   string `mapstructure:"repeat" yaml:"repeat,omitempty"`
}

// ReporterConfig is a set of reports shared by one or more schedules.
type ReporterConfig struct {
	Schedules []ScheduleConfig `mapstructure:"schedules" yaml:"schedules"`
	Reports   []ReportConfig   `mapstructure:"reports" yaml:"reports"`
}

// ScheduleConfig decides when and at which level a reporter flushes.
type ScheduleConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Interval string `mapstructure:"interval" yaml:"interval,omitempty"`
	Level    string `mapstructure:"level" yaml:"level,omitempty"`
}

// ReportConfig is one counted pattern.
type ReportConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Matchers `mapstructure:",squash" yaml:",inline"`
}

// HTTPConfig configures the status server. An empty listen address disables it.
type HTTPConfig struct {
	Listen string `mapstructure:"listen" yaml:"listen"`
	Pprof  bool   `mapstructure:"pprof" yaml:"pprof,omitempty"`
}

// secretKeys are bound explicitly so they can be supplied purely through the
// environment, e.g. UARTWATCH_NOTIFICATIONS_SLACK_WEBHOOK_URL.
var secretKeys = []string{
	"notifications.slack.webhook_url",
	"notifications.slack.level",
	"notifications.telegram.token",
	"notifications.telegram.chat_id",
	"notifications.telegram.level",
}

// SetDefaults registers defaults and environment bindings on v.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix("UARTWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("source.type", SourceSerial)
	v.SetDefault("source.port", "/dev/ttyAMA0")
	v.SetDefault("source.baud", tailer.DefaultBaudRate)
	v.SetDefault("default_level", parser.DefaultLevel)
	v.SetDefault("notifications.queue_size", defaultQueueSize)
	v.SetDefault("http.listen", defaultListen)
	v.SetDefault("output", defaultOutput)

	for _, key := range secretKeys {
		_ = v.BindEnv(key)
	}
}

// Load decodes, defaults and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// ApplyDefaults fills in values that viper defaults cannot reach, such as
// fields inside list elements.
func (c *Config) ApplyDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = SourceSerial
	}
	if c.Source.Baud <= 0 {
		c.Source.Baud = tailer.DefaultBaudRate
	}
	if c.DefaultLevel == "" {
		c.DefaultLevel = parser.DefaultLevel
	}
	if c.Output == "" {
		c.Output = defaultOutput
	}
	if c.Notifications.QueueSize <= 0 {
		c.Notifications.QueueSize = defaultQueueSize
	}
	if s := c.Notifications.Slack; s != nil && s.Level == "" {
		s.Level = defaultLogLevel
	}
	if t := c.Notifications.Telegram; t != nil && t.Level == "" {
		t.Level = defaultLogLevel
	}
	for i := range c.LogFiles {
		f := &c.LogFiles[i]
		if f.Level == "" {
			f.Level = parser.DefaultLevel
		}
		if f.Name == "" {
			f.Name = f.Level
		}
		if f.Compress == nil {
			on := true
			f.Compress = &on
		}
	}
	for i := range c.Reporters {
		for j := range c.Reporters[i].Schedules {
			s := &c.Reporters[i].Schedules[j]
			if s.Level == "" {
				s.Level = report.DefaultLevel
			}
		}
	}
}

// YAML renders the configuration, with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	masked := *c
	if s := c.Notifications.Slack; s != nil {
		cp := *s
		cp.WebhookURL = mask(cp.WebhookURL)
		masked.Notifications.Slack = &cp
	}
	if t := c.Notifications.Telegram; t != nil {
		cp := *t
		cp.Token = mask(cp.Token)
		masked.Notifications.Telegram = &cp
	}
	return yaml.Marshal(&masked)
}

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
