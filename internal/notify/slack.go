package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"

	"github.com/atikulmunna/uartwatch/internal/model"
)

// SlackConfig configures an incoming webhook.
type SlackConfig struct {
	WebhookURL string
	Channel    string
	Username   string
	IconEmoji  string
}

// SlackAlerter posts events to a Slack incoming webhook.
type SlackAlerter struct {
	config SlackConfig
	client *http.Client
}

// NewSlack creates a Slack alerter.
func NewSlack(config SlackConfig) *SlackAlerter {
	return &SlackAlerter{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *SlackAlerter) Name() string {
	return "slack"
}

func (a *SlackAlerter) Send(ctx context.Context, ev model.Event) error {
	if a.config.WebhookURL == "" {
		return fmt.Errorf("slack webhook URL is empty")
	}
	msg := &slack.WebhookMessage{
		Text:      Text(ev),
		Channel:   a.config.Channel,
		Username:  a.config.Username,
		IconEmoji: a.config.IconEmoji,
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, a.config.WebhookURL, a.client, msg); err != nil {
		return fmt.Errorf("failed to send slack webhook: %w", err)
	}
	return nil
}
