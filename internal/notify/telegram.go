package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/atikulmunna/uartwatch/internal/model"
)

const telegramAPI = "https://api.telegram.org"

// TelegramConfig configures a bot and the chat it posts to. Group chats have
// negative ids.
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string // defaults to the public Bot API
}

// TelegramAlerter sends events through the Telegram Bot API.
type TelegramAlerter struct {
	config TelegramConfig
	client *http.Client
}

// NewTelegram creates a Telegram alerter.
func NewTelegram(config TelegramConfig) *TelegramAlerter {
	if config.BaseURL == "" {
		config.BaseURL = telegramAPI
	}
	return &TelegramAlerter{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *TelegramAlerter) Name() string {
	return "telegram"
}

func (a *TelegramAlerter) Send(ctx context.Context, ev model.Event) error {
	if a.config.BotToken == "" || a.config.ChatID == "" {
		return fmt.Errorf("telegram bot token or chat ID is empty")
	}

	// Plain text: console lines may contain anything, so no parse_mode.
	body, err := json.Marshal(map[string]interface{}{
		"chat_id": a.config.ChatID,
		"text":    Text(ev),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", a.config.BaseURL, a.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		// The request URL embeds the bot token; keep it out of the logs.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}
	return nil
}
