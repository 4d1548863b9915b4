package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"NewsRelay/internal/config"
	"NewsRelay/internal/domain"
	"NewsRelay/internal/ports"
)

const (
	parseMode        = "Markdown"
	maxResponseBytes = 64 << 10
)

// Notifier sends articles to a Telegram chat via bot API.
type Notifier struct {
	apiURL string
	client *http.Client
}

var _ ports.Publisher = (*Notifier)(nil)

// NewNotifier builds a notifier; credentials travel with each call.
func NewNotifier(cfg config.TelegramConfig) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	return &Notifier{
		apiURL: strings.TrimSuffix(apiURL, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Publish posts one formatted article; a rejected message yields a SinkError carrying Telegram's description.
func (n *Notifier) Publish(ctx context.Context, target domain.SinkTarget, article domain.Article) error {
	if target.BotToken == "" || target.ChatID == "" || n.client == nil {
		return &domain.SinkError{Reason: "telegram notifier misconfigured"}
	}

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                target.ChatID,
		Text:                  FormatMessage(article),
		ParseMode:             parseMode,
		DisableWebPagePreview: false,
	})
	if err != nil {
		return &domain.SinkError{Reason: domain.ReasonTransport, Err: fmt.Errorf("marshal message: %w", err)}
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiURL, target.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &domain.SinkError{Reason: domain.ReasonTransport, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		// the URL embeds the bot token
		return &domain.SinkError{Reason: domain.ReasonTransport, Err: fmt.Errorf("do request: %w", redactToken(err, target.BotToken))}
	}
	defer resp.Body.Close()

	var payload sendMessageResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&payload); err != nil {
		return &domain.SinkError{
			Reason: domain.ReasonTransport,
			Err:    fmt.Errorf("telegram %s: decode response: %w", resp.Status, err),
		}
	}

	if !payload.OK {
		reason := payload.Description
		if reason == "" {
			reason = "telegram error: " + resp.Status
		}
		return &domain.SinkError{Reason: reason}
	}

	return nil
}

// FormatMessage renders the Markdown message posted for an article.
func FormatMessage(article domain.Article) string {
	return fmt.Sprintf("📰 *%s*\n\n%s\n\n🔗 [Lire l'article](%s)\n📌 Source: %s",
		article.Title,
		article.Description,
		article.URL,
		article.SourceName)
}

func redactToken(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}
