package notifiers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
)

// Telegram caps message text at 4096 characters.
const telegramMaxLen = 4096

type Telegram struct {
	token  string
	chatID string
	client *http.Client
}

func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Channel() enums.Channel {
	return enums.ChannelTelegram
}

func (t *Telegram) SendMessage(ctx context.Context, text string) error {
	return t.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  t.chatID,
		"text":                     truncate(text, telegramMaxLen),
		"disable_web_page_preview": true,
	})
}

func (t *Telegram) SendItem(ctx context.Context, item models.Item, note string) error {
	text := FormatItem(item, note)

	// Photo captions have a tighter limit; fall back to a plain message
	// when there is no thumbnail or the photo call is rejected.
	if item.Thumbnail != "" {
		err := t.call(ctx, "sendPhoto", map[string]any{
			"chat_id": t.chatID,
			"photo":   item.Thumbnail,
			"caption": truncate(text, 1024),
		})
		if err == nil {
			return nil
		}
	}
	return t.SendMessage(ctx, text)
}

func (t *Telegram) SendPriceChange(ctx context.Context, item models.Item, oldPrice, newPrice, note string) error {
	return t.SendMessage(ctx, FormatPriceChange(item, oldPrice, newPrice, note))
}

func (t *Telegram) call(ctx context.Context, method string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/%s", t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram %s: status %d: %s", method, resp.StatusCode, detail)
	}
	return nil
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	runes := []rune(text)
	for len(string(runes)) > limit-3 {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
