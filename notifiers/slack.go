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

type Slack struct {
	webhookURL string
	client     *http.Client
}

func NewSlack(webhookURL string) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *Slack) Channel() enums.Channel {
	return enums.ChannelSlack
}

func (s *Slack) SendMessage(ctx context.Context, text string) error {
	return s.post(ctx, map[string]any{"text": text})
}

func (s *Slack) SendItem(ctx context.Context, item models.Item, note string) error {
	payload := map[string]any{"text": FormatItem(item, note)}
	if item.Thumbnail != "" {
		payload["attachments"] = []map[string]any{{"image_url": item.Thumbnail}}
	}
	return s.post(ctx, payload)
}

func (s *Slack) SendPriceChange(ctx context.Context, item models.Item, oldPrice, newPrice, note string) error {
	return s.post(ctx, map[string]any{"text": FormatPriceChange(item, oldPrice, newPrice, note)})
}

func (s *Slack) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack webhook: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
