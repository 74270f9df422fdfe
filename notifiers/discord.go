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

type Discord struct {
	webhookURL string
	client     *http.Client
}

func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (d *Discord) Channel() enums.Channel {
	return enums.ChannelDiscord
}

type discordEmbed struct {
	Description string             `json:"description"`
	Color       int                `json:"color"`
	Thumbnail   *discordEmbedImage `json:"thumbnail,omitempty"`
}

type discordEmbedImage struct {
	URL string `json:"url"`
}

func (d *Discord) SendMessage(ctx context.Context, text string) error {
	return d.post(ctx, map[string]any{"content": truncate(text, 2000)})
}

func (d *Discord) SendItem(ctx context.Context, item models.Item, note string) error {
	embed := discordEmbed{
		Description: truncate(FormatItem(item, note), 4096),
		Color:       0x2ecc71,
	}
	if item.Thumbnail != "" {
		embed.Thumbnail = &discordEmbedImage{URL: item.Thumbnail}
	}
	return d.post(ctx, map[string]any{"embeds": []discordEmbed{embed}})
}

func (d *Discord) SendPriceChange(ctx context.Context, item models.Item, oldPrice, newPrice, note string) error {
	embed := discordEmbed{
		Description: truncate(FormatPriceChange(item, oldPrice, newPrice, note), 4096),
		Color:       0xf39c12,
	}
	return d.post(ctx, map[string]any{"embeds": []discordEmbed{embed}})
}

func (d *Discord) post(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord webhook: status %d: %s", resp.StatusCode, detail)
	}
	return nil
}
