package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
	"github.com/sehyunk/jangter/price"
)

const bunjangSearchURL = "https://api.bunjang.co.kr/api/1/find_v2.json"

// Bunjang talks to the public search API directly, no browser needed.
type Bunjang struct {
	client *http.Client
}

func NewBunjang(client *http.Client) *Bunjang {
	return &Bunjang{client: client}
}

func (b *Bunjang) Platform() enums.Platform {
	return enums.PlatformBunjang
}

type bunjangResponse struct {
	List []bunjangProduct `json:"list"`
}

type bunjangProduct struct {
	PID          json.Number `json:"pid"`
	Name         string      `json:"name"`
	Price        string      `json:"price"`
	ProductImage string      `json:"product_image"`
	Location     string      `json:"location"`
	Status       string      `json:"status"`
}

func (b *Bunjang) Search(ctx context.Context, keyword, location string) ([]models.Item, error) {
	params := url.Values{}
	params.Set("q", keyword)
	params.Set("order", "date")
	params.Set("page", "0")
	params.Set("n", "50")
	params.Set("stat_device", "w")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bunjangSearchURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "bunjang request")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "bunjang search")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bunjang search: status %d", resp.StatusCode)
	}

	var payload bunjangResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrap(err, "bunjang decode")
	}

	items := make([]models.Item, 0, len(payload.List))
	for _, p := range payload.List {
		pid := p.PID.String()
		if pid == "" || p.Name == "" {
			continue
		}
		// status "1" is on sale; ads and sold listings come back with
		// other codes.
		if p.Status != "" && p.Status != "1" {
			continue
		}

		priceText := "가격문의"
		if n := price.Parse(p.Price); n > 0 {
			priceText = price.Format(n)
		}

		loc := strings.TrimSpace(p.Location)
		items = append(items, models.Item{
			Platform:  enums.PlatformBunjang,
			ArticleID: pid,
			Title:     p.Name,
			Price:     priceText,
			URL:       "https://m.bunjang.co.kr/products/" + pid,
			Keyword:   keyword,
			Thumbnail: p.ProductImage,
			Location:  loc,
		})
	}
	return items, nil
}
