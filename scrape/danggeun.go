package scrape

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
	"github.com/sehyunk/jangter/price"
)

// Danggeun scrapes 당근마켓 search results through the shared browser.
// The site renders listings into JSON-LD ItemList scripts, which is far
// more stable than its CSS class names.
type Danggeun struct {
	browser *Browser
	timeout time.Duration
}

func NewDanggeun(browser *Browser, timeout time.Duration) *Danggeun {
	return &Danggeun{browser: browser, timeout: timeout}
}

func (d *Danggeun) Platform() enums.Platform {
	return enums.PlatformDanggeun
}

type danggeunProduct struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Image string `json:"image"`
	Price string `json:"price"`
}

const danggeunExtractJS = `
(() => {
	const out = [];
	for (const script of document.querySelectorAll("script[type='application/ld+json']")) {
		let data;
		try { data = JSON.parse(script.textContent); } catch (e) { continue; }
		if (data['@type'] !== 'ItemList' || !Array.isArray(data.itemListElement)) continue;
		for (const el of data.itemListElement) {
			const p = el.item || (el.name ? el : null);
			if (!p || !p.url) continue;
			const offers = p.offers || {};
			out.push({
				title: p.name || '',
				url: p.url,
				image: typeof p.image === 'string' ? p.image : '',
				price: offers.price != null ? String(offers.price) : '',
			});
		}
	}
	return out;
})()`

func (d *Danggeun) Search(ctx context.Context, keyword, location string) ([]models.Item, error) {
	searchURL := fmt.Sprintf("https://www.daangn.com/kr/buy-sell/?search=%s&sort=recent",
		url.QueryEscape(keyword))

	var products []danggeunProduct
	err := d.browser.Run(ctx, d.timeout,
		chromedp.Navigate(searchURL),
		chromedp.Sleep(3*time.Second),
		chromedp.Evaluate(danggeunExtractJS, &products),
	)
	if err != nil {
		return nil, errors.Wrap(err, "danggeun search")
	}

	items := make([]models.Item, 0, len(products))
	for _, p := range products {
		articleID := articleIDFromURL(p.URL)
		if articleID == "" || p.Title == "" {
			continue
		}

		priceText := "가격문의"
		if p.Price != "" {
			if n := price.Parse(p.Price); n > 0 {
				priceText = price.Format(n)
			}
		}

		items = append(items, models.Item{
			Platform:  enums.PlatformDanggeun,
			ArticleID: articleID,
			Title:     p.Title,
			Price:     priceText,
			URL:       p.URL,
			Keyword:   keyword,
			Thumbnail: p.Image,
			Location:  location,
		})
	}
	return items, nil
}

// articleIDFromURL pulls the numeric id off the end of a daangn listing
// URL ("/.../some-title-12345/").
func articleIDFromURL(raw string) string {
	trimmed := strings.TrimRight(raw, "/")
	if idx := strings.LastIndex(trimmed, "-"); idx >= 0 && idx+1 < len(trimmed) {
		return trimmed[idx+1:]
	}
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 && idx+1 < len(trimmed) {
		return trimmed[idx+1:]
	}
	return ""
}
