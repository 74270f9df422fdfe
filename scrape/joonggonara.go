package scrape

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
)

// Joonggonara finds cafe posts through a Naver site search. The cafe
// itself blocks anonymous clients, so results carry no price and the
// engine treats them as price-on-request listings.
type Joonggonara struct {
	browser *Browser
	timeout time.Duration
}

func NewJoonggonara(browser *Browser, timeout time.Duration) *Joonggonara {
	return &Joonggonara{browser: browser, timeout: timeout}
}

func (j *Joonggonara) Platform() enums.Platform {
	return enums.PlatformJoonggonara
}

type joonggoPost struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

const joonggoExtractJS = `(() => {
	const out = [];
	const seen = new Set();
	for (const a of document.querySelectorAll('a[href*="cafe.naver.com"]')) {
		const href = a.href || '';
		if (!href.includes('joonggonara') && !href.toLowerCase().includes('articleid')) continue;
		const title = (a.textContent || '').trim();
		if (!title || title.length < 2) continue;
		if (seen.has(href)) continue;
		seen.add(href);
		out.push({url: href, title: title});
		if (out.length >= 30) break;
	}
	return out;
})()`

var (
	joonggoArticleIDRe = regexp.MustCompile(`(?i)articleid=(\d+)`)
	joonggoPathIDRe    = regexp.MustCompile(`/joonggonara/(\d+)`)
)

func (j *Joonggonara) Search(ctx context.Context, keyword, location string) ([]models.Item, error) {
	query := fmt.Sprintf("site:cafe.naver.com/joonggonara %s", keyword)
	searchURL := fmt.Sprintf("https://search.naver.com/search.naver?where=web&sm=tab_jum&query=%s",
		url.QueryEscape(query))

	var posts []joonggoPost
	err := j.browser.Run(ctx, j.timeout,
		chromedp.Navigate(searchURL),
		chromedp.Sleep(2*time.Second),
		chromedp.Evaluate(joonggoExtractJS, &posts),
	)
	if err != nil {
		return nil, errors.Wrap(err, "joonggonara search")
	}

	items := make([]models.Item, 0, len(posts))
	for _, p := range posts {
		articleID := joonggoArticleID(p.URL)
		if articleID == "" {
			continue
		}
		items = append(items, models.Item{
			Platform:  enums.PlatformJoonggonara,
			ArticleID: articleID,
			Title:     p.Title,
			Price:     "가격문의",
			URL:       p.URL,
			Keyword:   keyword,
			Location:  location,
		})
	}
	return items, nil
}

// joonggoArticleID extracts a stable id from a cafe link. Links come in
// an articleid query form and a short path form.
func joonggoArticleID(raw string) string {
	if m := joonggoArticleIDRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	if m := joonggoPathIDRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}
