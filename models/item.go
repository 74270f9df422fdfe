package models

import (
	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/price"
)

// Item is one listing as returned by a scraper. Items are ephemeral; the
// store turns surviving ones into persisted listings.
type Item struct {
	Platform  enums.Platform `json:"platform"`
	ArticleID string         `json:"articleId"`
	Title     string         `json:"title"`
	Price     string         `json:"price"`
	URL       string         `json:"url"`
	Keyword   string         `json:"keyword"`
	Thumbnail string         `json:"thumbnail,omitempty"`
	Seller    string         `json:"seller,omitempty"`
	Location  string         `json:"location,omitempty"`

	numericPrice *int
}

// NumericPrice derives the integer price through the canonical parser,
// memoized per item.
func (i *Item) NumericPrice() int {
	if i.numericPrice == nil {
		n := price.Parse(i.Price)
		i.numericPrice = &n
	}
	return *i.numericPrice
}
