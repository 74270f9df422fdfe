package data

import (
	"time"

	"github.com/sehyunk/jangter/enums"
)

// Dashboard is the cached aggregate read-model. It is derived, never
// persisted; the repo recomputes it on cache miss.
type Dashboard struct {
	TotalListings int                    `json:"totalListings"`
	ByPlatform    map[enums.Platform]int `json:"byPlatform"`
	Recent        []Listing              `json:"recent"`
	PriceChanges  []PriceChangeRow       `json:"priceChanges"`
	KeywordStats  []KeywordPriceStat     `json:"keywordStats"`
	Daily         []DailyStat            `json:"daily"`
	GeneratedAt   time.Time              `json:"generatedAt"`
}

// PriceChangeRow is a recent price change joined with its listing.
type PriceChangeRow struct {
	Platform  enums.Platform `db:"platform" json:"platform"`
	ArticleID string         `db:"article_id" json:"articleId"`
	Title     string         `db:"title" json:"title"`
	URL       string         `db:"url" json:"url"`
	OldPrice  string         `db:"old_price" json:"oldPrice"`
	NewPrice  string         `db:"new_price" json:"newPrice"`
	ChangedAt time.Time      `db:"changed_at" json:"changedAt"`
}

// KeywordPriceStat aggregates price statistics per keyword.
type KeywordPriceStat struct {
	Keyword  string `db:"keyword" json:"keyword"`
	Count    int    `db:"count" json:"count"`
	MinPrice int    `db:"min_price" json:"minPrice"`
	AvgPrice int    `db:"avg_price" json:"avgPrice"`
	MaxPrice int    `db:"max_price" json:"maxPrice"`
}

// DailyStat sums search results per calendar day.
type DailyStat struct {
	Date       string `db:"date" json:"date"`
	ItemsFound int    `db:"items_found" json:"itemsFound"`
	NewItems   int    `db:"new_items" json:"newItems"`
}
