package data

import (
	"time"

	"github.com/sehyunk/jangter/enums"
)

type Listing struct {
	ID           int64            `db:"id"`
	Platform     enums.Platform   `db:"platform"`
	ArticleID    string           `db:"article_id"`
	Keyword      string           `db:"keyword"`
	Title        string           `db:"title"`
	Price        string           `db:"price"`
	PriceNumeric int              `db:"price_numeric"`
	URL          string           `db:"url"`
	Thumbnail    string           `db:"thumbnail"`
	Seller       string           `db:"seller"`
	Location     string           `db:"location"`
	SaleStatus   enums.SaleStatus `db:"sale_status"`
	CreatedAt    time.Time        `db:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at"`
}

// PriceHistoryEntry is one detected price change. Append-only.
type PriceHistoryEntry struct {
	ID              int64     `db:"id"`
	ListingID       int64     `db:"listing_id"`
	OldPrice        string    `db:"old_price"`
	OldPriceNumeric int       `db:"old_price_numeric"`
	NewPrice        string    `db:"new_price"`
	NewPriceNumeric int       `db:"new_price_numeric"`
	ChangedAt       time.Time `db:"changed_at"`
}

// SearchStat records one keyword/platform search. Append-only; the newest
// row per keyword drives per-keyword scheduling.
type SearchStat struct {
	ID         int64          `db:"id"`
	Keyword    string         `db:"keyword"`
	Platform   enums.Platform `db:"platform"`
	ItemsFound int            `db:"items_found"`
	NewItems   int            `db:"new_items"`
	CheckedAt  time.Time      `db:"checked_at"`
}

// NotificationLogEntry is written only on confirmed successful delivery.
type NotificationLogEntry struct {
	ID             int64         `db:"id"`
	ListingID      int64         `db:"listing_id"`
	Channel        enums.Channel `db:"channel"`
	MessagePreview string        `db:"message_preview"`
	SentAt         time.Time     `db:"sent_at"`
}

type SellerFilter struct {
	ID         int64          `db:"id"`
	SellerName string         `db:"seller_name"`
	Platform   enums.Platform `db:"platform"`
	IsBlocked  bool           `db:"is_blocked"`
	Notes      string         `db:"notes"`
	CreatedAt  time.Time      `db:"created_at"`
}

type Favorite struct {
	ID          int64     `db:"id"`
	ListingID   int64     `db:"listing_id"`
	Notes       string    `db:"notes"`
	TargetPrice int       `db:"target_price"`
	AddedAt     time.Time `db:"added_at"`
}
