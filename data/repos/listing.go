// Package repos implements the persistent listing store. All mutations and
// reads go through one mutex, trading throughput for a check-then-act
// dedup invariant that holds without any database-level coordination.
// Request volume is periodic polling, so the serialization cost is noise.
package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sehyunk/jangter/data"
	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/matchers"
	"github.com/sehyunk/jangter/models"
)

const fuzzyCandidateWindow = 3 * 24 * time.Hour

// PriceChange is the payload returned by AddListing when an existing
// listing's price moved.
type PriceChange struct {
	OldPrice   string
	NewPrice   string
	OldNumeric int
	NewNumeric int
}

type ListingRepo struct {
	db             *sqlx.DB
	fuzzyThreshold float64

	mu sync.Mutex

	cache     *data.Dashboard
	cacheTime time.Time
	cacheTTL  time.Duration
}

func NewListingRepo(db *sqlx.DB, fuzzyThreshold float64) *ListingRepo {
	return &ListingRepo{
		db:             db,
		fuzzyThreshold: fuzzyThreshold,
		cacheTTL:       30 * time.Second,
	}
}

// AddListing inserts the item or detects a price change on the existing
// row. The whole check-then-act sequence runs under the store mutex, so
// two callers can never both observe an absent key and insert.
func (r *ListingRepo) AddListing(item *models.Item) (bool, *PriceChange, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var existing data.Listing
	err := r.db.Get(&existing,
		"SELECT * FROM listings WHERE platform = ? AND article_id = ?",
		item.Platform, item.ArticleID)

	now := time.Now().UTC()
	numeric := item.NumericPrice()

	if err == nil {
		// Price changed only when both the text and the derived numeric
		// value moved, so reformatting alone never creates history rows.
		if existing.Price != item.Price && existing.PriceNumeric != numeric {
			// History row and listing update commit together; a failure
			// between them must not leave an orphan audit row.
			tx, err := r.db.Beginx()
			if err != nil {
				return false, nil, 0, fmt.Errorf("add listing: begin: %w", err)
			}
			if _, err := tx.Exec(`
				INSERT INTO price_history (listing_id, old_price, old_price_numeric, new_price, new_price_numeric, changed_at)
				VALUES (?, ?, ?, ?, ?, ?)`,
				existing.ID, existing.Price, existing.PriceNumeric, item.Price, numeric, now,
			); err != nil {
				tx.Rollback()
				return false, nil, 0, fmt.Errorf("add listing: insert price history: %w", err)
			}
			if _, err := tx.Exec(
				"UPDATE listings SET price = ?, price_numeric = ?, updated_at = ? WHERE id = ?",
				item.Price, numeric, now, existing.ID,
			); err != nil {
				tx.Rollback()
				return false, nil, 0, fmt.Errorf("add listing: update price: %w", err)
			}
			if err := tx.Commit(); err != nil {
				return false, nil, 0, fmt.Errorf("add listing: commit: %w", err)
			}
			r.invalidateCache()
			change := &PriceChange{
				OldPrice:   existing.Price,
				NewPrice:   item.Price,
				OldNumeric: existing.PriceNumeric,
				NewNumeric: numeric,
			}
			return false, change, existing.ID, nil
		}
		return false, nil, existing.ID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, nil, 0, fmt.Errorf("add listing: lookup: %w", err)
	}

	res, err := r.db.Exec(`
		INSERT INTO listings (platform, article_id, keyword, title, price, price_numeric, url, thumbnail, seller, location, sale_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Platform, item.ArticleID, item.Keyword, item.Title,
		item.Price, numeric, item.URL, item.Thumbnail, item.Seller, item.Location,
		DetectSaleStatus(item.Title), now, now,
	)
	if err != nil {
		// A losing concurrent insert is "not new", not a failure.
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			var id int64
			if getErr := r.db.Get(&id,
				"SELECT id FROM listings WHERE platform = ? AND article_id = ?",
				item.Platform, item.ArticleID,
			); getErr == nil {
				return false, nil, id, nil
			}
			return false, nil, 0, nil
		}
		return false, nil, 0, fmt.Errorf("add listing: insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return false, nil, 0, fmt.Errorf("add listing: last insert id: %w", err)
	}
	r.invalidateCache()
	return true, nil, id, nil
}

// IsFuzzyDuplicate reports whether the item looks like a repost of a
// recently stored listing: same platform, identical price text, and a
// normalized title similarity at or above the configured threshold.
func (r *ListingRepo) IsFuzzyDuplicate(item *models.Item) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().UTC().Add(-fuzzyCandidateWindow)
	var titles []string
	err := r.db.Select(&titles, `
		SELECT title FROM listings
		WHERE platform = ? AND price = ? AND created_at >= ?
		LIMIT 20`,
		item.Platform, item.Price, cutoff)
	if err != nil {
		return false, fmt.Errorf("fuzzy duplicate check: %w", err)
	}

	for _, title := range titles {
		if matchers.Similarity(item.Title, title) >= r.fuzzyThreshold {
			return true, nil
		}
	}
	return false, nil
}

// GetExistingArticleIDs returns the subset of candidate ids already stored
// for the platform. Candidates are queried in bounded chunks to respect
// the engine's variable limit; results are independent of chunking.
func (r *ListingRepo) GetExistingArticleIDs(platform enums.Platform, articleIDs []string, chunkSize int) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if chunkSize <= 0 {
		chunkSize = 500
	}

	ids := make([]string, 0, len(articleIDs))
	for _, id := range articleIDs {
		if strings.TrimSpace(id) != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return existing, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for start := 0; start < len(ids); start += chunkSize {
		end := min(start+chunkSize, len(ids))
		query, args, err := sqlx.In(
			"SELECT article_id FROM listings WHERE platform = ? AND article_id IN (?)",
			platform, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("existing article ids: build query: %w", err)
		}
		query = r.db.Rebind(query)

		var found []string
		if err := r.db.Select(&found, query, args...); err != nil {
			return nil, fmt.Errorf("existing article ids: %w", err)
		}
		for _, id := range found {
			existing[id] = struct{}{}
		}
	}
	return existing, nil
}

// GetPriceHistory returns the audit trail for one listing, oldest first.
func (r *ListingRepo) GetPriceHistory(listingID int64) ([]data.PriceHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var entries []data.PriceHistoryEntry
	err := r.db.Select(&entries,
		"SELECT * FROM price_history WHERE listing_id = ? ORDER BY changed_at ASC, id ASC",
		listingID)
	if err != nil {
		return nil, fmt.Errorf("get price history: %w", err)
	}
	return entries, nil
}

// GetListing looks up one listing by its dedup key.
func (r *ListingRepo) GetListing(platform enums.Platform, articleID string) (*data.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var listing data.Listing
	err := r.db.Get(&listing,
		"SELECT * FROM listings WHERE platform = ? AND article_id = ?",
		platform, articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	return &listing, nil
}

// UpdateSaleStatus sets the sale status of a listing.
func (r *ListingRepo) UpdateSaleStatus(listingID int64, status enums.SaleStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		"UPDATE listings SET sale_status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), listingID)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	r.invalidateCache()
	return nil
}

// DetectSaleStatus infers a sale status from title text.
func DetectSaleStatus(title string) enums.SaleStatus {
	if matchers.ContainsAny(title, []string{"판매완료", "거래완료", "sold"}) {
		return enums.SaleStatusSold
	}
	if matchers.ContainsAny(title, []string{"예약중", "예약", "reserved"}) {
		return enums.SaleStatusReserved
	}
	return enums.SaleStatusForSale
}
