package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sehyunk/jangter/data"
	"github.com/sehyunk/jangter/enums"
)

// RecordSearchStat appends one keyword/platform search result row.
func (r *ListingRepo) RecordSearchStat(keyword string, platform enums.Platform, itemsFound, newItems int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		INSERT INTO search_stats (keyword, platform, items_found, new_items, checked_at)
		VALUES (?, ?, ?, ?, ?)`,
		keyword, platform, itemsFound, newItems, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record search stat: %w", err)
	}
	r.invalidateCache()
	return nil
}

// GetLastSearchTime returns the most recent search time for a keyword
// across all platforms, or the zero time if it was never searched.
func (r *ListingRepo) GetLastSearchTime(keyword string) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var checkedAt time.Time
	err := r.db.Get(&checkedAt, `
		SELECT checked_at FROM search_stats
		WHERE keyword = ?
		ORDER BY checked_at DESC
		LIMIT 1`, keyword)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get last search time: %w", err)
	}
	return checkedAt, nil
}

// DashboardSnapshot returns the aggregate read-model, served from a short
// TTL cache. Any successful store mutation invalidates the cache, so a
// snapshot is never staler than the TTL or the last write, whichever is
// closer.
func (r *ListingRepo) DashboardSnapshot() (*data.Dashboard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if r.cache != nil && now.Sub(r.cacheTime) < r.cacheTTL {
		return r.cache, nil
	}

	snapshot, err := r.buildDashboard()
	if err != nil {
		return nil, err
	}
	r.cache = snapshot
	r.cacheTime = now
	return snapshot, nil
}

func (r *ListingRepo) buildDashboard() (*data.Dashboard, error) {
	d := &data.Dashboard{
		ByPlatform:  make(map[enums.Platform]int),
		GeneratedAt: time.Now().UTC(),
	}

	if err := r.db.Get(&d.TotalListings, "SELECT COUNT(*) FROM listings"); err != nil {
		return nil, fmt.Errorf("dashboard: total: %w", err)
	}

	type platformCount struct {
		Platform enums.Platform `db:"platform"`
		Count    int            `db:"count"`
	}
	var counts []platformCount
	if err := r.db.Select(&counts,
		"SELECT platform, COUNT(*) AS count FROM listings GROUP BY platform"); err != nil {
		return nil, fmt.Errorf("dashboard: by platform: %w", err)
	}
	for _, c := range counts {
		d.ByPlatform[c.Platform] = c.Count
	}

	if err := r.db.Select(&d.Recent,
		"SELECT * FROM listings ORDER BY created_at DESC LIMIT 20"); err != nil {
		return nil, fmt.Errorf("dashboard: recent: %w", err)
	}

	changeCutoff := time.Now().UTC().Add(-20 * 24 * time.Hour)
	if err := r.db.Select(&d.PriceChanges, `
		SELECT l.platform, l.article_id, l.title, l.url,
		       ph.old_price, ph.new_price, ph.changed_at
		FROM price_history ph
		JOIN listings l ON l.id = ph.listing_id
		WHERE ph.changed_at >= ?
		ORDER BY ph.changed_at DESC
		LIMIT 20`, changeCutoff); err != nil {
		return nil, fmt.Errorf("dashboard: price changes: %w", err)
	}

	if err := r.db.Select(&d.KeywordStats, `
		SELECT keyword,
		       COUNT(*) AS count,
		       MIN(price_numeric) AS min_price,
		       CAST(AVG(price_numeric) AS INTEGER) AS avg_price,
		       MAX(price_numeric) AS max_price
		FROM listings
		WHERE price_numeric > 0
		GROUP BY keyword
		ORDER BY count DESC`); err != nil {
		return nil, fmt.Errorf("dashboard: keyword stats: %w", err)
	}

	dailyCutoff := time.Now().UTC().Add(-7 * 24 * time.Hour)
	if err := r.db.Select(&d.Daily, `
		SELECT DATE(checked_at) AS date,
		       SUM(items_found) AS items_found,
		       SUM(new_items) AS new_items
		FROM search_stats
		WHERE checked_at >= ?
		GROUP BY DATE(checked_at)
		ORDER BY date`, dailyCutoff); err != nil {
		return nil, fmt.Errorf("dashboard: daily stats: %w", err)
	}

	return d, nil
}

// invalidateCache must be called with the store mutex held.
func (r *ListingRepo) invalidateCache() {
	r.cache = nil
	r.cacheTime = time.Time{}
}
