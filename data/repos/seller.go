package repos

import (
	"fmt"
	"time"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/filters"
)

// GetBlockedSellers loads the blocked (seller, platform) pairs consulted
// by the filter pipeline each batch.
func (r *ListingRepo) GetBlockedSellers() (filters.BlockedSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	type row struct {
		SellerName string         `db:"seller_name"`
		Platform   enums.Platform `db:"platform"`
	}
	var rows []row
	err := r.db.Select(&rows,
		"SELECT seller_name, platform FROM seller_filters WHERE is_blocked = 1")
	if err != nil {
		return nil, fmt.Errorf("get blocked sellers: %w", err)
	}

	blocked := make(filters.BlockedSet, len(rows))
	for _, s := range rows {
		blocked[filters.SellerKey{Seller: s.SellerName, Platform: s.Platform}] = struct{}{}
	}
	return blocked, nil
}

// AddSellerFilter blocks or unblocks a seller on a platform. Mutated only
// by user action, never by the monitoring loop.
func (r *ListingRepo) AddSellerFilter(sellerName string, platform enums.Platform, isBlocked bool, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		INSERT INTO seller_filters (seller_name, platform, is_blocked, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (seller_name, platform) DO UPDATE SET is_blocked = excluded.is_blocked, notes = excluded.notes`,
		sellerName, platform, isBlocked, notes, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add seller filter: %w", err)
	}
	return nil
}

// RemoveSellerFilter deletes a seller filter entirely.
func (r *ListingRepo) RemoveSellerFilter(sellerName string, platform enums.Platform) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(
		"DELETE FROM seller_filters WHERE seller_name = ? AND platform = ?",
		sellerName, platform)
	if err != nil {
		return fmt.Errorf("remove seller filter: %w", err)
	}
	return nil
}
