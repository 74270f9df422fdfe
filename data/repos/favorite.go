package repos

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sehyunk/jangter/data"
)

// AddFavorite marks a listing as a favorite with an optional target price.
func (r *ListingRepo) AddFavorite(listingID int64, notes string, targetPrice int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		INSERT INTO favorites (listing_id, notes, target_price, added_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (listing_id) DO UPDATE SET notes = excluded.notes, target_price = excluded.target_price`,
		listingID, notes, targetPrice, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// GetFavorite returns the favorite row for a listing, or nil if it is not
// favorited. The engine uses the target price to annotate price drops.
func (r *ListingRepo) GetFavorite(listingID int64) (*data.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var fav data.Favorite
	err := r.db.Get(&fav, "SELECT * FROM favorites WHERE listing_id = ?", listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get favorite: %w", err)
	}
	return &fav, nil
}

// RemoveFavorite unmarks a listing.
func (r *ListingRepo) RemoveFavorite(listingID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec("DELETE FROM favorites WHERE listing_id = ?", listingID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}
