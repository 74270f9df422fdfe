// Package filters holds the pure stages applied to a platform's raw scrape
// batch before anything touches the store. Stage order matters: cheap
// rejects run first so later stages see fewer items, and the final fuzzy
// duplicate check (the only stateful stage) is applied by the engine
// through the store.
package filters

import (
	"strings"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/matchers"
	"github.com/sehyunk/jangter/models"
)

// SellerKey identifies a seller on one platform for block checks.
type SellerKey struct {
	Seller   string
	Platform enums.Platform
}

// BlockedSet is the read-only blocked-seller set consulted each batch.
type BlockedSet map[SellerKey]struct{}

var unavailableTitleWords = []string{
	"판매완료", "거래완료", "sold", "예약중", "예약완료",
}

// Apply runs all pure stages in order and returns the survivors.
func Apply(items []models.Item, kw models.SearchKeyword, blocked BlockedSet) []models.Item {
	out := make([]models.Item, 0, len(items))
	for i := range items {
		item := items[i]
		if !kw.MatchesPrice(&item) {
			continue
		}
		if !kw.MatchesLocation(&item) {
			continue
		}
		if matchers.ContainsAny(item.Title, kw.ExcludeKeywords) {
			continue
		}
		if blocked.Contains(item.Seller, item.Platform) {
			continue
		}
		if !ValidTitle(item.Title) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Contains reports whether the seller is blocked on the given platform.
// Items without a seller are never blocked.
func (b BlockedSet) Contains(seller string, platform enums.Platform) bool {
	if seller == "" || len(b) == 0 {
		return false
	}
	_, ok := b[SellerKey{Seller: seller, Platform: platform}]
	return ok
}

// ValidTitle rejects empty or placeholder titles and listings whose title
// already marks them sold or reserved.
func ValidTitle(title string) bool {
	if len(strings.TrimSpace(title)) < 2 {
		return false
	}
	return !matchers.ContainsAny(title, unavailableTitleWords)
}
