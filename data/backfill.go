package data

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jmoiron/sqlx"

	"github.com/sehyunk/jangter/price"
)

// PriceParseVersion is bumped whenever the price parser changes in a way
// that should recompute stored numeric prices. The backfill runs once per
// version per database and is additive: it never drops or rewrites price
// text, only the derived numeric columns.
const PriceParseVersion = 2

const priceParseVersionKey = "price_parse_version"

// BackfillNumericPrices recomputes numeric price columns through the
// canonical parser if the stored parse version is older than the current
// one. Safe to call on every startup.
func BackfillNumericPrices(db *sqlx.DB) error {
	var raw string
	err := db.Get(&raw, "SELECT value FROM meta WHERE key = ?", priceParseVersionKey)
	if err == nil {
		if v, convErr := strconv.Atoi(raw); convErr == nil && v >= PriceParseVersion {
			return nil
		}
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("backfill numeric prices: begin: %w", err)
	}
	defer tx.Rollback()

	type priceRow struct {
		ID    int64  `db:"id"`
		Price string `db:"price"`
	}
	var listings []priceRow
	if err := tx.Select(&listings, "SELECT id, price FROM listings"); err != nil {
		return fmt.Errorf("backfill numeric prices: select listings: %w", err)
	}
	for _, row := range listings {
		if _, err := tx.Exec(
			"UPDATE listings SET price_numeric = ? WHERE id = ?",
			price.Parse(row.Price), row.ID,
		); err != nil {
			return fmt.Errorf("backfill numeric prices: update listing %d: %w", row.ID, err)
		}
	}

	type historyRow struct {
		ID       int64  `db:"id"`
		OldPrice string `db:"old_price"`
		NewPrice string `db:"new_price"`
	}
	var history []historyRow
	if err := tx.Select(&history, "SELECT id, old_price, new_price FROM price_history"); err != nil {
		return fmt.Errorf("backfill numeric prices: select history: %w", err)
	}
	for _, row := range history {
		if _, err := tx.Exec(
			"UPDATE price_history SET old_price_numeric = ?, new_price_numeric = ? WHERE id = ?",
			price.Parse(row.OldPrice), price.Parse(row.NewPrice), row.ID,
		); err != nil {
			return fmt.Errorf("backfill numeric prices: update history %d: %w", row.ID, err)
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value",
		priceParseVersionKey, strconv.Itoa(PriceParseVersion),
	); err != nil {
		return fmt.Errorf("backfill numeric prices: set meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("backfill numeric prices: commit: %w", err)
	}

	slog.Info("numeric price backfill complete",
		"listings", len(listings), "history", len(history), "version", PriceParseVersion)
	return nil
}
