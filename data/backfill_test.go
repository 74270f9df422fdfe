package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackfillNumericPrices(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(db.DB))

	// Rows as an older schema would have left them: price text present,
	// numeric columns at their zero default.
	now := time.Now().UTC()
	_, err = db.Exec(`
		INSERT INTO listings (platform, article_id, title, price, created_at, updated_at)
		VALUES ('danggeun', 'a1', '맥북 에어', '10만원', ?, ?),
		       ('danggeun', 'a2', '아이패드', '2만5천', ?, ?)`,
		now, now, now, now)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO price_history (listing_id, old_price, new_price, changed_at)
		VALUES (1, '12만원', '10만원', ?)`, now)
	require.NoError(t, err)

	require.NoError(t, BackfillNumericPrices(db))

	var numerics []int
	require.NoError(t, db.Select(&numerics, "SELECT price_numeric FROM listings ORDER BY article_id"))
	assert.Equal(t, []int{100000, 25000}, numerics)

	var oldNum, newNum int
	require.NoError(t, db.Get(&oldNum, "SELECT old_price_numeric FROM price_history WHERE id = 1"))
	require.NoError(t, db.Get(&newNum, "SELECT new_price_numeric FROM price_history WHERE id = 1"))
	assert.Equal(t, 120000, oldNum)
	assert.Equal(t, 100000, newNum)
}

func TestBackfillNumericPrices_RunsOncePerVersion(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, RunMigrations(db.DB))
	require.NoError(t, BackfillNumericPrices(db))

	// With the version marker in place a second run must not touch rows.
	now := time.Now().UTC()
	_, err = db.Exec(`
		INSERT INTO listings (platform, article_id, title, price, created_at, updated_at)
		VALUES ('danggeun', 'a1', '맥북 에어', '10만원', ?, ?)`, now, now)
	require.NoError(t, err)

	require.NoError(t, BackfillNumericPrices(db))

	var numeric int
	require.NoError(t, db.Get(&numeric, "SELECT price_numeric FROM listings WHERE article_id = 'a1'"))
	assert.Equal(t, 0, numeric)
}
