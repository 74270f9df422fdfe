package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
	"github.com/sehyunk/jangter/observability"
)

type flakyScraper struct {
	failures int
	calls    int
	items    []models.Item
}

func (f *flakyScraper) Platform() enums.Platform {
	return enums.PlatformBunjang
}

func (f *flakyScraper) Search(ctx context.Context, keyword, location string) ([]models.Item, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("boom")
	}
	return f.items, nil
}

func TestSafeRetriesUntilSuccess(t *testing.T) {
	inner := &flakyScraper{
		failures: 2,
		items:    []models.Item{{Platform: enums.PlatformBunjang, ArticleID: "1", Title: "아이패드"}},
	}
	safe := NewSafe(inner)

	items, err := safe.Search(context.Background(), "아이패드", "")

	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 3, inner.calls)
}

func TestSafeReportsExhaustedFailure(t *testing.T) {
	inner := &flakyScraper{failures: 10}
	safe := NewSafe(inner)

	counter := observability.ScrapeErrorsTotal.WithLabelValues(string(enums.PlatformBunjang))
	before := testutil.ToFloat64(counter)

	items, err := safe.Search(context.Background(), "아이패드", "")

	assert.Error(t, err)
	assert.Empty(t, items)
	assert.Equal(t, safeMaxAttempts, inner.calls)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestSafeStopsOnCancelledContext(t *testing.T) {
	inner := &flakyScraper{failures: 10}
	safe := NewSafe(inner)

	counter := observability.ScrapeErrorsTotal.WithLabelValues(string(enums.PlatformBunjang))
	before := testutil.ToFloat64(counter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items, err := safe.Search(ctx, "아이패드", "")

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, items)
	assert.Less(t, inner.calls, safeMaxAttempts)

	// cancellation is not a scrape failure
	assert.Equal(t, before, testutil.ToFloat64(counter))
}

func TestDanggeunArticleIDFromURL(t *testing.T) {
	assert.Equal(t, "12345", articleIDFromURL("https://www.daangn.com/kr/buy-sell/아이패드-판매-12345/"))
	assert.Equal(t, "9", articleIDFromURL("https://www.daangn.com/articles/9"))
	assert.Equal(t, "", articleIDFromURL(""))
}

func TestJoonggoArticleID(t *testing.T) {
	assert.Equal(t, "777", joonggoArticleID("https://cafe.naver.com/ArticleRead.nhn?clubid=10050146&articleid=777"))
	assert.Equal(t, "555", joonggoArticleID("https://cafe.naver.com/joonggonara/555"))
	assert.Equal(t, "", joonggoArticleID("https://cafe.naver.com/joonggonara"))
}
