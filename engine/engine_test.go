package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehyunk/jangter/config"
	"github.com/sehyunk/jangter/data"
	"github.com/sehyunk/jangter/data/repos"
	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
	"github.com/sehyunk/jangter/notifiers"
)

type fakeNotifier struct {
	mu           sync.Mutex
	failures     int
	calls        int
	items        []string
	messages     []string
	priceChanges []string
}

func (f *fakeNotifier) Channel() enums.Channel { return enums.ChannelTelegram }

func (f *fakeNotifier) fail() bool {
	f.calls++
	return f.calls <= f.failures
}

func (f *fakeNotifier) SendMessage(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return errors.New("send failed")
	}
	f.messages = append(f.messages, text)
	return nil
}

func (f *fakeNotifier) SendItem(ctx context.Context, item models.Item, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return errors.New("send failed")
	}
	f.items = append(f.items, item.Title)
	return nil
}

func (f *fakeNotifier) SendPriceChange(ctx context.Context, item models.Item, oldPrice, newPrice, note string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return errors.New("send failed")
	}
	f.priceChanges = append(f.priceChanges, oldPrice+" → "+newPrice+" "+note)
	return nil
}

func (f *fakeNotifier) sentItems() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.items...)
}

type fakeSearcher struct {
	platform enums.Platform
	items    []models.Item
	err      error
	calls    int
}

func (f *fakeSearcher) Platform() enums.Platform { return f.platform }

func (f *fakeSearcher) Search(ctx context.Context, keyword, location string) ([]models.Item, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Item, len(f.items))
	copy(out, f.items)
	for i := range out {
		out[i].Keyword = keyword
	}
	return out, nil
}

type fakeGate struct {
	acquires int
	ensures  int
}

func (g *fakeGate) Acquire(ctx context.Context) error { g.acquires++; return nil }
func (g *fakeGate) Release()                          {}
func (g *fakeGate) EnsureHealthy() error              { g.ensures++; return nil }

func newTestRepoDB(t *testing.T) (*repos.ListingRepo, *sqlx.DB) {
	t.Helper()

	db, err := data.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, data.RunMigrations(db.DB))
	require.NoError(t, data.BackfillNumericPrices(db))

	return repos.NewListingRepo(db, 0.85), db
}

func newTestRepo(t *testing.T) *repos.ListingRepo {
	t.Helper()
	repo, _ := newTestRepoDB(t)
	return repo
}

func testConfig(keywords ...models.SearchKeyword) *config.Config {
	return &config.Config{
		CheckInterval:        time.Minute,
		ErrorBackoff:         time.Millisecond,
		ErrorBackoffMax:      5 * time.Millisecond,
		KeywordPause:         time.Millisecond,
		ShutdownTimeout:      time.Second,
		DrainTimeout:         2 * time.Second,
		FuzzyThreshold:       0.85,
		NotificationsEnabled: true,
		Schedule:             models.Schedule{Enabled: true, EndHour: 24},
		Keywords:             keywords,
	}
}

func newTestQueue(repo *repos.ListingRepo, schedule models.Schedule, channels ...notifiers.Notifier) *Queue {
	q := NewQueue(repo, channels, schedule)
	q.baseDelay = time.Millisecond
	return q
}

func macbookItem(articleID, title, priceText string) models.Item {
	return models.Item{
		Platform:  enums.PlatformBunjang,
		ArticleID: articleID,
		Title:     title,
		Price:     priceText,
		URL:       "https://m.bunjang.co.kr/products/" + articleID,
	}
}

func TestQueueRetriesFailedSend(t *testing.T) {
	repo := newTestRepo(t)
	notifier := &fakeNotifier{failures: 1}
	q := newTestQueue(repo, models.Schedule{Enabled: true, EndHour: 24}, notifier)
	q.Start()

	item := macbookItem("1", "맥북 에어 M2", "1,200,000원")
	isNew, _, listingID, err := repo.AddListing(&item)
	require.NoError(t, err)
	require.True(t, isNew)

	q.Enqueue(job{Kind: jobNewItem, Item: item, ListingID: listingID})
	q.Drain(2 * time.Second)

	assert.Equal(t, []string{"맥북 에어 M2"}, notifier.sentItems())
	assert.Equal(t, 2, notifier.calls)

	logs, err := repo.GetNotificationLogs(10, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, listingID, logs[0].ListingID)
	assert.Equal(t, enums.ChannelTelegram, logs[0].Channel)
}

func TestQueueGivesUpAfterAttempts(t *testing.T) {
	repo := newTestRepo(t)
	notifier := &fakeNotifier{failures: 100}
	q := newTestQueue(repo, models.Schedule{Enabled: true, EndHour: 24}, notifier)
	q.Start()

	q.Enqueue(job{Kind: jobNewItem, Item: macbookItem("1", "맥북", "100,000원"), ListingID: 1})
	q.Drain(2 * time.Second)

	assert.Equal(t, sendMaxAttempts, notifier.calls)
	assert.Empty(t, notifier.sentItems())

	logs, err := repo.GetNotificationLogs(10, 0)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestQueueDropsOutsideSchedule(t *testing.T) {
	repo := newTestRepo(t)
	notifier := &fakeNotifier{}
	q := newTestQueue(repo, models.Schedule{Enabled: true, StartHour: 9, EndHour: 18}, notifier)
	q.now = func() time.Time {
		return time.Date(2025, 6, 1, 3, 0, 0, 0, time.Local)
	}
	q.Start()

	q.Enqueue(job{Kind: jobNewItem, Item: macbookItem("1", "맥북", "100,000원"), ListingID: 1})
	q.Drain(time.Second)

	assert.Zero(t, notifier.calls)
}

func TestFirstCycleStoresWithoutAlerting(t *testing.T) {
	repo := newTestRepo(t)
	notifier := &fakeNotifier{}

	kw := models.SearchKeyword{
		Keyword:       "맥북 에어 M2",
		MinPrice:      500_000,
		MaxPrice:      1_500_000,
		Platforms:     []enums.Platform{enums.PlatformBunjang},
		Enabled:       true,
		NotifyEnabled: true,
	}
	cfg := testConfig(kw)

	searcher := &fakeSearcher{
		platform: enums.PlatformBunjang,
		items: []models.Item{
			macbookItem("cheap", "맥북 에어 M2 급처", "10만원"),
			macbookItem("good", "맥북 에어 M2 판매", "120만원"),
		},
	}

	q := newTestQueue(repo, cfg.Schedule, notifier)
	q.Start()

	var newItems []string
	e := New(cfg, repo, []Searcher{searcher}, nil, q, Callbacks{
		OnNewItem: func(item models.Item, note string) {
			newItems = append(newItems, item.Title)
		},
	})

	require.NoError(t, e.runCycle(context.Background()))

	// the 10만원 item is below MinPrice and never stored
	assert.Equal(t, []string{"맥북 에어 M2 판매"}, newItems)
	stored, err := repo.GetListing(enums.PlatformBunjang, "good")
	require.NoError(t, err)
	require.NotNil(t, stored)
	cheap, err := repo.GetListing(enums.PlatformBunjang, "cheap")
	require.NoError(t, err)
	assert.Nil(t, cheap)

	// first run populates the store silently
	assert.Zero(t, q.Len())

	// a later cycle alerts on fresh listings only
	e.firstRun = false
	searcher.items = append(searcher.items, macbookItem("fresh", "맥북 에어 M2 미개봉", "130만원"))

	require.NoError(t, e.runCycle(context.Background()))
	q.Drain(2 * time.Second)

	assert.Equal(t, []string{"맥북 에어 M2 미개봉"}, notifier.sentItems())
}

func TestPriceChangeAlertCarriesTargetNote(t *testing.T) {
	repo := newTestRepo(t)
	notifier := &fakeNotifier{}

	kw := models.SearchKeyword{
		Keyword:       "맥북 에어 M2",
		Platforms:     []enums.Platform{enums.PlatformBunjang},
		Enabled:       true,
		NotifyEnabled: true,
	}
	cfg := testConfig(kw)

	searcher := &fakeSearcher{
		platform: enums.PlatformBunjang,
		items:    []models.Item{macbookItem("1", "맥북 에어 M2", "1,200,000원")},
	}

	q := newTestQueue(repo, cfg.Schedule, notifier)
	q.Start()

	e := New(cfg, repo, []Searcher{searcher}, nil, q, Callbacks{})
	require.NoError(t, e.runCycle(context.Background()))
	e.firstRun = false

	listing, err := repo.GetListing(enums.PlatformBunjang, "1")
	require.NoError(t, err)
	require.NotNil(t, listing)
	require.NoError(t, repo.AddFavorite(listing.ID, "", 1_100_000))

	searcher.items = []models.Item{macbookItem("1", "맥북 에어 M2", "1,050,000원")}
	require.NoError(t, e.runCycle(context.Background()))
	q.Drain(2 * time.Second)

	require.Len(t, notifier.priceChanges, 1)
	assert.Contains(t, notifier.priceChanges[0], "1,200,000원 → 1,050,000원")
	assert.Contains(t, notifier.priceChanges[0], "목표가")
}

func TestCustomIntervalSkipsRecentlySearchedKeyword(t *testing.T) {
	repo := newTestRepo(t)

	kw := models.SearchKeyword{
		Keyword:        "아이패드",
		Platforms:      []enums.Platform{enums.PlatformBunjang},
		Enabled:        true,
		CustomInterval: time.Hour,
	}
	cfg := testConfig(kw)
	cfg.NotificationsEnabled = false

	searcher := &fakeSearcher{platform: enums.PlatformBunjang}
	q := newTestQueue(repo, cfg.Schedule)
	q.Start()

	e := New(cfg, repo, []Searcher{searcher}, nil, q, Callbacks{})

	require.NoError(t, e.runCycle(context.Background()))
	assert.Equal(t, 1, searcher.calls)

	// the search stat recorded above makes the keyword not yet due
	require.NoError(t, e.runCycle(context.Background()))
	assert.Equal(t, 1, searcher.calls)

	q.Drain(time.Second)
}

func TestScrapeFailureSurfacesThroughOnError(t *testing.T) {
	repo := newTestRepo(t)

	kw := models.SearchKeyword{
		Keyword:   "아이패드",
		Platforms: []enums.Platform{enums.PlatformBunjang},
		Enabled:   true,
	}
	cfg := testConfig(kw)
	cfg.NotificationsEnabled = false

	searcher := &fakeSearcher{platform: enums.PlatformBunjang, err: errors.New("blocked by captcha")}
	q := newTestQueue(repo, cfg.Schedule)
	q.Start()

	var errs []error
	e := New(cfg, repo, []Searcher{searcher}, nil, q, Callbacks{
		OnError: func(err error) { errs = append(errs, err) },
	})

	require.NoError(t, e.runCycle(context.Background()))
	q.Drain(time.Second)

	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "blocked by captcha")
}

func TestStoreFailureSurfacesThroughOnError(t *testing.T) {
	repo, db := newTestRepoDB(t)

	kw := models.SearchKeyword{
		Keyword:   "아이패드",
		Platforms: []enums.Platform{enums.PlatformBunjang},
		Enabled:   true,
	}
	cfg := testConfig(kw)
	cfg.NotificationsEnabled = false

	searcher := &fakeSearcher{
		platform: enums.PlatformBunjang,
		items:    []models.Item{macbookItem("1", "아이패드 프로", "800,000원")},
	}
	q := newTestQueue(repo, cfg.Schedule)
	q.Start()

	var errs []error
	e := New(cfg, repo, []Searcher{searcher}, nil, q, Callbacks{
		OnError: func(err error) { errs = append(errs, err) },
	})

	// break the store mid-flight: listing writes now fail per item
	_, err := db.Exec("DROP TABLE listings")
	require.NoError(t, err)

	require.NoError(t, e.runCycle(context.Background()))
	q.Drain(time.Second)

	assert.NotEmpty(t, errs)
}

func TestCycleRecyclesBrowserSession(t *testing.T) {
	repo := newTestRepo(t)

	kw := models.SearchKeyword{
		Keyword:   "아이패드",
		Platforms: []enums.Platform{enums.PlatformBunjang},
		Enabled:   true,
	}
	cfg := testConfig(kw)
	cfg.NotificationsEnabled = false

	searcher := &fakeSearcher{platform: enums.PlatformBunjang}
	gate := &fakeGate{}
	q := newTestQueue(repo, cfg.Schedule)
	q.Start()

	e := New(cfg, repo, []Searcher{searcher}, gate, q, Callbacks{})

	require.NoError(t, e.runCycle(context.Background()))
	require.NoError(t, e.runCycle(context.Background()))
	q.Drain(time.Second)

	assert.Equal(t, 2, gate.ensures)
}

func TestStopBeforeStartIsNoOp(t *testing.T) {
	repo := newTestRepo(t)
	cfg := testConfig()
	q := newTestQueue(repo, cfg.Schedule)

	e := New(cfg, repo, nil, nil, q, Callbacks{})

	assert.NotPanics(t, func() {
		e.Stop()
		e.Stop()
	})
	assert.Equal(t, StatusIdle, e.Status())
}

func TestStopIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	cfg := testConfig()
	cfg.NotificationsEnabled = false
	q := newTestQueue(repo, cfg.Schedule)

	e := New(cfg, repo, nil, nil, q, Callbacks{})
	require.NoError(t, e.Start())

	assert.NotPanics(t, func() {
		e.Stop()
		e.Stop()
	})
	assert.Equal(t, StatusStopped, e.Status())
}

func TestDisabledKeywordIsNeverSearched(t *testing.T) {
	repo := newTestRepo(t)

	kw := models.SearchKeyword{
		Keyword:   "아이패드",
		Platforms: []enums.Platform{enums.PlatformBunjang},
		Enabled:   false,
	}
	cfg := testConfig(kw)

	searcher := &fakeSearcher{platform: enums.PlatformBunjang}
	q := newTestQueue(repo, cfg.Schedule)
	q.Start()

	e := New(cfg, repo, []Searcher{searcher}, nil, q, Callbacks{})
	require.NoError(t, e.runCycle(context.Background()))

	assert.Zero(t, searcher.calls)
	q.Drain(time.Second)
}
