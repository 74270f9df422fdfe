// Package engine runs the monitoring loop: search each due keyword on
// its platforms, store what came back, and queue alerts for anything
// new or repriced.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sehyunk/jangter/config"
	"github.com/sehyunk/jangter/data/repos"
	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/filters"
	"github.com/sehyunk/jangter/models"
	"github.com/sehyunk/jangter/observability"
	"github.com/sehyunk/jangter/price"
)

type Status string

const (
	StatusIdle         Status = "idle"
	StatusInitializing Status = "initializing"
	StatusRunning      Status = "running"
	StatusStopping     Status = "stopping"
	StatusStopped      Status = "stopped"
)

// consecutive empty results on a keyword+platform pair before warning
const emptyStreakLimit = 3

const idChunkSize = 500

// Searcher is what the engine runs per platform. Retries live inside the
// implementation; a returned error means the search is exhausted and the
// result set is empty.
type Searcher interface {
	Platform() enums.Platform
	Search(ctx context.Context, keyword, location string) ([]models.Item, error)
}

// browserGate serializes access to the shared browser session and lets
// the engine recycle a dead one between cycles. Nil when no
// browser-backed searcher is configured.
type browserGate interface {
	Acquire(ctx context.Context) error
	Release()
	EnsureHealthy() error
}

// Callbacks let the host process observe the engine without polling.
// All of them may be nil.
type Callbacks struct {
	OnNewItem      func(item models.Item, note string)
	OnPriceChange  func(item models.Item, oldPrice, newPrice string)
	OnStatusUpdate func(status Status)
	OnError        func(err error)
}

type Engine struct {
	cfg       *config.Config
	repo      *repos.ListingRepo
	searchers map[enums.Platform]Searcher
	browser   browserGate
	queue     *Queue
	callbacks Callbacks

	mu     sync.Mutex
	status Status

	// first full cycle populates the store without alerting
	firstRun    bool
	emptyStreak map[string]int

	cancel   context.CancelFunc
	stopOnce sync.Once
	done     chan struct{}
}

func New(cfg *config.Config, repo *repos.ListingRepo, searchers []Searcher, browser browserGate, queue *Queue, callbacks Callbacks) *Engine {
	byPlatform := make(map[enums.Platform]Searcher, len(searchers))
	for _, s := range searchers {
		byPlatform[s.Platform()] = s
	}
	return &Engine{
		cfg:         cfg,
		repo:        repo,
		searchers:   byPlatform,
		browser:     browser,
		queue:       queue,
		callbacks:   callbacks,
		status:      StatusIdle,
		firstRun:    true,
		emptyStreak: make(map[string]int),
		done:        make(chan struct{}),
	}
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) setStatus(s Status) {
	e.mu.Lock()
	e.status = s
	e.mu.Unlock()

	if e.callbacks.OnStatusUpdate != nil {
		e.callbacks.OnStatusUpdate(s)
	}
}

// Start brings the engine up and launches the monitoring loop. It
// returns once the loop is running.
func (e *Engine) Start() error {
	ctx, cancel := context.WithCancel(context.Background())

	e.mu.Lock()
	if e.status != StatusIdle {
		e.mu.Unlock()
		cancel()
		return fmt.Errorf("engine start: already %s", e.status)
	}
	e.cancel = cancel
	e.mu.Unlock()

	e.setStatus(StatusInitializing)

	e.queue.Start()

	if e.cfg.NotificationsEnabled {
		e.queue.Enqueue(job{
			Kind: jobMessage,
			Text: fmt.Sprintf("🔔 장터 모니터링 시작 (키워드 %d개)", len(e.enabledKeywords())),
		})
	}

	go e.run(ctx)

	e.setStatus(StatusRunning)
	slog.Info("engine started",
		"keywords", len(e.enabledKeywords()), "interval", e.cfg.CheckInterval)
	return nil
}

// Stop shuts the loop down and drains the notification queue. Calling
// it before Start, or more than once, is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	started := e.cancel != nil
	e.mu.Unlock()
	if !started {
		return
	}

	e.stopOnce.Do(func() {
		e.setStatus(StatusStopping)
		e.cancel()

		select {
		case <-e.done:
		case <-time.After(e.cfg.ShutdownTimeout):
			slog.Warn("monitoring loop did not stop in time")
		}

		e.queue.Drain(e.cfg.DrainTimeout)
		e.setStatus(StatusStopped)
		slog.Info("engine stopped")
	})
}

func (e *Engine) reportError(err error) {
	if e.callbacks.OnError != nil {
		e.callbacks.OnError(err)
	}
}

func (e *Engine) enabledKeywords() []models.SearchKeyword {
	out := make([]models.SearchKeyword, 0, len(e.cfg.Keywords))
	for _, kw := range e.cfg.Keywords {
		if kw.Enabled {
			out = append(out, kw)
		}
	}
	return out
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	consecutiveErrors := 0
	for {
		err := e.runCycle(ctx)
		if ctx.Err() != nil {
			return
		}

		wait := e.cfg.CheckInterval
		if err != nil {
			consecutiveErrors++
			wait = e.cfg.ErrorBackoff * time.Duration(consecutiveErrors)
			if wait > e.cfg.ErrorBackoffMax {
				wait = e.cfg.ErrorBackoffMax
			}
			slog.Error("search cycle failed",
				"error", err, "consecutive", consecutiveErrors, "backoff", wait)
			if e.callbacks.OnError != nil {
				e.callbacks.OnError(err)
			}
		} else {
			consecutiveErrors = 0
			observability.CyclesTotal.Inc()
			if e.firstRun {
				e.firstRun = false
				slog.Info("initial scan complete, alerts enabled")
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (e *Engine) runCycle(ctx context.Context) error {
	e.recycleBrowser(ctx)

	blocked, err := e.repo.GetBlockedSellers()
	if err != nil {
		return fmt.Errorf("run cycle: %w", err)
	}

	now := time.Now()
	for _, kw := range e.enabledKeywords() {
		if ctx.Err() != nil {
			return nil
		}

		lastSearch, err := e.repo.GetLastSearchTime(kw.Keyword)
		if err != nil {
			slog.Error("read last search time", "keyword", kw.Keyword, "error", err)
			e.reportError(fmt.Errorf("read last search time for %q: %w", kw.Keyword, err))
		} else if !kw.Due(lastSearch, now) {
			slog.Debug("keyword not due", "keyword", kw.Keyword, "interval", kw.CustomInterval)
			continue
		}

		e.searchKeyword(ctx, kw, blocked)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(e.cfg.KeywordPause):
		}
	}
	return nil
}

// recycleBrowser swaps out a dead browser session before the cycle
// touches it. Sessions expire under long-running polling.
func (e *Engine) recycleBrowser(ctx context.Context) {
	if e.browser == nil {
		return
	}
	if err := e.browser.Acquire(ctx); err != nil {
		return
	}
	err := e.browser.EnsureHealthy()
	e.browser.Release()
	if err != nil {
		slog.Error("browser session recovery failed", "error", err)
		e.reportError(fmt.Errorf("browser session recovery: %w", err))
	}
}

func (e *Engine) searchKeyword(ctx context.Context, kw models.SearchKeyword, blocked filters.BlockedSet) {
	for _, platform := range kw.TargetPlatforms() {
		searcher, ok := e.searchers[platform]
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}

		items := e.search(ctx, searcher, kw)
		observability.ItemsFoundTotal.WithLabelValues(string(platform)).Add(float64(len(items)))

		streakKey := kw.Keyword + "|" + string(platform)
		if len(items) == 0 {
			e.emptyStreak[streakKey]++
			if e.emptyStreak[streakKey] == emptyStreakLimit {
				slog.Warn("keyword returns nothing, check filters or platform markup",
					"keyword", kw.Keyword, "platform", platform, "streak", emptyStreakLimit)
				e.reportError(fmt.Errorf(
					"keyword %q on %s returned no results %d times in a row",
					kw.Keyword, platform, emptyStreakLimit))
			}
		} else {
			e.emptyStreak[streakKey] = 0
		}

		kept := filters.Apply(items, kw, blocked)
		newCount := e.storeItems(kept, kw, platform)

		if err := e.repo.RecordSearchStat(kw.Keyword, platform, len(items), newCount); err != nil {
			slog.Error("record search stat", "keyword", kw.Keyword, "error", err)
			e.reportError(fmt.Errorf("record search stat for %q: %w", kw.Keyword, err))
		}

		slog.Info("keyword searched",
			"keyword", kw.Keyword, "platform", platform,
			"found", len(items), "kept", len(kept), "new", newCount)
	}
}

// search runs one platform search, holding the browser slot for the
// duration when a browser session is in play. An exhausted search is
// reported and treated as zero results.
func (e *Engine) search(ctx context.Context, searcher Searcher, kw models.SearchKeyword) []models.Item {
	if e.browser != nil {
		if err := e.browser.Acquire(ctx); err != nil {
			return nil
		}
		defer e.browser.Release()
	}

	items, err := searcher.Search(ctx, kw.Keyword, kw.Location)
	if err != nil {
		if ctx.Err() == nil {
			e.reportError(fmt.Errorf("search %q on %s: %w", kw.Keyword, searcher.Platform(), err))
		}
		return nil
	}
	return items
}

// storeItems persists filtered items and queues alerts, returning how
// many were stored for the first time.
func (e *Engine) storeItems(items []models.Item, kw models.SearchKeyword, platform enums.Platform) int {
	if len(items) == 0 {
		return 0
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ArticleID)
	}
	existing, err := e.repo.GetExistingArticleIDs(platform, ids, idChunkSize)
	if err != nil {
		slog.Error("prefetch article ids", "platform", platform, "error", err)
		e.reportError(fmt.Errorf("prefetch article ids on %s: %w", platform, err))
		existing = map[string]struct{}{}
	}

	newCount := 0
	for i := range items {
		item := &items[i]

		if _, seen := existing[item.ArticleID]; !seen {
			dup, err := e.repo.IsFuzzyDuplicate(item)
			if err != nil {
				slog.Error("fuzzy duplicate check", "article", item.ArticleID, "error", err)
				e.reportError(fmt.Errorf("fuzzy duplicate check for %s: %w", item.ArticleID, err))
			} else if dup {
				slog.Debug("skipping probable repost", "title", item.Title, "platform", platform)
				continue
			}
		}

		isNew, change, listingID, err := e.repo.AddListing(item)
		if err != nil {
			slog.Error("store listing", "article", item.ArticleID, "error", err)
			e.reportError(fmt.Errorf("store listing %s: %w", item.ArticleID, err))
			continue
		}

		if isNew {
			newCount++
			observability.NewListingsTotal.WithLabelValues(string(platform)).Inc()
			e.notifyNewItem(*item, kw, listingID)
		} else if change != nil {
			observability.PriceChangesTotal.Inc()
			e.notifyPriceChange(*item, kw, listingID, change)
		}
	}
	return newCount
}

func (e *Engine) notifyNewItem(item models.Item, kw models.SearchKeyword, listingID int64) {
	if e.callbacks.OnNewItem != nil {
		e.callbacks.OnNewItem(item, "")
	}
	if !e.shouldNotify(kw) {
		return
	}
	e.queue.Enqueue(job{
		Kind:      jobNewItem,
		Item:      item,
		ListingID: listingID,
	})
}

func (e *Engine) notifyPriceChange(item models.Item, kw models.SearchKeyword, listingID int64, change *repos.PriceChange) {
	note := e.targetPriceNote(listingID, change.NewNumeric)

	if e.callbacks.OnPriceChange != nil {
		e.callbacks.OnPriceChange(item, change.OldPrice, change.NewPrice)
	}
	if !e.shouldNotify(kw) {
		return
	}
	e.queue.Enqueue(job{
		Kind:      jobPriceChange,
		Item:      item,
		Note:      note,
		OldPrice:  change.OldPrice,
		NewPrice:  change.NewPrice,
		ListingID: listingID,
	})
}

// targetPriceNote marks a favorite whose asking price fell to its target.
func (e *Engine) targetPriceNote(listingID int64, newNumeric int) string {
	if listingID <= 0 || newNumeric <= 0 {
		return ""
	}
	fav, err := e.repo.GetFavorite(listingID)
	if err != nil {
		slog.Error("read favorite", "listing", listingID, "error", err)
		return ""
	}
	if fav == nil || fav.TargetPrice <= 0 || newNumeric > fav.TargetPrice {
		return ""
	}
	return fmt.Sprintf("(🎯 목표가 %s 도달!)", price.Format(fav.TargetPrice))
}

func (e *Engine) shouldNotify(kw models.SearchKeyword) bool {
	if e.firstRun {
		return false
	}
	return e.cfg.NotificationsEnabled && kw.NotifyEnabled
}
