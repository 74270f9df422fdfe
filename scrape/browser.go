package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkg/errors"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

// Browser owns the one shared Chrome session all browser-driven scrapers
// compete for. The single-slot semaphore guarantees scrapes never overlap;
// platform order therefore stays strictly sequential.
type Browser struct {
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	slot          chan struct{}
}

// NewBrowser starts a Chrome session with the usual anti-automation
// fingerprints disabled. Failure here is fatal for scraping; the engine
// reports it and stays idle.
func NewBrowser(headless bool) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(browserUserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))

	// Force the browser process to start now so init failure surfaces here.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, errors.Wrap(err, "start browser")
	}

	b := &Browser{
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		slot:          make(chan struct{}, 1),
	}
	slog.Info("shared browser session started", "headless", headless)
	return b, nil
}

// Acquire takes the single scrape slot, blocking until it is free or the
// context is cancelled.
func (b *Browser) Acquire(ctx context.Context) error {
	select {
	case b.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the scrape slot.
func (b *Browser) Release() {
	<-b.slot
}

// Run executes actions in a fresh tab with a deadline, honoring the
// caller's cancellation. The caller must hold the scrape slot.
func (b *Browser) Run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	defer tabCancel()

	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Healthy checks that the browser session still answers. The caller must
// hold the scrape slot.
func (b *Browser) Healthy() bool {
	var one int
	err := b.Run(context.Background(), 5*time.Second, chromedp.Evaluate("1", &one))
	return err == nil && one == 1
}

// EnsureHealthy replaces a dead browser session with a fresh one off the
// same allocator. Chrome sessions expire under long-running polling; the
// engine calls this at the top of every cycle while holding the scrape
// slot, so no scraper can observe the swap mid-flight.
func (b *Browser) EnsureHealthy() error {
	if b.Healthy() {
		return nil
	}

	slog.Warn("browser session unresponsive, restarting")
	b.browserCancel()

	browserCtx, browserCancel := chromedp.NewContext(b.allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		return errors.Wrap(err, "restart browser")
	}

	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	slog.Info("browser session restarted")
	return nil
}

// Close tears the session down, bounded by the timeout. Chrome sometimes
// hangs on shutdown; after the timeout the allocator is cancelled anyway.
func (b *Browser) Close(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		b.browserCancel()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("browser session closed")
	case <-time.After(timeout):
		slog.Warn("browser close timed out, forcing shutdown")
	}
	b.allocCancel()
}
