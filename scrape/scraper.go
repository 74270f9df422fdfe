// Package scrape contains the platform scrapers and the shared browser
// session they compete for. The engine only ever sees the Safe wrapper:
// retries happen inside, and a total failure is an empty result paired
// with the last error for reporting.
package scrape

import (
	"context"
	"log/slog"
	"time"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
	"github.com/sehyunk/jangter/observability"
)

// Scraper searches one platform. Implementations may fail; the engine
// wraps them in Safe.
type Scraper interface {
	Platform() enums.Platform
	Search(ctx context.Context, keyword, location string) ([]models.Item, error)
}

const (
	safeMaxAttempts = 3
	safeBaseDelay   = time.Second
)

// Safe decorates a Scraper with bounded retry. Total failure is counted
// and reported, never propagated as a panic or a cycle abort.
type Safe struct {
	inner Scraper
}

func NewSafe(inner Scraper) *Safe {
	return &Safe{inner: inner}
}

func (s *Safe) Platform() enums.Platform {
	return s.inner.Platform()
}

// Search retries the wrapped scraper with doubling delays. An exhausted
// search comes back as an empty slice plus the last error, so the caller
// can surface the failure without unwinding the cycle.
func (s *Safe) Search(ctx context.Context, keyword, location string) ([]models.Item, error) {
	delay := safeBaseDelay
	var lastErr error

	for attempt := 1; attempt <= safeMaxAttempts; attempt++ {
		items, err := s.inner.Search(ctx, keyword, location)
		if err == nil {
			return items, nil
		}
		lastErr = err

		if attempt < safeMaxAttempts {
			slog.Warn("search failed, retrying",
				"platform", s.Platform(), "keyword", keyword,
				"attempt", attempt, "delay", delay, "error", err)
			select {
			case <-ctx.Done():
				slog.Warn("search cancelled during retry", "platform", s.Platform(), "keyword", keyword)
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	observability.ScrapeErrorsTotal.WithLabelValues(string(s.Platform())).Inc()
	slog.Error("search failed after all attempts",
		"platform", s.Platform(), "keyword", keyword,
		"attempts", safeMaxAttempts, "error", lastErr)
	return nil, lastErr
}
