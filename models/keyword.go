package models

import (
	"strings"
	"time"

	"github.com/sehyunk/jangter/enums"
)

// SearchKeyword is one monitored search with its filters. The engine reads
// these from config every cycle; they are never mutated by the core.
type SearchKeyword struct {
	Keyword         string           `yaml:"keyword"`
	MinPrice        int              `yaml:"min_price"`
	MaxPrice        int              `yaml:"max_price"`
	Location        string           `yaml:"location"`
	ExcludeKeywords []string         `yaml:"exclude_keywords"`
	Platforms       []enums.Platform `yaml:"platforms"`
	Enabled         bool             `yaml:"enabled" env-default:"true"`
	NotifyEnabled   bool             `yaml:"notify_enabled" env-default:"true"`

	// CustomInterval overrides the global check interval for this keyword.
	// Zero means every cycle.
	CustomInterval time.Duration `yaml:"custom_interval"`
}

// TargetPlatforms returns the configured platform set, defaulting to all.
func (k SearchKeyword) TargetPlatforms() []enums.Platform {
	if len(k.Platforms) == 0 {
		return enums.AllPlatforms()
	}
	valid := make([]enums.Platform, 0, len(k.Platforms))
	for _, p := range k.Platforms {
		if p.Valid() {
			valid = append(valid, p)
		}
	}
	return valid
}

// MatchesPrice reports whether the item's parsed price is inside the
// configured bounds. Items with an unknown (zero) price always pass.
func (k SearchKeyword) MatchesPrice(item *Item) bool {
	p := item.NumericPrice()
	if p == 0 {
		return true
	}
	if k.MinPrice > 0 && p < k.MinPrice {
		return false
	}
	if k.MaxPrice > 0 && p > k.MaxPrice {
		return false
	}
	return true
}

// MatchesLocation reports whether the item's location matches the filter.
// Items with an unknown location always pass.
func (k SearchKeyword) MatchesLocation(item *Item) bool {
	if k.Location == "" || item.Location == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Location), strings.ToLower(k.Location))
}

// Due reports whether this keyword should be searched again, given the
// time of its most recent search. A zero lastSearch means never searched.
func (k SearchKeyword) Due(lastSearch time.Time, now time.Time) bool {
	if k.CustomInterval <= 0 || lastSearch.IsZero() {
		return true
	}
	return now.Sub(lastSearch) >= k.CustomInterval
}
