// Package notifiers delivers listing alerts to chat channels. All three
// channels share the same Korean message layout; only transport differs.
package notifiers

import (
	"fmt"
	"strings"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
	"github.com/sehyunk/jangter/price"
)

func platformEmoji(p enums.Platform) string {
	switch p {
	case enums.PlatformDanggeun:
		return "🥕"
	case enums.PlatformBunjang:
		return "⚡"
	case enums.PlatformJoonggonara:
		return "🛒"
	default:
		return "🔔"
	}
}

func platformLabel(p enums.Platform) string {
	switch p {
	case enums.PlatformDanggeun:
		return "당근마켓"
	case enums.PlatformBunjang:
		return "번개장터"
	case enums.PlatformJoonggonara:
		return "중고나라"
	default:
		return string(p)
	}
}

// FormatItem renders a new-listing alert. An optional note is appended
// to the price line, used for target price hits.
func FormatItem(item models.Item, note string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s 새 매물\n\n", platformEmoji(item.Platform), platformLabel(item.Platform))
	fmt.Fprintf(&b, "🔍 키워드: %s\n", item.Keyword)
	fmt.Fprintf(&b, "📌 제목: %s\n", item.Title)

	priceLine := item.Price
	if note != "" {
		priceLine += " " + note
	}
	fmt.Fprintf(&b, "💰 가격: %s\n", priceLine)

	if item.Location != "" {
		fmt.Fprintf(&b, "📍 지역: %s\n", item.Location)
	}
	if item.Seller != "" {
		fmt.Fprintf(&b, "👤 판매자: %s\n", item.Seller)
	}
	fmt.Fprintf(&b, "\n🔗 %s", item.URL)

	return b.String()
}

// FormatPriceChange renders a price change alert for a listing that was
// already seen. The note marks a favorite reaching its target price.
func FormatPriceChange(item models.Item, oldPrice, newPrice, note string) string {
	arrow := "📉 가격 인하"
	if isIncrease(oldPrice, newPrice) {
		arrow = "📈 가격 인상"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\n\n", platformEmoji(item.Platform), platformLabel(item.Platform), arrow)
	fmt.Fprintf(&b, "📌 제목: %s\n", item.Title)
	priceLine := oldPrice + " → " + newPrice
	if note != "" {
		priceLine += " " + note
	}
	fmt.Fprintf(&b, "💰 %s\n", priceLine)
	if item.Keyword != "" {
		fmt.Fprintf(&b, "🔍 키워드: %s\n", item.Keyword)
	}
	fmt.Fprintf(&b, "\n🔗 %s", item.URL)

	return b.String()
}

func isIncrease(oldPrice, newPrice string) bool {
	oldN := price.Parse(oldPrice)
	newN := price.Parse(newPrice)
	return oldN > 0 && newN > oldN
}
