package notifiers

import (
	"context"

	"github.com/sehyunk/jangter/enums"
	"github.com/sehyunk/jangter/models"
)

// Notifier delivers alerts to one chat channel. Send failures are
// returned to the caller; the dispatch queue owns retries.
type Notifier interface {
	Channel() enums.Channel
	SendMessage(ctx context.Context, text string) error
	SendItem(ctx context.Context, item models.Item, note string) error
	SendPriceChange(ctx context.Context, item models.Item, oldPrice, newPrice, note string) error
}
