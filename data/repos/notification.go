package repos

import (
	"fmt"
	"time"

	"github.com/sehyunk/jangter/data"
	"github.com/sehyunk/jangter/enums"
)

// LogNotification records one confirmed successful delivery.
func (r *ListingRepo) LogNotification(listingID int64, channel enums.Channel, preview string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`
		INSERT INTO notification_log (listing_id, channel, message_preview, sent_at)
		VALUES (?, ?, ?, ?)`,
		listingID, channel, preview, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("log notification: %w", err)
	}
	r.invalidateCache()
	return nil
}

// GetNotificationLogs returns delivery log entries, newest first.
func (r *ListingRepo) GetNotificationLogs(limit, offset int) ([]data.NotificationLogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	var logs []data.NotificationLogEntry
	err := r.db.Select(&logs, `
		SELECT * FROM notification_log
		ORDER BY sent_at DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("get notification logs: %w", err)
	}
	return logs, nil
}
