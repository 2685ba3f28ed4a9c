package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/siddhasavor/backend/internal/models"
	"gorm.io/gorm"
)

// PurgeOlderThan deletes system_logs recorded before now-retention.
func PurgeOlderThan(db *gorm.DB, retention time.Duration, now time.Time) (int64, error) {
	cutoff := now.Add(-retention)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	return result.RowsAffected, result.Error
}

// StartCleanup purges old system_logs once a day until ctx is cancelled.
func StartCleanup(ctx context.Context, db *gorm.DB, retention time.Duration) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleted, err := PurgeOlderThan(db, retention, time.Now().UTC())
				if err != nil {
					slog.Error("log cleanup failed", "action", "logs.cleanup", "error", err)
				} else if deleted > 0 {
					slog.Info("log cleanup completed", "deleted", deleted)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
