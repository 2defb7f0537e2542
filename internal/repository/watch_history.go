package repository

import (
	"context"
	"time"

	"tubbit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WatchHistoryRepository maintains each user's bounded, most-recent-first watch log.
type WatchHistoryRepository interface {
	// Record moves videoID to the front of the user's history at the given time and
	// evicts entries beyond models.MaxWatchHistory. It returns the number evicted.
	Record(ctx context.Context, userID, videoID uint, at time.Time) (int64, error)
	// List returns the history newest first; entries whose video is gone are omitted.
	List(ctx context.Context, userID uint) ([]models.WatchHistoryEntry, error)
}

type watchHistoryRepository struct {
	db *gorm.DB
}

// NewWatchHistoryRepository returns a new WatchHistoryRepository implementation.
func NewWatchHistoryRepository(db *gorm.DB) WatchHistoryRepository {
	return &watchHistoryRepository{db: db}
}

func (r *watchHistoryRepository) Record(ctx context.Context, userID, videoID uint, at time.Time) (int64, error) {
	if videoID == 0 {
		return 0, models.NewValidationError("Video ID is required")
	}

	var trimmed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&users).Error; err != nil {
			return models.NewInternalError(err)
		}
		if users == 0 {
			return models.NewNotFoundError("User", userID)
		}

		entry := &models.WatchHistoryEntry{UserID: userID, VideoID: videoID, WatchedAt: at}
		err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"watched_at"}),
		}).Create(entry).Error
		if err != nil {
			return models.NewInternalError(err)
		}

		keep := tx.Model(&models.WatchHistoryEntry{}).Select("id").
			Where("user_id = ?", userID).
			Order("watched_at DESC").
			Order("id DESC").
			Limit(models.MaxWatchHistory)
		res := tx.Where("user_id = ? AND id NOT IN (?)", userID, keep).Delete(&models.WatchHistoryEntry{})
		if res.Error != nil {
			return models.NewInternalError(res.Error)
		}
		trimmed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return trimmed, nil
}

func (r *watchHistoryRepository) List(ctx context.Context, userID uint) ([]models.WatchHistoryEntry, error) {
	entries := []models.WatchHistoryEntry{}
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN videos ON videos.id = watch_history.video_id").
		Preload("Video", withVideoDetails).
		Preload("Video.Owner", ownerSummary).
		Where("watch_history.user_id = ?", userID).
		Order("watch_history.watched_at DESC").
		Order("watch_history.id DESC").
		Limit(models.MaxWatchHistory).
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}
