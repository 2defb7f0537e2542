package models

import "time"

// MaxWatchHistory is the number of entries retained per user.
const MaxWatchHistory = 100

// WatchHistoryEntry records the last time a user watched a video.
// (user_id, video_id) is unique; older entries beyond MaxWatchHistory are trimmed.
type WatchHistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_watch_history_user_video;index:idx_watch_history_user_time" json:"userId"`
	VideoID   uint      `gorm:"not null;uniqueIndex:idx_watch_history_user_video" json:"videoId"`
	WatchedAt time.Time `gorm:"not null;index:idx_watch_history_user_time" json:"watchedAt"`
	Video     *Video    `gorm:"foreignKey:VideoID;-:migration" json:"video,omitempty"`
}

// TableName specifies the table name for GORM.
func (WatchHistoryEntry) TableName() string {
	return "watch_history"
}
