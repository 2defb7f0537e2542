package database

import "tubbit/internal/models"

// PersistentModels returns the schema-managed models in dependency order.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Video{},
		&models.Tweet{},
		&models.Comment{},
		&models.Like{},
		&models.Subscription{},
		&models.Playlist{},
		&models.PlaylistVideo{},
		&models.WatchHistoryEntry{},
	}
}
