package repository

import (
	"tubbit/internal/models"

	"gorm.io/gorm"
)

// deleteWithDependents removes target and everything hanging off it inside tx:
// likes on the target, comments on it and likes on those comments. Videos also
// leave playlists and watch histories. model is an empty value of the target's type.
func deleteWithDependents(tx *gorm.DB, target models.Target, model interface{}) error {
	if target.Commentable() {
		commentIDs := tx.Model(&models.Comment{}).Select("id").
			Where("target_type = ? AND target_id = ?", target.Kind, target.ID)

		if err := tx.Where("target_type = ? AND target_id IN (?)", models.TargetComment, commentIDs).
			Delete(&models.Like{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("target_type = ? AND target_id = ?", target.Kind, target.ID).
			Delete(&models.Comment{}).Error; err != nil {
			return models.NewInternalError(err)
		}
	}

	if err := tx.Where("target_type = ? AND target_id = ?", target.Kind, target.ID).
		Delete(&models.Like{}).Error; err != nil {
		return models.NewInternalError(err)
	}

	if target.Kind == models.TargetVideo {
		if err := tx.Where("video_id = ?", target.ID).Delete(&models.PlaylistVideo{}).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := tx.Where("video_id = ?", target.ID).Delete(&models.WatchHistoryEntry{}).Error; err != nil {
			return models.NewInternalError(err)
		}
	}

	res := tx.Delete(model, target.ID)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError(kindResource(target.Kind), target.ID)
	}
	return nil
}

func kindResource(kind models.TargetKind) string {
	switch kind {
	case models.TargetVideo:
		return "Video"
	case models.TargetTweet:
		return "Tweet"
	default:
		return "Comment"
	}
}
