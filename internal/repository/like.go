package repository

import (
	"context"

	"tubbit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	// Toggle removes the like if present, otherwise adds it, and reports the resulting state.
	Toggle(ctx context.Context, userID uint, target models.Target) (bool, error)
	TargetExists(ctx context.Context, target models.Target) (bool, error)
	// TargetOwner returns the owner of the liked entity; found is false when it does not exist.
	TargetOwner(ctx context.Context, target models.Target) (ownerID uint, found bool, err error)
	ListLikedVideos(ctx context.Context, userID uint, page, limit int) ([]models.Video, int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository returns a new LikeRepository implementation.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Toggle deletes first; only when nothing was deleted does it insert. The unique
// edge index absorbs a concurrent double insert.
func (r *likeRepository) Toggle(ctx context.Context, userID uint, target models.Target) (bool, error) {
	db := r.db.WithContext(ctx)

	res := db.Where("liked_by_id = ? AND target_type = ? AND target_id = ?", userID, target.Kind, target.ID).
		Delete(&models.Like{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(models.NewLike(userID, target)).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func targetModel(kind models.TargetKind) (interface{}, error) {
	switch kind {
	case models.TargetVideo:
		return &models.Video{}, nil
	case models.TargetTweet:
		return &models.Tweet{}, nil
	case models.TargetComment:
		return &models.Comment{}, nil
	}
	return nil, models.NewValidationError("Unsupported target type")
}

func (r *likeRepository) TargetExists(ctx context.Context, target models.Target) (bool, error) {
	_, found, err := r.TargetOwner(ctx, target)
	return found, err
}

func (r *likeRepository) TargetOwner(ctx context.Context, target models.Target) (uint, bool, error) {
	model, err := targetModel(target.Kind)
	if err != nil {
		return 0, false, err
	}

	var owners []uint
	err = readDB(r.db).WithContext(ctx).Model(model).Where("id = ?", target.ID).Limit(1).Pluck("owner_id", &owners).Error
	if err != nil {
		return 0, false, models.NewInternalError(err)
	}
	if len(owners) == 0 {
		return 0, false, nil
	}
	return owners[0], true, nil
}

// ListLikedVideos returns published videos the user liked, most recently liked first.
func (r *likeRepository) ListLikedVideos(ctx context.Context, userID uint, page, limit int) ([]models.Video, int64, error) {
	_, limit, offset := clampPage(page, limit)

	base := readDB(r.db).WithContext(ctx).Model(&models.Video{}).
		Joins("JOIN likes ON likes.target_type = ? AND likes.target_id = videos.id AND likes.liked_by_id = ?", models.TargetVideo, userID).
		Where("videos.is_published = ?", true)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	videos := []models.Video{}
	err := withVideoDetails(base.Session(&gorm.Session{})).
		Preload("Owner", ownerSummary).
		Order("likes.created_at DESC").
		Order("videos.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&videos).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return videos, total, nil
}
