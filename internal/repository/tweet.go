package repository

import (
	"context"

	"tubbit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TweetRepository defines persistence operations for tweets.
type TweetRepository interface {
	Create(ctx context.Context, tweet *models.Tweet) error
	GetByID(ctx context.Context, id uint) (*models.Tweet, error)
	ListByOwner(ctx context.Context, ownerID uint, includePrivate bool, page, limit int) ([]models.Tweet, int64, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
}

type tweetRepository struct {
	db *gorm.DB
}

// NewTweetRepository returns a new TweetRepository implementation.
func NewTweetRepository(db *gorm.DB) TweetRepository {
	return &tweetRepository{db: db}
}

func withTweetDetails(db *gorm.DB) *gorm.DB {
	return db.Select("tweets.*, (SELECT COUNT(*) FROM likes WHERE likes.target_type = ? AND likes.target_id = tweets.id) AS likes_count",
		models.TargetTweet)
}

func (r *tweetRepository) Create(ctx context.Context, tweet *models.Tweet) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(tweet).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *tweetRepository) GetByID(ctx context.Context, id uint) (*models.Tweet, error) {
	var tweet models.Tweet
	err := withTweetDetails(r.db.WithContext(ctx).Model(&models.Tweet{})).
		Preload("Owner", ownerSummary).
		Where("tweets.id = ?", id).
		First(&tweet).Error
	if err != nil {
		return nil, notFoundOr(err, "Tweet", id)
	}
	return &tweet, nil
}

// ListByOwner returns the owner's tweets newest first. Private tweets are only included on request.
func (r *tweetRepository) ListByOwner(ctx context.Context, ownerID uint, includePrivate bool, page, limit int) ([]models.Tweet, int64, error) {
	_, limit, offset := clampPage(page, limit)

	base := readDB(r.db).WithContext(ctx).Model(&models.Tweet{}).Where("tweets.owner_id = ?", ownerID)
	if !includePrivate {
		base = base.Where("tweets.is_public = ?", true)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	tweets := []models.Tweet{}
	err := withTweetDetails(base.Session(&gorm.Session{})).
		Preload("Owner", ownerSummary).
		Order("tweets.created_at DESC").
		Order("tweets.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&tweets).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return tweets, total, nil
}

func (r *tweetRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Tweet{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Tweet", id)
	}
	return nil
}

// Delete removes the tweet together with its likes, its comments and the likes on those comments.
func (r *tweetRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteWithDependents(tx, models.TweetTarget(id), &models.Tweet{})
	})
}
