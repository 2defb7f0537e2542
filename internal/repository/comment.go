package repository

import (
	"context"

	"tubbit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines persistence operations for comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	ListByTarget(ctx context.Context, target models.Target, page, limit int) ([]models.Comment, int64, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository returns a new CommentRepository implementation.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func withCommentDetails(db *gorm.DB) *gorm.DB {
	return db.Select("comments.*, (SELECT COUNT(*) FROM likes WHERE likes.target_type = ? AND likes.target_id = comments.id) AS likes_count",
		models.TargetComment)
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := withCommentDetails(r.db.WithContext(ctx).Model(&models.Comment{})).
		Preload("Owner", ownerSummary).
		Where("comments.id = ?", id).
		First(&comment).Error
	if err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

// ListByTarget pages through a target's comments newest first.
func (r *commentRepository) ListByTarget(ctx context.Context, target models.Target, page, limit int) ([]models.Comment, int64, error) {
	_, limit, offset := clampPage(page, limit)

	base := readDB(r.db).WithContext(ctx).Model(&models.Comment{}).
		Where("comments.target_type = ? AND comments.target_id = ?", target.Kind, target.ID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	comments := []models.Comment{}
	err := withCommentDetails(base.Session(&gorm.Session{})).
		Preload("Owner", ownerSummary).
		Order("comments.created_at DESC").
		Order("comments.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{}).Where("id = ?", id).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

// Delete removes the comment and the likes on it.
func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteWithDependents(tx, models.CommentTarget(id), &models.Comment{})
	})
}
