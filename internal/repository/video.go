package repository

import (
	"context"
	"strings"

	"tubbit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VideoSearch selects a page of videos.
type VideoSearch struct {
	// Terms are matched literally and case-insensitively against title or description;
	// a video matches when any term matches. Empty means no text filter.
	Terms   []string
	OwnerID uint
	// IncludeUnpublished lifts the published-only filter (owner dashboard).
	IncludeUnpublished bool
	SortBy             models.VideoSortField
	Desc               bool
	Page               int
	Limit              int
}

// VideoRepository defines persistence operations for videos.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id uint) (*models.Video, error)
	Search(ctx context.Context, q VideoSearch) ([]models.Video, int64, error)
	IncrementViews(ctx context.Context, id uint) error
	Update(ctx context.Context, video *models.Video) error
	SetPublished(ctx context.Context, id uint, published bool) error
	Delete(ctx context.Context, id uint) error
}

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository returns a new VideoRepository implementation.
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(video).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// withVideoDetails selects the live likes count next to the video columns.
func withVideoDetails(db *gorm.DB) *gorm.DB {
	return db.Select("videos.*, (SELECT COUNT(*) FROM likes WHERE likes.target_type = ? AND likes.target_id = videos.id) AS likes_count",
		models.TargetVideo)
}

func (r *videoRepository) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	err := withVideoDetails(r.db.WithContext(ctx).Model(&models.Video{})).
		Preload("Owner", ownerSummary).
		Where("videos.id = ?", id).
		First(&video).Error
	if err != nil {
		return nil, notFoundOr(err, "Video", id)
	}
	return &video, nil
}

// Search counts and loads one page of matches ordered by the sort key, ties by id ascending.
func (r *videoRepository) Search(ctx context.Context, q VideoSearch) ([]models.Video, int64, error) {
	column, ok := q.SortBy.Column()
	if !ok {
		return nil, 0, models.NewValidationError("Invalid sortBy field")
	}
	_, limit, offset := clampPage(q.Page, q.Limit)

	base := readDB(r.db).WithContext(ctx).Model(&models.Video{}).Scopes(videoFilter(q))

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if total == 0 || int64(offset) >= total {
		return []models.Video{}, total, nil
	}

	direction := "ASC"
	if q.Desc {
		direction = "DESC"
	}

	var videos []models.Video
	err := withVideoDetails(base.Session(&gorm.Session{})).
		Preload("Owner", ownerSummary).
		Order(column + " " + direction).
		Order("videos.id ASC").
		Limit(limit).
		Offset(offset).
		Find(&videos).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return videos, total, nil
}

func videoFilter(q VideoSearch) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !q.IncludeUnpublished {
			db = db.Where("videos.is_published = ?", true)
		}
		if q.OwnerID != 0 {
			db = db.Where("videos.owner_id = ?", q.OwnerID)
		}

		var (
			clauses []string
			args    []interface{}
		)
		for _, term := range q.Terms {
			if strings.TrimSpace(term) == "" {
				continue
			}
			p := containsPattern(term)
			clauses = append(clauses, `(LOWER(videos.title) LIKE ? ESCAPE '\' OR LOWER(videos.description) LIKE ? ESCAPE '\')`)
			args = append(args, p, p)
		}
		if len(clauses) > 0 {
			db = db.Where("("+strings.Join(clauses, " OR ")+")", args...)
		}
		return db
	}
}

func (r *videoRepository) IncrementViews(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Video", id)
	}
	return nil
}

func (r *videoRepository) Update(ctx context.Context, video *models.Video) error {
	err := r.db.WithContext(ctx).Model(video).Omit(clause.Associations).
		Select("title", "description", "thumbnail", "thumbnail_public_id", "is_published", "updated_at").
		Updates(video).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *videoRepository) SetPublished(ctx context.Context, id uint, published bool) error {
	res := r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).Update("is_published", published)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Video", id)
	}
	return nil
}

// Delete removes the video together with its likes, its comments and the likes on those comments.
func (r *videoRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteWithDependents(tx, models.VideoTarget(id), &models.Video{})
	})
}
