package repository

import (
	"context"
	"errors"

	"tubbit/internal/cache"
	"tubbit/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// GetByID is cached; the returned user carries no credential fields.
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByIDWithSecrets bypasses the cache and loads password and refresh token.
	GetByIDWithSecrets(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SetRefreshToken(ctx context.Context, id uint, token string) error
	GetChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, cache.UserKey(id), &user, cache.UserTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&user, id).Error; err != nil {
			return notFoundOr(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByIDWithSecrets(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFoundOr(err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no user matches.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email = ?", models.NormalizeEmail(email))
}

// GetByUsername returns nil, nil when no user matches.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username = ?", models.NormalizeUsername(username))
}

// GetByEmailOrUsername matches either identifier; empty ones are ignored.
func (r *userRepository) GetByEmailOrUsername(ctx context.Context, email, username string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	username = models.NormalizeUsername(username)
	switch {
	case email != "" && username != "":
		return r.findOne(ctx, "email = ? OR username = ?", email, username)
	case email != "":
		return r.findOne(ctx, "email = ?", email)
	case username != "":
		return r.findOne(ctx, "username = ?", username)
	}
	return nil, nil
}

func (r *userRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("User with this email or username already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email or username already in use")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

// UpdateFields applies a partial update by column name.
func (r *userRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.User{ID: id}).Updates(fields)
	if res.Error != nil {
		if isUniqueConstraintError(res.Error) {
			return models.NewConflictError("Email or username already in use")
		}
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	cache.InvalidateUser(ctx, id)
	return nil
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id uint, token string) error {
	err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		UpdateColumn("refresh_token", token).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetChannelProfile loads the public profile of username with live subscription counts.
// viewerID 0 means anonymous, which always yields IsSubscribed=false.
func (r *userRepository) GetChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	username = models.NormalizeUsername(username)
	if username == "" {
		return nil, models.NewValidationError("Username is required")
	}

	var profile models.ChannelProfile
	res := readDB(r.db).WithContext(ctx).
		Model(&models.User{}).
		Select(`users.id, users.username, users.fullname, users.email, users.avatar, users.cover_image, users.created_at,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.channel_id = users.id) AS subscribers_count,
			(SELECT COUNT(*) FROM subscriptions s WHERE s.subscriber_id = users.id) AS subscribed_to_count,
			EXISTS(SELECT 1 FROM subscriptions s WHERE s.channel_id = users.id AND s.subscriber_id = ?) AS is_subscribed`, viewerID).
		Where("users.username = ?", username).
		Limit(1).
		Scan(&profile)
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, models.NewNotFoundMessage("Channel does not exist")
	}
	return &profile, nil
}
