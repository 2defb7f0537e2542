package service

import (
	"context"
	"strings"

	"tubbit/internal/models"
	"tubbit/internal/repository"
	"tubbit/internal/storage"
	"tubbit/internal/validation"
)

// UserService serves profile reads and edits that do not touch credentials.
type UserService struct {
	userRepo    repository.UserRepository
	historyRepo repository.WatchHistoryRepository
	uploader    *storage.Uploader
}

type UpdateAccountInput struct {
	UserID   uint
	Fullname string
	Email    string
}

func NewUserService(
	userRepo repository.UserRepository,
	historyRepo repository.WatchHistoryRepository,
	uploader *storage.Uploader,
) *UserService {
	return &UserService{userRepo: userRepo, historyRepo: historyRepo, uploader: uploader}
}

func (s *UserService) GetCurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// UpdateAccountDetails changes fullname and email. Both are required.
func (s *UserService) UpdateAccountDetails(ctx context.Context, in UpdateAccountInput) (*models.User, error) {
	fullname := strings.TrimSpace(in.Fullname)
	email := models.NormalizeEmail(in.Email)
	if fullname == "" || email == "" {
		return nil, models.NewValidationError("Fullname and email are required")
	}
	if err := validation.ValidateFullname(fullname); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.userRepo.UpdateFields(ctx, in.UserID, map[string]interface{}{
		"fullname": fullname,
		"email":    email,
	}); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, in.UserID)
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, file storage.File) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, storage.FolderAvatars, "Avatar", "avatar", "avatar_public_id",
		func(u *models.User) string { return u.AvatarPublicID })
}

func (s *UserService) UpdateCoverImage(ctx context.Context, userID uint, file storage.File) (*models.User, error) {
	return s.replaceImage(ctx, userID, file, storage.FolderCovers, "Cover image", "cover_image", "cover_image_public_id",
		func(u *models.User) string { return u.CoverImagePublicID })
}

// replaceImage uploads the new image, points the user at it and then deletes
// the previous asset. A failed update removes the new upload instead.
func (s *UserService) replaceImage(
	ctx context.Context,
	userID uint,
	file storage.File,
	folder, label, urlColumn, idColumn string,
	previous func(*models.User) string,
) (*models.User, error) {
	current, err := s.userRepo.GetByIDWithSecrets(ctx, userID)
	if err != nil {
		return nil, err
	}

	asset, err := s.uploader.UploadImage(ctx, folder, file)
	if err != nil {
		return nil, uploadError(label, err)
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{
		urlColumn: asset.URL,
		idColumn:  asset.PublicID,
	}); err != nil {
		s.uploader.Remove(ctx, asset.PublicID)
		return nil, err
	}
	s.uploader.Remove(ctx, previous(current))
	return s.userRepo.GetByID(ctx, userID)
}

// GetChannelProfile returns username's channel with live subscription counts
// relative to viewerID (0 for anonymous).
func (s *UserService) GetChannelProfile(ctx context.Context, username string, viewerID uint) (*models.ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return nil, models.NewValidationError("Username is missing")
	}
	return s.userRepo.GetChannelProfile(ctx, username, viewerID)
}

// GetWatchHistory lists the user's most recently watched videos.
func (s *UserService) GetWatchHistory(ctx context.Context, userID uint) ([]models.WatchHistoryEntry, error) {
	return s.historyRepo.List(ctx, userID)
}
