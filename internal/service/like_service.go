package service

import (
	"context"

	"tubbit/internal/models"
	"tubbit/internal/notifications"
	"tubbit/internal/repository"
)

type LikeService struct {
	likeRepo repository.LikeRepository
	notifier EventNotifier
}

func NewLikeService(likeRepo repository.LikeRepository, notifier EventNotifier) *LikeService {
	return &LikeService{likeRepo: likeRepo, notifier: notifierOrNoop(notifier)}
}

// ToggleLike likes target or takes an existing like back. The content owner
// is notified of new likes.
func (s *LikeService) ToggleLike(ctx context.Context, userID uint, target models.Target) (*models.ToggleResult, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	ownerID, found, err := s.likeRepo.TargetOwner(ctx, target)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, models.NewNotFoundError(kindLabel(target.Kind), target.ID)
	}

	liked, err := s.likeRepo.Toggle(ctx, userID, target)
	if err != nil {
		return nil, err
	}
	if liked {
		s.notifier.Notify(ctx, ownerID, notifications.Liked(userID, target))
	}
	return &models.ToggleResult{Active: liked}, nil
}

// ListLikedVideos pages through the published videos userID liked.
func (s *LikeService) ListLikedVideos(ctx context.Context, userID uint, page, limit int) (*models.VideoPage, error) {
	page, limit = pageParams(page, limit)
	videos, total, err := s.likeRepo.ListLikedVideos(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	return models.NewVideoPage(videos, total, page, limit), nil
}

func kindLabel(kind models.TargetKind) string {
	switch kind {
	case models.TargetVideo:
		return "Video"
	case models.TargetTweet:
		return "Tweet"
	case models.TargetComment:
		return "Comment"
	}
	return string(kind)
}
