package service

import (
	"context"

	"tubbit/internal/models"
	"tubbit/internal/repository"
)

type DashboardService struct {
	dashboardRepo repository.DashboardRepository
	videoRepo     repository.VideoRepository
}

func NewDashboardService(dashboardRepo repository.DashboardRepository, videoRepo repository.VideoRepository) *DashboardService {
	return &DashboardService{dashboardRepo: dashboardRepo, videoRepo: videoRepo}
}

func (s *DashboardService) GetChannelStats(ctx context.Context, ownerID uint) (*models.ChannelStats, error) {
	return s.dashboardRepo.ChannelStats(ctx, ownerID)
}

// GetChannelVideos lists the owner's videos newest first, unpublished included.
func (s *DashboardService) GetChannelVideos(ctx context.Context, ownerID uint, page, limit int) (*models.VideoPage, error) {
	page, limit = pageParams(page, limit)
	videos, total, err := s.videoRepo.Search(ctx, repository.VideoSearch{
		OwnerID:            ownerID,
		IncludeUnpublished: true,
		SortBy:             models.SortByCreatedAt,
		Desc:               true,
		Page:               page,
		Limit:              limit,
	})
	if err != nil {
		return nil, err
	}
	return models.NewVideoPage(videos, total, page, limit), nil
}
