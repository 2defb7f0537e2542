package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"tubbit/internal/featureflags"
	"tubbit/internal/models"
	"tubbit/internal/observability"
	"tubbit/internal/repository"
	"tubbit/internal/storage"
)

const maxVideoTitleLen = 200

type VideoService struct {
	videoRepo   repository.VideoRepository
	historyRepo repository.WatchHistoryRepository
	uploader    *storage.Uploader
	flags       *featureflags.Manager
	now         func() time.Time
}

type PublishVideoInput struct {
	OwnerID     uint
	Title       string
	Description string
	Video       storage.File
	Thumbnail   storage.File
}

type UpdateVideoInput struct {
	UserID      uint
	VideoID     uint
	Title       string
	Description string
	Thumbnail   *storage.File
}

// SearchVideosInput carries raw query parameters; SortBy and SortType are validated here.
type SearchVideosInput struct {
	Query    string
	SortBy   string
	SortType string
	UserID   uint
	Page     int
	Limit    int
}

func NewVideoService(
	videoRepo repository.VideoRepository,
	historyRepo repository.WatchHistoryRepository,
	uploader *storage.Uploader,
	flags *featureflags.Manager,
) *VideoService {
	return &VideoService{
		videoRepo:   videoRepo,
		historyRepo: historyRepo,
		uploader:    uploader,
		flags:       flags,
		now:         time.Now,
	}
}

func validateVideoText(title, description string) error {
	if title == "" || description == "" {
		return models.NewValidationError("Title and description are required")
	}
	if len([]rune(title)) > maxVideoTitleLen {
		return models.NewValidationError("Title too long (max 200 characters)")
	}
	return nil
}

// PublishVideo uploads the video and thumbnail and creates a published video.
// Nothing is created when either upload fails.
func (s *VideoService) PublishVideo(ctx context.Context, in PublishVideoInput) (*models.Video, error) {
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if err := validateVideoText(title, description); err != nil {
		return nil, err
	}

	file, err := s.uploader.UploadVideo(ctx, in.Video)
	if err != nil {
		return nil, uploadError("Video", err)
	}
	thumb, err := s.uploader.UploadImage(ctx, storage.FolderThumbnails, in.Thumbnail)
	if err != nil {
		s.uploader.Remove(ctx, file.PublicID)
		return nil, uploadError("Thumbnail", err)
	}

	video := &models.Video{
		VideoFile:         file.URL,
		VideoFilePublicID: file.PublicID,
		Thumbnail:         thumb.URL,
		ThumbnailPublicID: thumb.PublicID,
		Title:             title,
		Description:       description,
		Duration:          file.Duration,
		IsPublished:       true,
		OwnerID:           in.OwnerID,
	}
	if err := s.videoRepo.Create(ctx, video); err != nil {
		s.uploader.Remove(ctx, file.PublicID, thumb.PublicID)
		return nil, err
	}
	return s.videoRepo.GetByID(ctx, video.ID)
}

// GetVideo counts a view and, for signed-in viewers, records it in their
// watch history. Unpublished videos are visible to their owner only.
func (s *VideoService) GetVideo(ctx context.Context, videoID, viewerID uint) (*models.Video, error) {
	if videoID == 0 {
		return nil, models.NewValidationError("Invalid video ID")
	}
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.IsPublished && video.OwnerID != viewerID {
		return nil, models.NewNotFoundError("Video", videoID)
	}

	if err := s.videoRepo.IncrementViews(ctx, videoID); err != nil {
		return nil, err
	}
	video.Views++

	if viewerID != 0 {
		trimmed, err := s.historyRepo.Record(ctx, viewerID, videoID, s.now())
		if err != nil {
			slog.WarnContext(ctx, "failed to record watch history", "video_id", videoID, "err", err)
		} else if trimmed > 0 {
			observability.WatchHistoryTrimmed.Add(float64(trimmed))
		}
	}
	return video, nil
}

// SearchVideos runs the literal query first. When nothing at all matches a
// non-empty query, it retries with any of the query's words and marks the
// page as related results.
func (s *VideoService) SearchVideos(ctx context.Context, in SearchVideosInput) (*models.VideoPage, error) {
	sortBy := models.VideoSortField(in.SortBy)
	if in.SortBy == "" {
		sortBy = models.SortByCreatedAt
	}
	if _, ok := sortBy.Column(); !ok {
		return nil, models.NewValidationError("Invalid sortBy field. Allowed: views, createdAt, likes")
	}
	var desc bool
	switch strings.ToLower(in.SortType) {
	case "", "desc":
		desc = true
	case "asc":
	default:
		return nil, models.NewValidationError("Invalid sortType. Allowed: asc, desc")
	}

	page, limit := pageParams(in.Page, in.Limit)

	query := strings.TrimSpace(in.Query)
	search := repository.VideoSearch{
		OwnerID: in.UserID,
		SortBy:  sortBy,
		Desc:    desc,
		Page:    page,
		Limit:   limit,
	}
	if query != "" {
		search.Terms = []string{query}
	}

	docs, total, err := s.videoRepo.Search(ctx, search)
	if err != nil {
		return nil, err
	}
	if total > 0 || query == "" || !s.flags.Enabled(featureflags.SearchFallback, 0) {
		observability.SearchRequests.WithLabelValues("exact").Inc()
		return models.NewVideoPage(docs, total, page, limit), nil
	}

	search.Terms = strings.Fields(query)
	docs, total, err = s.videoRepo.Search(ctx, search)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		observability.SearchRequests.WithLabelValues("none").Inc()
		return nil, models.NewNotFoundMessage("No videos found")
	}
	observability.SearchRequests.WithLabelValues("related").Inc()
	result := models.NewVideoPage(docs, total, page, limit)
	result.Related = true
	return result, nil
}

// UpdateVideo edits title, description and optionally the thumbnail. The
// replaced thumbnail is deleted from storage after the update succeeds.
func (s *VideoService) UpdateVideo(ctx context.Context, in UpdateVideoInput) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, in.VideoID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(video.OwnerID, in.UserID, "update this video"); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	if err := validateVideoText(title, description); err != nil {
		return nil, err
	}
	video.Title = title
	video.Description = description

	var oldThumb string
	if in.Thumbnail != nil {
		thumb, err := s.uploader.UploadImage(ctx, storage.FolderThumbnails, *in.Thumbnail)
		if err != nil {
			return nil, uploadError("Thumbnail", err)
		}
		oldThumb = video.ThumbnailPublicID
		video.Thumbnail, video.ThumbnailPublicID = thumb.URL, thumb.PublicID
	}

	if err := s.videoRepo.Update(ctx, video); err != nil {
		if in.Thumbnail != nil {
			s.uploader.Remove(ctx, video.ThumbnailPublicID)
		}
		return nil, err
	}
	s.uploader.Remove(ctx, oldThumb)
	return s.videoRepo.GetByID(ctx, video.ID)
}

// DeleteVideo removes the video with its likes and comments, then its media.
func (s *VideoService) DeleteVideo(ctx context.Context, userID, videoID uint) error {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if err := requireOwner(video.OwnerID, userID, "delete this video"); err != nil {
		return err
	}
	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return err
	}
	s.uploader.Remove(ctx, video.VideoFilePublicID, video.ThumbnailPublicID)
	return nil
}

// TogglePublishStatus flips whether the video is publicly listed.
func (s *VideoService) TogglePublishStatus(ctx context.Context, userID, videoID uint) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(video.OwnerID, userID, "change this video"); err != nil {
		return nil, err
	}
	if err := s.videoRepo.SetPublished(ctx, videoID, !video.IsPublished); err != nil {
		return nil, err
	}
	video.IsPublished = !video.IsPublished
	return video, nil
}
