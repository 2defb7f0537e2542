package server

import (
	"strconv"

	"tubbit/internal/models"
	"tubbit/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchVideos lists published videos
// @Summary Search videos
// @Description Case-insensitive match on title and description. When nothing matches a non-empty query, any of its words are tried and the page is marked related.
// @Tags videos
// @Produce json
// @Param query query string false "Search text"
// @Param sortBy query string false "views, createdAt or likes"
// @Param sortType query string false "asc or desc"
// @Param userId query int false "Only this owner's videos"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} models.ApiResponse{data=models.VideoPage}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /videos [get]
func (s *Server) SearchVideos(c *fiber.Ctx) error {
	p := parsePagination(c, 10)
	var ownerID uint64
	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid user ID"))
		}
		ownerID = id
	}

	page, err := s.videoService.SearchVideos(c.UserContext(), service.SearchVideosInput{
		Query:    c.Query("query"),
		SortBy:   c.Query("sortBy"),
		SortType: c.Query("sortType"),
		UserID:   uint(ownerID),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		return respondError(c, err)
	}
	message := "Videos fetched successfully"
	if page.Related {
		message = "No exact matches, showing related videos"
	}
	return models.Respond(c, fiber.StatusOK, page, message)
}

// PublishVideo uploads a video with its thumbnail
// @Summary Publish a video
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param videoFile formData file true "Video file"
// @Param thumbnail formData file true "Thumbnail image"
// @Success 201 {object} models.ApiResponse{data=models.Video}
// @Failure 400 {object} models.ErrorResponse
// @Router /videos [post]
func (s *Server) PublishVideo(c *fiber.Ctx) error {
	video, closeVideo, err := formFile(c, "videoFile")
	if err != nil {
		return respondError(c, err)
	}
	defer closeVideo()
	thumb, closeThumb, err := formFile(c, "thumbnail")
	if err != nil {
		return respondError(c, err)
	}
	defer closeThumb()

	created, err := s.videoService.PublishVideo(c.UserContext(), service.PublishVideoInput{
		OwnerID:     currentUserID(c),
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Video:       fileOrEmpty(video),
		Thumbnail:   fileOrEmpty(thumb),
	})
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusCreated, created, "Video published successfully")
}

// GetVideo returns one video and counts the view
// @Summary Get a video
// @Description Increments the view counter and, for signed-in viewers, records the video in their watch history.
// @Tags videos
// @Produce json
// @Param videoId path int true "Video ID"
// @Success 200 {object} models.ApiResponse{data=models.Video}
// @Failure 404 {object} models.ErrorResponse
// @Router /videos/{videoId} [get]
func (s *Server) GetVideo(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}
	video, err := s.videoService.GetVideo(c.UserContext(), videoID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, video, "Video fetched successfully")
}

// UpdateVideo edits a video's details (owner only)
// @Summary Update a video
// @Tags videos
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param videoId path int true "Video ID"
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param thumbnail formData file false "New thumbnail"
// @Success 200 {object} models.ApiResponse{data=models.Video}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /videos/{videoId} [patch]
func (s *Server) UpdateVideo(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}
	var req struct {
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	thumb, closeThumb, err := formFile(c, "thumbnail")
	if err != nil {
		return respondError(c, err)
	}
	defer closeThumb()

	updated, err := s.videoService.UpdateVideo(c.UserContext(), service.UpdateVideoInput{
		UserID:      currentUserID(c),
		VideoID:     videoID,
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   thumb,
	})
	if err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, updated, "Video updated successfully")
}

// DeleteVideo removes a video with its comments and likes (owner only)
// @Summary Delete a video
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param videoId path int true "Video ID"
// @Success 200 {object} models.ApiResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /videos/{videoId} [delete]
func (s *Server) DeleteVideo(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}
	if err := s.videoService.DeleteVideo(c.UserContext(), currentUserID(c), videoID); err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, fiber.Map{}, "Video deleted successfully")
}

// TogglePublishStatus flips a video between published and unpublished (owner only)
// @Summary Toggle publish status
// @Tags videos
// @Produce json
// @Security BearerAuth
// @Param videoId path int true "Video ID"
// @Success 200 {object} models.ApiResponse{data=models.Video}
// @Failure 403 {object} models.ErrorResponse
// @Router /videos/toggle/publish/{videoId} [patch]
func (s *Server) TogglePublishStatus(c *fiber.Ctx) error {
	videoID, err := s.parseID(c, "videoId")
	if err != nil {
		return nil
	}
	video, err := s.videoService.TogglePublishStatus(c.UserContext(), currentUserID(c), videoID)
	if err != nil {
		return respondOwnerError(c, err)
	}
	return models.Respond(c, fiber.StatusOK, video, "Publish status updated")
}
